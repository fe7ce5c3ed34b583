package openai

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/joseph-ayodele/resume-ingest/internal/common"
)

const (
	DefaultBaseURL = "https://api.deepseek.com/v1"
	DefaultModel   = "deepseek-chat"
)

// Config for an OpenAI-compatible chat/completions endpoint. DeepSeek is the default.
type Config struct {
	APIKey  string
	BaseURL string        // default https://api.deepseek.com/v1
	Model   string        // default deepseek-chat
	Timeout time.Duration // transport timeout; the parser applies its own hard bound
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

// NewClient fails when no API key is configured.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, common.NewAppError(common.CodeParsingFailed, "openai-compatible API key is not configured", common.ErrInvalidInput)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}, nil
}
