package providers

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/resume-ingest/internal/common"
	"github.com/joseph-ayodele/resume-ingest/internal/llm"
	"github.com/joseph-ayodele/resume-ingest/internal/llm/gemini"
	"github.com/joseph-ayodele/resume-ingest/internal/llm/openai"
)

// NewCompleter builds the one completer selected by cfg.Provider.
func NewCompleter(ctx context.Context, cfg common.LLMConfig, logger *slog.Logger) (llm.Completer, error) {
	switch cfg.Provider {
	case "", "openai":
		c, err := openai.NewClient(openai.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout + cfg.Timeout/2,
		}, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "gemini":
		c, err := gemini.NewClient(ctx, gemini.Config{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		}, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, common.NewAppError(common.CodeConfig, "unknown LLM_PROVIDER "+cfg.Provider, common.ErrInvalidInput)
	}
}

// NewParser wires the configured completer into an llm.Parser, wrapped with
// the retry policy when LLM_MAX_ATTEMPTS > 1.
func NewParser(ctx context.Context, cfg common.LLMConfig, logger *slog.Logger) (llm.StructuredDataParser, error) {
	completer, err := NewCompleter(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	parser, err := llm.NewParser(completer, llm.Config{
		Timeout:     cfg.Timeout,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		JSONMode:    cfg.JSONMode,
	}, logger)
	if err != nil {
		return nil, err
	}
	return llm.WithRetry(parser, llm.RetryPolicy{
		Attempts:  cfg.MaxAttempts,
		BaseDelay: cfg.RetryDelay,
	}, logger), nil
}
