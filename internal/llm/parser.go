package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/resume-ingest/internal/common"
)

const DefaultTimeout = 30 * time.Second

// Config controls the request the Parser sends through its Completer.
type Config struct {
	Timeout     time.Duration // hard bound on one completion; default 30s
	Temperature float32
	MaxTokens   int
	JSONMode    bool
}

// Parser is the StructuredDataParser the pipeline uses. Vendor specifics live
// in the Completer; prompt, decoding, sanitizing and scoring live here.
type Parser struct {
	completer Completer
	cfg       Config
	root      *jsonschema.Schema
	drift     *jsonschema.Schema
	logger    *slog.Logger
}

func NewParser(completer Completer, cfg Config, logger *slog.Logger) (*Parser, error) {
	if completer == nil {
		return nil, common.NewAppError(common.CodeParsingFailed, "no ai provider configured", nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4000
	}
	root, err := CompileSchema("response_root.json", ResponseRootSchema())
	if err != nil {
		return nil, err
	}
	drift, err := CompileSchema("parsed_data.json", ParsedDataJSONSchema())
	if err != nil {
		return nil, err
	}
	return &Parser{completer: completer, cfg: cfg, root: root, drift: drift, logger: logger}, nil
}

// Parse sends text to the provider and returns sanitized, scored data.
// Transport failures and timeouts are ErrParsingFailed; undecodable output is
// ErrMalformedAIResponse wrapped in a *ResponseError that keeps the raw text.
func (p *Parser) Parse(ctx context.Context, text string) (ParseResult, error) {
	rid := uuid.New().String()
	start := time.Now()
	p.logger.Info("llm.parse.start",
		"req_id", rid,
		"provider", p.completer.Name(),
		"text_len", len(text),
		"timeout_ms", p.cfg.Timeout.Milliseconds(),
	)

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	content, err := p.completer.Complete(ctx, CompletionRequest{
		System:      SystemPrompt,
		User:        BuildUserPrompt(text),
		Temperature: p.cfg.Temperature,
		MaxTokens:   p.cfg.MaxTokens,
		JSONMode:    p.cfg.JSONMode,
	})
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("ai request timed out after %s: %w", p.cfg.Timeout, err)
		}
		p.logger.Error("llm.parse.request_failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		raw, _ := RawResponse(err)
		return ParseResult{RawResponse: raw},
			common.NewAppError(common.CodeParsingFailed, "failed to extract resume data", err)
	}

	content = strings.TrimSpace(content)
	value, err := DecodeResponse(StripFences(content))
	if err == nil {
		if vErr := p.root.Validate(value.AsInterface()); vErr != nil {
			err = fmt.Errorf("response is not a json object: %w", vErr)
		}
	}
	if err != nil {
		p.logger.Error("llm.parse.malformed",
			"req_id", rid, "error", err, "raw", truncate(content, 500),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return ParseResult{RawResponse: content}, &ResponseError{
			Raw: content,
			Err: common.NewAppError(common.CodeMalformedAIResponse, "failed to parse structured data from AI response", err),
		}
	}

	if dErr := p.drift.Validate(value.AsInterface()); dErr != nil {
		p.logger.Warn("llm.parse.schema_drift", "req_id", rid, "error", dErr)
	}

	data := Sanitize(value)
	confidence := Score(data)
	p.logger.Info("llm.parse.ok",
		"req_id", rid,
		"confidence", confidence,
		"skills", len(data.Skills),
		"experience", len(data.Experience),
		"education", len(data.Education),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return ParseResult{Data: data, Confidence: confidence, RawResponse: content}, nil
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "…"
}
