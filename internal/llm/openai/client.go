package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/resume-ingest/internal/llm"
)

func (c *Client) Name() string { return "openai:" + c.cfg.Model }

// Complete implements llm.Completer using chat/completions with a system and a user message.
func (c *Client) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("llm.openai.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", req.Temperature,
		"max_tokens", req.MaxTokens,
		"json_mode", req.JSONMode,
		"prompt_len", len(req.User),
	)

	messages := make([]map[string]any, 0, 2)
	if req.System != "" {
		messages = append(messages, map[string]any{"role": "system", "content": req.System})
	}
	messages = append(messages, map[string]any{"role": "user", "content": req.User})

	body := map[string]any{
		"model":       c.cfg.Model,
		"temperature": req.Temperature,
		"max_tokens":  req.MaxTokens,
		"messages":    messages,
	}
	if req.JSONMode {
		body["response_format"] = map[string]any{"type": "json_object"}
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, err := llm.PostJSON(ctx, c.http, endpoint, body, map[string]string{
		"Authorization": "Bearer " + c.cfg.APIKey,
	}, c.logger)
	if err != nil {
		var te *llm.TransportError
		if errors.As(err, &te) && te.Status/100 != 2 && te.Status != 0 {
			err = &llm.TransportError{Status: te.Status, Body: te.Body, Err: errors.New(providerMessage(te.Body))}
		}
		c.logger.Error("llm.openai.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.logger.Error("llm.openai.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", &llm.ResponseError{Raw: string(raw), Err: fmt.Errorf("decode completion: %w", err)}
	}
	if len(cc.Choices) == 0 {
		c.logger.Error("llm.openai.no_choices",
			"req_id", rid, "raw", string(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", &llm.ResponseError{Raw: string(raw), Err: fmt.Errorf("invalid response from provider: no choices")}
	}

	content := strings.TrimSpace(cc.Choices[0].Message.Content)
	c.logger.Info("llm.openai.ok",
		"req_id", rid,
		"content_len", len(content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}

// Ping sends a tiny completion to check credentials and reachability.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Complete(ctx, llm.CompletionRequest{
		User:      "Hello, please respond with 'API connection successful'",
		MaxTokens: 10,
	})
	return err
}

// providerMessage pulls error.message out of an OpenAI-style error body.
func providerMessage(raw []byte) string {
	var e struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(raw, &e) == nil && e.Error.Message != "" {
		return e.Error.Message
	}
	n := len(raw)
	if n > 200 {
		n = 200
		for n > 0 && !utf8.RuneStart(raw[n]) {
			n--
		}
	}
	return string(raw[:n])
}
