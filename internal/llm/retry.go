package llm

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/resume-ingest/internal/common"
)

// RetryPolicy bounds retries of transient parse failures. Attempts <= 1 disables retrying.
type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// WithRetry wraps a parser so ErrParsingFailed is retried with exponential
// backoff. Malformed responses and permanent provider rejections (bad key,
// bad request) are returned as-is.
func WithRetry(p StructuredDataParser, policy RetryPolicy, logger *slog.Logger) StructuredDataParser {
	if policy.Attempts <= 1 {
		return p
	}
	if logger == nil {
		logger = slog.Default()
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = 500 * time.Millisecond
	}
	if policy.MaxDelay <= 0 {
		policy.MaxDelay = 10 * time.Second
	}
	return &retryingParser{inner: p, policy: policy, logger: logger}
}

type retryingParser struct {
	inner  StructuredDataParser
	policy RetryPolicy
	logger *slog.Logger
}

func (r *retryingParser) Parse(ctx context.Context, text string) (ParseResult, error) {
	var (
		res ParseResult
		err error
	)
	for attempt := 1; attempt <= r.policy.Attempts; attempt++ {
		res, err = r.inner.Parse(ctx, text)
		if err == nil || !errors.Is(err, common.ErrParsingFailed) || IsPermanent(err) || attempt == r.policy.Attempts {
			return res, err
		}

		backoff := r.policy.BaseDelay << (attempt - 1)
		if backoff > r.policy.MaxDelay {
			backoff = r.policy.MaxDelay
		}
		r.logger.Warn("llm.parse.retry",
			"attempt", attempt,
			"max_attempts", r.policy.Attempts,
			"backoff_ms", backoff.Milliseconds(),
			"error", err,
		)
		select {
		case <-ctx.Done():
			return res, err
		case <-time.After(backoff):
		}
	}
	return res, err
}
