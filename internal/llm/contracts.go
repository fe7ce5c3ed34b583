package llm

import (
	"context"

	"github.com/joseph-ayodele/resume-ingest/internal/entity"
)

// StructuredDataParser turns extracted resume text into sanitized, scored data.
// A nil error means success.
type StructuredDataParser interface {
	Parse(ctx context.Context, text string) (ParseResult, error)
}

type ParseResult struct {
	Data        entity.ParsedData
	Confidence  int
	RawResponse string
}

// CompletionRequest is the vendor-neutral shape of one inference call.
type CompletionRequest struct {
	System      string
	User        string
	Temperature float32
	MaxTokens   int
	JSONMode    bool
}

// Completer is the transport to a single inference provider. It returns the
// model's text verbatim; interpretation belongs to the Parser.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	Name() string
}
