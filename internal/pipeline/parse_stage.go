package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/resume-ingest/internal/llm"
)

// ParseStage sends validated text to the configured StructuredDataParser.
type ParseStage struct {
	Parser llm.StructuredDataParser
	Logger *slog.Logger
}

func NewParseStage(parser llm.StructuredDataParser, logger *slog.Logger) *ParseStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &ParseStage{Parser: parser, Logger: logger}
}

// Run returns sanitized, scored data. On failure the error may carry the raw
// model text; see llm.RawResponse.
func (s *ParseStage) Run(ctx context.Context, id uuid.UUID, text string) (llm.ParseResult, error) {
	start := time.Now()
	res, err := s.Parser.Parse(ctx, text)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		_, hasRaw := llm.RawResponse(err)
		s.Logger.Error("pipeline.parse.failed", "resume_id", id, "elapsed_ms", elapsed, "raw_kept", hasRaw, "err", err)
		return llm.ParseResult{}, err
	}
	s.Logger.Info("pipeline.parse.ok",
		"resume_id", id,
		"confidence", res.Confidence,
		"skills", len(res.Data.Skills),
		"experience", len(res.Data.Experience),
		"elapsed_ms", elapsed,
	)
	return res, nil
}
