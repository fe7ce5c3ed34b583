package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/resume-ingest/constants"
	"github.com/joseph-ayodele/resume-ingest/internal/common"
	"github.com/joseph-ayodele/resume-ingest/internal/extract"
)

// ExtractStage turns the stored document into validated text.
type ExtractStage struct {
	Extractor extract.TextExtractor
	Logger    *slog.Logger
}

func NewExtractStage(tx extract.TextExtractor, logger *slog.Logger) *ExtractStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractStage{Extractor: tx, Logger: logger}
}

// Run extracts and validates. Warnings are returned even when the text is
// rejected so the caller can surface them.
func (s *ExtractStage) Run(ctx context.Context, id uuid.UUID, data []byte, mt constants.MediaType) (string, []string, error) {
	res, err := s.Extractor.Extract(ctx, data, mt)
	if err != nil {
		s.Logger.Error("pipeline.extract.failed", "resume_id", id, "err", err)
		return "", nil, err
	}
	s.Logger.Info("pipeline.extract.ok",
		"resume_id", id,
		"pages", res.Pages,
		"chars", len(res.Text),
		"elapsed_ms", res.Duration.Milliseconds(),
	)

	v := extract.ValidateText(res.Text)
	if !v.IsValid {
		s.Logger.Warn("pipeline.validate.failed", "resume_id", id, "errors", v.Errors)
		return "", v.Warnings, common.NewAppError(common.CodeValidationFailed, strings.Join(v.Errors, "; "), nil)
	}
	if len(v.Warnings) > 0 {
		s.Logger.Info("pipeline.validate.warnings", "resume_id", id, "warnings", v.Warnings)
	}
	return res.Text, v.Warnings, nil
}
