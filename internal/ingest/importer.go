package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/resume-ingest/internal/common"
	"github.com/joseph-ayodele/resume-ingest/internal/pipeline"
)

// Importer feeds resumes from the local filesystem into the pipeline.
type Importer struct {
	Pipeline Pipeline
	Logger   *slog.Logger
	MaxBytes int64 // 0 = unbounded
	Async    bool  // enqueue instead of running inline
}

func NewImporter(p Pipeline, logger *slog.Logger, maxBytes int64, async bool) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{Pipeline: p, Logger: logger, MaxBytes: maxBytes, Async: async}
}

func (i *Importer) ImportPath(ctx context.Context, owner *uuid.UUID, path string) (IngestionResult, error) {
	out := IngestionResult{SourcePath: path}

	abs, err := filepath.Abs(path)
	if err != nil {
		return out, fmt.Errorf("abs path: %w", err)
	}
	out.SourcePath = abs

	if !AllowedExt(filepath.Ext(abs)) {
		return out, common.NewAppError(common.CodeUnsupportedMedia,
			fmt.Sprintf("unsupported or missing extension: %q", filepath.Ext(abs)), nil)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return out, fmt.Errorf("stat: %w", err)
	}
	if i.MaxBytes > 0 && info.Size() > i.MaxBytes {
		return out, common.NewAppError(common.CodeInvalidInput,
			fmt.Sprintf("file is %d bytes, limit is %d", info.Size(), i.MaxBytes), common.ErrInvalidInput)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return out, fmt.Errorf("read: %w", err)
	}

	up := pipeline.Upload{OwnerID: owner, OriginalName: filepath.Base(abs), Data: data}
	run := i.Pipeline.Ingest
	if i.Async {
		run = i.Pipeline.Enqueue
	}
	res, err := run(ctx, up)
	if res.Record != nil {
		out.ResumeID = res.Record.ID
		out.Status = res.Record.Status
		out.Confidence = res.Record.AIConfidence
	}
	out.Warnings = res.Warnings
	if err != nil {
		i.Logger.Warn("import failed", "path", abs, "resume_id", out.ResumeID, "error", err)
		return out, err
	}
	i.Logger.Info("imported resume", "path", abs, "resume_id", out.ResumeID, "status", out.Status)
	return out, nil
}
