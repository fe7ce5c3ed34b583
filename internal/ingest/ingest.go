package ingest

import (
	"context"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/resume-ingest/constants"
	"github.com/joseph-ayodele/resume-ingest/internal/pipeline"
)

// IngestionResult is the per-file import outcome.
type IngestionResult struct {
	SourcePath string
	ResumeID   uuid.UUID
	Status     constants.ProcessingStatus
	Confidence *int
	Warnings   []string
	Err        string
}

// DirStats summarizes a directory import.
type DirStats struct {
	Scanned   uint32
	Matched   uint32
	Succeeded uint32
	Failed    uint32
}

// Ingestor is the behavior the CLI and the watcher depend on.
type Ingestor interface {
	// ImportPath a single file.
	ImportPath(ctx context.Context, owner *uuid.UUID, path string) (IngestionResult, error)
	// ImportDirectory imports all matching files under root.
	ImportDirectory(ctx context.Context, owner *uuid.UUID, root string, skipHidden bool) ([]IngestionResult, DirStats, error)
}

// Pipeline is the part of pipeline.Processor an Importer drives.
type Pipeline interface {
	Ingest(ctx context.Context, u pipeline.Upload) (pipeline.Outcome, error)
	Enqueue(ctx context.Context, u pipeline.Upload) (pipeline.Outcome, error)
}
