package async

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/resume-ingest/internal/pipeline"
)

var ErrQueueClosed = errors.New("queue is shutting down")

// Job asks a worker to run the pipeline for one uploaded record.
type Job struct {
	ResumeID    uuid.UUID
	SubmittedAt time.Time
	TraceID     string
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}

// Runner is the part of pipeline.Processor the workers need.
type Runner interface {
	Process(ctx context.Context, id uuid.UUID) (pipeline.Outcome, error)
}
