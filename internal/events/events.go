package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/resume-ingest/constants"
)

// StatusUpdate is emitted after every persisted status transition.
type StatusUpdate struct {
	ResumeID  uuid.UUID                  `json:"resume_id"`
	Status    constants.ProcessingStatus `json:"status"`
	Message   string                     `json:"message,omitempty"`
	Timestamp time.Time                  `json:"timestamp"`
}

// Publisher delivers status updates to interested subscribers. Publishing is
// best effort: callers log failures and carry on.
type Publisher interface {
	Publish(ctx context.Context, u StatusUpdate) error
	Close() error
}

// Nop drops every update.
type Nop struct{}

func (Nop) Publish(context.Context, StatusUpdate) error { return nil }
func (Nop) Close() error                                { return nil }

// Logging writes updates to a logger; useful for the CLI and tests.
type Logging struct {
	Logger *slog.Logger
}

func (l Logging) Publish(_ context.Context, u StatusUpdate) error {
	lg := l.Logger
	if lg == nil {
		lg = slog.Default()
	}
	lg.Debug("resume.status", "resume_id", u.ResumeID, "status", u.Status, "message", u.Message)
	return nil
}

func (Logging) Close() error { return nil }
