package async

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/joseph-ayodele/resume-ingest/constants"
	"github.com/joseph-ayodele/resume-ingest/internal/common"
	"github.com/joseph-ayodele/resume-ingest/internal/entity"
	"github.com/joseph-ayodele/resume-ingest/internal/pipeline"
)

type fakeRunner struct {
	mu     sync.Mutex
	seen   []uuid.UUID
	status constants.ProcessingStatus
	err    error
	record bool
}

func (f *fakeRunner) Process(_ context.Context, id uuid.UUID) (pipeline.Outcome, error) {
	f.mu.Lock()
	f.seen = append(f.seen, id)
	f.mu.Unlock()
	var out pipeline.Outcome
	if f.record {
		out.Record = &entity.ResumeRecord{ID: id, Status: f.status}
	}
	return out, f.err
}

func (f *fakeRunner) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.seen)
}

func TestProcessorQueueDrainsOnShutdown(t *testing.T) {
	r := &fakeRunner{record: true, status: constants.StatusCompleted}
	q := NewProcessorQueue(r, nil, WithWorkers(2), WithQueueSize(8), WithProcessTimeout(time.Second))

	for i := 0; i < 5; i++ {
		if err := q.Dispatch(context.Background(), uuid.New()); err != nil {
			t.Fatalf("Dispatch: %v", err)
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.Shutdown(ctx)

	if got := r.count(); got != 5 {
		t.Fatalf("processed %d jobs, want 5", got)
	}
	if err := q.Enqueue(context.Background(), Job{ResumeID: uuid.New()}); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("Enqueue after shutdown: want ErrQueueClosed, got %v", err)
	}
	q.Shutdown(ctx) // second call is a no-op
}

func TestProcessTaskPayload(t *testing.T) {
	id := uuid.New()
	task, err := NewProcessTask(id)
	if err != nil {
		t.Fatalf("NewProcessTask: %v", err)
	}
	if task.Type() != ProcessResumeTask {
		t.Fatalf("type = %q", task.Type())
	}

	r := &fakeRunner{record: true, status: constants.StatusCompleted}
	h := NewTaskHandler(r, nil)
	if err := h.ProcessTask(context.Background(), task); err != nil {
		t.Fatalf("ProcessTask: %v", err)
	}
	if r.count() != 1 || r.seen[0] != id {
		t.Fatalf("runner saw %v", r.seen)
	}
}

func TestProcessTaskRetryPolicy(t *testing.T) {
	tests := []struct {
		name     string
		runner   *fakeRunner
		wantErr  bool
		wantSkip bool
	}{
		{"stage failure recorded", &fakeRunner{record: true, status: constants.StatusFailed, err: common.ErrParsingFailed}, false, false},
		{"already processed", &fakeRunner{record: true, status: constants.StatusCompleted, err: common.ErrInvalidTransition}, true, true},
		{"unknown record", &fakeRunner{err: common.NewAppError(common.CodeNotFound, "resume not found", common.ErrNotFound)}, true, true},
		{"store unavailable", &fakeRunner{record: true, status: constants.StatusUploaded, err: common.ErrPersistenceFailed}, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task, _ := NewProcessTask(uuid.New())
			err := NewTaskHandler(tt.runner, nil).ProcessTask(context.Background(), task)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if errors.Is(err, asynq.SkipRetry) != tt.wantSkip {
				t.Fatalf("skip retry = %v, want %v (err %v)", errors.Is(err, asynq.SkipRetry), tt.wantSkip, err)
			}
		})
	}
}

func TestProcessTaskBadPayload(t *testing.T) {
	err := NewTaskHandler(&fakeRunner{}, nil).ProcessTask(context.Background(), asynq.NewTask(ProcessResumeTask, []byte("{")))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("want SkipRetry, got %v", err)
	}
}

var (
	_ asynq.Logger        = (*AsynqLogger)(nil)
	_ pipeline.Dispatcher = (*AsynqDispatcher)(nil)
	_ pipeline.Dispatcher = (*ProcessorQueue)(nil)
)
