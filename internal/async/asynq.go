package async

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/joseph-ayodele/resume-ingest/internal/common"
)

// ProcessResumeTask is scheduled for every upload accepted asynchronously.
const ProcessResumeTask = "resume:process"

type ProcessPayload struct {
	ResumeID uuid.UUID `json:"resume_id"`
}

// RedisOpt builds the asynq connection options from the queue settings.
func RedisOpt(cfg common.QueueConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
}

func NewProcessTask(id uuid.UUID) (*asynq.Task, error) {
	data, err := json.Marshal(ProcessPayload{ResumeID: id})
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return asynq.NewTask(ProcessResumeTask, data), nil
}

// AsynqDispatcher hands records to cmd/resume-worker through redis.
type AsynqDispatcher struct {
	client  *asynq.Client
	logger  *slog.Logger
	timeout time.Duration
}

func NewAsynqDispatcher(opt asynq.RedisClientOpt, timeout time.Duration, logger *slog.Logger) *AsynqDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &AsynqDispatcher{client: asynq.NewClient(opt), logger: logger, timeout: timeout}
}

func (d *AsynqDispatcher) Dispatch(ctx context.Context, id uuid.UUID) error {
	task, err := NewProcessTask(id)
	if err != nil {
		return err
	}
	opts := []asynq.Option{asynq.MaxRetry(3), asynq.TaskID(id.String())}
	if d.timeout > 0 {
		opts = append(opts, asynq.Timeout(d.timeout))
	}
	info, err := d.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return fmt.Errorf("enqueue process task: %w", err)
	}
	d.logger.Info("task enqueued", "resume_id", id, "task_id", info.ID, "queue", info.Queue)
	return nil
}

func (d *AsynqDispatcher) Close() error { return d.client.Close() }

// TaskHandler runs queued records through the pipeline inside an asynq worker.
type TaskHandler struct {
	runner Runner
	logger *slog.Logger
}

func NewTaskHandler(runner Runner, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{runner: runner, logger: logger}
}

// Mux registers the handler under ProcessResumeTask.
func (h *TaskHandler) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(ProcessResumeTask, h.ProcessTask)
	return mux
}

// ProcessTask only asks asynq to retry when the run never reached a terminal
// status; stage failures are already recorded on the record.
func (h *TaskHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var p ProcessPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	out, err := h.runner.Process(ctx, p.ResumeID)
	if err == nil {
		h.logger.Info("task processed", "resume_id", p.ResumeID, "status", out.Record.Status)
		return nil
	}
	if errors.Is(err, common.ErrNotFound) || errors.Is(err, common.ErrInvalidTransition) {
		h.logger.Warn("task skipped", "resume_id", p.ResumeID, "error", err)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	if out.Record != nil && out.Record.Status.IsTerminal() {
		h.logger.Warn("task finished with failure", "resume_id", p.ResumeID, "error", err)
		return nil
	}
	h.logger.Error("task failed", "resume_id", p.ResumeID, "error", err)
	return err
}

// AsynqLogger routes asynq's internal logging through slog.
type AsynqLogger struct {
	logger *slog.Logger
}

func NewAsynqLogger(logger *slog.Logger) *AsynqLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AsynqLogger{logger: logger.With("component", "asynq")}
}

func (l *AsynqLogger) Debug(args ...interface{}) { l.logger.Debug(fmt.Sprint(args...)) }
func (l *AsynqLogger) Info(args ...interface{})  { l.logger.Info(fmt.Sprint(args...)) }
func (l *AsynqLogger) Warn(args ...interface{})  { l.logger.Warn(fmt.Sprint(args...)) }
func (l *AsynqLogger) Error(args ...interface{}) { l.logger.Error(fmt.Sprint(args...)) }

func (l *AsynqLogger) Fatal(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
	os.Exit(1)
}
