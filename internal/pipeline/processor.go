package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/resume-ingest/constants"
	"github.com/joseph-ayodele/resume-ingest/internal/common"
	"github.com/joseph-ayodele/resume-ingest/internal/entity"
	"github.com/joseph-ayodele/resume-ingest/internal/events"
	"github.com/joseph-ayodele/resume-ingest/internal/extract"
	"github.com/joseph-ayodele/resume-ingest/internal/llm"
	"github.com/joseph-ayodele/resume-ingest/internal/repository"
	"github.com/joseph-ayodele/resume-ingest/internal/storage"
)

const (
	DefaultTimeout = 3 * time.Minute
	// failure writes get their own budget so a timed-out run can still record why.
	persistTimeout = 10 * time.Second
)

// Upload is one received document.
type Upload struct {
	OwnerID      *uuid.UUID
	OriginalName string
	MediaType    string // as declared by the client; may be empty
	Data         []byte
}

// Outcome is what a caller learns about a run. Record is set whenever a
// record was created, including when the run failed.
type Outcome struct {
	Record   *entity.ResumeRecord
	Warnings []string
}

// Dispatcher hands a created record to a background worker.
type Dispatcher interface {
	Dispatch(ctx context.Context, id uuid.UUID) error
}

// Processor coordinates storage, extraction, validation and AI parsing for
// one record at a time.
type Processor struct {
	Logger     *slog.Logger
	Repo       repository.ResumeRepository
	Store      storage.FileStore
	Extract    *ExtractStage
	Parse      *ParseStage
	Events     events.Publisher
	Dispatcher Dispatcher
	Timeout    time.Duration
}

type Option func(*Processor)

func WithPublisher(p events.Publisher) Option {
	return func(pr *Processor) {
		if p != nil {
			pr.Events = p
		}
	}
}

func WithDispatcher(d Dispatcher) Option {
	return func(pr *Processor) { pr.Dispatcher = d }
}

// WithTimeout bounds a whole run, independent of the caller's context.
func WithTimeout(d time.Duration) Option {
	return func(pr *Processor) {
		if d > 0 {
			pr.Timeout = d
		}
	}
}

func NewProcessor(
	logger *slog.Logger,
	repo repository.ResumeRepository,
	store storage.FileStore,
	tx extract.TextExtractor,
	parser llm.StructuredDataParser,
	opts ...Option,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Processor{
		Logger:  logger,
		Repo:    repo,
		Store:   store,
		Extract: NewExtractStage(tx, logger),
		Parse:   NewParseStage(parser, logger),
		Events:  events.Nop{},
		Timeout: DefaultTimeout,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Ingest stores the upload, creates its record and runs the pipeline to a
// terminal status.
func (p *Processor) Ingest(ctx context.Context, u Upload) (Outcome, error) {
	ctx, cancel := p.runContext(ctx)
	defer cancel()

	rec, err := p.admit(ctx, u)
	if err != nil {
		return Outcome{}, err
	}
	return p.run(ctx, rec, func(context.Context) ([]byte, error) { return u.Data, nil })
}

// Enqueue stores the upload and creates its record, then leaves the run to
// the configured Dispatcher. The returned record is in status uploaded.
func (p *Processor) Enqueue(ctx context.Context, u Upload) (Outcome, error) {
	if p.Dispatcher == nil {
		return Outcome{}, common.NewAppError(common.CodeConfig, "no dispatcher configured", nil)
	}
	rec, err := p.admit(ctx, u)
	if err != nil {
		return Outcome{}, err
	}
	if err := p.Dispatcher.Dispatch(ctx, rec.ID); err != nil {
		p.Logger.Error("pipeline.dispatch.failed", "resume_id", rec.ID, "err", err)
		return Outcome{Record: rec}, fmt.Errorf("dispatch %s: %w", rec.ID, err)
	}
	p.Logger.Info("pipeline.dispatched", "resume_id", rec.ID)
	return Outcome{Record: rec}, nil
}

// Process runs the pipeline for a record created earlier by Enqueue. Only
// records still in status uploaded are picked up.
func (p *Processor) Process(ctx context.Context, id uuid.UUID) (Outcome, error) {
	ctx, cancel := p.runContext(ctx)
	defer cancel()

	rec, err := p.Repo.GetByID(ctx, id)
	if err != nil {
		return Outcome{}, err
	}
	if rec.Status != constants.StatusUploaded {
		return Outcome{Record: rec}, common.NewAppError(common.CodeInvalidTransition,
			fmt.Sprintf("resume %s is %s, not %s", id, rec.Status, constants.StatusUploaded), nil)
	}
	return p.run(ctx, rec, func(ctx context.Context) ([]byte, error) {
		data, err := p.Store.Read(ctx, rec.StorageKey)
		if err != nil {
			return nil, common.NewAppError(common.CodeExtractionFailed, "failed to read uploaded file", err)
		}
		return data, nil
	})
}

// Run drives an uploaded record with its bytes already in hand.
func (p *Processor) Run(ctx context.Context, rec *entity.ResumeRecord, data []byte) (Outcome, error) {
	return p.run(ctx, rec, func(context.Context) ([]byte, error) { return data, nil })
}

// admit rejects unsupported uploads before anything is written, then saves
// the file and creates the record. A record that cannot be created takes its
// stored file with it.
func (p *Processor) admit(ctx context.Context, u Upload) (*entity.ResumeRecord, error) {
	mt, ok := constants.ResolveMediaType(u.MediaType, u.OriginalName)
	if !ok {
		p.Logger.Warn("pipeline.upload.rejected", "file", u.OriginalName, "media_type", u.MediaType)
		return nil, common.NewAppError(common.CodeUnsupportedMedia,
			fmt.Sprintf("unsupported media type %q: only PDF and DOCX files are allowed", u.MediaType), nil)
	}
	if len(u.Data) == 0 {
		return nil, common.NewAppError(common.CodeInvalidInput, "no file uploaded", common.ErrInvalidInput)
	}

	id := uuid.New()
	fileName := id.String() + "." + constants.ExtFor(mt)
	rec := &entity.ResumeRecord{
		ID:               id,
		OwnerID:          u.OwnerID,
		FileName:         fileName,
		OriginalFileName: originalName(u.OriginalName, fileName),
		StorageKey:       storageKey(fileName, time.Now().UTC()),
		FileSize:         int64(len(u.Data)),
		MediaType:        mt,
	}

	if err := p.Store.Save(ctx, rec.StorageKey, u.Data, string(mt)); err != nil {
		p.Logger.Error("pipeline.store.failed", "resume_id", id, "key", rec.StorageKey, "err", err)
		return nil, common.PersistenceError("failed to store uploaded file", err)
	}
	if err := p.Repo.Create(ctx, rec); err != nil {
		if derr := p.Store.Delete(context.WithoutCancel(ctx), rec.StorageKey); derr != nil {
			p.Logger.Error("pipeline.orphan.cleanup_failed", "key", rec.StorageKey, "err", derr)
			return nil, errors.Join(err, derr)
		}
		p.Logger.Warn("pipeline.orphan.removed", "key", rec.StorageKey)
		return nil, err
	}
	p.publish(ctx, rec, "")
	return rec, nil
}

func (p *Processor) run(ctx context.Context, rec *entity.ResumeRecord, load func(context.Context) ([]byte, error)) (Outcome, error) {
	start := time.Now()
	log := p.Logger.With("resume_id", rec.ID)

	cur, err := p.Repo.MarkProcessing(ctx, rec.ID)
	if err != nil {
		log.Error("pipeline.start.failed", "err", err)
		return Outcome{Record: rec}, err
	}
	p.publish(ctx, cur, "")

	data, err := load(ctx)
	if err != nil {
		return p.fail(ctx, cur, err, nil)
	}

	text, warnings, err := p.Extract.Run(ctx, cur.ID, data, cur.MediaType)
	if err != nil {
		return p.fail(ctx, cur, err, warnings)
	}
	if err := p.Repo.SaveExtractedText(ctx, cur.ID, text); err != nil {
		return p.fail(ctx, cur, err, warnings)
	}
	cur.ExtractedText = text

	res, err := p.Parse.Run(ctx, cur.ID, text)
	if err != nil {
		return p.fail(ctx, cur, err, warnings)
	}

	done, err := p.Repo.MarkCompleted(ctx, cur.ID, res.Data, res.Confidence, res.RawResponse)
	if err != nil {
		log.Error("pipeline.complete.failed", "err", err)
		if errors.Is(err, common.ErrInvalidTransition) || errors.Is(err, common.ErrNotFound) {
			// someone else already finished or removed the record
			return Outcome{Record: cur, Warnings: warnings}, err
		}
		return p.fail(ctx, cur, &llm.ResponseError{Raw: res.RawResponse, Err: err}, warnings)
	}
	p.publish(ctx, done, "")
	log.Info("pipeline.completed",
		"confidence", res.Confidence,
		"warnings", len(warnings),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return Outcome{Record: done, Warnings: warnings}, nil
}

// fail records cause on the record and returns it. If the failure itself
// cannot be persisted both errors are returned.
func (p *Processor) fail(ctx context.Context, rec *entity.ResumeRecord, cause error, warnings []string) (Outcome, error) {
	msg := common.Message(cause)
	var raw *string
	if r, ok := llm.RawResponse(cause); ok {
		raw = &r
	}

	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	failed, err := p.Repo.MarkFailed(wctx, rec.ID, msg, raw)
	if err != nil {
		p.Logger.Error("pipeline.fail.persist_failed", "resume_id", rec.ID, "cause", cause, "err", err)
		return Outcome{Record: rec, Warnings: warnings}, errors.Join(cause, err)
	}
	p.publish(wctx, failed, msg)
	p.Logger.Warn("pipeline.failed", "resume_id", rec.ID, "error", msg)
	return Outcome{Record: failed, Warnings: warnings}, cause
}

func (p *Processor) publish(ctx context.Context, rec *entity.ResumeRecord, message string) {
	u := events.StatusUpdate{
		ResumeID:  rec.ID,
		Status:    rec.Status,
		Message:   message,
		Timestamp: rec.UpdatedAt,
	}
	if err := p.Events.Publish(ctx, u); err != nil {
		p.Logger.Warn("pipeline.publish.failed", "resume_id", rec.ID, "status", rec.Status, "err", err)
	}
}

// runContext detaches from the caller's cancellation; a started run is never
// abandoned half way. It is bounded by Timeout, or by the caller's deadline
// when that comes sooner (queue workers and asynq set one per job).
func (p *Processor) runContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := p.Timeout
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < timeout {
			timeout = left
		}
	}
	return context.WithTimeout(context.WithoutCancel(ctx), timeout)
}

func originalName(name, fallback string) string {
	base := filepath.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if base == "." || base == "/" || base == "" {
		return fallback
	}
	return base
}

// storageKey spreads uploads over year/month prefixes.
func storageKey(fileName string, now time.Time) string {
	return fmt.Sprintf("resumes/%04d/%02d/%s", now.Year(), int(now.Month()), fileName)
}
