package repository

import (
	"context"
	stdsql "database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/resume-ingest/constants"
	"github.com/joseph-ayodele/resume-ingest/internal/common"
	"github.com/joseph-ayodele/resume-ingest/internal/entity"
)

// ResumeRepository is the Resume Store. Status-changing methods are
// compare-and-set: they only apply when the record is in the expected state.
type ResumeRepository interface {
	Create(ctx context.Context, rec *entity.ResumeRecord) error
	MarkProcessing(ctx context.Context, id uuid.UUID) (*entity.ResumeRecord, error)
	SaveExtractedText(ctx context.Context, id uuid.UUID, text string) error
	MarkCompleted(ctx context.Context, id uuid.UUID, data entity.ParsedData, confidence int, raw string) (*entity.ResumeRecord, error)
	MarkFailed(ctx context.Context, id uuid.UUID, message string, raw *string) (*entity.ResumeRecord, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.ResumeRecord, error)
	List(ctx context.Context, filter entity.ResumeFilter) ([]entity.ResumeRecord, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context, ownerID *uuid.UUID, since time.Time) (entity.ResumeStats, error)
}

type resumeRepo struct {
	db  *DB
	log *slog.Logger
	now func() time.Time
}

func NewResumeRepository(db *DB, log *slog.Logger) ResumeRepository {
	if log == nil {
		log = slog.Default()
	}
	return &resumeRepo{db: db, log: log, now: func() time.Time { return time.Now().UTC() }}
}

var resumeColumns = []string{
	"id", "owner_id", "file_name", "original_file_name", "storage_key", "file_size",
	"media_type", "extracted_text", "parsed_data", "processing_status",
	"processing_error", "ai_confidence", "ai_raw_response", "created_at", "updated_at",
}

func (r *resumeRepo) builder() *entsql.DialectBuilder {
	return entsql.Dialect(r.db.dialect)
}

// ts binds a timestamp: native for Postgres, fixed-width UTC text for SQLite
// so that text comparison orders correctly.
func (r *resumeRepo) ts(t time.Time) any {
	if r.db.dialect == dialect.Postgres {
		return t.UTC()
	}
	return t.UTC().Format(sqliteTimeLayout)
}

func (r *resumeRepo) Create(ctx context.Context, rec *entity.ResumeRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	now := r.now()
	rec.CreatedAt, rec.UpdatedAt = now, now
	rec.Status = constants.StatusUploaded
	rec.ParsedData = entity.EmptyParsedData()

	pd, err := json.Marshal(rec.ParsedData)
	if err != nil {
		return common.PersistenceError("encode parsed data", err)
	}
	var owner any
	if rec.OwnerID != nil {
		owner = rec.OwnerID.String()
	}

	q, args := r.builder().Insert(resumesTable).
		Columns(
			"id", "owner_id", "file_name", "original_file_name", "storage_key", "file_size",
			"media_type", "extracted_text", "parsed_data", "processing_status",
			"skills", "created_at", "updated_at",
		).
		Values(
			rec.ID.String(), owner, rec.FileName, rec.OriginalFileName, rec.StorageKey, rec.FileSize,
			string(rec.MediaType), "", string(pd), string(rec.Status),
			"", r.ts(now), r.ts(now),
		).
		Query()
	if err := r.db.Driver.Exec(ctx, q, args, nil); err != nil {
		r.log.Error("resume create failed", "resume_id", rec.ID, "err", err)
		return common.PersistenceError("create resume record", err)
	}
	r.log.Info("resume created", "resume_id", rec.ID, "file", rec.OriginalFileName, "size", rec.FileSize)
	return nil
}

func (r *resumeRepo) MarkProcessing(ctx context.Context, id uuid.UUID) (*entity.ResumeRecord, error) {
	upd := r.builder().Update(resumesTable).
		Set("processing_status", string(constants.StatusProcessing)).
		Set("updated_at", r.ts(r.now()))
	if err := r.transition(ctx, id, constants.StatusUploaded, constants.StatusProcessing, upd); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *resumeRepo) SaveExtractedText(ctx context.Context, id uuid.UUID, text string) error {
	q, args := r.builder().Update(resumesTable).
		Set("extracted_text", text).
		Set("updated_at", r.ts(r.now())).
		Where(entsql.And(
			entsql.EQ("id", id.String()),
			entsql.EQ("processing_status", string(constants.StatusProcessing)),
		)).
		Query()
	n, err := r.exec(ctx, q, args)
	if err != nil {
		r.log.Error("resume save text failed", "resume_id", id, "err", err)
		return common.PersistenceError("save extracted text", err)
	}
	if n == 0 {
		return r.missingOrConflict(ctx, id, constants.StatusProcessing)
	}
	return nil
}

func (r *resumeRepo) MarkCompleted(ctx context.Context, id uuid.UUID, data entity.ParsedData, confidence int, raw string) (*entity.ResumeRecord, error) {
	data = data.Normalized()
	pd, err := json.Marshal(data)
	if err != nil {
		return nil, common.PersistenceError("encode parsed data", err)
	}
	upd := r.builder().Update(resumesTable).
		Set("processing_status", string(constants.StatusCompleted)).
		Set("parsed_data", string(pd)).
		Set("ai_confidence", confidence).
		Set("ai_raw_response", raw).
		Set("full_name", nullable(data.FullName)).
		Set("email", nullable(data.Email)).
		Set("skills", strings.Join(data.Skills, ", ")).
		SetNull("processing_error").
		Set("updated_at", r.ts(r.now()))
	if err := r.transition(ctx, id, constants.StatusProcessing, constants.StatusCompleted, upd); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *resumeRepo) MarkFailed(ctx context.Context, id uuid.UUID, message string, raw *string) (*entity.ResumeRecord, error) {
	upd := r.builder().Update(resumesTable).
		Set("processing_status", string(constants.StatusFailed)).
		Set("processing_error", message).
		Set("updated_at", r.ts(r.now()))
	if raw != nil {
		upd.Set("ai_raw_response", *raw)
	}
	if err := r.transition(ctx, id, constants.StatusProcessing, constants.StatusFailed, upd); err != nil {
		return nil, err
	}
	r.log.Warn("resume failed", "resume_id", id, "error", message)
	return r.GetByID(ctx, id)
}

// transition applies upd only while the row is still in state from.
func (r *resumeRepo) transition(ctx context.Context, id uuid.UUID, from, to constants.ProcessingStatus, upd *entsql.UpdateBuilder) error {
	if !constants.CanTransition(from, to) {
		return common.NewAppError(common.CodeInvalidTransition,
			fmt.Sprintf("cannot move from %s to %s", from, to), nil)
	}
	q, args := upd.Where(entsql.And(
		entsql.EQ("id", id.String()),
		entsql.EQ("processing_status", string(from)),
	)).Query()
	n, err := r.exec(ctx, q, args)
	if err != nil {
		r.log.Error("resume status update failed", "resume_id", id, "to", to, "err", err)
		return common.PersistenceError("update resume status", err)
	}
	if n == 0 {
		return r.missingOrConflict(ctx, id, from)
	}
	r.log.Info("resume status changed", "resume_id", id, "from", from, "to", to)
	return nil
}

func (r *resumeRepo) missingOrConflict(ctx context.Context, id uuid.UUID, expected constants.ProcessingStatus) error {
	rec, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return common.NewAppError(common.CodeInvalidTransition,
		fmt.Sprintf("resume %s is %s, expected %s", id, rec.Status, expected), nil)
}

func (r *resumeRepo) exec(ctx context.Context, q string, args []any) (int64, error) {
	var res stdsql.Result
	if err := r.db.Driver.Exec(ctx, q, args, &res); err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *resumeRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.ResumeRecord, error) {
	b := r.builder()
	q, args := b.Select(resumeColumns...).
		From(b.Table(resumesTable)).
		Where(entsql.EQ("id", id.String())).
		Query()
	recs, err := r.query(ctx, q, args)
	if err != nil {
		r.log.Error("resume get failed", "resume_id", id, "err", err)
		return nil, common.PersistenceError("load resume record", err)
	}
	if len(recs) == 0 {
		return nil, common.NewAppError(common.CodeNotFound, "resume not found", common.ErrNotFound)
	}
	return &recs[0], nil
}

func (r *resumeRepo) List(ctx context.Context, f entity.ResumeFilter) ([]entity.ResumeRecord, int, error) {
	var preds []*entsql.Predicate
	if f.OwnerID != nil {
		preds = append(preds, entsql.EQ("owner_id", f.OwnerID.String()))
	}
	if f.Status != nil {
		preds = append(preds, entsql.EQ("processing_status", string(*f.Status)))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		preds = append(preds, entsql.Or(
			entsql.ContainsFold("original_file_name", s),
			entsql.ContainsFold("full_name", s),
			entsql.ContainsFold("email", s),
			entsql.ContainsFold("skills", s),
		))
	}

	b := r.builder()
	count := b.Select(entsql.Count("*")).From(b.Table(resumesTable))
	sel := b.Select(resumeColumns...).From(b.Table(resumesTable))
	if len(preds) > 0 {
		count.Where(entsql.And(preds...))
		sel.Where(entsql.And(preds...))
	}
	sel.OrderBy(entsql.Desc("created_at"), entsql.Desc("id"))
	if f.Limit > 0 {
		sel.Limit(f.Limit).Offset(f.Offset())
	}

	total, err := r.count(ctx, count)
	if err != nil {
		r.log.Error("resume count failed", "err", err)
		return nil, 0, common.PersistenceError("count resumes", err)
	}
	q, args := sel.Query()
	recs, err := r.query(ctx, q, args)
	if err != nil {
		r.log.Error("resume list failed", "err", err)
		return nil, 0, common.PersistenceError("list resumes", err)
	}
	return recs, total, nil
}

func (r *resumeRepo) Delete(ctx context.Context, id uuid.UUID) error {
	q, args := r.builder().Delete(resumesTable).Where(entsql.EQ("id", id.String())).Query()
	n, err := r.exec(ctx, q, args)
	if err != nil {
		r.log.Error("resume delete failed", "resume_id", id, "err", err)
		return common.PersistenceError("delete resume", err)
	}
	if n == 0 {
		return common.NewAppError(common.CodeNotFound, "resume not found", common.ErrNotFound)
	}
	r.log.Info("resume deleted", "resume_id", id)
	return nil
}

func (r *resumeRepo) Stats(ctx context.Context, ownerID *uuid.UUID, since time.Time) (entity.ResumeStats, error) {
	var stats entity.ResumeStats
	b := r.builder()
	byStatus := b.Select("processing_status", entsql.Count("*")).
		From(b.Table(resumesTable)).
		GroupBy("processing_status")
	recent := b.Select(entsql.Count("*")).
		From(b.Table(resumesTable))
	if ownerID != nil {
		byStatus.Where(entsql.EQ("owner_id", ownerID.String()))
		recent.Where(entsql.And(
			entsql.EQ("owner_id", ownerID.String()),
			entsql.GTE("created_at", r.ts(since)),
		))
	} else {
		recent.Where(entsql.GTE("created_at", r.ts(since)))
	}

	q, args := byStatus.Query()
	var rows entsql.Rows
	if err := r.db.Driver.Query(ctx, q, args, &rows); err != nil {
		return stats, common.PersistenceError("resume stats", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return stats, common.PersistenceError("resume stats", err)
		}
		stats.Total += n
		switch constants.ProcessingStatus(status) {
		case constants.StatusUploaded:
			stats.Uploaded = n
		case constants.StatusProcessing:
			stats.Processing = n
		case constants.StatusCompleted:
			stats.Completed = n
		case constants.StatusFailed:
			stats.Failed = n
		}
	}
	if err := rows.Err(); err != nil {
		return stats, common.PersistenceError("resume stats", err)
	}

	n, err := r.count(ctx, recent)
	if err != nil {
		return stats, common.PersistenceError("resume stats", err)
	}
	stats.Recent = n
	return stats, nil
}

func (r *resumeRepo) count(ctx context.Context, sel *entsql.Selector) (int, error) {
	q, args := sel.Query()
	var rows entsql.Rows
	if err := r.db.Driver.Query(ctx, q, args, &rows); err != nil {
		return 0, err
	}
	defer rows.Close()
	var n int
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, err
		}
	}
	return n, rows.Err()
}

func (r *resumeRepo) query(ctx context.Context, q string, args []any) ([]entity.ResumeRecord, error) {
	var rows entsql.Rows
	if err := r.db.Driver.Query(ctx, q, args, &rows); err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []entity.ResumeRecord{}
	for rows.Next() {
		rec, err := scanResume(&rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanResume(rows *entsql.Rows) (entity.ResumeRecord, error) {
	var (
		rec        entity.ResumeRecord
		owner      uuid.NullUUID
		mediaType  string
		parsed     []byte
		status     string
		procErr    stdsql.NullString
		confidence stdsql.NullInt64
		raw        stdsql.NullString
		created    timeValue
		updated    timeValue
	)
	if err := rows.Scan(
		&rec.ID, &owner, &rec.FileName, &rec.OriginalFileName, &rec.StorageKey, &rec.FileSize,
		&mediaType, &rec.ExtractedText, &parsed, &status,
		&procErr, &confidence, &raw, &created, &updated,
	); err != nil {
		return rec, err
	}
	if owner.Valid {
		id := owner.UUID
		rec.OwnerID = &id
	}
	rec.MediaType = constants.MediaType(mediaType)
	rec.Status = constants.ProcessingStatus(status)
	if len(parsed) > 0 {
		if err := json.Unmarshal(parsed, &rec.ParsedData); err != nil {
			return rec, fmt.Errorf("decode parsed_data: %w", err)
		}
	}
	rec.ParsedData = rec.ParsedData.Normalized()
	if procErr.Valid {
		s := procErr.String
		rec.ProcessingError = &s
	}
	if confidence.Valid {
		c := int(confidence.Int64)
		rec.AIConfidence = &c
	}
	if raw.Valid {
		s := raw.String
		rec.AIRawResponse = &s
	}
	rec.CreatedAt, rec.UpdatedAt = created.t, updated.t
	return rec, nil
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// IsNotFound reports whether err is a missing-record error.
func IsNotFound(err error) bool {
	return errors.Is(err, common.ErrNotFound)
}
