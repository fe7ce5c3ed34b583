package resumes

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/resume-ingest/constants"
	"github.com/joseph-ayodele/resume-ingest/internal/common"
	"github.com/joseph-ayodele/resume-ingest/internal/entity"
	"github.com/joseph-ayodele/resume-ingest/internal/export"
	"github.com/joseph-ayodele/resume-ingest/internal/pipeline"
	"github.com/joseph-ayodele/resume-ingest/internal/repository"
	"github.com/joseph-ayodele/resume-ingest/internal/storage"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
	RecentWindow = 30 * 24 * time.Hour
	maxQueryLen  = 200
)

// Uploader is the part of pipeline.Processor the service drives.
type Uploader interface {
	Ingest(ctx context.Context, u pipeline.Upload) (pipeline.Outcome, error)
	Enqueue(ctx context.Context, u pipeline.Upload) (pipeline.Outcome, error)
}

// Service handles resume business logic: ownership, listing, deletion, exports.
type Service struct {
	repo     repository.ResumeRepository
	store    storage.FileStore
	uploader Uploader
	exporter *export.Service
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a new resume service.
func NewService(repo repository.ResumeRepository, store storage.FileStore, uploader Uploader, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		store:    store,
		uploader: uploader,
		exporter: export.NewService(repo, logger),
		logger:   logger,
		now:      time.Now,
	}
}

// UploadRequest represents one uploaded file.
type UploadRequest struct {
	FileName  string
	MediaType string
	Data      []byte
	Async     bool
}

// Upload runs (or queues) the pipeline for a file owned by the caller.
func (s *Service) Upload(ctx context.Context, caller common.Caller, req UploadRequest) (pipeline.Outcome, error) {
	validator := common.NewValidator()
	validator.Field("file_name", req.FileName, common.Required, common.MaxLen(255))
	if err := common.ValidateAndReturnError(validator); err != nil {
		return pipeline.Outcome{}, err
	}

	owner := caller.UserID
	up := pipeline.Upload{
		OwnerID:      &owner,
		OriginalName: req.FileName,
		MediaType:    req.MediaType,
		Data:         req.Data,
	}
	if req.Async {
		return s.uploader.Enqueue(ctx, up)
	}
	return s.uploader.Ingest(ctx, up)
}

// Get returns a record the caller may access.
func (s *Service) Get(ctx context.Context, caller common.Caller, id uuid.UUID) (*entity.ResumeRecord, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.CanAccess(rec.OwnerID) {
		s.logger.Warn("resume access denied", "resume_id", id, "user_id", caller.UserID)
		return nil, common.NewAppError(common.CodeForbidden, "access denied", nil)
	}
	return rec, nil
}

// ListRequest represents history/admin listing parameters.
type ListRequest struct {
	Page   int
	Limit  int
	Status string
	Search string
	All    bool // every owner; admins only
}

// List returns one page of the caller's history, or of everyone's for admins
// asking for All.
func (s *Service) List(ctx context.Context, caller common.Caller, req ListRequest) ([]entity.ResumeRecord, entity.Pagination, error) {
	filter, err := s.filterFor(caller, req)
	if err != nil {
		return nil, entity.Pagination{}, err
	}
	recs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, entity.Pagination{}, err
	}
	return recs, entity.NewPagination(filter.Page, filter.Limit, total), nil
}

// Search is a case-insensitive substring match over file name, full name,
// email and skills.
func (s *Service) Search(ctx context.Context, caller common.Caller, query string, page, limit int) ([]entity.ResumeRecord, entity.Pagination, error) {
	validator := common.NewValidator()
	validator.Field("query", query, common.Required, common.MaxLen(maxQueryLen))
	if err := common.ValidateAndReturnError(validator); err != nil {
		return nil, entity.Pagination{}, err
	}
	return s.List(ctx, caller, ListRequest{Page: page, Limit: limit, Search: query})
}

// Delete removes the record and then its stored file. A file that cannot be
// removed is logged and left behind; the record is already gone.
func (s *Service) Delete(ctx context.Context, caller common.Caller, id uuid.UUID) error {
	rec, err := s.Get(ctx, caller, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, rec.StorageKey); err != nil {
		s.logger.Error("resume file cleanup failed", "resume_id", id, "key", rec.StorageKey, "err", err)
		return nil
	}
	s.logger.Info("resume deleted", "resume_id", id, "user_id", caller.UserID)
	return nil
}

// Export builds the JSON export document for a record.
func (s *Service) Export(ctx context.Context, caller common.Caller, id uuid.UUID, includeText bool) (export.Document, string, error) {
	rec, err := s.Get(ctx, caller, id)
	if err != nil {
		return export.Document{}, "", err
	}
	return export.BuildJSON(rec, includeText), export.AttachmentName(rec), nil
}

// ExportXLSX renders every record matching req into a workbook. Admins only.
func (s *Service) ExportXLSX(ctx context.Context, caller common.Caller, req ListRequest) ([]byte, error) {
	req.All = true
	filter, err := s.filterFor(caller, req)
	if err != nil {
		return nil, err
	}
	return s.exporter.ExportResumesXLSX(ctx, filter)
}

// Stats returns dashboard counters across all owners. Admins only.
func (s *Service) Stats(ctx context.Context, caller common.Caller) (entity.ResumeStats, error) {
	if !caller.IsAdmin() {
		return entity.ResumeStats{}, common.NewAppError(common.CodeForbidden, "admin access required", nil)
	}
	return s.repo.Stats(ctx, nil, s.now().Add(-RecentWindow))
}

func (s *Service) filterFor(caller common.Caller, req ListRequest) (entity.ResumeFilter, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.Limit == 0 {
		req.Limit = DefaultLimit
	}
	req.Status = strings.ToLower(strings.TrimSpace(req.Status))

	validator := common.NewValidator()
	validator.Field("page", req.Page, common.Between(1, 1<<20))
	validator.Field("limit", req.Limit, common.Between(1, MaxLimit))
	validator.Field("search", req.Search, common.MaxLen(maxQueryLen))
	if req.Status != "" {
		allowed := make([]string, 0, len(constants.Statuses))
		for _, st := range constants.Statuses {
			allowed = append(allowed, string(st))
		}
		validator.Field("status", req.Status, common.In(allowed...))
	}
	if err := common.ValidateAndReturnError(validator); err != nil {
		return entity.ResumeFilter{}, err
	}

	filter := entity.ResumeFilter{
		Search: strings.TrimSpace(req.Search),
		Page:   req.Page,
		Limit:  req.Limit,
	}
	if req.Status != "" {
		st := constants.ProcessingStatus(req.Status)
		filter.Status = &st
	}
	if req.All {
		if !caller.IsAdmin() {
			return entity.ResumeFilter{}, common.NewAppError(common.CodeForbidden, "admin access required", nil)
		}
	} else {
		owner := caller.UserID
		filter.OwnerID = &owner
	}
	return filter, nil
}
