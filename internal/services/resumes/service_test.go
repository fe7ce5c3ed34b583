package resumes

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/resume-ingest/constants"
	"github.com/joseph-ayodele/resume-ingest/internal/common"
	"github.com/joseph-ayodele/resume-ingest/internal/entity"
	"github.com/joseph-ayodele/resume-ingest/internal/pipeline"
	"github.com/joseph-ayodele/resume-ingest/internal/repository"
	"github.com/joseph-ayodele/resume-ingest/internal/storage"
)

type fakeUploader struct {
	ingested, enqueued []pipeline.Upload
}

func (f *fakeUploader) Ingest(_ context.Context, u pipeline.Upload) (pipeline.Outcome, error) {
	f.ingested = append(f.ingested, u)
	return pipeline.Outcome{Record: &entity.ResumeRecord{ID: uuid.New(), Status: constants.StatusCompleted}}, nil
}

func (f *fakeUploader) Enqueue(_ context.Context, u pipeline.Upload) (pipeline.Outcome, error) {
	f.enqueued = append(f.enqueued, u)
	return pipeline.Outcome{Record: &entity.ResumeRecord{ID: uuid.New(), Status: constants.StatusUploaded}}, nil
}

type fixture struct {
	svc   *Service
	repo  repository.ResumeRepository
	store *storage.Local
	up    *fakeUploader
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db, err := repository.Open(ctx, repository.Config{Driver: "sqlite", DSN: "file::memory:"}, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close(nil) })
	if err := repository.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	store, err := storage.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	repo := repository.NewResumeRepository(db, nil)
	up := &fakeUploader{}
	return &fixture{svc: NewService(repo, store, up, nil), repo: repo, store: store, up: up}
}

func (f *fixture) seed(t *testing.T, owner uuid.UUID, name string) *entity.ResumeRecord {
	t.Helper()
	ctx := context.Background()
	id := uuid.New()
	rec := &entity.ResumeRecord{
		ID:               id,
		OwnerID:          &owner,
		FileName:         id.String() + ".pdf",
		OriginalFileName: name,
		StorageKey:       "resumes/" + id.String() + ".pdf",
		FileSize:         3,
		MediaType:        constants.MediaTypePDF,
	}
	if err := f.store.Save(ctx, rec.StorageKey, []byte("pdf"), string(rec.MediaType)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := f.repo.Create(ctx, rec); err != nil {
		t.Fatalf("create: %v", err)
	}
	return rec
}

func TestUploadRoutesByMode(t *testing.T) {
	f := newFixture(t)
	caller := common.Caller{UserID: uuid.New(), Role: common.RoleUser}

	if _, err := f.svc.Upload(context.Background(), caller, UploadRequest{FileName: "cv.pdf", Data: []byte("x")}); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if _, err := f.svc.Upload(context.Background(), caller, UploadRequest{FileName: "cv.pdf", Data: []byte("x"), Async: true}); err != nil {
		t.Fatalf("Upload async: %v", err)
	}
	if len(f.up.ingested) != 1 || len(f.up.enqueued) != 1 {
		t.Fatalf("ingested=%d enqueued=%d", len(f.up.ingested), len(f.up.enqueued))
	}
	if got := f.up.ingested[0].OwnerID; got == nil || *got != caller.UserID {
		t.Fatalf("owner = %v", got)
	}
	if _, err := f.svc.Upload(context.Background(), caller, UploadRequest{FileName: " "}); !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("want ErrInvalidInput, got %v", err)
	}
}

func TestGetEnforcesOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()
	rec := f.seed(t, alice, "alice.pdf")

	if _, err := f.svc.Get(ctx, common.Caller{UserID: alice, Role: common.RoleUser}, rec.ID); err != nil {
		t.Fatalf("owner Get: %v", err)
	}
	if _, err := f.svc.Get(ctx, common.Caller{UserID: bob, Role: common.RoleUser}, rec.ID); !errors.Is(err, common.ErrForbidden) {
		t.Fatalf("other user: want ErrForbidden, got %v", err)
	}
	if _, err := f.svc.Get(ctx, common.Caller{UserID: bob, Role: common.RoleAdmin}, rec.ID); err != nil {
		t.Fatalf("admin Get: %v", err)
	}
	if _, err := f.svc.Get(ctx, common.Caller{UserID: alice}, uuid.New()); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("missing: want ErrNotFound, got %v", err)
	}
}

func TestListScopesAndValidates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()
	f.seed(t, alice, "a1.pdf")
	f.seed(t, alice, "a2.pdf")
	f.seed(t, bob, "b1.pdf")

	recs, page, err := f.svc.List(ctx, common.Caller{UserID: alice}, ListRequest{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(recs) != 2 || page.Total != 2 || page.Page != 1 || page.Limit != DefaultLimit {
		t.Fatalf("recs=%d page=%+v", len(recs), page)
	}

	_, page, err = f.svc.List(ctx, common.Caller{UserID: uuid.New(), Role: common.RoleAdmin}, ListRequest{All: true, Limit: 2})
	if err != nil {
		t.Fatalf("admin List: %v", err)
	}
	if page.Total != 3 || page.TotalPages != 2 {
		t.Fatalf("admin page = %+v", page)
	}

	if _, _, err := f.svc.List(ctx, common.Caller{UserID: alice}, ListRequest{All: true}); !errors.Is(err, common.ErrForbidden) {
		t.Fatalf("non-admin All: want ErrForbidden, got %v", err)
	}

	bad := []ListRequest{
		{Limit: 101},
		{Limit: -1},
		{Page: -2},
		{Status: "archived"},
	}
	for _, req := range bad {
		if _, _, err := f.svc.List(ctx, common.Caller{UserID: alice}, req); !errors.Is(err, common.ErrInvalidInput) {
			t.Errorf("List(%+v): want ErrInvalidInput, got %v", req, err)
		}
	}

	recs, _, err = f.svc.List(ctx, common.Caller{UserID: alice}, ListRequest{Status: "UPLOADED"})
	if err != nil || len(recs) != 2 {
		t.Fatalf("status filter: recs=%d err=%v", len(recs), err)
	}
}

func TestSearch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := uuid.New()
	f.seed(t, alice, "Backend_Engineer.pdf")
	f.seed(t, alice, "designer.pdf")

	recs, _, err := f.svc.Search(ctx, common.Caller{UserID: alice}, "backend", 1, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(recs) != 1 || recs[0].OriginalFileName != "Backend_Engineer.pdf" {
		t.Fatalf("results = %+v", recs)
	}
	if _, _, err := f.svc.Search(ctx, common.Caller{UserID: alice}, "", 1, 10); !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("empty query: want ErrInvalidInput, got %v", err)
	}
}

func TestDeleteRemovesRecordAndFile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := uuid.New()
	rec := f.seed(t, alice, "a.pdf")

	if err := f.svc.Delete(ctx, common.Caller{UserID: uuid.New()}, rec.ID); !errors.Is(err, common.ErrForbidden) {
		t.Fatalf("stranger delete: want ErrForbidden, got %v", err)
	}
	if err := f.svc.Delete(ctx, common.Caller{UserID: alice}, rec.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := f.repo.GetByID(ctx, rec.ID); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("record still present: %v", err)
	}
	if _, err := f.store.Read(ctx, rec.StorageKey); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("file still present: %v", err)
	}
}

func TestExportAndStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := uuid.New()
	rec := f.seed(t, alice, "a.pdf")

	doc, name, err := f.svc.Export(ctx, common.Caller{UserID: alice}, rec.ID, true)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if name != "a.pdf.json" || doc.Metadata.ProcessingStatus != constants.StatusUploaded || doc.RawText == nil {
		t.Fatalf("doc=%+v name=%q", doc.Metadata, name)
	}

	if _, err := f.svc.Stats(ctx, common.Caller{UserID: alice}); !errors.Is(err, common.ErrForbidden) {
		t.Fatalf("user stats: want ErrForbidden, got %v", err)
	}
	stats, err := f.svc.Stats(ctx, common.Caller{Role: common.RoleAdmin})
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 1 || stats.Uploaded != 1 || stats.Recent != 1 {
		t.Fatalf("stats = %+v", stats)
	}

	if _, err := f.svc.ExportXLSX(ctx, common.Caller{UserID: alice}, ListRequest{}); !errors.Is(err, common.ErrForbidden) {
		t.Fatalf("user xlsx: want ErrForbidden, got %v", err)
	}
	b, err := f.svc.ExportXLSX(ctx, common.Caller{Role: common.RoleAdmin}, ListRequest{})
	if err != nil || len(b) == 0 {
		t.Fatalf("ExportXLSX: %d bytes, err %v", len(b), err)
	}
}
