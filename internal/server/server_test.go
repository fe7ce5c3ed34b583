package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/joseph-ayodele/resume-ingest/constants"
	"github.com/joseph-ayodele/resume-ingest/internal/common"
	"github.com/joseph-ayodele/resume-ingest/internal/entity"
	"github.com/joseph-ayodele/resume-ingest/internal/pipeline"
	"github.com/joseph-ayodele/resume-ingest/internal/repository"
	"github.com/joseph-ayodele/resume-ingest/internal/services/resumes"
	"github.com/joseph-ayodele/resume-ingest/internal/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeUploader struct{}

func (fakeUploader) outcome(u pipeline.Upload, status constants.ProcessingStatus) (pipeline.Outcome, error) {
	id := uuid.New()
	rec := &entity.ResumeRecord{
		ID:               id,
		OwnerID:          u.OwnerID,
		FileName:         id.String() + ".pdf",
		OriginalFileName: u.OriginalName,
		FileSize:         int64(len(u.Data)),
		Status:           status,
		ParsedData:       entity.EmptyParsedData(),
	}
	if string(u.Data) == "bad" {
		msg := "failed to extract text from file: EOF"
		rec.Status = constants.StatusFailed
		rec.ProcessingError = &msg
		return pipeline.Outcome{Record: rec, Warnings: []string{"Extracted text is very short"}},
			common.NewAppError(common.CodeExtractionFailed, "failed to extract text from file", errors.New("EOF"))
	}
	return pipeline.Outcome{Record: rec}, nil
}

func (f fakeUploader) Ingest(_ context.Context, u pipeline.Upload) (pipeline.Outcome, error) {
	return f.outcome(u, constants.StatusCompleted)
}

func (f fakeUploader) Enqueue(_ context.Context, u pipeline.Upload) (pipeline.Outcome, error) {
	return f.outcome(u, constants.StatusUploaded)
}

type env struct {
	router http.Handler
	repo   repository.ResumeRepository
	store  *storage.Local
}

func newEnv(t *testing.T, cfg RouterConfig) *env {
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
	svc := resumes.NewService(repo, store, fakeUploader{}, nil)
	return &env{router: NewRouter(svc, cfg, nil), repo: repo, store: store}
}

func (e *env) seed(t *testing.T, owner uuid.UUID, name string) *entity.ResumeRecord {
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
	if err := e.store.Save(ctx, rec.StorageKey, []byte("pdf"), string(rec.MediaType)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := e.repo.Create(ctx, rec); err != nil {
		t.Fatalf("create: %v", err)
	}
	return rec
}

type caller struct {
	id   uuid.UUID
	role string
}

func (e *env) do(req *http.Request, as *caller) *httptest.ResponseRecorder {
	if as != nil {
		req.Header.Set(HeaderUserID, as.id.String())
		if as.role != "" {
			req.Header.Set(HeaderUserRole, as.role)
		}
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func uploadRequest(t *testing.T, target, name string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

type envelope struct {
	Data       json.RawMessage   `json:"data"`
	Warnings   []string          `json:"warnings"`
	Pagination entity.Pagination `json:"pagination"`
	Error      string            `json:"error"`
	Code       string            `json:"code"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var out envelope
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

func TestCallerAuth(t *testing.T) {
	e := newEnv(t, RouterConfig{})
	cases := []struct {
		name   string
		userID string
		role   string
	}{
		{"missing", "", ""},
		{"not a uuid", "42", ""},
		{"nil uuid", uuid.Nil.String(), ""},
		{"unknown role", uuid.NewString(), "root"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/resumes", nil)
			if tc.userID != "" {
				req.Header.Set(HeaderUserID, tc.userID)
			}
			if tc.role != "" {
				req.Header.Set(HeaderUserRole, tc.role)
			}
			w := e.do(req, nil)
			if w.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, body %s", w.Code, w.Body)
			}
			if body := decode(t, w); body.Code != common.CodeUnauthorized || body.Error == "" {
				t.Fatalf("body = %v", body)
			}
		})
	}

	w := e.do(httptest.NewRequest(http.MethodGet, "/api/v1/health", nil), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("health without identity = %d", w.Code)
	}
	if w.Header().Get(HeaderRequestID) == "" {
		t.Fatal("missing request id header")
	}
}

func TestUpload(t *testing.T) {
	e := newEnv(t, RouterConfig{MaxUploadBytes: 64})
	me := &caller{id: uuid.New()}

	w := e.do(uploadRequest(t, "/api/v1/resumes/upload", "cv.pdf", []byte("%PDF")), me)
	if w.Code != http.StatusCreated {
		t.Fatalf("sync upload = %d, body %s", w.Code, w.Body)
	}
	out := decode(t, w)
	var sum entity.ResumeSummary
	if err := json.Unmarshal(out.Data, &sum); err != nil {
		t.Fatal(err)
	}
	if sum.Status != constants.StatusCompleted || sum.OriginalFileName != "cv.pdf" || out.Warnings == nil {
		t.Fatalf("summary = %+v warnings = %v", sum, out.Warnings)
	}
	if sum.FileName != sum.ID.String()+".pdf" {
		t.Fatalf("stored file name = %q", sum.FileName)
	}

	w = e.do(uploadRequest(t, "/api/v1/resumes/upload?async=true", "cv.docx", []byte("PK")), me)
	if w.Code != http.StatusAccepted {
		t.Fatalf("async upload = %d, body %s", w.Code, w.Body)
	}

	w = e.do(uploadRequest(t, "/api/v1/resumes/upload", "broken.pdf", []byte("bad")), me)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("failed upload = %d, body %s", w.Code, w.Body)
	}
	out = decode(t, w)
	if out.Code != common.CodeExtractionFailed || len(out.Warnings) != 1 || len(out.Data) == 0 {
		t.Fatalf("failed upload body = %s", w.Body)
	}
	if err := json.Unmarshal(out.Data, &sum); err != nil || sum.Status != constants.StatusFailed {
		t.Fatalf("failed record = %+v (%v)", sum, err)
	}

	w = e.do(uploadRequest(t, "/api/v1/resumes/upload", "huge.pdf", bytes.Repeat([]byte("x"), 100)), me)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("oversized upload = %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/resumes/upload", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	if w := e.do(req, me); w.Code != http.StatusBadRequest {
		t.Fatalf("missing file = %d", w.Code)
	}
}

func TestGetDeleteOwnership(t *testing.T) {
	e := newEnv(t, RouterConfig{})
	alice := &caller{id: uuid.New()}
	bob := &caller{id: uuid.New()}
	rec := e.seed(t, alice.id, "alice.pdf")
	path := "/api/v1/resumes/" + rec.ID.String()

	if w := e.do(httptest.NewRequest(http.MethodGet, path, nil), bob); w.Code != http.StatusForbidden {
		t.Fatalf("stranger get = %d", w.Code)
	}
	if w := e.do(httptest.NewRequest(http.MethodGet, "/api/v1/resumes/not-a-uuid", nil), alice); w.Code != http.StatusBadRequest {
		t.Fatalf("bad id = %d", w.Code)
	}
	if w := e.do(httptest.NewRequest(http.MethodGet, path, nil), alice); w.Code != http.StatusOK {
		t.Fatalf("owner get = %d", w.Code)
	}
	if w := e.do(httptest.NewRequest(http.MethodGet, path, nil), &caller{id: bob.id, role: "admin"}); w.Code != http.StatusOK {
		t.Fatalf("admin get = %d", w.Code)
	}
	if w := e.do(httptest.NewRequest(http.MethodDelete, path, nil), alice); w.Code != http.StatusOK {
		t.Fatalf("delete = %d, body %s", w.Code, w.Body)
	}
	if w := e.do(httptest.NewRequest(http.MethodGet, path, nil), alice); w.Code != http.StatusNotFound {
		t.Fatalf("get after delete = %d", w.Code)
	}
}

func TestListSearchAndAdmin(t *testing.T) {
	e := newEnv(t, RouterConfig{})
	alice := &caller{id: uuid.New()}
	e.seed(t, alice.id, "Backend_Engineer.pdf")
	e.seed(t, alice.id, "designer.pdf")
	e.seed(t, uuid.New(), "someone-else.pdf")

	w := e.do(httptest.NewRequest(http.MethodGet, "/api/v1/resumes?limit=1&page=2", nil), alice)
	if w.Code != http.StatusOK {
		t.Fatalf("list = %d, body %s", w.Code, w.Body)
	}
	out := decode(t, w)
	if out.Pagination.Total != 2 || out.Pagination.TotalPages != 2 || out.Pagination.Page != 2 {
		t.Fatalf("pagination = %+v", out.Pagination)
	}

	for _, q := range []string{"limit=abc", "limit=101", "status=archived"} {
		if w := e.do(httptest.NewRequest(http.MethodGet, "/api/v1/resumes?"+q, nil), alice); w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d", q, w.Code)
		}
	}

	w = e.do(httptest.NewRequest(http.MethodGet, "/api/v1/resumes/search/backend", nil), alice)
	var sums []entity.ResumeSummary
	if err := json.Unmarshal(decode(t, w).Data, &sums); err != nil || len(sums) != 1 {
		t.Fatalf("search = %s (%v)", w.Body, err)
	}

	if w := e.do(httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil), alice); w.Code != http.StatusForbidden {
		t.Fatalf("user stats = %d", w.Code)
	}
	admin := &caller{id: uuid.New(), role: "admin"}
	w = e.do(httptest.NewRequest(http.MethodGet, "/api/v1/admin/resumes", nil), admin)
	if out := decode(t, w); out.Pagination.Total != 3 {
		t.Fatalf("admin list = %s", w.Body)
	}
	w = e.do(httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil), admin)
	var stats entity.ResumeStats
	if err := json.Unmarshal(decode(t, w).Data, &stats); err != nil || stats.Total != 3 || stats.Uploaded != 3 {
		t.Fatalf("stats = %+v (%v)", stats, err)
	}
	w = e.do(httptest.NewRequest(http.MethodGet, "/api/v1/admin/resumes/export.xlsx", nil), admin)
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != xlsxContentType || w.Body.Len() == 0 {
		t.Fatalf("xlsx = %d %q", w.Code, w.Header().Get("Content-Type"))
	}
}

func TestExportAttachment(t *testing.T) {
	e := newEnv(t, RouterConfig{})
	alice := &caller{id: uuid.New()}
	rec := e.seed(t, alice.id, "a.pdf")

	w := e.do(httptest.NewRequest(http.MethodGet, "/api/v1/resumes/"+rec.ID.String()+"/export?includeText=true", nil), alice)
	if w.Code != http.StatusOK {
		t.Fatalf("export = %d, body %s", w.Code, w.Body)
	}
	if got := w.Header().Get("Content-Disposition"); got != `attachment; filename="a.pdf.json"` {
		t.Fatalf("Content-Disposition = %q", got)
	}
	var doc map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	if _, ok := doc["rawText"]; !ok {
		t.Fatalf("rawText missing: %s", w.Body)
	}
}

func TestHealthReportsDependencyFailure(t *testing.T) {
	e := newEnv(t, RouterConfig{Health: func(context.Context) error { return errors.New("db down") }})
	if w := e.do(httptest.NewRequest(http.MethodGet, "/api/v1/health", nil), nil); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("health = %d", w.Code)
	}
}

type memCounter struct {
	mu     sync.Mutex
	counts map[string]int64
}

func (m *memCounter) Incr(_ context.Context, key string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts == nil {
		m.counts = map[string]int64{}
	}
	m.counts[key]++
	return redis.NewIntResult(m.counts[key], nil)
}

func (m *memCounter) Expire(context.Context, string, time.Duration) *redis.BoolCmd {
	return redis.NewBoolResult(true, nil)
}

func (m *memCounter) TTL(context.Context, string) *redis.DurationCmd {
	return redis.NewDurationResult(30*time.Second, nil)
}

func TestUploadRateLimit(t *testing.T) {
	limiter := NewRateLimiter(RateLimiterConfig{Client: &memCounter{}, Limit: 2, Window: time.Minute})
	e := newEnv(t, RouterConfig{UploadLimiter: limiter})
	me := &caller{id: uuid.New()}

	for i := 0; i < 2; i++ {
		if w := e.do(uploadRequest(t, "/api/v1/resumes/upload", "cv.pdf", []byte("%PDF")), me); w.Code != http.StatusCreated {
			t.Fatalf("upload %d = %d", i, w.Code)
		}
	}
	w := e.do(uploadRequest(t, "/api/v1/resumes/upload", "cv.pdf", []byte("%PDF")), me)
	if w.Code != http.StatusTooManyRequests || w.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Fatalf("third upload = %d", w.Code)
	}
	// a different caller has its own window
	if w := e.do(uploadRequest(t, "/api/v1/resumes/upload", "cv.pdf", []byte("%PDF")), &caller{id: uuid.New()}); w.Code != http.StatusCreated {
		t.Fatalf("other caller = %d", w.Code)
	}
}

// windowCounter tracks which keys carry an expiry. Expire fails while
// failExpire > 0.
type windowCounter struct {
	mu         sync.Mutex
	counts     map[string]int64
	ttl        map[string]time.Duration
	failExpire int
}

func (w *windowCounter) Incr(_ context.Context, key string) *redis.IntCmd {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.counts == nil {
		w.counts = map[string]int64{}
		w.ttl = map[string]time.Duration{}
	}
	w.counts[key]++
	return redis.NewIntResult(w.counts[key], nil)
}

func (w *windowCounter) Expire(_ context.Context, key string, d time.Duration) *redis.BoolCmd {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failExpire > 0 {
		w.failExpire--
		return redis.NewBoolResult(false, errors.New("i/o timeout"))
	}
	w.ttl[key] = d
	return redis.NewBoolResult(true, nil)
}

func (w *windowCounter) TTL(_ context.Context, key string) *redis.DurationCmd {
	w.mu.Lock()
	defer w.mu.Unlock()
	if d, ok := w.ttl[key]; ok {
		return redis.NewDurationResult(d, nil)
	}
	if _, ok := w.counts[key]; ok {
		return redis.NewDurationResult(-1, nil)
	}
	return redis.NewDurationResult(-2, nil)
}

// elapse drops every key whose window was armed.
func (w *windowCounter) elapse() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for k := range w.ttl {
		delete(w.counts, k)
		delete(w.ttl, k)
	}
}

func TestUploadRateLimitRearmsLostExpiry(t *testing.T) {
	counter := &windowCounter{failExpire: 1}
	limiter := NewRateLimiter(RateLimiterConfig{Client: counter, Limit: 1, Window: time.Minute})
	e := newEnv(t, RouterConfig{UploadLimiter: limiter})
	me := &caller{id: uuid.New()}
	upload := func() *httptest.ResponseRecorder {
		return e.do(uploadRequest(t, "/api/v1/resumes/upload", "cv.pdf", []byte("%PDF")), me)
	}

	if w := upload(); w.Code != http.StatusCreated {
		t.Fatalf("first upload = %d", w.Code)
	}
	w := upload()
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second upload = %d", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "60" {
		t.Fatalf("Retry-After = %q", got)
	}

	counter.elapse()
	if w := upload(); w.Code != http.StatusCreated {
		t.Fatalf("upload after the window = %d; the counter never expired", w.Code)
	}
}
