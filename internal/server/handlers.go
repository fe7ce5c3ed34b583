package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/resume-ingest/internal/common"
	"github.com/joseph-ayodele/resume-ingest/internal/entity"
	"github.com/joseph-ayodele/resume-ingest/internal/pipeline"
	"github.com/joseph-ayodele/resume-ingest/internal/services/resumes"
)

// multipart framing allowed on top of the file itself
const multipartSlack = 64 << 10

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handler serves the resume REST endpoints.
type Handler struct {
	svc       *resumes.Service
	logger    *slog.Logger
	maxUpload int64
	health    func(ctx context.Context) error
}

func (h *Handler) Health(c *gin.Context) {
	if h.health != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.health(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
}

// Upload accepts one multipart "file" part and runs (or queues) the pipeline.
func (h *Handler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload+multipartSlack)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			h.tooLarge(c)
			return
		}
		respondError(c, common.NewAppError(common.CodeInvalidInput, "no file uploaded", common.ErrInvalidInput))
		return
	}
	if fh.Size > h.maxUpload {
		h.tooLarge(c)
		return
	}

	f, err := fh.Open()
	if err != nil {
		respondError(c, fmt.Errorf("open upload: %w", err))
		return
	}
	data, err := io.ReadAll(f)
	_ = f.Close()
	if err != nil {
		respondError(c, fmt.Errorf("read upload: %w", err))
		return
	}

	async, _ := strconv.ParseBool(c.DefaultQuery("async", "false"))
	out, err := h.svc.Upload(c.Request.Context(), callerOf(c), resumes.UploadRequest{
		FileName:  fh.Filename,
		MediaType: fh.Header.Get("Content-Type"),
		Data:      data,
		Async:     async,
	})
	if err != nil {
		common.LoggerFromContext(c.Request.Context(), h.logger).Warn("http.upload.failed",
			"file", fh.Filename,
			"size", fh.Size,
			"error", err,
		)
		respondOutcomeError(c, out, err)
		return
	}

	status := http.StatusCreated
	if async {
		status = http.StatusAccepted
	}
	c.JSON(status, gin.H{
		"data":     out.Record.Summary(),
		"warnings": warningsOf(out),
	})
}

func (h *Handler) List(c *gin.Context) {
	req, err := listRequest(c)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondList(c, req)
}

func (h *Handler) AdminList(c *gin.Context) {
	req, err := listRequest(c)
	if err != nil {
		respondError(c, err)
		return
	}
	req.All = true
	h.respondList(c, req)
}

func (h *Handler) Search(c *gin.Context) {
	page, err := queryInt(c, "page")
	if err != nil {
		respondError(c, err)
		return
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		respondError(c, err)
		return
	}
	recs, p, err := h.svc.Search(c.Request.Context(), callerOf(c), c.Param("query"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": summaries(recs), "pagination": p})
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	rec, err := h.svc.Get(c.Request.Context(), callerOf(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rec})
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), callerOf(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "resume deleted", "id": id})
}

// Export sends the JSON export document as an attachment.
func (h *Handler) Export(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	includeText, _ := strconv.ParseBool(c.DefaultQuery("includeText", "false"))
	doc, name, err := h.svc.Export(c.Request.Context(), callerOf(c), id, includeText)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.IndentedJSON(http.StatusOK, doc)
}

func (h *Handler) AdminExportXLSX(c *gin.Context) {
	req, err := listRequest(c)
	if err != nil {
		respondError(c, err)
		return
	}
	b, err := h.svc.ExportXLSX(c.Request.Context(), callerOf(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	name := "resumes-" + time.Now().UTC().Format("20060102") + ".xlsx"
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, xlsxContentType, b)
}

func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context(), callerOf(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": stats})
}

func (h *Handler) respondList(c *gin.Context, req resumes.ListRequest) {
	recs, p, err := h.svc.List(c.Request.Context(), callerOf(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": summaries(recs), "pagination": p})
}

func (h *Handler) tooLarge(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
		"error": fmt.Sprintf("file exceeds %d bytes", h.maxUpload),
		"code":  common.CodeInvalidInput,
	})
}

func listRequest(c *gin.Context) (resumes.ListRequest, error) {
	page, err := queryInt(c, "page")
	if err != nil {
		return resumes.ListRequest{}, err
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return resumes.ListRequest{}, err
	}
	return resumes.ListRequest{
		Page:   page,
		Limit:  limit,
		Status: c.Query("status"),
		Search: c.Query("search"),
	}, nil
}

// queryInt reads an optional integer query parameter; absent means 0.
func queryInt(c *gin.Context, name string) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, common.NewAppError(common.CodeInvalidInput, name+" must be an integer", common.ErrInvalidInput)
	}
	return n, nil
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, common.NewAppError(common.CodeInvalidInput, "invalid resume id", common.ErrInvalidInput))
		return uuid.Nil, false
	}
	return id, true
}

func respondError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(common.HTTPStatus(err), errorBody(err))
}

// respondOutcomeError reports a stage failure together with the record it
// left behind, when there is one.
func respondOutcomeError(c *gin.Context, out pipeline.Outcome, err error) {
	body := errorBody(err)
	if out.Record != nil {
		body["data"] = out.Record.Summary()
		body["warnings"] = warningsOf(out)
	}
	c.AbortWithStatusJSON(common.HTTPStatus(err), body)
}

func errorBody(err error) gin.H {
	body := gin.H{"error": common.Message(err)}
	var ae *common.AppError
	if errors.As(err, &ae) {
		body["code"] = ae.Code
	}
	return body
}

func summaries(recs []entity.ResumeRecord) []entity.ResumeSummary {
	out := make([]entity.ResumeSummary, 0, len(recs))
	for i := range recs {
		out = append(out, recs[i].Summary())
	}
	return out
}

func warningsOf(out pipeline.Outcome) []string {
	if out.Warnings == nil {
		return []string{}
	}
	return out.Warnings
}
