package server

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/resume-ingest/internal/common"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderUserID    = "X-User-ID"
	HeaderUserRole  = "X-User-Role"

	callerKey = "caller"
)

// RequestContext assigns a request id, attaches a request-scoped logger and
// logs each request once it completes.
func RequestContext(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqID := strings.TrimSpace(c.GetHeader(HeaderRequestID))
		if reqID == "" {
			reqID = uuid.NewString()
		}
		reqLogger := logger.With("req_id", reqID)

		ctx := common.WithRequestID(c.Request.Context(), reqID)
		ctx = common.WithLogger(ctx, reqLogger)
		c.Request = c.Request.WithContext(ctx)
		c.Header(HeaderRequestID, reqID)

		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", status,
			"bytes", c.Writer.Size(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		}
		switch {
		case status >= http.StatusInternalServerError:
			reqLogger.Error("http.request", attrs...)
		case status >= http.StatusBadRequest:
			reqLogger.Warn("http.request", attrs...)
		default:
			reqLogger.Info("http.request", attrs...)
		}
	}
}

// CallerAuth trusts the identity headers set by the upstream gateway.
func CallerAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if raw == "" {
			respondError(c, common.NewAppError(common.CodeUnauthorized, "missing user id", nil))
			return
		}
		id, err := uuid.Parse(raw)
		if err != nil || id == uuid.Nil {
			respondError(c, common.NewAppError(common.CodeUnauthorized, "invalid user id", nil))
			return
		}
		role := common.Role(strings.ToLower(strings.TrimSpace(c.GetHeader(HeaderUserRole))))
		switch role {
		case "":
			role = common.RoleUser
		case common.RoleUser, common.RoleAdmin:
		default:
			respondError(c, common.NewAppError(common.CodeUnauthorized, "invalid user role", nil))
			return
		}

		caller := common.Caller{UserID: id, Role: role}
		ctx := common.WithCaller(c.Request.Context(), caller)
		ctx = common.WithLogger(ctx, common.LoggerFromContext(ctx, nil).With("user_id", id))
		c.Request = c.Request.WithContext(ctx)
		c.Set(callerKey, caller)
		c.Next()
	}
}

// RequireAdmin rejects callers without the admin role.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !callerOf(c).IsAdmin() {
			respondError(c, common.NewAppError(common.CodeForbidden, "admin access required", nil))
			return
		}
		c.Next()
	}
}

func callerOf(c *gin.Context) common.Caller {
	if v, ok := c.Get(callerKey); ok {
		if caller, ok := v.(common.Caller); ok {
			return caller
		}
	}
	caller, _ := common.CallerFromContext(c.Request.Context())
	return caller
}
