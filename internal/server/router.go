package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/resume-ingest/internal/services/resumes"
)

// RouterConfig wires optional pieces of the REST API.
type RouterConfig struct {
	MaxUploadBytes int64
	CORSOrigins    []string
	// UploadLimiter is applied to the upload route when set.
	UploadLimiter gin.HandlerFunc
	// Health pings dependencies for GET /health; nil always reports ok.
	Health func(ctx context.Context) error
}

// NewRouter builds the /api/v1 gin engine over the resume service.
func NewRouter(svc *resumes.Service, cfg RouterConfig, logger *slog.Logger) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 5 << 20
	}
	h := &Handler{svc: svc, logger: logger, maxUpload: cfg.MaxUploadBytes, health: cfg.Health}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestContext(logger))

	corsCfg := cors.DefaultConfig()
	if len(cfg.CORSOrigins) == 0 || (len(cfg.CORSOrigins) == 1 && cfg.CORSOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.CORSOrigins
		corsCfg.AllowCredentials = true
	}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", HeaderRequestID, HeaderUserID, HeaderUserRole}
	corsCfg.ExposeHeaders = []string{"Content-Disposition", HeaderRequestID, "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"}
	corsCfg.MaxAge = 12 * time.Hour
	r.Use(cors.New(corsCfg))

	api := r.Group("/api/v1")
	api.GET("/health", h.Health)

	authed := api.Group("")
	authed.Use(CallerAuth())
	{
		upload := []gin.HandlerFunc{h.Upload}
		if cfg.UploadLimiter != nil {
			upload = append([]gin.HandlerFunc{cfg.UploadLimiter}, upload...)
		}
		authed.POST("/resumes/upload", upload...)
		authed.GET("/resumes", h.List)
		authed.GET("/resumes/search/:query", h.Search)
		authed.GET("/resumes/:id", h.Get)
		authed.DELETE("/resumes/:id", h.Delete)
		authed.GET("/resumes/:id/export", h.Export)
	}

	admin := authed.Group("/admin")
	admin.Use(RequireAdmin())
	{
		admin.GET("/resumes", h.AdminList)
		admin.GET("/resumes/export.xlsx", h.AdminExportXLSX)
		admin.GET("/stats", h.Stats)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})
	return r
}

// NewHTTPServer wraps the router with the timeouts the binaries use.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}
}
