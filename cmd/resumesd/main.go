package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/resume-ingest/internal/app"
	"github.com/joseph-ayodele/resume-ingest/internal/async"
	"github.com/joseph-ayodele/resume-ingest/internal/common"
	"github.com/joseph-ayodele/resume-ingest/internal/server"
	"github.com/joseph-ayodele/resume-ingest/internal/services/resumes"
)

func main() {
	cfg := common.LoadConfig()
	logger := app.NewLogger(cfg.Log, os.Stdout)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}
	if app.ParseLevel(cfg.Log.Level) != slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := app.Build(ctx, cfg, logger, app.Options{Migrate: true})
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer deps.Close()
	processor := deps.Processor

	// background dispatch for ?async=true uploads
	var queue *async.ProcessorQueue
	switch cfg.Queue.Backend {
	case "asynq":
		d := async.NewAsynqDispatcher(async.RedisOpt(cfg.Queue), cfg.Queue.PipelineTimeout, logger)
		defer func() {
			if err := d.Close(); err != nil {
				logger.Warn("close asynq client", "error", err)
			}
		}()
		processor.Dispatcher = d
		logger.Info("async uploads dispatched to asynq", "redis", cfg.Queue.RedisAddr)
	default:
		queue = async.NewProcessorQueue(processor, logger,
			async.WithWorkers(cfg.Queue.Workers),
			async.WithQueueSize(cfg.Queue.Size),
			async.WithProcessTimeout(cfg.Queue.PipelineTimeout),
		)
		processor.Dispatcher = queue
	}

	routerCfg := server.RouterConfig{
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		CORSOrigins:    cfg.Server.CORSOrigins,
		Health:         server.Pinger(deps.DB, 2*time.Second, logger),
	}
	if cfg.Queue.RedisAddr != "" && cfg.RateLimit.Uploads > 0 {
		rdb, err := server.NewRedisClient(ctx, cfg.Queue.RedisAddr, cfg.Queue.RedisPassword, cfg.Queue.RedisDB)
		if err != nil {
			logger.Error("rate limiter disabled", "error", err)
		} else {
			defer rdb.Close()
			routerCfg.UploadLimiter = server.NewRateLimiter(server.RateLimiterConfig{
				Client: rdb,
				Limit:  cfg.RateLimit.Uploads,
				Window: cfg.RateLimit.Window,
				Logger: logger,
			})
			logger.Info("upload rate limit enabled", "limit", cfg.RateLimit.Uploads, "window", cfg.RateLimit.Window)
		}
	}

	svc := resumes.NewService(deps.Repo, deps.Store, processor, logger)
	httpSrv := server.NewHTTPServer(cfg.Server.HTTPAddr, server.NewRouter(svc, routerCfg, logger))

	grpcSrv, hs := server.NewGRPCServer(logger)
	go server.MonitorHealth(ctx, hs, routerCfg.Health, 15*time.Second, logger)

	errCh := make(chan error, 2)
	if cfg.Server.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
		if err != nil {
			logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
			os.Exit(1)
		}
		go func() {
			logger.Info("grpc health listening", "addr", cfg.Server.GRPCAddr)
			errCh <- grpcSrv.Serve(lis)
		}()
	}
	go func() {
		logger.Info("resume-ingest listening",
			"addr", cfg.Server.HTTPAddr,
			"storage", deps.Store.Name(),
			"queue", cfg.Queue.Backend,
			"llm", cfg.LLM.Provider,
		)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("server failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
	grpcSrv.GracefulStop()
	if queue != nil {
		queue.Shutdown(shutdownCtx)
	}
	logger.Info("stopped")
}
