package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/joseph-ayodele/resume-ingest/internal/app"
	"github.com/joseph-ayodele/resume-ingest/internal/async"
	"github.com/joseph-ayodele/resume-ingest/internal/common"
)

func main() {
	cfg := common.LoadConfig()
	logger := app.NewLogger(cfg.Log, os.Stdout)
	cfg.Queue.Backend = "asynq"
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := app.Build(ctx, cfg, logger, app.Options{})
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer deps.Close()

	srv := asynq.NewServer(async.RedisOpt(cfg.Queue), asynq.Config{
		Concurrency:     cfg.Queue.Workers,
		Queues:          map[string]int{"default": 1},
		ShutdownTimeout: cfg.Queue.PipelineTimeout,
		Logger:          async.NewAsynqLogger(logger),
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			logger.Error("worker.task.failed",
				"type", task.Type(),
				"retry", retried,
				"max_retry", maxRetry,
				"error", err,
			)
		}),
	})

	handler := async.NewTaskHandler(deps.Processor, logger)
	if err := srv.Start(handler.Mux()); err != nil {
		logger.Error("failed to start worker", "error", err)
		os.Exit(1)
	}
	logger.Info("resume-worker started", "redis", cfg.Queue.RedisAddr, "concurrency", cfg.Queue.Workers)

	<-ctx.Done()
	logger.Info("shutdown signal received")
	srv.Shutdown()
	logger.Info("stopped")
}
