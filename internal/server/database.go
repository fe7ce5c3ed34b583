package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/resume-ingest/internal/common"
	"github.com/joseph-ayodele/resume-ingest/internal/repository"
)

// ConnectDB opens the Resume Store described by cfg and verifies it answers a ping.
func ConnectDB(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*repository.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := repository.Open(ctx, repository.Config{
		Driver:           cfg.Driver,
		DSN:              cfg.DSN,
		MaxConns:         cfg.MaxConns,
		MinConns:         cfg.MinConns,
		MaxConnLifetime:  cfg.MaxConnLifetime,
		MaxConnIdleTime:  cfg.MaxConnIdleTime,
		DialTimeout:      cfg.DialTimeout,
		StatementTimeout: cfg.StatementTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to connect to database", "driver", cfg.Driver, "error", err)
		return nil, err
	}
	if err := db.HealthCheck(ctx, dialTimeout(cfg), logger); err != nil {
		db.Close(logger)
		return nil, err
	}
	logger.Info("successfully connected to database", "driver", db.Dialect())
	return db, nil
}

// Pinger returns a health check bound to db.
func Pinger(db *repository.DB, timeout time.Duration, logger *slog.Logger) func(context.Context) error {
	return func(ctx context.Context) error {
		return db.HealthCheck(ctx, timeout, logger)
	}
}

func dialTimeout(cfg common.DatabaseConfig) time.Duration {
	if cfg.DialTimeout > 0 {
		return cfg.DialTimeout
	}
	return 3 * time.Second
}
