// Package app wires configuration into the components the binaries share.
package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joseph-ayodele/resume-ingest/internal/common"
	"github.com/joseph-ayodele/resume-ingest/internal/events"
	"github.com/joseph-ayodele/resume-ingest/internal/extract"
	"github.com/joseph-ayodele/resume-ingest/internal/llm/providers"
	"github.com/joseph-ayodele/resume-ingest/internal/pipeline"
	"github.com/joseph-ayodele/resume-ingest/internal/repository"
	"github.com/joseph-ayodele/resume-ingest/internal/server"
	"github.com/joseph-ayodele/resume-ingest/internal/storage"
)

// NewLogger builds the process logger from LOG_LEVEL / LOG_FORMAT.
func NewLogger(cfg common.LogConfig, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	var h slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

// ParseLevel maps debug|info|warn|error to a slog level; anything else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Options tune Build for the calling binary.
type Options struct {
	// InMemory swaps the configured database for a private SQLite one.
	InMemory bool
	// Migrate creates the schema before returning.
	Migrate bool
	// SkipParser leaves Processor nil; for commands that never run the pipeline.
	SkipParser bool
}

// Deps are the long-lived components of one process.
type Deps struct {
	Config    *common.Config
	Logger    *slog.Logger
	DB        *repository.DB
	Repo      repository.ResumeRepository
	Store     storage.FileStore
	Events    events.Publisher
	Processor *pipeline.Processor
}

// Build connects the database, file store, event publisher and (unless
// skipped) the pipeline. Close releases whatever was opened.
func Build(ctx context.Context, cfg *common.Config, logger *slog.Logger, opts Options) (*Deps, error) {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Deps{Config: cfg, Logger: logger, Events: events.Nop{}}

	dbCfg := cfg.Database
	if opts.InMemory {
		dbCfg.Driver = "sqlite"
		dbCfg.DSN = "file::memory:"
		opts.Migrate = true
	}
	db, err := server.ConnectDB(ctx, dbCfg, logger)
	if err != nil {
		return nil, err
	}
	d.DB = db
	if opts.Migrate {
		if err := repository.Migrate(ctx, db); err != nil {
			d.Close()
			return nil, err
		}
		logger.Info("schema migrated", "driver", db.Dialect())
	}
	d.Repo = repository.NewResumeRepository(db, logger)

	if d.Store, err = storage.New(ctx, cfg.Storage, logger); err != nil {
		d.Close()
		return nil, err
	}

	if cfg.Events.RabbitMQURL != "" {
		pub, err := events.NewAMQPPublisher(cfg.Events.RabbitMQURL, cfg.Events.Exchange, logger)
		if err != nil {
			d.Close()
			return nil, err
		}
		d.Events = pub
	} else if ParseLevel(cfg.Log.Level) == slog.LevelDebug {
		d.Events = events.Logging{Logger: logger}
	}

	if opts.SkipParser {
		return d, nil
	}
	parser, err := providers.NewParser(ctx, cfg.LLM, logger)
	if err != nil {
		d.Close()
		return nil, err
	}
	d.Processor = pipeline.NewProcessor(logger, d.Repo, d.Store, extract.NewExtractor(logger), parser,
		pipeline.WithPublisher(d.Events),
		pipeline.WithTimeout(cfg.Queue.PipelineTimeout),
	)
	return d, nil
}

// Close releases the publisher and database.
func (d *Deps) Close() {
	if d == nil {
		return
	}
	if d.Events != nil {
		if err := d.Events.Close(); err != nil && !errors.Is(err, context.Canceled) {
			d.Logger.Warn("close event publisher", "error", err)
		}
	}
	d.DB.Close(d.Logger)
}
