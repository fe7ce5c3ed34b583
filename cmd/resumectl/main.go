package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/resume-ingest/internal/app"
	"github.com/joseph-ayodele/resume-ingest/internal/common"
)

type rootOptions struct {
	inmem    bool
	logLevel string
	cfg      *common.Config
	logger   *slog.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "resumectl: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "resumectl",
		Short: "Resume ingestion developer CLI",
		Long: `resumectl runs the resume pipeline outside the HTTP server: parse a single file,
bulk-import or watch a directory, export records, and manage the database.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			opts.cfg = common.LoadConfig()
			if opts.logLevel != "" {
				opts.cfg.Log.Level = opts.logLevel
			}
			// stdout carries command output
			opts.logger = app.NewLogger(opts.cfg.Log, os.Stderr)
			slog.SetDefault(opts.logger)
		},
	}
	cmd.PersistentFlags().BoolVar(&opts.inmem, "inmem", false, "use a throwaway in-memory SQLite database")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override LOG_LEVEL (debug, info, warn, error)")
	cmd.AddCommand(
		newParseCmd(opts),
		newImportCmd(opts),
		newWatchCmd(opts),
		newExportCmd(opts),
		newMigrateCmd(opts),
		newDBHealthCmd(opts),
	)
	return cmd
}

// build opens the shared components for one command run.
func (o *rootOptions) build(ctx context.Context, withPipeline bool) (*app.Deps, error) {
	return app.Build(ctx, o.cfg, o.logger, app.Options{
		InMemory:   o.inmem,
		Migrate:    o.inmem,
		SkipParser: !withPipeline,
	})
}

func parseOwner(s string) (*uuid.UUID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("invalid --owner %q: %w", s, err)
	}
	return &id, nil
}
