package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/resume-ingest/internal/repository"
	"github.com/joseph-ayodele/resume-ingest/internal/server"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the resumes table and indexes if missing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			db, err := server.ConnectDB(ctx, opts.cfg.Database, opts.logger)
			if err != nil {
				return err
			}
			defer db.Close(opts.logger)
			if err := repository.Migrate(ctx, db); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema up to date (%s)\n", db.Dialect())
			return nil
		},
	}
}

func newDBHealthCmd(opts *rootOptions) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "dbhealth",
		Short: "Ping the database and print record counts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			db, err := server.ConnectDB(ctx, opts.cfg.Database, opts.logger)
			if err != nil {
				return fmt.Errorf("DB health: FAIL (%w)", err)
			}
			defer db.Close(opts.logger)
			if err := db.HealthCheck(ctx, timeout, opts.logger); err != nil {
				return fmt.Errorf("DB health: FAIL (%w)", err)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, "DB health: OK")

			stats, err := repository.NewResumeRepository(db, opts.logger).Stats(ctx, nil, time.Now().Add(-30*24*time.Hour))
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "resumes: total=%d uploaded=%d processing=%d completed=%d failed=%d recent=%d\n",
				stats.Total, stats.Uploaded, stats.Processing, stats.Completed, stats.Failed, stats.Recent)
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", time.Second, "ping timeout")
	return cmd
}
