package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/resume-ingest/internal/async"
	"github.com/joseph-ayodele/resume-ingest/internal/ingest"
)

func newImportCmd(opts *rootOptions) *cobra.Command {
	var owner string
	var includeHidden, queue bool
	cmd := &cobra.Command{
		Use:   "import <dir>",
		Short: "Ingest every .pdf/.docx under a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ownerID, err := parseOwner(owner)
			if err != nil {
				return err
			}
			deps, err := opts.build(ctx, true)
			if err != nil {
				return err
			}
			defer deps.Close()

			if queue {
				d := async.NewAsynqDispatcher(async.RedisOpt(opts.cfg.Queue), opts.cfg.Queue.PipelineTimeout, opts.logger)
				defer d.Close()
				deps.Processor.Dispatcher = d
			}
			imp := ingest.NewImporter(deps.Processor, opts.logger, opts.cfg.Server.MaxUploadBytes, queue)

			start := time.Now()
			results, stats, err := imp.ImportDirectory(ctx, ownerID, args[0], !includeHidden)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, r := range results {
				if r.Err != "" {
					fmt.Fprintf(w, "FAIL  %s  %s\n", r.SourcePath, r.Err)
					continue
				}
				conf := "-"
				if r.Confidence != nil {
					conf = fmt.Sprint(*r.Confidence)
				}
				fmt.Fprintf(w, "%-10s %s  id=%s confidence=%s\n", r.Status, r.SourcePath, r.ResumeID, conf)
			}
			fmt.Fprintf(w, "\nscanned=%d matched=%d succeeded=%d failed=%d elapsed=%s\n",
				stats.Scanned, stats.Matched, stats.Succeeded, stats.Failed, time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "owner user id (UUID) for the imported records")
	cmd.Flags().BoolVar(&includeHidden, "include-hidden", false, "descend into hidden files and directories")
	cmd.Flags().BoolVar(&queue, "queue", false, "only store the files and hand them to resume-worker via asynq")
	return cmd
}

func newWatchCmd(opts *rootOptions) *cobra.Command {
	var owner string
	var initial bool
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch <dir>...",
		Short: "Ingest resumes as they are dropped into one or more directories",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ownerID, err := parseOwner(owner)
			if err != nil {
				return err
			}
			deps, err := opts.build(ctx, true)
			if err != nil {
				return err
			}
			defer deps.Close()

			imp := ingest.NewImporter(deps.Processor, opts.logger, opts.cfg.Server.MaxUploadBytes, false)
			err = ingest.Watch(ctx, imp, ownerID, ingest.WatchConfig{
				Roots:       args,
				InitialScan: initial,
				Debounce:    debounce,
				Logger:      opts.logger,
			})
			if ctx.Err() != nil {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "owner user id (UUID) for the imported records")
	cmd.Flags().BoolVar(&initial, "initial", false, "import files already present before watching")
	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "quiet period before a changed file is imported")
	return cmd
}
