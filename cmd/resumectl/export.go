package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/resume-ingest/constants"
	"github.com/joseph-ayodele/resume-ingest/internal/entity"
	"github.com/joseph-ayodele/resume-ingest/internal/export"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	var includeText bool
	var out, xlsx, owner, status, search string
	cmd := &cobra.Command{
		Use:   "export [id]",
		Short: "Export one record as JSON, or many as an XLSX workbook with --xlsx",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if (len(args) == 0) == (xlsx == "") {
				return fmt.Errorf("pass either a record id or --xlsx <file>")
			}
			deps, err := opts.build(ctx, false)
			if err != nil {
				return err
			}
			defer deps.Close()

			if xlsx != "" {
				filter := entity.ResumeFilter{Search: search}
				if filter.OwnerID, err = parseOwner(owner); err != nil {
					return err
				}
				if status != "" {
					st, ok := constants.ParseStatus(status)
					if !ok {
						return fmt.Errorf("unknown --status %q", status)
					}
					filter.Status = &st
				}
				b, err := export.NewService(deps.Repo, opts.logger).ExportResumesXLSX(ctx, filter)
				if err != nil {
					return err
				}
				if err := os.WriteFile(xlsx, b, 0o644); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", xlsx, len(b))
				return nil
			}

			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid id %q: %w", args[0], err)
			}
			rec, err := deps.Repo.GetByID(ctx, id)
			if err != nil {
				return err
			}
			doc := export.BuildJSON(rec, includeText)
			if out == "" {
				return printJSON(cmd, doc)
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			defer f.Close()
			cmd.SetOut(f)
			return printJSON(cmd, doc)
		},
	}
	cmd.Flags().BoolVar(&includeText, "text", false, "include the extracted raw text")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the JSON document to a file instead of stdout")
	cmd.Flags().StringVar(&xlsx, "xlsx", "", "write an XLSX workbook of matching records to this path")
	cmd.Flags().StringVar(&owner, "owner", "", "with --xlsx: only records of this owner")
	cmd.Flags().StringVar(&status, "status", "", "with --xlsx: only records in this processing status")
	cmd.Flags().StringVar(&search, "search", "", "with --xlsx: substring filter over name, email, skills")
	return cmd
}
