package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/resume-ingest/constants"
	"github.com/joseph-ayodele/resume-ingest/internal/common"
	"github.com/joseph-ayodele/resume-ingest/internal/entity"
	"github.com/joseph-ayodele/resume-ingest/internal/extract"
	"github.com/joseph-ayodele/resume-ingest/internal/llm/providers"
	"github.com/joseph-ayodele/resume-ingest/internal/pipeline"
)

type parseOutput struct {
	File       string             `json:"file"`
	MediaType  string             `json:"mediaType"`
	Warnings   []string           `json:"warnings"`
	Confidence int                `json:"aiConfidence"`
	ParsedData *entity.ParsedData `json:"parsedData,omitempty"`
	Text       string             `json:"text,omitempty"`
	Raw        string             `json:"rawResponse,omitempty"`
}

func newParseCmd(opts *rootOptions) *cobra.Command {
	var textOnly, showText, showRaw bool
	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Extract, validate and AI-parse one resume without touching the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path := args[0]
			mt, ok := constants.ResolveMediaType("", filepath.Base(path))
			if !ok {
				return common.NewAppError(common.CodeUnsupportedMedia, "only .pdf and .docx files are supported", nil)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}

			id := uuid.New()
			text, warnings, err := pipeline.NewExtractStage(extract.NewExtractor(opts.logger), opts.logger).Run(ctx, id, data, mt)
			if err != nil {
				return err
			}
			out := parseOutput{File: path, MediaType: string(mt), Warnings: warnings}
			if textOnly {
				out.Text = text
				return printJSON(cmd, out)
			}

			parser, err := providers.NewParser(ctx, opts.cfg.LLM, opts.logger)
			if err != nil {
				return err
			}
			res, err := pipeline.NewParseStage(parser, opts.logger).Run(ctx, id, text)
			if err != nil {
				return err
			}
			out.Confidence = res.Confidence
			out.ParsedData = &res.Data
			if showText {
				out.Text = text
			}
			if showRaw {
				out.Raw = res.RawResponse
			}
			return printJSON(cmd, out)
		},
	}
	cmd.Flags().BoolVar(&textOnly, "text-only", false, "stop after extraction and print the normalized text")
	cmd.Flags().BoolVar(&showText, "text", false, "include the extracted text in the output")
	cmd.Flags().BoolVar(&showRaw, "raw", false, "include the raw AI response in the output")
	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
