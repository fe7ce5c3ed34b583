package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/resume-ingest/internal/entity"
	"github.com/joseph-ayodele/resume-ingest/internal/repository"
)

const (
	sheet    = "Resumes"
	pageSize = 100
)

// Service is a tiny façade over the Resume Store that produces export files.
type Service struct {
	repo   repository.ResumeRepository
	logger *slog.Logger
}

func NewService(repo repository.ResumeRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// ExportResumesXLSX returns an XLSX workbook (as bytes) of every record that
// matches filter. Page and Limit on the filter are ignored.
func (s *Service) ExportResumesXLSX(ctx context.Context, filter entity.ResumeFilter) ([]byte, error) {
	start := time.Now()

	var recs []entity.ResumeRecord
	filter.Limit = pageSize
	for page := 1; ; page++ {
		filter.Page = page
		batch, total, err := s.repo.List(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("query resumes: %w", err)
		}
		recs = append(recs, batch...)
		if len(batch) == 0 || len(recs) >= total {
			break
		}
	}

	b, err := WriteXLSX(recs)
	if err != nil {
		return nil, err
	}
	s.logger.Info("export.xlsx.ok",
		"rows", len(recs),
		"bytes", len(b),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return b, nil
}

var headers = []string{
	"Uploaded At",
	"File Name",
	"Status",
	"Confidence",
	"Full Name",
	"Email",
	"Phone",
	"Skills",
	"Latest Position",
	"Education",
	"Error",
}

// WriteXLSX renders one row per record.
func WriteXLSX(recs []entity.ResumeRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	_ = f.DeleteSheet("Sheet1")

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, r := range recs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		pd := r.ParsedData

		write(1, r.CreatedAt.UTC().Format("2006-01-02 15:04"))
		write(2, r.OriginalFileName)
		write(3, string(r.Status))
		if r.AIConfidence != nil {
			write(4, *r.AIConfidence)
		} else {
			write(4, "")
		}
		write(5, deref(pd.FullName))
		write(6, deref(pd.Email))
		write(7, deref(pd.Phone))
		write(8, strings.Join(pd.Skills, ", "))
		write(9, latestPosition(pd.Experience))
		write(10, educationLine(pd.Education))
		write(11, truncate(deref(r.ProcessingError), 140))

		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 18) // uploaded
	_ = f.SetColWidth(sheet, "B", "B", 32) // file
	_ = f.SetColWidth(sheet, "C", "D", 12) // status, confidence
	_ = f.SetColWidth(sheet, "E", "G", 24) // contact
	_ = f.SetColWidth(sheet, "H", "H", 48) // skills
	_ = f.SetColWidth(sheet, "I", "J", 36)
	_ = f.SetColWidth(sheet, "K", "K", 48) // error

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func latestPosition(exp []entity.Experience) string {
	if len(exp) == 0 {
		return ""
	}
	e := exp[0]
	switch {
	case e.Position != "" && e.Company != "":
		return e.Position + " @ " + e.Company
	case e.Position != "":
		return e.Position
	default:
		return e.Company
	}
}

func educationLine(edu []entity.Education) string {
	if len(edu) == 0 {
		return ""
	}
	e := edu[0]
	parts := make([]string, 0, 2)
	if e.Degree != "" {
		parts = append(parts, e.Degree)
	}
	if e.Institution != "" {
		parts = append(parts, e.Institution)
	}
	return strings.Join(parts, ", ")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// truncate keeps at most n bytes of s, cut on a rune boundary.
func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	cut := n - 1
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}
