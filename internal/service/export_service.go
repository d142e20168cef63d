package service

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-scoring/internal/model"
	"github.com/xuri/excelize/v2"
)

const (
	resultsSheet = "Results"
	detailsSheet = "Details"
	timeLayout   = "2006-01-02 15:04:05"
)

var (
	resultHeaders = []any{
		"Submission ID", "Candidate", "Status", "Correct", "Total", "Percentage", "Band", "Submitted At",
	}
	detailHeaders = []any{
		"Submission ID", "Candidate", "Question", "Part", "Section", "Type", "Answer", "Expected", "Correct",
	}
)

// ResultSource lists the finished submissions of a test.
type ResultSource interface {
	ListResults(ctx context.Context, testID uuid.UUID) ([]model.SubmissionResult, error)
}

// ExportService renders test results as an xlsx workbook.
type ExportService struct {
	results ResultSource
	tests   DefinitionSource
	log     zerolog.Logger
}

// NewExportService creates a new ExportService.
func NewExportService(results ResultSource, tests DefinitionSource, log zerolog.Logger) *ExportService {
	return &ExportService{
		results: results,
		tests:   tests,
		log:     log.With().Str("component", "export_service").Logger(),
	}
}

// Workbook builds the Results and Details sheets for a test.
func (s *ExportService) Workbook(ctx context.Context, testID uuid.UUID) (*excelize.File, error) {
	if _, err := s.tests.Definition(ctx, testID); err != nil {
		return nil, err
	}
	results, err := s.results.ListResults(ctx, testID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", resultsSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("create results sheet: %w", err)
	}
	if _, err := f.NewSheet(detailsSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("create details sheet: %w", err)
	}

	if err := writeRow(f, resultsSheet, 1, resultHeaders); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeRow(f, detailsSheet, 1, detailHeaders); err != nil {
		f.Close()
		return nil, err
	}

	detailRow := 2
	for i, r := range results {
		submitted := ""
		if r.SubmittedAt != nil {
			submitted = r.SubmittedAt.Format(timeLayout)
		}
		row := []any{
			r.SubmissionID.String(), r.CandidateRef, string(r.Status),
			r.CorrectCount, r.TotalCount, r.Percentage, r.Band, submitted,
		}
		if err := writeRow(f, resultsSheet, i+2, row); err != nil {
			f.Close()
			return nil, err
		}

		for _, d := range r.Details {
			row := []any{
				r.SubmissionID.String(), r.CandidateRef, d.QuestionNumber, d.PartIndex + 1, d.SectionIndex + 1,
				d.QuestionType, d.StudentAnswer, d.CorrectAnswer, d.IsCorrect,
			}
			if err := writeRow(f, detailsSheet, detailRow, row); err != nil {
				f.Close()
				return nil, err
			}
			detailRow++
		}
	}

	s.log.Debug().
		Str("test_id", testID.String()).
		Int("submissions", len(results)).
		Int("details", detailRow-2).
		Msg("Workbook built")
	return f, nil
}

// Write streams the workbook of a test to w.
func (s *ExportService) Write(ctx context.Context, testID uuid.UUID, w io.Writer) error {
	f, err := s.Workbook(ctx, testID)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}
