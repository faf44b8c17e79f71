package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/fdecunta/screenie/internal/domain"
	"github.com/fdecunta/screenie/internal/telemetry"
)

// ExportFormat selects the export encoding.
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportJSON ExportFormat = "json"
)

// exportColumns is the CSV header. Unscreened studies leave verdict and
// reason empty.
var exportColumns = []string{"study_id", "title", "authors", "year", "journal", "doi", "url", "verdict", "reason"}

// Status is a snapshot of the store.
type Status struct {
	Studies int64
	Recipes []*RecipeSummary
}

// ReportService reads screening progress and exports results
type ReportService struct {
	studyRepo  StudyRepositoryInterface
	resultRepo ResultRepositoryInterface
}

// NewReportService creates a new ReportService instance
func NewReportService(studyRepo StudyRepositoryInterface, resultRepo ResultRepositoryInterface) *ReportService {
	return &ReportService{studyRepo: studyRepo, resultRepo: resultRepo}
}

// Status returns the study count and per-recipe progress.
func (s *ReportService) Status(ctx context.Context) (*Status, error) {
	ctx, span := telemetry.StartSpan(ctx, "ReportService.Status", telemetry.SpanAttributes{
		Operation: "status",
	})
	defer span.End()

	count, err := s.studyRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	summaries, err := s.resultRepo.Summaries(ctx)
	if err != nil {
		return nil, err
	}
	return &Status{Studies: count, Recipes: summaries}, nil
}

// Export writes every study with its result under the recipe to w.
func (s *ReportService) Export(ctx context.Context, w io.Writer, recipeID int64, format ExportFormat) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "ReportService.Export", telemetry.SpanAttributes{
		RecipeID:  recipeID,
		Operation: "export",
	})
	defer span.End()

	rows, err := s.resultRepo.ListForExport(ctx, recipeID)
	if err != nil {
		return 0, err
	}

	switch format {
	case ExportCSV, "":
		err = writeCSV(w, rows)
	case ExportJSON:
		err = writeJSON(w, rows)
	default:
		return 0, fmt.Errorf("%w: export format %q (expected csv or json)", domain.ErrUnsupportedFormat, format)
	}
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

func writeCSV(w io.Writer, rows []*ExportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportColumns); err != nil {
		return err
	}
	for _, row := range rows {
		st := row.Study
		record := []string{
			strconv.FormatInt(st.ID, 10),
			st.Title,
			st.Authors,
			strconv.Itoa(st.Year),
			st.Journal,
			st.DOI,
			st.URL,
			"",
			row.Reason,
		}
		if row.Verdict != nil {
			record[7] = row.Verdict.String()
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type exportRecord struct {
	StudyID int64           `json:"study_id"`
	Title   string          `json:"title"`
	Authors string          `json:"authors"`
	Year    int             `json:"year"`
	Journal string          `json:"journal"`
	DOI     string          `json:"doi,omitempty"`
	URL     string          `json:"url,omitempty"`
	Verdict *domain.Verdict `json:"verdict"`
	Reason  string          `json:"reason,omitempty"`
}

func writeJSON(w io.Writer, rows []*ExportRow) error {
	records := make([]exportRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, exportRecord{
			StudyID: row.Study.ID,
			Title:   row.Study.Title,
			Authors: row.Study.Authors,
			Year:    row.Study.Year,
			Journal: row.Study.Journal,
			DOI:     row.Study.DOI,
			URL:     row.Study.URL,
			Verdict: row.Verdict,
			Reason:  row.Reason,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}
