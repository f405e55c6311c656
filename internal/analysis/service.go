// Package analysis runs the sector analysis pipeline: validate the sector,
// collect market snippets, ask the model for a Markdown report and archive
// the result for its owner.
package analysis

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"tradeops/internal/llm"
	"tradeops/internal/models"
	"tradeops/internal/storage"
)

// Searcher collects snippets for a query.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]models.Snippet, error)
}

// QueryFunc turns a sector into search text.
type QueryFunc func(sector string) string

// Service handles report generation and archive lookups
type Service struct {
	searcher    Searcher
	query       QueryFunc
	generator   llm.Generator
	reports     storage.ReportStore
	maxSnippets int
	logger      *slog.Logger
}

// NewService creates an analysis service. reports may be nil, in which case
// reports are not archived and listing returns nothing.
func NewService(searcher Searcher, query QueryFunc, generator llm.Generator, reports storage.ReportStore, maxSnippets int, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		searcher:    searcher,
		query:       query,
		generator:   generator,
		reports:     reports,
		maxSnippets: maxSnippets,
		logger:      logger,
	}
}

// ValidateSector validates a raw sector parameter as given, then lower-cases
// it. Surrounding whitespace is rejected like any other non-letter.
// Failures are *ServiceError with status 400.
func ValidateSector(raw string) (string, error) {
	param := models.SectorParam{Sector: raw}
	if err := param.Validate(); err != nil {
		return "", NewInvalidSectorError(err)
	}
	param.Normalize()
	return param.Sector, nil
}

// Analyze produces a report on sector for owner. Archive failures are logged
// and leave ReportID empty; they never fail the request.
func (s *Service) Analyze(ctx context.Context, owner, sector string) (*models.AnalyzeResponse, error) {
	sector, err := ValidateSector(sector)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	logger := s.logger.With("sector", sector, "user", owner)

	snippets, err := s.searcher.Search(ctx, s.query(sector), s.maxSnippets)
	if err != nil {
		logger.Error("Data collection failed", "error", err)
		return nil, NewCollectionError(err)
	}
	logger.Debug("Collected snippets", "count", len(snippets))

	text, err := s.generator.Generate(ctx, llm.BuildPrompt(sector, snippets))
	if err != nil {
		logger.Error("LLM analysis failed", "model", s.generator.Model(), "error", err)
		return nil, NewGenerationError(err)
	}

	resp := &models.AnalyzeResponse{
		Sector:         sector,
		GeneratedAt:    time.Now().UTC(),
		ReportMarkdown: text,
		Model:          s.generator.Model(),
		Sources:        len(snippets),
	}

	if s.reports != nil {
		report := models.NewReport(owner, sector, s.generator.Model(), strings.TrimSpace(text))
		report.CreatedAt = resp.GeneratedAt
		if err := s.reports.SaveReport(ctx, report); err != nil {
			logger.Warn("Failed to archive report", "error", err)
		} else {
			resp.ReportID = report.ID
			logger.Info("Analysis report saved", "report_id", report.ID, "file", report.FileName)
		}
	}

	logger.Info("Analysis completed",
		"sources", len(snippets),
		"duration", time.Since(start))

	return resp, nil
}

// Reports lists owner's archived reports without their bodies.
func (s *Service) Reports(ctx context.Context, owner string) (*models.ListReportsResponse, error) {
	resp := &models.ListReportsResponse{Reports: []models.ReportSummary{}}
	if s.reports == nil {
		return resp, nil
	}

	reports, err := s.reports.ListReports(ctx, owner)
	if err != nil {
		return nil, NewInternalError("Failed to list reports", err)
	}

	for _, r := range reports {
		var summary models.ReportSummary
		summary.FromReport(r)
		resp.Reports = append(resp.Reports, summary)
	}
	resp.TotalCount = len(resp.Reports)
	return resp, nil
}

// Report fetches one archived report. Reports of other owners are reported
// as not found.
func (s *Service) Report(ctx context.Context, owner, id string) (*models.Report, error) {
	if s.reports == nil {
		return nil, NewNotFoundError("report not found")
	}

	report, err := s.reports.GetReport(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, NewNotFoundError("report not found")
	}
	if err != nil {
		return nil, NewInternalError("Failed to load report", err)
	}
	if report.Owner != owner {
		return nil, NewNotFoundError("report not found")
	}
	return report, nil
}
