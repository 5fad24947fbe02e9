package reports

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pashoot/reports/internal/domain"
	"github.com/pashoot/reports/internal/logger"
	"github.com/pashoot/reports/internal/store"
)

// CatalogEntry describes one report type for listing surfaces.
type CatalogEntry struct {
	ID          Kind   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Service owns the report lifecycle: it creates the report record in
// generating state, runs the generator and renderer, and transitions the
// record to completed or failed. Both states are terminal.
type Service struct {
	reports   store.ReportStore
	generator *Generator
}

func NewService(reports store.ReportStore, generator *Generator) *Service {
	return &Service{reports: reports, generator: generator}
}

// Catalog lists every registered report type in stable order.
func (s *Service) Catalog() []CatalogEntry {
	entries := make([]CatalogEntry, 0, len(registry))
	for _, kind := range Kinds() {
		def := registry[kind]
		entries = append(entries, CatalogEntry{ID: kind, Name: def.Name, Description: def.Description})
	}
	return entries
}

// Generate produces one report end to end. The returned report is either
// completed with data and an HTML artifact, or failed with the error
// message recorded; a nil error with a failed report means the failure was
// captured on the record itself.
func (s *Service) Generate(ctx context.Context, userID string, kind Kind, startDate, endDate time.Time) (*domain.Report, error) {
	def, err := Lookup(kind)
	if err != nil {
		return nil, err
	}

	report := &domain.Report{
		ID:        uuid.New().String(),
		UserID:    userID,
		Kind:      string(kind),
		StartDate: startDate,
		EndDate:   endDate,
		Status:    domain.ReportStatusGenerating,
		CreatedAt: time.Now(),
	}
	if err := s.reports.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("create report record: %w", err)
	}

	log := logger.FromContext(ctx).With().
		Str("report_id", report.ID).
		Str("report_type", string(kind)).
		Logger()

	data, err := def.Generate(s.generator, ctx, Request{UserID: userID, StartDate: startDate, EndDate: endDate})
	if err != nil {
		return s.fail(ctx, log, report, fmt.Errorf("generate %s: %w", kind, err))
	}

	html, err := def.Render(data)
	if err != nil {
		return s.fail(ctx, log, report, fmt.Errorf("render %s: %w", kind, err))
	}

	now := time.Now()
	report.Status = domain.ReportStatusCompleted
	report.Data = data
	report.ArtifactURL = "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(html))
	report.CompletedAt = &now
	if err := s.reports.Update(ctx, report); err != nil {
		return nil, fmt.Errorf("update report record: %w", err)
	}

	log.Info().Msg("report generated")
	return report, nil
}

// Get returns a report by ID scoped to its owner.
func (s *Service) Get(ctx context.Context, userID, id string) (*domain.Report, error) {
	report, err := s.reports.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if report.UserID != userID {
		return nil, store.ErrNotFound
	}
	return report, nil
}

func (s *Service) fail(ctx context.Context, log zerolog.Logger, report *domain.Report, cause error) (*domain.Report, error) {
	now := time.Now()
	report.Status = domain.ReportStatusFailed
	report.Error = cause.Error()
	report.CompletedAt = &now
	if err := s.reports.Update(ctx, report); err != nil {
		return nil, fmt.Errorf("mark report failed: %w", err)
	}
	log.Error().Err(cause).Msg("report generation failed")
	return report, nil
}
