package services

import (
	"context"
	"log"

	"github.com/openvaers/analyzer-backend/internal/domain/entities"
	"github.com/openvaers/analyzer-backend/internal/domain/providers"
	"github.com/openvaers/analyzer-backend/internal/domain/repositories"
	apperrors "github.com/openvaers/analyzer-backend/pkg/errors"
)

// ReportService handles business logic for VAERS reports. Writes go to the
// database first; the search index and event bus follow best-effort.
type ReportService struct {
	repo     repositories.ReportRepository
	indexer  repositories.SymptomIndexRepository
	eventBus providers.EventBus
}

// NewReportService creates a new report service
func NewReportService(
	repo repositories.ReportRepository,
	indexer repositories.SymptomIndexRepository,
	eventBus providers.EventBus,
) *ReportService {
	return &ReportService{
		repo:     repo,
		indexer:  indexer,
		eventBus: eventBus,
	}
}

// ReportPage is one page of a filtered report listing
type ReportPage struct {
	Reports []*entities.Report `json:"reports"`
	Total   int                `json:"total"`
	Limit   int                `json:"limit"`
	Offset  int                `json:"offset"`
	HasMore bool               `json:"hasMore"`
}

// Create validates and persists a new report, indexes its symptoms and
// publishes a created event
func (s *ReportService) Create(ctx context.Context, report *entities.Report) error {
	if report.VaersID == "" {
		return apperrors.NewValidationError("vaersId is required")
	}
	if report.SymptomText == "" {
		return apperrors.NewValidationError("symptomText is required")
	}

	if err := s.repo.Create(ctx, report); err != nil {
		return err
	}

	if s.indexer != nil {
		for i := range report.Symptoms {
			if err := s.indexer.IndexSymptom(ctx, report.VaersID, &report.Symptoms[i]); err != nil {
				// Log error but don't fail the request (eventual consistency)
				log.Printf("Warning: Failed to index symptom for report %s: %v", report.VaersID, err)
			}
		}
	}

	s.publish(ctx, entities.NewReportEvent(report.ID, report.VaersID, entities.ReportEventTypeCreated))
	return nil
}

// GetByID retrieves a report with its vaccines and symptoms
func (s *ReportService) GetByID(ctx context.Context, id string) (*entities.Report, error) {
	return s.repo.GetDetail(ctx, id)
}

// GetByVaersID retrieves a report by its external VAERS identifier
func (s *ReportService) GetByVaersID(ctx context.Context, vaersID string) (*entities.Report, error) {
	return s.repo.GetByVaersID(ctx, vaersID)
}

// Update updates a report's scalar fields and publishes an updated event
func (s *ReportService) Update(ctx context.Context, report *entities.Report) error {
	if err := s.repo.Update(ctx, report); err != nil {
		return err
	}

	s.publish(ctx, entities.NewReportEvent(report.ID, report.VaersID, entities.ReportEventTypeUpdated))
	return nil
}

// Delete deletes a report, removes its symptoms from the index and publishes
// a deleted event
func (s *ReportService) Delete(ctx context.Context, id string) error {
	// Resolve the VAERS ID before the row disappears
	report, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if s.indexer != nil {
		if err := s.indexer.DeleteByReport(ctx, report.VaersID); err != nil {
			log.Printf("Warning: Failed to delete symptoms from index for report %s: %v", report.VaersID, err)
		}
	}

	s.publish(ctx, entities.NewReportEvent(id, report.VaersID, entities.ReportEventTypeDeleted))
	return nil
}

// List retrieves a page of reports matching the filter
func (s *ReportService) List(ctx context.Context, filter repositories.ReportFilter) (*ReportPage, error) {
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	reports, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &ReportPage{
		Reports: reports,
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
		HasMore: filter.Offset+len(reports) < total,
	}, nil
}

func (s *ReportService) publish(ctx context.Context, event *entities.ReportEvent) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.Publish(ctx, providers.EventChannelReportUpdates, event); err != nil {
		log.Printf("Warning: Failed to publish %s event for report %s: %v", event.EventType, event.ReportID, err)
	}
}
