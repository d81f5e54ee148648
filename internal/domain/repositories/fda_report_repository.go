package repositories

import (
	"context"

	"github.com/openvaers/analyzer-backend/internal/domain/entities"
)

// FDAReportRepository defines the interface for FDA reference data lookups.
// Only the tool server reads this store; the pipeline reaches it through the
// tool client.
type FDAReportRepository interface {
	// SearchByAdverseEvent finds FDA records whose symptom list matches the
	// given adverse-event term
	SearchByAdverseEvent(ctx context.Context, symptom string) ([]entities.FDAReport, error)

	// SearchByVaccineName finds FDA records for a vaccine name
	SearchByVaccineName(ctx context.Context, vaccine string) ([]entities.FDAReport, error)
}
