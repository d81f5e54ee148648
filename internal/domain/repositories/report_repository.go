package repositories

import (
	"context"

	"github.com/openvaers/analyzer-backend/internal/domain/entities"
)

// ReportRepository defines the interface for VAERS report data operations
type ReportRepository interface {
	// Create creates a new report with its vaccines and symptoms
	Create(ctx context.Context, report *entities.Report) error

	// GetByID retrieves a report by internal ID (no vaccines/symptoms)
	GetByID(ctx context.Context, id string) (*entities.Report, error)

	// GetByVaersID retrieves a report by its external VAERS identifier
	GetByVaersID(ctx context.Context, vaersID string) (*entities.Report, error)

	// GetDetail retrieves a report by internal ID with vaccines and symptoms joined
	GetDetail(ctx context.Context, id string) (*entities.Report, error)

	// Update updates a report's scalar fields
	Update(ctx context.Context, report *entities.Report) error

	// Delete deletes a report and its vaccines and symptoms
	Delete(ctx context.Context, id string) error

	// List retrieves reports with filters, returning the page and total count
	List(ctx context.Context, filter ReportFilter) ([]*entities.Report, int, error)
}

// OutcomeFilter selects reports by outcome
type OutcomeFilter string

const (
	OutcomeRecovered    OutcomeFilter = "recovered"
	OutcomeHospitalized OutcomeFilter = "hospitalized"
	// OutcomeSerious selects reports where the patient died or the event was
	// life-threatening.
	OutcomeSerious OutcomeFilter = "serious"
)

// ReportFilter defines filters for listing reports
type ReportFilter struct {
	// Search matches against the VAERS ID and symptom narrative
	Search string

	// VaccineType restricts to reports with a vaccine of this type
	VaccineType string

	// Outcome restricts by outcome category
	Outcome OutcomeFilter

	// DateRangeDays restricts to reports received in the last N days (7, 30, 90)
	DateRangeDays int

	Limit  int
	Offset int
}

// SymptomSearchRepository finds reports whose symptom records match a
// free-text term. Used by the similarity stage of the analysis pipeline.
type SymptomSearchRepository interface {
	// FindReportsBySymptomTerm returns the external VAERS IDs of reports with
	// a symptom matching the term
	FindReportsBySymptomTerm(ctx context.Context, term string) ([]string, error)
}

// SymptomIndexRepository maintains the external symptom search index. Nil in
// deployments that search symptoms directly in the database.
type SymptomIndexRepository interface {
	// IndexSymptom indexes one symptom record under its report's VAERS ID
	IndexSymptom(ctx context.Context, vaersID string, symptom *entities.Symptom) error

	// DeleteByReport removes all indexed symptoms for a report
	DeleteByReport(ctx context.Context, vaersID string) error
}
