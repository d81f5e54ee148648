package providers

import (
	"context"

	"github.com/openvaers/analyzer-backend/internal/domain/entities"
)

// Registered tool names on the FDA tool server. The pipeline only ever calls
// names from this set; unknown names are a caller error.
const (
	ToolSearchValidatedSymptoms = "searchValidatedSymptoms"
	ToolGetControlledTrialData  = "getControlledTrialData"
)

// ToolClient invokes named, parameterized tools on the FDA tool server.
// One outbound request per call, no retry, no caching.
type ToolClient interface {
	// SearchValidatedSymptoms searches FDA reference data for a vaccine and
	// symptom list. A nil result with nil error means the tool found nothing.
	SearchValidatedSymptoms(ctx context.Context, vaccine string, symptoms []string) (*entities.FDASearchResult, error)

	// GetControlledTrialData looks up controlled-trial records for a vaccine
	// filtered by indication.
	GetControlledTrialData(ctx context.Context, vaccine, indication string) ([]entities.FDAReport, error)
}
