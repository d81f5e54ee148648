package providers

import (
	"context"

	"github.com/openvaers/analyzer-backend/internal/domain/entities"
)

// AnalysisEvidence is the accumulated input to the synthesis call
type AnalysisEvidence struct {
	Report         *entities.Report
	ExtractedInfo  *entities.ExtractedInfo
	FDAResults     []entities.FDASearchResult
	SimilarReports []entities.SimilarReport
}

// AnalysisSynthesis is the model's final narrative output
type AnalysisSynthesis struct {
	Summary           string                   `json:"summary"`
	OverallConfidence entities.ConfidenceLevel `json:"overallConfidence"`
	Recommendations   []string                 `json:"recommendations"`
}

// LLMProvider wraps a text-generation backend behind the three narrow
// operations the analysis pipeline needs. Each operation is a single round
// trip with deterministic decoding.
type LLMProvider interface {
	// ExtractKeyInformation extracts structured fields from a flattened
	// plaintext rendering of a report. Malformed model output is an error.
	ExtractKeyInformation(ctx context.Context, reportText string) (*entities.ExtractedInfo, error)

	// FindRelevantSearchTerms proposes symptom search terms from extracted
	// info. Malformed model output degrades to an empty list.
	FindRelevantSearchTerms(ctx context.Context, info *entities.ExtractedInfo) ([]string, error)

	// GenerateAnalysis synthesizes the final narrative from all collected
	// evidence. Malformed model output is an error.
	GenerateAnalysis(ctx context.Context, evidence *AnalysisEvidence) (*AnalysisSynthesis, error)
}
