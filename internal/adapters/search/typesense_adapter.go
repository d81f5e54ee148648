package search

import (
	"context"
	"fmt"
	"time"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"
	"github.com/openvaers/analyzer-backend/internal/domain/entities"
	"github.com/openvaers/analyzer-backend/internal/domain/repositories"
	tsclient "github.com/openvaers/analyzer-backend/internal/infrastructure/clients/typesense"
)

const symptomsCollection = tsclient.SymptomsCollection

// Matches returned per term. The pipeline only keeps the top 10 candidates
// after scoring, so recall beyond a couple hundred hits buys nothing.
const maxHitsPerTerm = 250

// TypesenseAdapter implements SymptomSearchRepository with full-text search
// over the symptoms collection. It is the higher-recall alternative to the
// Postgres ILIKE adapter, enabled by configuration.
type TypesenseAdapter struct {
	client *tsclient.Client
}

var _ repositories.SymptomSearchRepository = (*TypesenseAdapter)(nil)
var _ repositories.SymptomIndexRepository = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense symptom search adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// FindReportsBySymptomTerm returns the distinct external VAERS IDs of reports
// with a symptom matching the term
func (a *TypesenseAdapter) FindReportsBySymptomTerm(ctx context.Context, term string) ([]string, error) {
	searchParams := &api.SearchCollectionParams{
		Q:       pointer.String(term),
		QueryBy: pointer.String("symptom_name"),
		PerPage: pointer.Int(maxHitsPerTerm),
	}

	result, err := a.client.Client().Collection(symptomsCollection).Documents().Search(ctx, searchParams)
	if err != nil {
		return nil, fmt.Errorf("failed to search symptoms: %w", err)
	}

	seen := make(map[string]struct{})
	var vaersIDs []string
	if result.Hits == nil {
		return vaersIDs, nil
	}
	for _, hit := range *result.Hits {
		doc := *hit.Document
		vaersID, ok := doc["vaers_id"].(string)
		if !ok || vaersID == "" {
			continue
		}
		if _, dup := seen[vaersID]; dup {
			continue
		}
		seen[vaersID] = struct{}{}
		vaersIDs = append(vaersIDs, vaersID)
	}

	return vaersIDs, nil
}

// IndexSymptom indexes one symptom record under its report's VAERS ID
func (a *TypesenseAdapter) IndexSymptom(ctx context.Context, vaersID string, symptom *entities.Symptom) error {
	document := map[string]interface{}{
		"id":           symptom.ID,
		"symptom_name": symptom.SymptomName,
		"vaers_id":     vaersID,
		"severity":     symptom.Severity,
		"created_at":   time.Now().Unix(),
	}

	_, err := a.client.Client().Collection(symptomsCollection).Documents().Upsert(ctx, document)
	if err != nil {
		return fmt.Errorf("failed to index symptom: %w", err)
	}
	return nil
}

// DeleteByReport removes all indexed symptoms for a report
func (a *TypesenseAdapter) DeleteByReport(ctx context.Context, vaersID string) error {
	filter := fmt.Sprintf("vaers_id:=%s", vaersID)
	_, err := a.client.Client().Collection(symptomsCollection).Documents().Delete(ctx, &api.DeleteDocumentsParams{
		FilterBy: pointer.String(filter),
	})
	if err != nil {
		return fmt.Errorf("failed to delete symptoms from index: %w", err)
	}
	return nil
}
