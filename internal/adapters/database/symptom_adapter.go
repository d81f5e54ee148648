package database

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/openvaers/analyzer-backend/internal/domain/repositories"
	"github.com/openvaers/analyzer-backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/openvaers/analyzer-backend/pkg/errors"
)

// SymptomAdapter implements SymptomSearchRepository with an ILIKE scan over
// the symptom table. The Typesense adapter is the full-text alternative.
type SymptomAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewSymptomAdapter creates a new symptom search adapter
func NewSymptomAdapter(client *postgres.Client) repositories.SymptomSearchRepository {
	return &SymptomAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// FindReportsBySymptomTerm returns the distinct external VAERS IDs of reports
// with a symptom name matching the term
func (a *SymptomAdapter) FindReportsBySymptomTerm(ctx context.Context, term string) ([]string, error) {
	pattern := fmt.Sprintf("%%%s%%", term)

	query, args, err := a.db.Select(goqu.I("r.vaers_id")).Distinct().
		From(goqu.T("vaers_symptoms").As("s")).
		Join(goqu.T("vaers_reports").As("r"), goqu.On(goqu.I("s.report_id").Eq(goqu.I("r.id")))).
		Where(goqu.I("s.symptom_name").ILike(pattern)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build symptom search query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to search symptoms", err)
	}
	defer rows.Close()

	var vaersIDs []string
	for rows.Next() {
		var vaersID string
		if err := rows.Scan(&vaersID); err != nil {
			return nil, apperrors.NewInternalError("failed to scan symptom match", err)
		}
		vaersIDs = append(vaersIDs, vaersID)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating symptom matches", err)
	}

	return vaersIDs, nil
}
