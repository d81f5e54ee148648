package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/lib/pq"
	"github.com/openvaers/analyzer-backend/internal/domain/entities"
	"github.com/openvaers/analyzer-backend/internal/domain/repositories"
	"github.com/openvaers/analyzer-backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/openvaers/analyzer-backend/pkg/errors"
)

var fdaReportColumns = []interface{}{
	"id", "filename", "vaccine_name", "study_type", "source_section",
	"symptoms", "trial_text", "success", "created_at",
}

// FDAReportAdapter implements FDAReportRepository over Postgres
type FDAReportAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewFDAReportAdapter creates a new FDA report adapter
func NewFDAReportAdapter(client *postgres.Client) repositories.FDAReportRepository {
	return &FDAReportAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// SearchByAdverseEvent finds successfully parsed FDA records whose symptom
// list matches the given adverse-event term
func (a *FDAReportAdapter) SearchByAdverseEvent(ctx context.Context, symptom string) ([]entities.FDAReport, error) {
	pattern := fmt.Sprintf("%%%s%%", symptom)

	query, args, err := a.db.Select(fdaReportColumns...).
		From("fda_reports").
		Where(goqu.I("success").Eq(true)).
		Where(goqu.L("array_to_string(symptoms, ',') ILIKE ?", pattern)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build fda search query", err)
	}

	return a.queryReports(ctx, query, args...)
}

// SearchByVaccineName finds successfully parsed FDA records for a vaccine name
func (a *FDAReportAdapter) SearchByVaccineName(ctx context.Context, vaccine string) ([]entities.FDAReport, error) {
	pattern := fmt.Sprintf("%%%s%%", vaccine)

	query, args, err := a.db.Select(fdaReportColumns...).
		From("fda_reports").
		Where(goqu.I("success").Eq(true)).
		Where(goqu.I("vaccine_name").ILike(pattern)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build fda search query", err)
	}

	return a.queryReports(ctx, query, args...)
}

func (a *FDAReportAdapter) queryReports(ctx context.Context, query string, args ...interface{}) ([]entities.FDAReport, error) {
	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to search fda reports", err)
	}
	defer rows.Close()

	var reports []entities.FDAReport
	for rows.Next() {
		var r entities.FDAReport
		var studyType, sourceSection, trialText sql.NullString

		err := rows.Scan(
			&r.ID,
			&r.Filename,
			&r.VaccineName,
			&studyType,
			&sourceSection,
			pq.Array(&r.Symptoms),
			&trialText,
			&r.Success,
			&r.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan fda report", err)
		}

		r.StudyType = studyType.String
		r.SourceSection = sourceSection.String
		r.TrialText = trialText.String
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating fda reports", err)
	}

	return reports, nil
}
