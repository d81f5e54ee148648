package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/openvaers/analyzer-backend/internal/domain/entities"
	"github.com/openvaers/analyzer-backend/internal/domain/repositories"
	"github.com/openvaers/analyzer-backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/openvaers/analyzer-backend/pkg/errors"
)

var reportColumns = []interface{}{
	"id", "vaers_id", "recv_date", "state", "age_yrs", "sex", "symptom_text",
	"died", "l_threat", "er_visit", "hospital", "disable", "recovd",
	"vax_date", "onset_date", "num_days", "status", "created_at", "updated_at",
}

// ReportAdapter implements ReportRepository over Postgres
type ReportAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewReportAdapter creates a new report adapter
func NewReportAdapter(client *postgres.Client) repositories.ReportRepository {
	return &ReportAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a report with its vaccines and symptoms in one transaction
func (a *ReportAdapter) Create(ctx context.Context, report *entities.Report) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	now := time.Now()
	report.CreatedAt = now
	report.UpdatedAt = now
	if report.Status == "" {
		report.Status = entities.ReportStatusNew
	}

	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	record := goqu.Record{
		"id":           report.ID,
		"vaers_id":     report.VaersID,
		"recv_date":    report.RecvDate,
		"state":        sql.NullString{String: report.State, Valid: report.State != ""},
		"age_yrs":      report.AgeYrs,
		"sex":          sql.NullString{String: report.Sex, Valid: report.Sex != ""},
		"symptom_text": report.SymptomText,
		"died":         report.Died,
		"l_threat":     report.LifeThreatening,
		"er_visit":     report.ERVisit,
		"hospital":     report.Hospitalized,
		"disable":      report.Disabled,
		"recovd":       report.Recovered,
		"vax_date":     report.VaxDate,
		"onset_date":   report.OnsetDate,
		"num_days":     report.NumDays,
		"status":       string(report.Status),
		"created_at":   report.CreatedAt,
		"updated_at":   report.UpdatedAt,
	}

	query, args, err := a.db.Insert("vaers_reports").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create report", err)
	}

	for i := range report.Vaccines {
		v := &report.Vaccines[i]
		if v.ID == "" {
			v.ID = uuid.NewString()
		}
		v.ReportID = report.ID

		query, args, err := a.db.Insert("vaers_vaccines").Rows(goqu.Record{
			"id":               v.ID,
			"report_id":        v.ReportID,
			"vax_type":         v.VaxType,
			"vax_manufacturer": sql.NullString{String: v.Manufacturer, Valid: v.Manufacturer != ""},
			"vax_name":         sql.NullString{String: v.VaxName, Valid: v.VaxName != ""},
			"vax_dose_series":  sql.NullString{String: v.VaxDoseSeries, Valid: v.VaxDoseSeries != ""},
			"vax_route":        sql.NullString{String: v.VaxRoute, Valid: v.VaxRoute != ""},
			"vax_site":         sql.NullString{String: v.VaxSite, Valid: v.VaxSite != ""},
		}).ToSQL()
		if err != nil {
			return apperrors.NewInternalError("failed to build vaccine insert query", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return apperrors.NewInternalError("failed to create vaccine", err)
		}
	}

	for i := range report.Symptoms {
		s := &report.Symptoms[i]
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		s.ReportID = report.ID

		query, args, err := a.db.Insert("vaers_symptoms").Rows(goqu.Record{
			"id":                s.ID,
			"report_id":         s.ReportID,
			"symptom_name":      s.SymptomName,
			"severity":          sql.NullString{String: s.Severity, Valid: s.Severity != ""},
			"validation_status": sql.NullString{String: s.ValidationStatus, Valid: s.ValidationStatus != ""},
		}).ToSQL()
		if err != nil {
			return apperrors.NewInternalError("failed to build symptom insert query", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return apperrors.NewInternalError("failed to create symptom", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit transaction", err)
	}
	return nil
}

// GetByID retrieves a report by internal ID
func (a *ReportAdapter) GetByID(ctx context.Context, id string) (*entities.Report, error) {
	return a.getByField(ctx, "id", id)
}

// GetByVaersID retrieves a report by its external VAERS identifier
func (a *ReportAdapter) GetByVaersID(ctx context.Context, vaersID string) (*entities.Report, error) {
	return a.getByField(ctx, "vaers_id", vaersID)
}

func (a *ReportAdapter) getByField(ctx context.Context, field, value string) (*entities.Report, error) {
	query, args, err := a.db.Select(reportColumns...).
		From("vaers_reports").
		Where(goqu.Ex{field: value}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	report, err := a.scanReport(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("report with %s %s not found", field, value))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get report", err)
	}
	return report, nil
}

// GetDetail retrieves a report with its vaccines and symptoms joined in
func (a *ReportAdapter) GetDetail(ctx context.Context, id string) (*entities.Report, error) {
	report, err := a.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	vaccines, err := a.loadVaccines(ctx, report.ID)
	if err != nil {
		return nil, err
	}
	report.Vaccines = vaccines

	symptoms, err := a.loadSymptoms(ctx, report.ID)
	if err != nil {
		return nil, err
	}
	report.Symptoms = symptoms

	return report, nil
}

func (a *ReportAdapter) loadVaccines(ctx context.Context, reportID string) ([]entities.Vaccine, error) {
	query, args, err := a.db.Select(
		"id", "report_id", "vax_type", "vax_manufacturer", "vax_name",
		"vax_dose_series", "vax_route", "vax_site",
	).From("vaers_vaccines").
		Where(goqu.Ex{"report_id": reportID}).
		Order(goqu.I("vax_type").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build vaccines query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load vaccines", err)
	}
	defer rows.Close()

	vaccines := []entities.Vaccine{}
	for rows.Next() {
		var v entities.Vaccine
		var manufacturer, name, dose, route, site sql.NullString
		if err := rows.Scan(&v.ID, &v.ReportID, &v.VaxType, &manufacturer, &name, &dose, &route, &site); err != nil {
			return nil, apperrors.NewInternalError("failed to scan vaccine", err)
		}
		v.Manufacturer = manufacturer.String
		v.VaxName = name.String
		v.VaxDoseSeries = dose.String
		v.VaxRoute = route.String
		v.VaxSite = site.String
		vaccines = append(vaccines, v)
	}
	return vaccines, rows.Err()
}

func (a *ReportAdapter) loadSymptoms(ctx context.Context, reportID string) ([]entities.Symptom, error) {
	query, args, err := a.db.Select(
		"id", "report_id", "symptom_name", "severity", "validation_status",
	).From("vaers_symptoms").
		Where(goqu.Ex{"report_id": reportID}).
		Order(goqu.I("symptom_name").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build symptoms query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load symptoms", err)
	}
	defer rows.Close()

	symptoms := []entities.Symptom{}
	for rows.Next() {
		var s entities.Symptom
		var severity, validation sql.NullString
		if err := rows.Scan(&s.ID, &s.ReportID, &s.SymptomName, &severity, &validation); err != nil {
			return nil, apperrors.NewInternalError("failed to scan symptom", err)
		}
		s.Severity = severity.String
		s.ValidationStatus = validation.String
		symptoms = append(symptoms, s)
	}
	return symptoms, rows.Err()
}

// Update updates a report's scalar fields
func (a *ReportAdapter) Update(ctx context.Context, report *entities.Report) error {
	report.UpdatedAt = time.Now()

	record := goqu.Record{
		"recv_date":    report.RecvDate,
		"state":        sql.NullString{String: report.State, Valid: report.State != ""},
		"age_yrs":      report.AgeYrs,
		"sex":          sql.NullString{String: report.Sex, Valid: report.Sex != ""},
		"symptom_text": report.SymptomText,
		"died":         report.Died,
		"l_threat":     report.LifeThreatening,
		"er_visit":     report.ERVisit,
		"hospital":     report.Hospitalized,
		"disable":      report.Disabled,
		"recovd":       report.Recovered,
		"vax_date":     report.VaxDate,
		"onset_date":   report.OnsetDate,
		"num_days":     report.NumDays,
		"status":       string(report.Status),
		"updated_at":   report.UpdatedAt,
	}

	query, args, err := a.db.Update("vaers_reports").
		Set(record).
		Where(goqu.Ex{"id": report.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update report", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("report with id %s not found", report.ID))
	}
	return nil
}

// Delete deletes a report with its vaccines and symptoms
func (a *ReportAdapter) Delete(ctx context.Context, id string) error {
	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"vaers_vaccines", "vaers_symptoms"} {
		query, args, err := a.db.Delete(table).Where(goqu.Ex{"report_id": id}).ToSQL()
		if err != nil {
			return apperrors.NewInternalError("failed to build delete query", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return apperrors.NewInternalError("failed to delete report children", err)
		}
	}

	query, args, err := a.db.Delete("vaers_reports").Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to delete report", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("report with id %s not found", id))
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit transaction", err)
	}
	return nil
}

// List retrieves reports with filters applied to the entire dataset before
// pagination, returning the page and the total filtered count
func (a *ReportAdapter) List(ctx context.Context, filter repositories.ReportFilter) ([]*entities.Report, int, error) {
	ds := a.db.From("vaers_reports")

	if filter.Search != "" {
		pattern := fmt.Sprintf("%%%s%%", filter.Search)
		ds = ds.Where(goqu.Or(
			goqu.I("vaers_id").ILike(pattern),
			goqu.I("symptom_text").ILike(pattern),
		))
	}

	if filter.VaccineType != "" {
		sub := a.db.Select("report_id").
			From("vaers_vaccines").
			Where(goqu.I("vax_type").Eq(filter.VaccineType))
		ds = ds.Where(goqu.I("id").In(sub))
	}

	switch filter.Outcome {
	case repositories.OutcomeRecovered:
		ds = ds.Where(goqu.I("recovd").Eq(true))
	case repositories.OutcomeHospitalized:
		ds = ds.Where(goqu.I("hospital").Eq(true))
	case repositories.OutcomeSerious:
		// Serious means death or a life-threatening event
		ds = ds.Where(goqu.Or(
			goqu.I("died").Eq(true),
			goqu.I("l_threat").Eq(true),
		))
	}

	if filter.DateRangeDays > 0 {
		cutoff := time.Now().AddDate(0, 0, -filter.DateRangeDays)
		ds = ds.Where(goqu.I("recv_date").Gte(cutoff))
	}

	countSQL, countArgs, err := ds.Select(goqu.COUNT("*")).ToSQL()
	if err != nil {
		return nil, 0, apperrors.NewInternalError("failed to build count query", err)
	}

	var total int
	if err := a.client.DB().QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, apperrors.NewInternalError("failed to count reports", err)
	}

	pageQuery := ds.Select(reportColumns...).Order(goqu.I("recv_date").Desc())
	if filter.Limit > 0 {
		pageQuery = pageQuery.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		pageQuery = pageQuery.Offset(uint(filter.Offset))
	}

	query, args, err := pageQuery.ToSQL()
	if err != nil {
		return nil, 0, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, apperrors.NewInternalError("failed to list reports", err)
	}
	defer rows.Close()

	var reports []*entities.Report
	for rows.Next() {
		report, err := a.scanReport(rows)
		if err != nil {
			return nil, 0, apperrors.NewInternalError("failed to scan report", err)
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperrors.NewInternalError("error iterating reports", err)
	}

	return reports, total, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (a *ReportAdapter) scanReport(row rowScanner) (*entities.Report, error) {
	report := &entities.Report{}
	var state, sex, status sql.NullString
	var recvDate, vaxDate, onsetDate sql.NullTime
	var ageYrs sql.NullFloat64
	var numDays sql.NullInt64
	var recovd sql.NullBool

	err := row.Scan(
		&report.ID,
		&report.VaersID,
		&recvDate,
		&state,
		&ageYrs,
		&sex,
		&report.SymptomText,
		&report.Died,
		&report.LifeThreatening,
		&report.ERVisit,
		&report.Hospitalized,
		&report.Disabled,
		&recovd,
		&vaxDate,
		&onsetDate,
		&numDays,
		&status,
		&report.CreatedAt,
		&report.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	report.State = state.String
	report.Sex = sex.String
	report.Status = entities.ReportStatus(status.String)
	if recvDate.Valid {
		report.RecvDate = &recvDate.Time
	}
	if vaxDate.Valid {
		report.VaxDate = &vaxDate.Time
	}
	if onsetDate.Valid {
		report.OnsetDate = &onsetDate.Time
	}
	if ageYrs.Valid {
		report.AgeYrs = &ageYrs.Float64
	}
	if numDays.Valid {
		days := int(numDays.Int64)
		report.NumDays = &days
	}
	if recovd.Valid {
		report.Recovered = &recovd.Bool
	}

	return report, nil
}
