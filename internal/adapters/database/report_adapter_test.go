package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openvaers/analyzer-backend/internal/domain/entities"
	"github.com/openvaers/analyzer-backend/internal/domain/repositories"
	"github.com/openvaers/analyzer-backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/openvaers/analyzer-backend/pkg/errors"
)

func newMockReportAdapter(t *testing.T) (repositories.ReportRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewReportAdapter(postgres.NewClientFromDB(db)), mock
}

func reportRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "vaers_id", "recv_date", "state", "age_yrs", "sex", "symptom_text",
		"died", "l_threat", "er_visit", "hospital", "disable", "recovd",
		"vax_date", "onset_date", "num_days", "status", "created_at", "updated_at",
	})
}

func TestReportAdapterGetByID(t *testing.T) {
	adapter, mock := newMockReportAdapter(t)

	recvDate := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT .* FROM "vaers_reports" WHERE \("id" = 'rep-1'\)`).
		WillReturnRows(reportRows().AddRow(
			"rep-1", "1234567", recvDate, "CA", 34.0, "F", "Fever and fatigue",
			false, false, false, true, false, true,
			nil, nil, 2, "validated", now, now,
		))

	report, err := adapter.GetByID(context.Background(), "rep-1")
	require.NoError(t, err)

	assert.Equal(t, "rep-1", report.ID)
	assert.Equal(t, "1234567", report.VaersID)
	assert.Equal(t, "CA", report.State)
	require.NotNil(t, report.AgeYrs)
	assert.Equal(t, 34.0, *report.AgeYrs)
	assert.True(t, report.Hospitalized)
	require.NotNil(t, report.Recovered)
	assert.True(t, *report.Recovered)
	require.NotNil(t, report.NumDays)
	assert.Equal(t, 2, *report.NumDays)
	assert.Nil(t, report.VaxDate)
	assert.Equal(t, entities.ReportStatusValidated, report.Status)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportAdapterGetByIDNullColumns(t *testing.T) {
	adapter, mock := newMockReportAdapter(t)

	now := time.Now()
	mock.ExpectQuery(`SELECT .* FROM "vaers_reports" WHERE \("id" = 'rep-2'\)`).
		WillReturnRows(reportRows().AddRow(
			"rep-2", "7654321", nil, nil, nil, nil, "Headache",
			false, false, false, false, false, nil,
			nil, nil, nil, "new", now, now,
		))

	report, err := adapter.GetByID(context.Background(), "rep-2")
	require.NoError(t, err)

	assert.Empty(t, report.State)
	assert.Empty(t, report.Sex)
	assert.Nil(t, report.RecvDate)
	assert.Nil(t, report.AgeYrs)
	assert.Nil(t, report.NumDays)
	assert.Nil(t, report.Recovered)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportAdapterGetByIDNotFound(t *testing.T) {
	adapter, mock := newMockReportAdapter(t)

	mock.ExpectQuery(`SELECT .* FROM "vaers_reports" WHERE \("id" = 'missing'\)`).
		WillReturnRows(reportRows())

	_, err := adapter.GetByID(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportAdapterGetByVaersID(t *testing.T) {
	adapter, mock := newMockReportAdapter(t)

	now := time.Now()
	mock.ExpectQuery(`SELECT .* FROM "vaers_reports" WHERE \("vaers_id" = '1234567'\)`).
		WillReturnRows(reportRows().AddRow(
			"rep-1", "1234567", nil, nil, nil, nil, "Fever",
			false, false, false, false, false, nil,
			nil, nil, nil, "new", now, now,
		))

	report, err := adapter.GetByVaersID(context.Background(), "1234567")
	require.NoError(t, err)
	assert.Equal(t, "rep-1", report.ID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportAdapterGetDetail(t *testing.T) {
	adapter, mock := newMockReportAdapter(t)

	now := time.Now()
	mock.ExpectQuery(`SELECT .* FROM "vaers_reports" WHERE \("id" = 'rep-1'\)`).
		WillReturnRows(reportRows().AddRow(
			"rep-1", "1234567", nil, nil, nil, nil, "Fever",
			false, false, false, false, false, nil,
			nil, nil, nil, "new", now, now,
		))

	mock.ExpectQuery(`SELECT .* FROM "vaers_vaccines" WHERE \("report_id" = 'rep-1'\)`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "report_id", "vax_type", "vax_manufacturer", "vax_name",
			"vax_dose_series", "vax_route", "vax_site",
		}).AddRow("vax-1", "rep-1", "COVID19", "PFIZER\\BIONTECH", nil, "2", nil, nil))

	mock.ExpectQuery(`SELECT .* FROM "vaers_symptoms" WHERE \("report_id" = 'rep-1'\)`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "report_id", "symptom_name", "severity", "validation_status",
		}).
			AddRow("sym-1", "rep-1", "Fatigue", nil, "validated").
			AddRow("sym-2", "rep-1", "Pyrexia", "moderate", nil))

	report, err := adapter.GetDetail(context.Background(), "rep-1")
	require.NoError(t, err)

	require.Len(t, report.Vaccines, 1)
	assert.Equal(t, "COVID19", report.Vaccines[0].VaxType)
	assert.Equal(t, "PFIZER\\BIONTECH", report.Vaccines[0].Manufacturer)
	assert.Empty(t, report.Vaccines[0].VaxName)

	require.Len(t, report.Symptoms, 2)
	assert.Equal(t, "Fatigue", report.Symptoms[0].SymptomName)
	assert.Equal(t, "validated", report.Symptoms[0].ValidationStatus)
	assert.Equal(t, "moderate", report.Symptoms[1].Severity)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportAdapterCreate(t *testing.T) {
	adapter, mock := newMockReportAdapter(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "vaers_reports"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "vaers_vaccines"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "vaers_symptoms"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "vaers_symptoms"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	report := &entities.Report{
		VaersID:     "1234567",
		SymptomText: "Fever and fatigue",
		Vaccines:    []entities.Vaccine{{VaxType: "COVID19"}},
		Symptoms:    []entities.Symptom{{SymptomName: "Pyrexia"}, {SymptomName: "Fatigue"}},
	}

	err := adapter.Create(context.Background(), report)
	require.NoError(t, err)

	assert.NotEmpty(t, report.ID)
	assert.Equal(t, entities.ReportStatusNew, report.Status)
	assert.Equal(t, report.ID, report.Vaccines[0].ReportID)
	assert.Equal(t, report.ID, report.Symptoms[0].ReportID)
	assert.NotEmpty(t, report.Symptoms[0].ID)
	assert.False(t, report.CreatedAt.IsZero())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportAdapterCreateRollsBackOnFailure(t *testing.T) {
	adapter, mock := newMockReportAdapter(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "vaers_reports"`).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := adapter.Create(context.Background(), &entities.Report{
		VaersID:     "1234567",
		SymptomText: "Fever",
	})
	require.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportAdapterUpdate(t *testing.T) {
	adapter, mock := newMockReportAdapter(t)

	mock.ExpectExec(`UPDATE "vaers_reports" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := adapter.Update(context.Background(), &entities.Report{
		ID:          "rep-1",
		VaersID:     "1234567",
		SymptomText: "Updated narrative",
		Status:      entities.ReportStatusValidated,
	})
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportAdapterUpdateNotFound(t *testing.T) {
	adapter, mock := newMockReportAdapter(t)

	mock.ExpectExec(`UPDATE "vaers_reports" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := adapter.Update(context.Background(), &entities.Report{
		ID:          "missing",
		SymptomText: "Fever",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportAdapterDelete(t *testing.T) {
	adapter, mock := newMockReportAdapter(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "vaers_vaccines" WHERE \("report_id" = 'rep-1'\)`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM "vaers_symptoms" WHERE \("report_id" = 'rep-1'\)`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`DELETE FROM "vaers_reports" WHERE \("id" = 'rep-1'\)`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := adapter.Delete(context.Background(), "rep-1")
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportAdapterDeleteNotFound(t *testing.T) {
	adapter, mock := newMockReportAdapter(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "vaers_vaccines"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM "vaers_symptoms"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM "vaers_reports"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := adapter.Delete(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportAdapterListAppliesFilters(t *testing.T) {
	adapter, mock := newMockReportAdapter(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "vaers_reports" WHERE .*ILIKE '%fever%'.*\("died" IS TRUE\) OR \("l_threat" IS TRUE\)`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(25))

	now := time.Now()
	mock.ExpectQuery(`SELECT .* FROM "vaers_reports" WHERE .*ORDER BY "recv_date" DESC LIMIT 10`).
		WillReturnRows(reportRows().
			AddRow("rep-1", "1234567", now, nil, nil, nil, "Fever", true, false, false, false, false, nil, nil, nil, nil, "new", now, now).
			AddRow("rep-2", "7654321", now, nil, nil, nil, "High fever", false, true, false, false, false, nil, nil, nil, nil, "new", now, now))

	reports, total, err := adapter.List(context.Background(), repositories.ReportFilter{
		Search:  "fever",
		Outcome: repositories.OutcomeSerious,
		Limit:   10,
	})
	require.NoError(t, err)

	assert.Equal(t, 25, total)
	require.Len(t, reports, 2)
	assert.Equal(t, "1234567", reports[0].VaersID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportAdapterListVaccineTypeSubquery(t *testing.T) {
	adapter, mock := newMockReportAdapter(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "vaers_reports" WHERE \("id" IN \(SELECT "report_id" FROM "vaers_vaccines" WHERE \("vax_type" = 'COVID19'\)\)\)`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	mock.ExpectQuery(`SELECT .* FROM "vaers_reports" WHERE .*"vax_type" = 'COVID19'`).
		WillReturnRows(reportRows())

	reports, total, err := adapter.List(context.Background(), repositories.ReportFilter{
		VaccineType: "COVID19",
	})
	require.NoError(t, err)

	assert.Zero(t, total)
	assert.Empty(t, reports)

	assert.NoError(t, mock.ExpectationsWereMet())
}
