package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/openvaers/analyzer-backend/internal/application/services"
	"github.com/openvaers/analyzer-backend/internal/domain/entities"
	"github.com/openvaers/analyzer-backend/internal/domain/repositories"
	apperrors "github.com/openvaers/analyzer-backend/pkg/errors"
)

// ReportHandler handles report-related HTTP requests
type ReportHandler struct {
	reportService *services.ReportService
}

// NewReportHandler creates a new report handler
func NewReportHandler(reportService *services.ReportService) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
	}
}

// CreateReport handles POST /api/reports
func (h *ReportHandler) CreateReport(w http.ResponseWriter, r *http.Request) {
	var report entities.Report
	if err := json.NewDecoder(r.Body).Decode(&report); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.reportService.Create(r.Context(), &report); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, report)
}

// GetReport handles GET /api/reports/{id}
func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	reportID := r.PathValue("id")
	if reportID == "" {
		respondWithError(w, http.StatusBadRequest, "report ID is required")
		return
	}

	report, err := h.reportService.GetByID(r.Context(), reportID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, report)
}

// GetReportByVaersID handles GET /api/reports/vaers/{vaersId}
func (h *ReportHandler) GetReportByVaersID(w http.ResponseWriter, r *http.Request) {
	vaersID := r.PathValue("vaersId")
	if vaersID == "" {
		respondWithError(w, http.StatusBadRequest, "VAERS ID is required")
		return
	}

	report, err := h.reportService.GetByVaersID(r.Context(), vaersID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, report)
}

// UpdateReport handles PATCH /api/reports/{id}
func (h *ReportHandler) UpdateReport(w http.ResponseWriter, r *http.Request) {
	reportID := r.PathValue("id")
	if reportID == "" {
		respondWithError(w, http.StatusBadRequest, "report ID is required")
		return
	}

	// Load the current row so a partial body only overwrites what it names
	report, err := h.reportService.GetByID(r.Context(), reportID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	if err := json.NewDecoder(r.Body).Decode(report); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	report.ID = reportID

	if err := h.reportService.Update(r.Context(), report); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, report)
}

// DeleteReport handles DELETE /api/reports/{id}
func (h *ReportHandler) DeleteReport(w http.ResponseWriter, r *http.Request) {
	reportID := r.PathValue("id")
	if reportID == "" {
		respondWithError(w, http.StatusBadRequest, "report ID is required")
		return
	}

	if err := h.reportService.Delete(r.Context(), reportID); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ListReports handles GET /api/reports
func (h *ReportHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := repositories.ReportFilter{
		Search:      query.Get("search"),
		VaccineType: query.Get("vaccineType"),
		Outcome:     repositories.OutcomeFilter(query.Get("outcome")),
	}

	if days := query.Get("dateRange"); days != "" {
		parsed, err := strconv.Atoi(days)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid dateRange parameter")
			return
		}
		filter.DateRangeDays = parsed
	}
	if limit := query.Get("limit"); limit != "" {
		if parsed, err := strconv.Atoi(limit); err == nil {
			filter.Limit = parsed
		}
	}
	if offset := query.Get("offset"); offset != "" {
		if parsed, err := strconv.Atoi(offset); err == nil {
			filter.Offset = parsed
		}
	}

	page, err := h.reportService.List(r.Context(), filter)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, page)
}

// respondWithAppError maps application errors to HTTP responses, hiding
// internal detail for anything unexpected
func respondWithAppError(w http.ResponseWriter, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus()
		if status == http.StatusInternalServerError {
			respondWithError(w, status, "internal server error")
			return
		}
		respondWithError(w, status, appErr.Message)
		return
	}
	respondWithError(w, http.StatusInternalServerError, "internal server error")
}

// Helper functions
func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}
