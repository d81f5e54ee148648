package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/openvaers/analyzer-backend/internal/application/services"
	"github.com/openvaers/analyzer-backend/internal/domain/entities"
	"github.com/openvaers/analyzer-backend/internal/domain/repositories"
	apperrors "github.com/openvaers/analyzer-backend/pkg/errors"
)

// AnalyzeHandler runs the analysis pipeline for one report and streams its
// progress to the client as Server-Sent Events.
type AnalyzeHandler struct {
	pipeline   *services.AnalysisPipeline
	generator  *services.ReportGenerator
	reportRepo repositories.ReportRepository
}

// NewAnalyzeHandler creates a new analyze handler
func NewAnalyzeHandler(
	pipeline *services.AnalysisPipeline,
	generator *services.ReportGenerator,
	reportRepo repositories.ReportRepository,
) *AnalyzeHandler {
	return &AnalyzeHandler{
		pipeline:   pipeline,
		generator:  generator,
		reportRepo: reportRepo,
	}
}

type analyzeRequest struct {
	ReportID string `json:"reportId"`
}

// AnalyzeReport handles POST /api/analyze. Validation failures respond with
// plain JSON; once the stream starts, failures arrive as error events.
func (h *AnalyzeHandler) AnalyzeReport(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ReportID == "" {
		respondWithError(w, http.StatusBadRequest, "Missing reportId")
		return
	}

	report, err := h.reportRepo.GetDetail(r.Context(), req.ReportID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			respondWithError(w, http.StatusNotFound, "Report not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache, no-transform")
	w.Header().Set("Connection", "keep-alive")
	// Disable Nginx buffering
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	emit := func(step entities.AnalysisStep) {
		sendServerEvent(w, "step", step)
		flusher.Flush()
	}

	result, err := h.pipeline.Analyze(r.Context(), report, emit)
	if err != nil {
		log.Printf("Analysis failed for report %s: %v", report.VaersID, err)
		sendServerEvent(w, "error", map[string]string{
			"message": "Analysis failed",
			"error":   err.Error(),
		})
		flusher.Flush()
		return
	}

	structuredReport := h.generator.Generate(result)
	sendServerEvent(w, "complete", structuredReport)
	flusher.Flush()
}

// sendServerEvent writes one SSE frame
func sendServerEvent(w http.ResponseWriter, eventType string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Printf("Failed to marshal event data: %v", err)
		return
	}

	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
}
