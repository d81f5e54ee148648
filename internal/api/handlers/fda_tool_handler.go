package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/openvaers/analyzer-backend/internal/domain/entities"
	"github.com/openvaers/analyzer-backend/internal/domain/providers"
	"github.com/openvaers/analyzer-backend/internal/domain/repositories"
)

// FDAToolHandler dispatches named tool invocations against the FDA reference
// store. It is the single endpoint of the tool server.
type FDAToolHandler struct {
	fdaRepo repositories.FDAReportRepository
}

// NewFDAToolHandler creates a new FDA tool handler
func NewFDAToolHandler(fdaRepo repositories.FDAReportRepository) *FDAToolHandler {
	return &FDAToolHandler{
		fdaRepo: fdaRepo,
	}
}

type toolEnvelope struct {
	Tool   string          `json:"tool"`
	Params json.RawMessage `json:"params"`
}

// HandleToolCall handles POST /fda
func (h *FDAToolHandler) HandleToolCall(w http.ResponseWriter, r *http.Request) {
	var envelope toolEnvelope
	if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid tool")
		return
	}

	var result interface{}
	var err error

	switch envelope.Tool {
	case providers.ToolSearchValidatedSymptoms:
		result, err = h.searchValidatedSymptoms(w, r, envelope.Params)
	case providers.ToolGetControlledTrialData:
		result, err = h.getControlledTrialData(w, r, envelope.Params)
	default:
		respondWithError(w, http.StatusBadRequest, "Invalid tool")
		return
	}
	if err != nil {
		log.Printf("FDA tool error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if result == nil {
		// Parameter validation already responded
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"tool":   envelope.Tool,
		"params": envelope.Params,
		"result": result,
	})
}

func (h *FDAToolHandler) searchValidatedSymptoms(w http.ResponseWriter, r *http.Request, raw json.RawMessage) (interface{}, error) {
	var params struct {
		Vaccine  string   `json:"vaccine"`
		Symptoms []string `json:"symptoms"`
	}
	if err := json.Unmarshal(raw, &params); err != nil || params.Vaccine == "" || len(params.Symptoms) == 0 {
		respondWithError(w, http.StatusBadRequest, "Missing vaccine or symptoms")
		return nil, nil
	}

	// One lookup per symptom, deduplicated by record ID across symptoms
	seen := make(map[string]struct{})
	matches := []entities.FDAReport{}
	for _, symptom := range params.Symptoms {
		reports, err := h.fdaRepo.SearchByAdverseEvent(r.Context(), symptom)
		if err != nil {
			return nil, err
		}
		for _, report := range reports {
			if _, dup := seen[report.ID]; dup {
				continue
			}
			seen[report.ID] = struct{}{}
			matches = append(matches, report)
		}
	}

	excerpts := make([]entities.FDAReportExcerpt, 0, len(matches))
	for _, report := range matches {
		excerpts = append(excerpts, entities.FDAReportExcerpt{
			StudyType:     report.StudyType,
			SourceSection: report.SourceSection,
			Symptoms:      report.Symptoms,
		})
	}

	return &entities.FDASearchResult{
		Vaccine:      params.Vaccine,
		Symptoms:     params.Symptoms,
		FoundReports: len(matches),
		Reports:      excerpts,
	}, nil
}

func (h *FDAToolHandler) getControlledTrialData(w http.ResponseWriter, r *http.Request, raw json.RawMessage) (interface{}, error) {
	var params struct {
		Vaccine    string `json:"vaccine"`
		Indication string `json:"indication"`
	}
	if err := json.Unmarshal(raw, &params); err != nil || params.Vaccine == "" || params.Indication == "" {
		respondWithError(w, http.StatusBadRequest, "Missing vaccine or indication")
		return nil, nil
	}

	reports, err := h.fdaRepo.SearchByVaccineName(r.Context(), params.Vaccine)
	if err != nil {
		return nil, err
	}

	indication := strings.ToLower(params.Indication)
	trialData := []entities.FDAReport{}
	for _, report := range reports {
		for _, symptom := range report.Symptoms {
			if strings.Contains(strings.ToLower(symptom), indication) {
				trialData = append(trialData, report)
				break
			}
		}
	}

	return map[string]interface{}{
		"vaccine":      params.Vaccine,
		"indication":   params.Indication,
		"foundReports": len(trialData),
		"trialData":    trialData,
	}, nil
}
