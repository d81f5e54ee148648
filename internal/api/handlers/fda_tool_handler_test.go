package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openvaers/analyzer-backend/internal/api/handlers"
	"github.com/openvaers/analyzer-backend/internal/domain/entities"
)

// StubFDAReportRepository serves canned FDA records per symptom term
type StubFDAReportRepository struct {
	bySymptom map[string][]entities.FDAReport
	byVaccine map[string][]entities.FDAReport
}

func (s *StubFDAReportRepository) SearchByAdverseEvent(ctx context.Context, symptom string) ([]entities.FDAReport, error) {
	return s.bySymptom[symptom], nil
}

func (s *StubFDAReportRepository) SearchByVaccineName(ctx context.Context, vaccine string) ([]entities.FDAReport, error) {
	return s.byVaccine[vaccine], nil
}

func postTool(t *testing.T, handler *handlers.FDAToolHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/fda", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	handler.HandleToolCall(w, req)
	return w
}

func TestFDAToolHandler_SearchValidatedSymptoms(t *testing.T) {
	sharedReport := entities.FDAReport{
		ID:          "fda-1",
		VaccineName: "COVID19",
		StudyType:   "clinical_trial",
		Symptoms:    []string{"Pyrexia", "Fatigue"},
	}
	repo := &StubFDAReportRepository{
		bySymptom: map[string][]entities.FDAReport{
			// the same record matches both terms and must be counted once
			"Pyrexia": {sharedReport},
			"Fatigue": {sharedReport, {ID: "fda-2", VaccineName: "COVID19", Symptoms: []string{"Fatigue"}}},
		},
	}
	handler := handlers.NewFDAToolHandler(repo)

	t.Run("searches per symptom and deduplicates", func(t *testing.T) {
		w := postTool(t, handler, `{"tool":"searchValidatedSymptoms","params":{"vaccine":"COVID19","symptoms":["Pyrexia","Fatigue"]}}`)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
		}

		var envelope struct {
			Tool   string                    `json:"tool"`
			Result *entities.FDASearchResult `json:"result"`
		}
		if err := json.NewDecoder(w.Body).Decode(&envelope); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if envelope.Tool != "searchValidatedSymptoms" {
			t.Errorf("tool = %q", envelope.Tool)
		}
		if envelope.Result.FoundReports != 2 {
			t.Errorf("foundReports = %d, want 2", envelope.Result.FoundReports)
		}
		if len(envelope.Result.Reports) != 2 {
			t.Fatalf("Expected 2 report excerpts, got %d", len(envelope.Result.Reports))
		}
		if envelope.Result.Reports[0].StudyType != "clinical_trial" {
			t.Errorf("studyType = %q", envelope.Result.Reports[0].StudyType)
		}
	})

	t.Run("rejects missing params", func(t *testing.T) {
		w := postTool(t, handler, `{"tool":"searchValidatedSymptoms","params":{"vaccine":"COVID19"}}`)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
		var resp map[string]string
		json.NewDecoder(w.Body).Decode(&resp)
		if resp["error"] != "Missing vaccine or symptoms" {
			t.Errorf("error = %q", resp["error"])
		}
	})
}

func TestFDAToolHandler_GetControlledTrialData(t *testing.T) {
	repo := &StubFDAReportRepository{
		byVaccine: map[string][]entities.FDAReport{
			"COVID19": {
				{ID: "fda-1", VaccineName: "COVID19", Symptoms: []string{"Severe Fever", "Chills"}},
				{ID: "fda-2", VaccineName: "COVID19", Symptoms: []string{"Rash"}},
			},
		},
	}
	handler := handlers.NewFDAToolHandler(repo)

	t.Run("filters records by indication", func(t *testing.T) {
		w := postTool(t, handler, `{"tool":"getControlledTrialData","params":{"vaccine":"COVID19","indication":"fever"}}`)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
		}

		var envelope struct {
			Result struct {
				FoundReports int                  `json:"foundReports"`
				TrialData    []entities.FDAReport `json:"trialData"`
			} `json:"result"`
		}
		if err := json.NewDecoder(w.Body).Decode(&envelope); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if envelope.Result.FoundReports != 1 {
			t.Errorf("foundReports = %d, want 1", envelope.Result.FoundReports)
		}
		if len(envelope.Result.TrialData) != 1 || envelope.Result.TrialData[0].ID != "fda-1" {
			t.Errorf("Unexpected trial data: %+v", envelope.Result.TrialData)
		}
	})

	t.Run("rejects missing indication", func(t *testing.T) {
		w := postTool(t, handler, `{"tool":"getControlledTrialData","params":{"vaccine":"COVID19"}}`)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
	})
}

func TestFDAToolHandler_InvalidTool(t *testing.T) {
	handler := handlers.NewFDAToolHandler(&StubFDAReportRepository{})

	cases := []string{
		`{"tool":"dropTables","params":{}}`,
		`{not json`,
	}
	for _, body := range cases {
		w := postTool(t, handler, body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %q: expected status 400, got %d", body, w.Code)
		}
		var resp map[string]string
		json.NewDecoder(w.Body).Decode(&resp)
		if resp["error"] != "Invalid tool" {
			t.Errorf("body %q: error = %q", body, resp["error"])
		}
	}
}
