package fdatools

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openvaers/analyzer-backend/pkg/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(&config.FDAToolsConfig{BaseURL: server.URL})
}

func TestSearchValidatedSymptoms(t *testing.T) {
	t.Run("decodes tool result envelope", func(t *testing.T) {
		var gotBody toolRequest
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/fda" {
				t.Errorf("path = %q, want /fda", r.URL.Path)
			}
			json.NewDecoder(r.Body).Decode(&gotBody)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"tool":   gotBody.Tool,
				"params": gotBody.Params,
				"result": map[string]interface{}{
					"vaccine":      "COVID19",
					"symptoms":     []string{"Pyrexia"},
					"foundReports": 5,
				},
			})
		})

		result, err := client.SearchValidatedSymptoms(context.Background(), "COVID19", []string{"Pyrexia"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotBody.Tool != "searchValidatedSymptoms" {
			t.Errorf("tool = %q", gotBody.Tool)
		}
		if result.FoundReports != 5 || result.Vaccine != "COVID19" {
			t.Errorf("unexpected result: %+v", result)
		}
	})

	t.Run("null result decodes to nil", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"tool":"searchValidatedSymptoms","params":{},"result":null}`))
		})

		result, err := client.SearchValidatedSymptoms(context.Background(), "COVID19", nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result != nil {
			t.Errorf("expected nil result, got %+v", result)
		}
	})

	t.Run("non-2xx returns StatusError with code", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "Invalid tool", http.StatusBadRequest)
		})

		_, err := client.SearchValidatedSymptoms(context.Background(), "COVID19", nil)
		var statusErr *StatusError
		if !errors.As(err, &statusErr) {
			t.Fatalf("expected StatusError, got %v", err)
		}
		if statusErr.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", statusErr.StatusCode)
		}
	})
}

func TestGetControlledTrialData(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req toolRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Tool != "getControlledTrialData" {
			t.Errorf("tool = %q", req.Tool)
		}
		w.Write([]byte(`{"tool":"getControlledTrialData","params":{},"result":{"vaccine":"COVID19","indication":"fever","foundReports":1,"trialData":[{"vaccineName":"COVID19","studyType":"RCT"}]}}`))
	})

	reports, err := client.GetControlledTrialData(context.Background(), "COVID19", "fever")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reports) != 1 || reports[0].StudyType != "RCT" {
		t.Errorf("unexpected reports: %+v", reports)
	}
}
