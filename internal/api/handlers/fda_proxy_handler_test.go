package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openvaers/analyzer-backend/internal/api/handlers"
	"github.com/openvaers/analyzer-backend/pkg/config"
)

func newProxy(t *testing.T, upstream http.HandlerFunc) *handlers.FDAProxyHandler {
	t.Helper()
	server := httptest.NewServer(upstream)
	t.Cleanup(server.Close)
	return handlers.NewFDAProxyHandler(&config.FDAToolsConfig{BaseURL: server.URL})
}

func TestFDAProxyHandler_ProxyToolCall(t *testing.T) {
	t.Run("forwards the envelope and returns the upstream body", func(t *testing.T) {
		var gotPath string
		var gotBody map[string]interface{}
		proxy := newProxy(t, func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			body, _ := io.ReadAll(r.Body)
			json.Unmarshal(body, &gotBody)
			w.Write([]byte(`{"tool":"searchValidatedSymptoms","params":{},"result":{"foundReports":3}}`))
		})

		req := httptest.NewRequest("POST", "/api/mcp/fda", bytes.NewBufferString(`{"tool":"searchValidatedSymptoms","params":{"vaccine":"COVID19","symptoms":["Pyrexia"]}}`))
		w := httptest.NewRecorder()

		proxy.ProxyToolCall(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
		}
		if gotPath != "/fda" {
			t.Errorf("upstream path = %q, want /fda", gotPath)
		}
		if gotBody["tool"] != "searchValidatedSymptoms" {
			t.Errorf("forwarded tool = %v", gotBody["tool"])
		}

		var resp map[string]interface{}
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if resp["tool"] != "searchValidatedSymptoms" {
			t.Errorf("Unexpected response: %v", resp)
		}
	})

	t.Run("rejects missing tool or params", func(t *testing.T) {
		proxy := newProxy(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("upstream should not be called")
		})

		for _, body := range []string{`{}`, `{"tool":"x"}`, `{"params":{}}`, `{not json`} {
			req := httptest.NewRequest("POST", "/api/mcp/fda", bytes.NewBufferString(body))
			w := httptest.NewRecorder()

			proxy.ProxyToolCall(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("body %q: expected status 400, got %d", body, w.Code)
			}
		}
	})

	t.Run("maps upstream failures to the upstream status", func(t *testing.T) {
		proxy := newProxy(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "Invalid tool", http.StatusBadRequest)
		})

		req := httptest.NewRequest("POST", "/api/mcp/fda", bytes.NewBufferString(`{"tool":"bogus","params":{}}`))
		w := httptest.NewRecorder()

		proxy.ProxyToolCall(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
	})
}
