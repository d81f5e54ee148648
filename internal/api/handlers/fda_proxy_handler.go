package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/openvaers/analyzer-backend/pkg/config"
)

// FDAProxyHandler forwards tool invocations from browser clients to the FDA
// tool server, which is not exposed publicly.
type FDAProxyHandler struct {
	baseURL    string
	httpClient *http.Client
}

// NewFDAProxyHandler creates a new FDA tool proxy handler
func NewFDAProxyHandler(cfg *config.FDAToolsConfig) *FDAProxyHandler {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &FDAProxyHandler{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ProxyToolCall handles POST /api/mcp/fda
func (h *FDAProxyHandler) ProxyToolCall(w http.ResponseWriter, r *http.Request) {
	var envelope struct {
		Tool   string          `json:"tool"`
		Params json.RawMessage `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil || envelope.Tool == "" || len(envelope.Params) == 0 {
		respondWithError(w, http.StatusBadRequest, "Missing tool or params")
		return
	}

	body, err := json.Marshal(envelope)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, h.baseURL+"/fda", bytes.NewReader(body))
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		log.Printf("FDA tool proxy error: %v", err)
		respondWithError(w, http.StatusBadGateway, "tool server unreachable")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respondWithError(w, resp.StatusCode, "tool server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, resp.Body); err != nil {
		log.Printf("Failed to copy tool server response: %v", err)
	}
}
