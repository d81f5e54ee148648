package fdatools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openvaers/analyzer-backend/internal/domain/entities"
	"github.com/openvaers/analyzer-backend/internal/domain/providers"
	"github.com/openvaers/analyzer-backend/pkg/config"
)

// StatusError is returned when the tool server responds with a non-2xx
// status. The pipeline inspects nothing beyond its presence, but the status
// is carried for logging.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tool server returned status %d: %s", e.StatusCode, e.Status)
}

// HTTPClient implements providers.ToolClient against the FDA tool server.
// One outbound request per call, no retry, no caching.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

var _ providers.ToolClient = (*HTTPClient)(nil)

// NewClient creates a new tool server client
func NewClient(cfg *config.FDAToolsConfig) *HTTPClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type toolRequest struct {
	Tool   string      `json:"tool"`
	Params interface{} `json:"params"`
}

type toolResponse struct {
	Tool   string          `json:"tool"`
	Params json.RawMessage `json:"params"`
	Result json.RawMessage `json:"result"`
}

// SearchValidatedSymptoms searches FDA reference data for a vaccine and
// symptom list. A null tool result decodes to nil.
func (c *HTTPClient) SearchValidatedSymptoms(ctx context.Context, vaccine string, symptoms []string) (*entities.FDASearchResult, error) {
	result, err := c.call(ctx, providers.ToolSearchValidatedSymptoms, map[string]interface{}{
		"vaccine":  vaccine,
		"symptoms": symptoms,
	})
	if err != nil {
		return nil, err
	}
	if len(result) == 0 || string(result) == "null" {
		return nil, nil
	}

	var out entities.FDASearchResult
	if err := json.Unmarshal(result, &out); err != nil {
		return nil, fmt.Errorf("failed to decode searchValidatedSymptoms result: %w", err)
	}
	return &out, nil
}

// GetControlledTrialData looks up controlled-trial records for a vaccine
// filtered by indication.
func (c *HTTPClient) GetControlledTrialData(ctx context.Context, vaccine, indication string) ([]entities.FDAReport, error) {
	result, err := c.call(ctx, providers.ToolGetControlledTrialData, map[string]interface{}{
		"vaccine":    vaccine,
		"indication": indication,
	})
	if err != nil {
		return nil, err
	}

	var out struct {
		TrialData []entities.FDAReport `json:"trialData"`
	}
	if err := json.Unmarshal(result, &out); err != nil {
		return nil, fmt.Errorf("failed to decode getControlledTrialData result: %w", err)
	}
	return out.TrialData, nil
}

// call performs one tool invocation and returns the raw result payload
func (c *HTTPClient) call(ctx context.Context, tool string, params interface{}) (json.RawMessage, error) {
	body, err := json.Marshal(toolRequest{Tool: tool, Params: params})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/fda", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	var envelope toolResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, err
	}
	return envelope.Result, nil
}
