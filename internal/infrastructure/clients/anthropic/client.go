package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/openvaers/analyzer-backend/internal/domain/entities"
	"github.com/openvaers/analyzer-backend/internal/domain/providers"
	"github.com/openvaers/analyzer-backend/pkg/config"
	"github.com/openvaers/analyzer-backend/pkg/jsontext"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	defaultBaseURL  = "https://api.anthropic.com"
	anthropicAPIVer = "2023-06-01"

	maxTokensExtraction  = 1000
	maxTokensSearchTerms = 500
	maxTokensAnalysis    = 2000
)

// Client implements providers.LLMProvider against the Anthropic messages API.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

var _ providers.LLMProvider = (*Client)(nil)

// NewClient creates a new Anthropic client. The API key comes from the
// injected configuration, never from the environment directly.
func NewClient(cfg *config.AnthropicConfig) (*Client, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, errors.New("anthropic api key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	return &Client{
		apiKey:  cfg.APIKey,
		model:   model,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type messageRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	System      string    `json:"system"`
	Messages    []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type messageResponse struct {
	Content []contentBlock `json:"content"`
}

// ExtractKeyInformation extracts structured fields from the flattened report
// text. Output that does not parse as the expected JSON shape is an error.
func (c *Client) ExtractKeyInformation(ctx context.Context, reportText string) (*entities.ExtractedInfo, error) {
	text, err := c.complete(ctx, "extract", extractionSystemPrompt, buildExtractionUserPrompt(reportText), maxTokensExtraction)
	if err != nil {
		return nil, err
	}

	var info entities.ExtractedInfo
	if err := jsontext.Unmarshal(text, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// FindRelevantSearchTerms proposes symptom search terms. Malformed model
// output degrades to an empty list; only transport failures are errors.
func (c *Client) FindRelevantSearchTerms(ctx context.Context, info *entities.ExtractedInfo) ([]string, error) {
	extractedJSON, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return nil, err
	}

	text, err := c.complete(ctx, "search_terms", searchTermsSystemPrompt, buildSearchTermsUserPrompt(string(extractedJSON)), maxTokensSearchTerms)
	if err != nil {
		return nil, err
	}

	var terms []string
	if err := jsontext.Unmarshal(text, &terms); err != nil {
		var moErr *jsontext.ModelOutputError
		if errors.As(err, &moErr) {
			return []string{}, nil
		}
		return nil, err
	}
	return terms, nil
}

// GenerateAnalysis synthesizes the final narrative from the collected
// evidence. Output that does not parse as the expected JSON shape is an error.
func (c *Client) GenerateAnalysis(ctx context.Context, evidence *providers.AnalysisEvidence) (*providers.AnalysisSynthesis, error) {
	evidenceJSON, err := json.MarshalIndent(map[string]interface{}{
		"report":         evidence.Report,
		"fdaResults":     evidence.FDAResults,
		"similarReports": evidence.SimilarReports,
	}, "", "  ")
	if err != nil {
		return nil, err
	}

	text, err := c.complete(ctx, "analysis", analysisSystemPrompt, buildAnalysisUserPrompt(string(evidenceJSON)), maxTokensAnalysis)
	if err != nil {
		return nil, err
	}

	var synthesis providers.AnalysisSynthesis
	if err := jsontext.Unmarshal(text, &synthesis); err != nil {
		return nil, err
	}
	return &synthesis, nil
}

// complete performs one messages-API round trip and returns the text of the
// first text content block.
func (c *Client) complete(ctx context.Context, operation, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	payload := messageRequest{
		Model:       c.model,
		MaxTokens:   maxTokens,
		Temperature: 0,
		System:      systemPrompt,
		Messages: []message{
			{Role: "user", Content: userPrompt},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicAPIVer)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		recordAnthropicMetric(ctx, c.model, operation, 0, time.Since(start), err)
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("anthropic request failed with status %d", resp.StatusCode)
		recordAnthropicMetric(ctx, c.model, operation, resp.StatusCode, time.Since(start), err)
		return "", err
	}

	var envelope messageResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		recordAnthropicMetric(ctx, c.model, operation, resp.StatusCode, time.Since(start), err)
		return "", err
	}

	var text string
	for _, block := range envelope.Content {
		if block.Type == "text" && block.Text != "" {
			text = block.Text
			break
		}
	}

	if text == "" {
		err := errors.New("anthropic response missing text content")
		recordAnthropicMetric(ctx, c.model, operation, resp.StatusCode, time.Since(start), err)
		return "", err
	}

	recordAnthropicMetric(ctx, c.model, operation, resp.StatusCode, time.Since(start), nil)
	return text, nil
}

type anthropicMetrics struct {
	requestCount    metric.Int64Counter
	requestDuration metric.Float64Histogram
	requestErrors   metric.Int64Counter
}

var metricsInit = false
var metrics anthropicMetrics

func ensureMetrics() {
	if metricsInit {
		return
	}
	meter := otel.Meter("github.com/openvaers/analyzer-backend/anthropic")

	requestCount, err := meter.Int64Counter(
		"ai.anthropic.request.count",
		metric.WithDescription("Number of Anthropic requests"),
	)
	if err != nil {
		return
	}
	requestDuration, err := meter.Float64Histogram(
		"ai.anthropic.request.duration",
		metric.WithDescription("Anthropic request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return
	}
	requestErrors, err := meter.Int64Counter(
		"ai.anthropic.request.errors",
		metric.WithDescription("Number of Anthropic request errors"),
	)
	if err != nil {
		return
	}

	metrics = anthropicMetrics{
		requestCount:    requestCount,
		requestDuration: requestDuration,
		requestErrors:   requestErrors,
	}
	metricsInit = true
}

func recordAnthropicMetric(ctx context.Context, model, operation string, statusCode int, duration time.Duration, err error) {
	ensureMetrics()
	if !metricsInit {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("ai.provider", "anthropic"),
		attribute.String("ai.model", model),
		attribute.String("ai.operation", operation),
	}
	if statusCode > 0 {
		attrs = append(attrs, attribute.Int("http.status_code", statusCode))
	}

	metrics.requestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	metrics.requestDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
	if err != nil {
		metrics.requestErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}
