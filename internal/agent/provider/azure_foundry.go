package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// AzureFoundryGenerator implements Generator using Anthropic models hosted on
// Azure AI Foundry. Foundry speaks the Anthropic Messages wire format:
// - "x-api-key" header for authentication
// - Base URL format: https://{resource}.services.ai.azure.com/anthropic/
type AzureFoundryGenerator struct {
	client   *http.Client
	settings Settings
	endpoint string
}

// NewAzureFoundryGenerator creates a new Azure AI Foundry generator.
// Settings.BaseURL is the Foundry endpoint.
func NewAzureFoundryGenerator(s Settings) (*AzureFoundryGenerator, error) {
	if s.BaseURL == "" {
		return nil, fmt.Errorf("Azure AI Foundry endpoint is required")
	}
	if s.APIKey == "" {
		return nil, fmt.Errorf("Azure AI Foundry API key is required")
	}
	if s.Model == "" {
		return nil, fmt.Errorf("Azure AI Foundry model is required")
	}

	// Normalize endpoint - ensure it ends with /anthropic
	endpoint := strings.TrimSuffix(s.BaseURL, "/")
	if !strings.HasSuffix(endpoint, "/anthropic") {
		endpoint += "/anthropic"
	}

	return &AzureFoundryGenerator{
		client:   &http.Client{Timeout: s.timeout()},
		settings: s,
		endpoint: endpoint,
	}, nil
}

// Generate implements Generator.
func (g *AzureFoundryGenerator) Generate(ctx context.Context, req Request) (*Response, error) {
	body := foundryRequest{
		Model:     g.settings.Model,
		MaxTokens: maxTokensOrDefault(req.MaxTokens),
		System:    req.System,
		Messages: []foundryMessage{
			{Role: "user", Content: req.Prompt},
		},
	}
	if req.Temperature > 0 {
		t := req.Temperature
		body.Temperature = &t
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint+"/v1/messages", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", g.settings.APIKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, parseFoundryError(resp.StatusCode, respBody)
	}
	return parseFoundryResponse(respBody)
}

// Name implements Generator.
func (g *AzureFoundryGenerator) Name() string {
	return "azure-foundry"
}

// Model implements Generator.
func (g *AzureFoundryGenerator) Model() string {
	return g.settings.Model
}

type foundryRequest struct {
	Model       string           `json:"model"`
	MaxTokens   int              `json:"max_tokens"`
	System      string           `json:"system,omitempty"`
	Messages    []foundryMessage `json:"messages"`
	Temperature *float64         `json:"temperature,omitempty"`
}

type foundryMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type foundryResponse struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	Role       string                 `json:"role"`
	Content    []foundryResponseBlock `json:"content"`
	Model      string                 `json:"model"`
	StopReason string                 `json:"stop_reason"`
	Usage      foundryUsage           `json:"usage"`
}

type foundryResponseBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type foundryUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type foundryErrorResponse struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func parseFoundryResponse(body []byte) (*Response, error) {
	var fr foundryResponse
	if err := json.Unmarshal(body, &fr); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	response := &Response{
		Usage: Usage{
			InputTokens:  fr.Usage.InputTokens,
			OutputTokens: fr.Usage.OutputTokens,
		},
		StopReason: StopReasonEndTurn,
	}

	var textParts []string
	for _, block := range fr.Content {
		if block.Type == "text" {
			textParts = append(textParts, block.Text)
		}
	}
	response.Text = strings.Join(textParts, "")

	if fr.StopReason == "max_tokens" {
		response.StopReason = StopReasonMaxTokens
	}
	return response, nil
}

func parseFoundryError(statusCode int, body []byte) error {
	var errResp foundryErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error.Message == "" {
		return fmt.Errorf("Azure AI Foundry API error (status %d): %s", statusCode, string(body))
	}

	return fmt.Errorf("Azure AI Foundry API error (status %d, type: %s): %s",
		statusCode, errResp.Error.Type, errResp.Error.Message)
}
