package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// DefaultHuggingFaceURL is the serverless Inference API route. The model id is
// appended to it.
const DefaultHuggingFaceURL = "https://router.huggingface.co/hf-inference/models/"

// HuggingFaceGenerator implements Generator using the Hugging Face Inference
// API. Both text-generation and summarization models are supported.
type HuggingFaceGenerator struct {
	client   *http.Client
	settings Settings
	endpoint string
}

// NewHuggingFaceGenerator creates a new Hugging Face Inference generator.
func NewHuggingFaceGenerator(s Settings) (*HuggingFaceGenerator, error) {
	if s.APIKey == "" {
		return nil, errors.New("huggingface token is required")
	}
	if s.Model == "" {
		return nil, errors.New("huggingface model is required")
	}

	base := s.BaseURL
	if base == "" {
		base = DefaultHuggingFaceURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}

	return &HuggingFaceGenerator{
		client:   &http.Client{Timeout: s.timeout()},
		settings: s,
		endpoint: base + s.Model,
	}, nil
}

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
	Options    hfOptions    `json:"options"`
}

type hfParameters struct {
	MaxNewTokens   int      `json:"max_new_tokens,omitempty"`
	Temperature    *float64 `json:"temperature,omitempty"`
	ReturnFullText bool     `json:"return_full_text"`
}

type hfOptions struct {
	// Cold models are queued instead of failing with 503.
	WaitForModel bool `json:"wait_for_model"`
}

type hfItem struct {
	GeneratedText string `json:"generated_text"`
	SummaryText   string `json:"summary_text"`
	Details       struct {
		FinishReason    string `json:"finish_reason"`
		GeneratedTokens int    `json:"generated_tokens"`
	} `json:"details"`
}

type hfError struct {
	Error string `json:"error"`
}

// Generate implements Generator.
func (g *HuggingFaceGenerator) Generate(ctx context.Context, req Request) (*Response, error) {
	inputs := req.Prompt
	if req.System != "" {
		inputs = req.System + "\n\n" + req.Prompt
	}

	body := hfRequest{
		Inputs: inputs,
		Parameters: hfParameters{
			MaxNewTokens: maxTokensOrDefault(req.MaxTokens),
		},
		Options: hfOptions{WaitForModel: true},
	}
	// The API rejects a temperature of exactly zero.
	if req.Temperature > 0 {
		t := req.Temperature
		body.Parameters.Temperature = &t
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+g.settings.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

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

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var he hfError
		if json.Unmarshal(respBody, &he) == nil && he.Error != "" {
			return nil, fmt.Errorf("huggingface API error (status %d): %s", resp.StatusCode, he.Error)
		}
		return nil, fmt.Errorf("huggingface API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	return parseHuggingFaceResponse(respBody)
}

// parseHuggingFaceResponse accepts the shapes returned by the different
// inference backends: a list of generation or summarization items, a single
// item, or a bare string.
func parseHuggingFaceResponse(body []byte) (*Response, error) {
	var items []hfItem
	if err := json.Unmarshal(body, &items); err == nil {
		if len(items) == 0 {
			return nil, errors.New("huggingface: empty response")
		}
		return itemResponse(items[0]), nil
	}

	var item hfItem
	if err := json.Unmarshal(body, &item); err == nil && (item.GeneratedText != "" || item.SummaryText != "") {
		return itemResponse(item), nil
	}

	var s string
	if err := json.Unmarshal(body, &s); err == nil {
		return &Response{Text: s, StopReason: StopReasonEndTurn}, nil
	}

	return nil, fmt.Errorf("huggingface: unrecognized response: %s", string(body))
}

func itemResponse(item hfItem) *Response {
	text := item.GeneratedText
	if text == "" {
		text = item.SummaryText
	}
	r := &Response{
		Text:       text,
		StopReason: StopReasonEndTurn,
		Usage:      Usage{OutputTokens: item.Details.GeneratedTokens},
	}
	if item.Details.FinishReason == "length" {
		r.StopReason = StopReasonMaxTokens
	}
	return r
}

// Name implements Generator.
func (g *HuggingFaceGenerator) Name() string {
	return "huggingface"
}

// Model implements Generator.
func (g *HuggingFaceGenerator) Model() string {
	return g.settings.Model
}
