package provider

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// GeminiGenerator implements Generator using the Google Gemini API.
type GeminiGenerator struct {
	client   *genai.Client
	settings Settings
}

// NewGeminiGenerator creates a generator backed by the genai SDK.
func NewGeminiGenerator(ctx context.Context, s Settings) (*GeminiGenerator, error) {
	if s.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	if s.Model == "" {
		return nil, errors.New("gemini model is required")
	}

	client, err := NewGenAIClient(ctx, s)
	if err != nil {
		return nil, err
	}
	return &GeminiGenerator{client: client, settings: s}, nil
}

// NewGenAIClient builds a Gemini API client from settings. It is shared with
// the search package, which uses Gemini's Google Search grounding.
func NewGenAIClient(ctx context.Context, s Settings) (*genai.Client, error) {
	cc := &genai.ClientConfig{
		APIKey:  s.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if s.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: s.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return client, nil
}

// Generate implements Generator.
func (g *GeminiGenerator) Generate(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, g.settings.timeout())
	defer cancel()

	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(maxTokensOrDefault(req.MaxTokens)),
		Temperature:     genai.Ptr(float32(req.Temperature)),
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.settings.Model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}

	out := &Response{
		Text:       resp.Text(),
		StopReason: StopReasonEndTurn,
	}
	if resp.UsageMetadata != nil {
		out.Usage = Usage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}
	if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason == genai.FinishReasonMaxTokens {
		out.StopReason = StopReasonMaxTokens
	}
	return out, nil
}

// Name implements Generator.
func (g *GeminiGenerator) Name() string {
	return "gemini"
}

// Model implements Generator.
func (g *GeminiGenerator) Model() string {
	return g.settings.Model
}
