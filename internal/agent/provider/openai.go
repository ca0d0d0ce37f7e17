package provider

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIGenerator implements Generator using the chat completions API. Any
// OpenAI-compatible endpoint (Hugging Face router, OpenRouter, DeepSeek) works
// through Settings.BaseURL.
type OpenAIGenerator struct {
	client   openai.Client
	settings Settings
}

// NewOpenAIGenerator creates a generator backed by the openai-go SDK.
func NewOpenAIGenerator(s Settings) (*OpenAIGenerator, error) {
	if s.APIKey == "" {
		return nil, errors.New("openai api key missing")
	}
	if s.Model == "" {
		return nil, errors.New("openai model is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(s.APIKey),
		option.WithRequestTimeout(s.timeout()),
	}
	if s.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(s.BaseURL))
	}

	return &OpenAIGenerator{
		client:   openai.NewClient(opts...),
		settings: s,
	}, nil
}

// Generate implements Generator.
func (g *OpenAIGenerator) Generate(ctx context.Context, req Request) (*Response, error) {
	var msgs []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		msgs = append(msgs, openai.SystemMessage(req.System))
	}
	msgs = append(msgs, openai.UserMessage(req.Prompt))

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(g.settings.Model),
		Messages:    msgs,
		MaxTokens:   openai.Int(int64(maxTokensOrDefault(req.MaxTokens))),
		Temperature: openai.Float(req.Temperature),
	})
	if err != nil {
		return nil, fmt.Errorf("openai API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai: empty choices")
	}

	choice := resp.Choices[0]
	out := &Response{
		Text:       choice.Message.Content,
		StopReason: StopReasonEndTurn,
		Usage: Usage{
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
		},
	}
	if choice.FinishReason == "length" {
		out.StopReason = StopReasonMaxTokens
	}
	return out, nil
}

// Name implements Generator.
func (g *OpenAIGenerator) Name() string {
	return "openai"
}

// Model implements Generator.
func (g *OpenAIGenerator) Model() string {
	return g.settings.Model
}
