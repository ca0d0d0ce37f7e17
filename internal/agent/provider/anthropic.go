package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicGenerator implements Generator using the Anthropic Messages API.
type AnthropicGenerator struct {
	client   anthropic.Client
	settings Settings
}

// NewAnthropicGenerator creates a generator backed by the Anthropic SDK.
// The SDK's built-in retry policy applies to transient failures.
func NewAnthropicGenerator(s Settings) (*AnthropicGenerator, error) {
	if s.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	if s.Model == "" {
		return nil, fmt.Errorf("anthropic model is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(s.APIKey),
		option.WithRequestTimeout(s.timeout()),
	}
	if s.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(s.BaseURL))
	}

	return &AnthropicGenerator{
		client:   anthropic.NewClient(opts...),
		settings: s,
	}, nil
}

// Generate implements Generator.
func (g *AnthropicGenerator) Generate(ctx context.Context, req Request) (*Response, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(g.settings.Model),
		MaxTokens:   int64(maxTokensOrDefault(req.MaxTokens)),
		Temperature: anthropic.Float(req.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: req.System},
		}
	}

	resp, err := g.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic API call failed: %w", err)
	}

	return g.convertResponse(resp), nil
}

// Name implements Generator.
func (g *AnthropicGenerator) Name() string {
	return "anthropic"
}

// Model implements Generator.
func (g *AnthropicGenerator) Model() string {
	return g.settings.Model
}

func (g *AnthropicGenerator) convertResponse(resp *anthropic.Message) *Response {
	response := &Response{
		Usage: Usage{
			InputTokens:  int(resp.Usage.InputTokens),
			OutputTokens: int(resp.Usage.OutputTokens),
		},
		StopReason: StopReasonEndTurn,
	}

	var textParts []string
	for i := range resp.Content {
		block := &resp.Content[i]
		if block.Type == "text" {
			textParts = append(textParts, block.Text)
		}
	}
	response.Text = strings.Join(textParts, "")

	if resp.StopReason == anthropic.StopReasonMaxTokens {
		response.StopReason = StopReasonMaxTokens
	}
	return response
}

const defaultMaxTokens = 1024

func maxTokensOrDefault(n int) int {
	if n <= 0 {
		return defaultMaxTokens
	}
	return n
}
