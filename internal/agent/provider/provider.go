// Package provider implements the text-generation collaborators used by the
// writer and reviewer agents.
package provider

import (
	"context"
	"time"
)

// Generator produces text for a single prompt. Implementations are safe to
// call sequentially from one goroutine; the pipeline never calls them
// concurrently.
type Generator interface {
	// Generate sends one prompt and returns the generated text.
	Generate(ctx context.Context, req Request) (*Response, error)

	// Name returns the provider name (e.g. "anthropic", "huggingface").
	Name() string

	// Model returns the model identifier in use.
	Model() string
}

// Request is a single generation request.
type Request struct {
	// System is the instruction prompt. Providers without a system role
	// prepend it to the prompt.
	System string

	// Prompt is the user content.
	Prompt string

	// MaxTokens caps the generated length. Zero uses the provider default.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64
}

// Response is the result of a generation call.
type Response struct {
	// Text is the generated text.
	Text string

	// StopReason indicates why generation stopped.
	StopReason StopReason

	// Usage contains token usage information, when the provider reports it.
	Usage Usage
}

// StopReason indicates why generation stopped.
type StopReason string

const (
	// StopReasonEndTurn means the model finished its response naturally.
	StopReasonEndTurn StopReason = "end_turn"

	// StopReasonMaxTokens means the response was truncated due to token limits.
	StopReasonMaxTokens StopReason = "max_tokens"
)

// Usage contains token usage information.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Settings holds the connection settings shared by the remote providers.
type Settings struct {
	// Model is the model identifier.
	Model string

	// APIKey is the credential, read once from the environment at startup.
	APIKey string

	// BaseURL overrides the provider endpoint. Empty uses the provider default.
	BaseURL string

	// Timeout bounds a single request.
	Timeout time.Duration
}

const defaultTimeout = 60 * time.Second

func (s Settings) timeout() time.Duration {
	if s.Timeout <= 0 {
		return defaultTimeout
	}
	return s.Timeout
}
