package provider

import (
	"context"
	"fmt"
)

// EchoGenerator is a deterministic offline Generator. It answers every
// request with the length of the prompt it received, which makes pipeline
// output reproducible without network access.
type EchoGenerator struct{}

// NewEchoGenerator returns an EchoGenerator.
func NewEchoGenerator() *EchoGenerator {
	return &EchoGenerator{}
}

// Generate implements Generator.
func (g *EchoGenerator) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Response{
		Text:       fmt.Sprintf("Prompt length: %d characters.", len(req.Prompt)),
		StopReason: StopReasonEndTurn,
		Usage:      Usage{InputTokens: len(req.System) + len(req.Prompt)},
	}, nil
}

// Name implements Generator.
func (g *EchoGenerator) Name() string {
	return "echo"
}

// Model implements Generator.
func (g *EchoGenerator) Model() string {
	return "echo"
}
