package writer

import (
	"context"

	"github.com/moolen/researchlab/internal/agent/multiagent/types"
	"github.com/moolen/researchlab/internal/agent/provider"
	"github.com/moolen/researchlab/internal/logging"
)

// AgentName is the name of the Writer Agent.
const AgentName = "writer_agent"

// Config tunes the writer's generation requests.
type Config struct {
	// TargetWords is the soft length target given to the model.
	TargetWords int
	MaxTokens   int
	Temperature float64
}

// Request is the input of one writing pass.
type Request struct {
	Topic   string
	Sources []types.SourceSnippet

	// Previous and Issues are set on revision passes.
	Previous *types.Draft
	Issues   []string

	// Attempt is 0 for the first draft and n for the n-th revision.
	Attempt int
}

// Agent is the Writer Agent.
type Agent struct {
	gen    provider.Generator
	cfg    Config
	logger *logging.Logger
}

// New creates a Writer Agent.
func New(gen provider.Generator, cfg Config) *Agent {
	if cfg.TargetWords <= 0 {
		cfg.TargetWords = 500
	}
	return &Agent{
		gen:    gen,
		cfg:    cfg,
		logger: logging.GetLogger("writer"),
	}
}

// Write produces a draft with a single generation call.
func (a *Agent) Write(ctx context.Context, req Request) (types.Draft, error) {
	prompt := buildInitialPrompt(req.Topic, req.Sources, a.cfg.TargetWords)
	if req.Previous != nil {
		prompt = buildRevisionPrompt(req.Topic, req.Sources, a.cfg.TargetWords, *req.Previous, req.Issues)
	}

	resp, err := a.gen.Generate(ctx, provider.Request{
		System:      SystemPrompt,
		Prompt:      prompt,
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: a.cfg.Temperature,
	})
	if err != nil {
		return types.Draft{}, types.GenerationFailed("writer", err)
	}
	if resp.StopReason == provider.StopReasonMaxTokens {
		a.logger.WithContext(ctx).Warn("Draft %d was truncated at the token limit", req.Attempt)
	}

	draft, err := PostProcess(resp.Text, req.Attempt)
	if err != nil {
		return types.Draft{}, err
	}

	a.logger.WithContext(ctx).Debug("Draft %d: %d words, title %q", draft.Attempt, draft.WordCount(), draft.Title)
	return draft, nil
}
