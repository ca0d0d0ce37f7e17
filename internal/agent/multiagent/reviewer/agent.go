package reviewer

import (
	"context"

	"github.com/moolen/researchlab/internal/agent/multiagent/types"
	"github.com/moolen/researchlab/internal/agent/provider"
	"github.com/moolen/researchlab/internal/logging"
)

// AgentName is the name of the Reviewer Agent.
const AgentName = "reviewer_agent"

// Config tunes the reviewer's generation requests.
type Config struct {
	MaxTokens   int
	Temperature float64
}

// Agent is the Reviewer Agent.
type Agent struct {
	gen    provider.Generator
	cfg    Config
	logger *logging.Logger
}

// New creates a Reviewer Agent.
func New(gen provider.Generator, cfg Config) *Agent {
	return &Agent{
		gen:    gen,
		cfg:    cfg,
		logger: logging.GetLogger("reviewer"),
	}
}

// Review critiques draft with a single generation call.
func (a *Agent) Review(ctx context.Context, topic string, draft types.Draft) (types.ReviewVerdict, error) {
	resp, err := a.gen.Generate(ctx, provider.Request{
		System:      SystemPrompt,
		Prompt:      buildReviewPrompt(topic, draft),
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: a.cfg.Temperature,
	})
	if err != nil {
		return types.ReviewVerdict{}, types.GenerationFailed("reviewer", err)
	}

	verdict, err := ParseVerdict(resp.Text)
	if err != nil {
		return types.ReviewVerdict{}, err
	}

	a.logger.WithContext(ctx).Debug("Draft %d review: approved=%t, issues=%d", draft.Attempt, verdict.Approved, len(verdict.Issues))
	return verdict, nil
}
