// Package researcher implements the Researcher Agent, which turns a topic into
// an ordered list of source snippets through the search collaborator.
package researcher

import (
	"context"
	"fmt"
	"strings"

	"github.com/moolen/researchlab/internal/agent/multiagent/types"
	"github.com/moolen/researchlab/internal/logging"
	"github.com/moolen/researchlab/internal/search"
)

// AgentName is the name of the Researcher Agent.
const AgentName = "researcher_agent"

// DefaultMaxResults is the number of snippets requested when none is configured.
const DefaultMaxResults = 5

// Agent is the Researcher Agent.
type Agent struct {
	searcher   search.Searcher
	maxResults int
	logger     *logging.Logger
}

// New creates a Researcher Agent that asks searcher for at most maxResults hits.
func New(searcher search.Searcher, maxResults int) *Agent {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	return &Agent{
		searcher:   searcher,
		maxResults: maxResults,
		logger:     logging.GetLogger("researcher"),
	}
}

// Research issues the topic as a single query. Zero results is a valid
// outcome. Any search failure is returned wrapped in types.ErrSearchUnavailable.
func (a *Agent) Research(ctx context.Context, topic string) ([]types.SourceSnippet, error) {
	a.logger.WithContext(ctx).Debug("Searching %s for %q (max %d results)", a.searcher.Name(), topic, a.maxResults)

	results, err := a.searcher.Search(ctx, topic, a.maxResults)
	if err != nil {
		return nil, types.SearchUnavailable(err)
	}

	snippets := make([]types.SourceSnippet, 0, len(results))
	for _, r := range results {
		text := strings.TrimSpace(r.Text)
		if text == "" {
			continue
		}
		snippets = append(snippets, types.SourceSnippet{
			ID:     fmt.Sprintf("src-%d", len(snippets)+1),
			Title:  strings.TrimSpace(r.Title),
			Text:   text,
			Source: r.Source,
			Query:  topic,
		})
		if len(snippets) == a.maxResults {
			break
		}
	}

	a.logger.WithContext(ctx).Info("Collected %d source snippet(s)", len(snippets))
	return snippets, nil
}
