// Package search provides the web search collaborators used by the
// researcher agent.
package search

import (
	"context"
	"errors"
)

// Result is a single search hit.
type Result struct {
	Title  string `json:"title" yaml:"title"`
	Text   string `json:"text" yaml:"text"`
	Source string `json:"source" yaml:"source"`
}

// Searcher issues one query against a search backend and returns at most
// limit results in ranking order. Zero results is not an error.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]Result, error)
	Name() string
}

// ErrEmptyQuery is returned when the query is blank.
var ErrEmptyQuery = errors.New("search query is empty")

// truncate caps results at limit. A non-positive limit returns all results.
func truncate(results []Result, limit int) []Result {
	if limit > 0 && len(results) > limit {
		return results[:limit]
	}
	return results
}
