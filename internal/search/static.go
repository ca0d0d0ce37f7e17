package search

import (
	"context"
	"strings"
)

// Static returns the same canned results for every query. It backs offline
// runs and tests.
type Static struct {
	results []Result
}

// NewStatic creates a Static searcher. The results are copied.
func NewStatic(results []Result) *Static {
	cp := make([]Result, len(results))
	copy(cp, results)
	return &Static{results: cp}
}

// Search implements Searcher.
func (s *Static) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	out := make([]Result, len(s.results))
	copy(out, s.results)
	return truncate(out, limit), nil
}

// Name implements Searcher.
func (s *Static) Name() string {
	return "static"
}
