package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// GeminiSearcher answers queries with Gemini's Google Search grounding and
// returns the grounding chunks as results.
type GeminiSearcher struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGeminiSearcher creates a GeminiSearcher from an existing client.
func NewGeminiSearcher(client *genai.Client, model string, timeout time.Duration) (*GeminiSearcher, error) {
	if client == nil {
		return nil, errors.New("gemini client is required")
	}
	if model == "" {
		return nil, errors.New("gemini model is required")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GeminiSearcher{client: client, model: model, timeout: timeout}, nil
}

// Name implements Searcher.
func (g *GeminiSearcher) Name() string {
	return "gemini"
}

const geminiSearchPrompt = `Search the web for: %s

Summarise the most relevant findings in a few sentences per source.`

// Search implements Searcher.
func (g *GeminiSearcher) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	cfg := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(fmt.Sprintf(geminiSearchPrompt, query)), cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini search failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].GroundingMetadata == nil {
		return nil, nil
	}

	return truncate(groundingResults(resp.Candidates[0].GroundingMetadata), limit), nil
}

// groundingResults turns grounding chunks into results. A chunk's text is the
// concatenation of the answer segments that cite it.
func groundingResults(gm *genai.GroundingMetadata) []Result {
	segments := make(map[int][]string)
	for _, support := range gm.GroundingSupports {
		if support == nil || support.Segment == nil || support.Segment.Text == "" {
			continue
		}
		for _, idx := range support.GroundingChunkIndices {
			segments[int(idx)] = append(segments[int(idx)], strings.TrimSpace(support.Segment.Text))
		}
	}

	var out []Result
	seen := map[string]bool{}
	for idx, chunk := range gm.GroundingChunks {
		if chunk == nil || chunk.Web == nil || chunk.Web.URI == "" || seen[chunk.Web.URI] {
			continue
		}
		seen[chunk.Web.URI] = true

		title := chunk.Web.Title
		if title == "" {
			title = chunk.Web.Domain
		}
		text := strings.Join(segments[idx], " ")
		if text == "" {
			text = title
		}
		out = append(out, Result{Title: title, Text: text, Source: chunk.Web.URI})
	}
	return out
}
