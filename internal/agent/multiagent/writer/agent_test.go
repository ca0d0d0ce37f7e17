package writer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moolen/researchlab/internal/agent/multiagent/types"
	"github.com/moolen/researchlab/internal/agent/provider"
)

type recordingGenerator struct {
	text     string
	stop     provider.StopReason
	err      error
	requests []provider.Request
}

func (g *recordingGenerator) Generate(ctx context.Context, req provider.Request) (*provider.Response, error) {
	g.requests = append(g.requests, req)
	if g.err != nil {
		return nil, g.err
	}
	return &provider.Response{Text: g.text, StopReason: g.stop}, nil
}

func (g *recordingGenerator) Name() string  { return "recording" }
func (g *recordingGenerator) Model() string { return "test" }

var testSources = []types.SourceSnippet{
	{ID: "src-1", Title: "Go generics", Text: "Type parameters landed in Go 1.18.", Source: "https://go.dev/blog", Query: "go"},
	{ID: "src-2", Text: "Constraints are interfaces.", Source: "https://example.com", Query: "go"},
}

func TestWrite_FirstDraft(t *testing.T) {
	gen := &recordingGenerator{text: "# Generics in Go\n\nBody [1]."}
	agent := New(gen, Config{TargetWords: 500, MaxTokens: 900, Temperature: 0.2})

	draft, err := agent.Write(context.Background(), Request{Topic: "Go generics", Sources: testSources})
	require.NoError(t, err)

	assert.Equal(t, types.Draft{Attempt: 0, Title: "Generics in Go", Markdown: "# Generics in Go\n\nBody [1]."}, draft)

	require.Len(t, gen.requests, 1)
	req := gen.requests[0]
	assert.Equal(t, SystemPrompt, req.System)
	assert.Equal(t, 900, req.MaxTokens)
	assert.InDelta(t, 0.2, req.Temperature, 1e-9)
	assert.Contains(t, req.Prompt, "Topic: Go generics")
	assert.Contains(t, req.Prompt, "about 500 words")
	assert.Contains(t, req.Prompt, "[1] Go generics")
	assert.Contains(t, req.Prompt, "[2] https://example.com")
	assert.NotContains(t, req.Prompt, "Reviewer issues")
}

func TestWrite_NoSources(t *testing.T) {
	gen := &recordingGenerator{text: "# Topic\n\nNo sources were available."}
	_, err := New(gen, Config{}).Write(context.Background(), Request{Topic: "X"})
	require.NoError(t, err)
	assert.Contains(t, gen.requests[0].Prompt, "no sources were found")
}

func TestWrite_RevisionIncludesDraftAndIssues(t *testing.T) {
	gen := &recordingGenerator{text: "# Revised\n\nBetter."}
	prev := types.Draft{Attempt: 0, Title: "Old", Markdown: "# Old\n\nWeak body."}

	draft, err := New(gen, Config{}).Write(context.Background(), Request{
		Topic:    "X",
		Sources:  testSources,
		Previous: &prev,
		Issues:   []string{"Add citations", "Shorten the intro"},
		Attempt:  1,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, draft.Attempt)
	assert.Equal(t, "Revised", draft.Title)

	prompt := gen.requests[0].Prompt
	assert.Contains(t, prompt, "Weak body.")
	assert.Contains(t, prompt, "1. Add citations")
	assert.Contains(t, prompt, "2. Shorten the intro")
}

func TestWrite_GenerationErrorIsGenerationFailed(t *testing.T) {
	cause := errors.New("503")
	_, err := New(&recordingGenerator{err: cause}, Config{}).Write(context.Background(), Request{Topic: "X"})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrGenerationFailed)
	assert.ErrorIs(t, err, cause)
}

func TestWrite_EmptyOutputIsGenerationFailed(t *testing.T) {
	_, err := New(&recordingGenerator{text: " \n\t"}, Config{}).Write(context.Background(), Request{Topic: "X"})
	assert.ErrorIs(t, err, types.ErrGenerationFailed)
}

func TestWrite_TruncatedDraftIsKept(t *testing.T) {
	gen := &recordingGenerator{text: "# Long\n\ncut off mid", stop: provider.StopReasonMaxTokens}
	draft, err := New(gen, Config{}).Write(context.Background(), Request{Topic: "X"})
	require.NoError(t, err)
	assert.Equal(t, "Long", draft.Title)
}
