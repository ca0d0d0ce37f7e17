package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moolen/researchlab/internal/agent/multiagent/types"
	"github.com/moolen/researchlab/internal/config"
)

func sampleReport() *types.FinalReport {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	return &types.FinalReport{
		RunID:    "run-1",
		Topic:    "Solid-state batteries",
		Title:    "Solid-state batteries",
		Markdown: "# Solid-state batteries\n\nThey promise higher density [1].\n",
		Sources: []types.SourceSnippet{
			{ID: "src-1", Title: "Battery primer", Text: "...", Source: "https://example.com/primer", Query: "Solid-state batteries"},
			{ID: "src-2", Title: "Lab notes", Text: "...", Source: "lab archive", Query: "Solid-state batteries"},
		},
		Drafts: []types.Draft{
			{Attempt: 0, Title: "Batteries", Markdown: "# Batteries\n\nfirst pass"},
			{Attempt: 1, Title: "Solid-state batteries", Markdown: "# Solid-state batteries\n\nThey promise higher density [1].\n"},
		},
		Verdict:    types.NewVerdict([]string{"Cite a 2024 source", "Explain dendrites"}),
		Revisions:  1,
		Reason:     types.ReasonRevisionLimit,
		StartedAt:  start,
		FinishedAt: start.Add(1500 * time.Millisecond),
	}
}

func TestBody_SourcesAndReviewNotes(t *testing.T) {
	r := sampleReport()

	plain := string(Body(r, Options{}))
	assert.True(t, strings.HasPrefix(plain, "# Solid-state batteries\n"))
	assert.Contains(t, plain, "## Sources\n\n1. [Battery primer](https://example.com/primer)\n2. Lab notes (lab archive)\n")
	assert.NotContains(t, plain, "Reviewer notes")

	withReview := string(Body(r, Options{AppendReview: true}))
	assert.True(t, strings.HasSuffix(withReview, "### Reviewer notes\n\n- Cite a 2024 source\n- Explain dendrites\n"))
}

func TestBody_KeepsExistingSourcesSection(t *testing.T) {
	r := sampleReport()
	r.Markdown = "# T\n\nText.\n\n## Sources\n\n1. already cited\n"

	out := string(Body(r, Options{}))
	assert.Equal(t, 1, strings.Count(out, "## Sources"))
}

func TestBody_NoSources(t *testing.T) {
	r := sampleReport()
	r.Sources = nil
	r.Verdict = types.NewVerdict(nil)

	out := string(Body(r, Options{AppendReview: true}))
	assert.Equal(t, "# Solid-state batteries\n\nThey promise higher density [1].\n", out)
}

func TestFrontmatterRoundTrip(t *testing.T) {
	r := sampleReport()

	doc, err := Markdown(r, Options{Frontmatter: true})
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(doc, []byte("---\n")))

	meta, body, err := splitFrontmatter(doc)
	require.NoError(t, err)
	assert.Equal(t, "run-1", meta.RunID)
	assert.Equal(t, "revision_limit", meta.Reason)
	assert.Equal(t, 1, meta.Revisions)
	assert.Equal(t, "2024-01-01T12:00:00Z", meta.Started)
	assert.Equal(t, "1.5s", meta.Duration)
	assert.Equal(t, []string{"Cite a 2024 source", "Explain dendrites"}, meta.OpenIssues)
	require.Len(t, meta.Sources, 2)
	assert.Equal(t, SourceEntry{ID: "src-2", Title: "Lab notes", Source: "lab archive"}, meta.Sources[1])
	assert.Equal(t, []DraftEntry{
		{Attempt: 0, Title: "Batteries", Words: 4},
		{Attempt: 1, Title: "Solid-state batteries", Words: 8},
	}, meta.Drafts)
	assert.Equal(t, Body(r, Options{}), body)
}

func TestSplitFrontmatterMissing(t *testing.T) {
	_, _, err := splitFrontmatter([]byte("# no frontmatter"))
	assert.ErrorIs(t, err, errMissingFrontmatter)

	_, _, err = splitFrontmatter([]byte("---\ntitle: x\n"))
	assert.Error(t, err)
}

func TestHTMLDocument(t *testing.T) {
	doc, err := HTMLDocument("A <b> title", []byte("# Heading\n\n| a | b |\n|---|---|\n| 1 | 2 |\n\n<script>x</script>\n"))
	require.NoError(t, err)

	out := string(doc)
	assert.Contains(t, out, "<title>A &lt;b&gt; title</title>")
	assert.Contains(t, out, `<h1 id="heading">Heading</h1>`)
	assert.Contains(t, out, "<table>")
	assert.NotContains(t, out, "<script>")
	assert.NotContains(t, out, "&lt;script&gt;")
	assert.Contains(t, out, "<!-- raw HTML omitted -->")
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "report.md")

	require.NoError(t, WriteFile(path, []byte("first")))
	require.NoError(t, WriteFile(path, []byte("second")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are cleaned up")
}

func TestEmitter(t *testing.T) {
	r := sampleReport()

	t.Run("markdown to stdout", func(t *testing.T) {
		var out bytes.Buffer
		e := NewEmitter(config.OutputConfig{Format: config.FormatMarkdown, Render: config.RenderAuto}, &out)
		require.NoError(t, e.Emit(r))
		assert.Equal(t, string(Body(r, Options{})), out.String())
	})

	t.Run("html to file", func(t *testing.T) {
		var out bytes.Buffer
		path := filepath.Join(t.TempDir(), "report.html")
		e := NewEmitter(config.OutputConfig{Path: path, Format: config.FormatHTML, Render: config.RenderNever}, &out)
		require.NoError(t, e.Emit(r))

		assert.Empty(t, out.String())
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "<title>Solid-state batteries</title>")
	})

	t.Run("rendered for terminal", func(t *testing.T) {
		var out bytes.Buffer
		e := NewEmitter(config.OutputConfig{Format: config.FormatMarkdown, Render: config.RenderAlways}, &out)
		require.NoError(t, e.Emit(r))
		assert.Contains(t, out.String(), "density")
	})
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "01-solid-state-batteries.md", FileName("Solid-state batteries!", 0, config.FormatMarkdown))
	assert.Equal(t, "03-report.html", FileName("???", 2, config.FormatHTML))
	assert.LessOrEqual(t, len(FileName(strings.Repeat("word ", 40), 0, config.FormatMarkdown)), 3+60+3)
}
