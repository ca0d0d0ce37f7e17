package report

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/moolen/researchlab/internal/agent/multiagent/types"
)

// errMissingFrontmatter indicates the document did not start with a YAML fence.
var errMissingFrontmatter = errors.New("report: missing frontmatter")

// Metadata is the frontmatter block written ahead of the report body.
type Metadata struct {
	Title      string        `yaml:"title,omitempty"`
	Topic      string        `yaml:"topic"`
	RunID      string        `yaml:"run_id"`
	Reason     string        `yaml:"reason"`
	Approved   bool          `yaml:"approved"`
	Revisions  int           `yaml:"revisions"`
	Sources    []SourceEntry `yaml:"sources,omitempty"`
	Drafts     []DraftEntry  `yaml:"drafts,omitempty"`
	OpenIssues []string      `yaml:"open_issues,omitempty"`
	Started    string        `yaml:"started_at"`
	Finished   string        `yaml:"finished_at"`
	Duration   string        `yaml:"duration"`
}

// SourceEntry lists one source in the frontmatter.
type SourceEntry struct {
	ID     string `yaml:"id"`
	Title  string `yaml:"title,omitempty"`
	Source string `yaml:"source,omitempty"`
}

// DraftEntry lists one draft of the run in the frontmatter.
type DraftEntry struct {
	Attempt int    `yaml:"attempt"`
	Title   string `yaml:"title,omitempty"`
	Words   int    `yaml:"words"`
}

// NewMetadata extracts the frontmatter fields from a report.
func NewMetadata(r *types.FinalReport) Metadata {
	m := Metadata{
		Title:      r.Title,
		Topic:      r.Topic,
		RunID:      r.RunID,
		Reason:     string(r.Reason),
		Approved:   r.Approved,
		Revisions:  r.Revisions,
		OpenIssues: append([]string(nil), r.Verdict.Issues...),
		Started:    r.StartedAt.UTC().Format(time.RFC3339),
		Finished:   r.FinishedAt.UTC().Format(time.RFC3339),
		Duration:   r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String(),
	}
	for _, s := range r.Sources {
		m.Sources = append(m.Sources, SourceEntry{ID: s.ID, Title: s.Title, Source: s.Source})
	}
	for _, d := range r.Drafts {
		m.Drafts = append(m.Drafts, DraftEntry{Attempt: d.Attempt, Title: d.Title, Words: d.WordCount()})
	}
	return m
}

// WithFrontmatter renders the report metadata and body with YAML fences.
func WithFrontmatter(r *types.FinalReport, body []byte) ([]byte, error) {
	data, err := yaml.Marshal(NewMetadata(r))
	if err != nil {
		return nil, fmt.Errorf("report: encode frontmatter: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(bytes.TrimRight(data, "\n"))
	buf.WriteString("\n---\n\n")
	buf.Write(body)
	return buf.Bytes(), nil
}

// splitFrontmatter separates a document written by WithFrontmatter into its
// metadata and body.
func splitFrontmatter(content []byte) (Metadata, []byte, error) {
	normalized := bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(normalized, []byte("---\n")) {
		return Metadata{}, nil, errMissingFrontmatter
	}
	parts := bytes.SplitN(normalized[4:], []byte("\n---\n"), 2)
	if len(parts) < 2 {
		return Metadata{}, nil, fmt.Errorf("report: unterminated frontmatter")
	}
	var m Metadata
	if err := yaml.Unmarshal(parts[0], &m); err != nil {
		return Metadata{}, nil, fmt.Errorf("report: parse frontmatter: %w", err)
	}
	return m, bytes.TrimLeft(parts[1], "\n"), nil
}
