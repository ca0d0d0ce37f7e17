// Package types defines the values handed between the research pipeline agents.
package types

import (
	"strings"
	"time"
)

// SourceSnippet is one search hit handed from the researcher to the writer.
// Snippets are read-only once produced.
type SourceSnippet struct {
	// ID is the stable citation key ("src-1", "src-2", ...) in arrival order.
	ID string `json:"id" yaml:"id"`

	// Title is the page or result title, if the search backend returned one.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Text is the snippet body.
	Text string `json:"text" yaml:"text"`

	// Source identifies where the snippet came from (usually a URL).
	Source string `json:"source" yaml:"source"`

	// Query is the search query that produced the snippet.
	Query string `json:"query" yaml:"query"`
}

// Draft is the writer's markdown output. A revision replaces the draft wholesale.
type Draft struct {
	// Attempt is 0 for the first draft and n for the n-th revision.
	Attempt int `json:"attempt" yaml:"attempt"`

	// Title is the first level-one heading of the markdown, if any.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Markdown is the full draft text.
	Markdown string `json:"markdown" yaml:"-"`
}

// WordCount returns the number of whitespace separated words in the draft.
func (d Draft) WordCount() int {
	return len(strings.Fields(d.Markdown))
}

// ReviewVerdict is the reviewer's structured critique of a draft.
type ReviewVerdict struct {
	// Issues lists suggested edits in the order the reviewer gave them.
	Issues []string `json:"issues" yaml:"issues"`

	// Approved is true exactly when Issues is empty.
	Approved bool `json:"approved" yaml:"approved"`
}

// NewVerdict builds a verdict whose approval follows from the issue list.
func NewVerdict(issues []string) ReviewVerdict {
	cleaned := make([]string, 0, len(issues))
	for _, issue := range issues {
		if s := strings.TrimSpace(issue); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	return ReviewVerdict{Issues: cleaned, Approved: len(cleaned) == 0}
}

// TerminationReason explains why a run reached DONE.
type TerminationReason string

const (
	// ReasonApproved means the reviewer approved the current draft.
	ReasonApproved TerminationReason = "approved"

	// ReasonRevisionLimit means the revision budget ran out; the last draft is accepted.
	ReasonRevisionLimit TerminationReason = "revision_limit"
)

// Transition records one state change of the coordinator.
type Transition struct {
	From State     `json:"from" yaml:"from"`
	To   State     `json:"to" yaml:"to"`
	At   time.Time `json:"at" yaml:"at"`
}

// FinalReport is the accepted draft plus what led to it.
type FinalReport struct {
	RunID string `json:"run_id" yaml:"run_id"`
	Topic string `json:"topic" yaml:"topic"`

	// Title and Markdown come from the accepted draft.
	Title    string `json:"title,omitempty" yaml:"title,omitempty"`
	Markdown string `json:"markdown" yaml:"-"`

	Sources []SourceSnippet `json:"sources" yaml:"sources"`

	// Drafts holds every draft in the order it was written; the last one is
	// the accepted draft.
	Drafts []Draft `json:"drafts" yaml:"-"`

	// Verdict is the last review of the accepted draft.
	Verdict ReviewVerdict `json:"verdict" yaml:"verdict"`

	// Revisions is the number of revision cycles performed.
	Revisions int  `json:"revisions" yaml:"revisions"`
	Approved  bool `json:"approved" yaml:"approved"`

	Reason      TerminationReason `json:"reason" yaml:"reason"`
	Transitions []Transition      `json:"transitions" yaml:"-"`

	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`
}
