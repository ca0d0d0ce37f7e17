// Package writer implements the Writer Agent, which drafts and revises the
// markdown research summary.
package writer

import (
	"fmt"
	"strings"

	"github.com/moolen/researchlab/internal/agent/multiagent/types"
)

// SystemPrompt is the instruction for the Writer Agent.
const SystemPrompt = `You are the Writer Agent of a research team. You turn search findings into a concise, well-structured research summary in markdown.

## Rules

1. Output only markdown. Do not add any preamble or closing remarks.
2. Start with exactly one level-one heading ("# ...") holding the title.
3. Organise the body in short sections with level-two headings.
4. Ground factual claims in the numbered sources and cite them inline as [n].
5. Never invent sources or citations. When the sources are thin or missing, say what remains uncertain.
6. Write for a technically literate reader: plain, precise, no filler.`

// buildInitialPrompt renders the request for a first draft.
func buildInitialPrompt(topic string, sources []types.SourceSnippet, targetWords int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Topic: %s\n\n", topic)
	fmt.Fprintf(&sb, "Write a research summary of about %d words on the topic.\n\n", targetWords)
	writeSources(&sb, sources)
	sb.WriteString("\nOutput the complete markdown summary.")
	return sb.String()
}

// buildRevisionPrompt renders the request for a revised draft.
func buildRevisionPrompt(topic string, sources []types.SourceSnippet, targetWords int, previous types.Draft, issues []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Topic: %s\n\n", topic)
	fmt.Fprintf(&sb, "Revise the current draft so that it addresses every reviewer issue. "+
		"Keep what already works, keep the markdown structure and stay at about %d words.\n\n", targetWords)
	writeSources(&sb, sources)

	sb.WriteString("\nCurrent draft:\n")
	sb.WriteString("<<<\n")
	sb.WriteString(strings.TrimSpace(previous.Markdown))
	sb.WriteString("\n>>>\n\n")

	sb.WriteString("Reviewer issues:\n")
	if len(issues) == 0 {
		sb.WriteString("(none given; tighten the draft)\n")
	}
	for i, issue := range issues {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, issue)
	}
	sb.WriteString("\nOutput the complete revised markdown summary.")
	return sb.String()
}

func writeSources(sb *strings.Builder, sources []types.SourceSnippet) {
	sb.WriteString("Sources:\n")
	if len(sources) == 0 {
		sb.WriteString("(no sources were found; write from general knowledge and state clearly that no sources were available)\n")
		return
	}
	for i, s := range sources {
		title := s.Title
		if title == "" {
			title = s.Source
		}
		fmt.Fprintf(sb, "[%d] %s\n", i+1, title)
		fmt.Fprintf(sb, "    %s\n", strings.ReplaceAll(s.Text, "\n", " "))
		if s.Source != "" {
			fmt.Fprintf(sb, "    (%s)\n", s.Source)
		}
	}
}
