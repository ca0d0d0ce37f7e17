// Package reviewer implements the Reviewer Agent, which critiques a draft and
// decides whether it needs another revision.
package reviewer

import (
	"fmt"
	"strings"

	"github.com/moolen/researchlab/internal/agent/multiagent/types"
)

// SystemPrompt is the instruction for the Reviewer Agent.
const SystemPrompt = `You are the Reviewer Agent of a research team. You review a markdown research summary before it is published.

## Review Criteria

1. **Coherence**: the summary reads as one argument, sections follow a logical order and nothing contradicts itself.
2. **Factual plausibility**: claims are plausible, hedged where uncertain and backed by inline citations such as [1].
3. **Structure**: one level-one title, short sections with level-two headings, no filler, roughly the requested length.

## Output Format

Respond with a single JSON object and nothing else:

{"issues": ["<concrete, actionable edit>", "..."]}

Each issue must name what to change and where. Only list problems that are worth another revision.
If the draft is ready to publish, respond with {"issues": []}.`

func buildReviewPrompt(topic string, draft types.Draft) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Topic: %s\n", topic)
	fmt.Fprintf(&sb, "Draft revision: %d (%d words)\n\n", draft.Attempt, draft.WordCount())
	sb.WriteString("Draft:\n<<<\n")
	sb.WriteString(strings.TrimSpace(draft.Markdown))
	sb.WriteString("\n>>>\n\nReview the draft and respond with the JSON object.")
	return sb.String()
}
