package writer

import (
	"regexp"
	"strings"

	"github.com/moolen/researchlab/internal/agent/multiagent/types"
)

var (
	titleRe = regexp.MustCompile(`(?m)^#\s+(.+)$`)
	fenceRe = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*\n(.*?)\n?```$")
)

// PostProcess normalizes raw model output into a Draft. It strips a fence
// wrapping the whole response, trims whitespace and extracts the title from
// the first level-one heading. Empty output is a generation failure.
func PostProcess(raw string, attempt int) (types.Draft, error) {
	md := strings.TrimSpace(raw)
	if m := fenceRe.FindStringSubmatch(md); m != nil {
		md = strings.TrimSpace(m[1])
	}
	if md == "" {
		return types.Draft{}, types.GenerationFailed("writer returned empty markdown", nil)
	}

	return types.Draft{
		Attempt:  attempt,
		Title:    extractTitle(md),
		Markdown: md,
	}, nil
}

func extractTitle(md string) string {
	m := titleRe.FindStringSubmatch(md)
	if len(m) >= 2 {
		return strings.TrimSpace(m[1])
	}
	return ""
}
