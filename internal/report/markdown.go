// Package report turns a FinalReport into the document the user asked for:
// markdown with optional YAML frontmatter, standalone HTML, or markdown
// rendered for the terminal.
package report

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/moolen/researchlab/internal/agent/multiagent/types"
)

// Options selects the optional parts of the markdown document.
type Options struct {
	// Frontmatter prepends run metadata as a YAML block.
	Frontmatter bool

	// AppendReview appends the reviewer's open issues as "Reviewer notes".
	AppendReview bool
}

var sourcesHeadingRe = regexp.MustCompile(`(?mi)^#{1,3}\s+(sources|references)\s*$`)

// Body returns the report markdown followed by a Sources section (unless the
// draft already has one) and, when requested, the reviewer notes.
func Body(r *types.FinalReport, opts Options) []byte {
	var b bytes.Buffer
	b.WriteString(strings.TrimSpace(r.Markdown))
	b.WriteString("\n")

	if len(r.Sources) > 0 && !sourcesHeadingRe.MatchString(r.Markdown) {
		b.WriteString("\n## Sources\n\n")
		for i, s := range r.Sources {
			fmt.Fprintf(&b, "%d. %s\n", i+1, sourceLine(s))
		}
	}

	if opts.AppendReview && len(r.Verdict.Issues) > 0 {
		b.WriteString("\n### Reviewer notes\n\n")
		for _, issue := range r.Verdict.Issues {
			fmt.Fprintf(&b, "- %s\n", oneLine(issue))
		}
	}
	return b.Bytes()
}

// Markdown returns the full markdown document.
func Markdown(r *types.FinalReport, opts Options) ([]byte, error) {
	body := Body(r, opts)
	if !opts.Frontmatter {
		return body, nil
	}
	return WithFrontmatter(r, body)
}

func sourceLine(s types.SourceSnippet) string {
	title := oneLine(s.Title)
	switch {
	case title == "" && s.Source == "":
		return s.ID
	case title == "":
		return s.Source
	case isURL(s.Source):
		return fmt.Sprintf("[%s](%s)", title, s.Source)
	case s.Source == "":
		return title
	default:
		return fmt.Sprintf("%s (%s)", title, s.Source)
	}
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
