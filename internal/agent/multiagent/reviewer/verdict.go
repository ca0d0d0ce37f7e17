package reviewer

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/moolen/researchlab/internal/agent/multiagent/types"
)

// issueArg is the object form of an issue some models produce instead of a
// plain string.
type issueArg struct {
	Issue       string `json:"issue"`
	Description string `json:"description"`
	Suggestion  string `json:"suggestion"`
	Text        string `json:"text"`
}

func (a issueArg) String() string {
	for _, s := range []string{a.Issue, a.Description, a.Suggestion, a.Text} {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

var (
	fencedJSONRe = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(\\{.*?\\})\\s*```")
	enumeratedRe = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+(.+?)\s*$`)
)

// ParseVerdict turns a reviewer response into a verdict.
//
// A JSON object with an "issues" key (bare or inside a code fence) is
// authoritative. The value may be an array of strings or issue objects, a
// single string or a single object; any other value is a generation failure.
// Otherwise every
// enumerated line ("- ", "* ", "• ", "1." or "1)") counts as one issue. The
// draft is approved exactly when no issue is found; an "approved" field in the
// response is ignored. An empty response is a generation failure.
func ParseVerdict(raw string) (types.ReviewVerdict, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return types.ReviewVerdict{}, types.GenerationFailed("reviewer returned an empty response", nil)
	}

	issues, ok, err := parseJSONIssues(text)
	if err != nil {
		return types.ReviewVerdict{}, err
	}
	if ok {
		return types.NewVerdict(issues), nil
	}
	return types.NewVerdict(enumeratedLines(text)), nil
}

// parseJSONIssues reports ok when text holds a JSON object with an "issues"
// key. From then on the JSON decides the verdict.
func parseJSONIssues(text string) ([]string, bool, error) {
	var candidates []string
	if m := fencedJSONRe.FindStringSubmatch(text); m != nil {
		candidates = append(candidates, m[1])
	}
	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start >= 0 && end > start {
		candidates = append(candidates, text[start:end+1])
	}

	for _, c := range candidates {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal([]byte(c), &fields); err != nil {
			continue
		}
		value, ok := fields["issues"]
		if !ok {
			continue
		}
		issues, err := decodeIssues(value)
		if err != nil {
			return nil, true, err
		}
		return issues, true, nil
	}
	return nil, false, nil
}

// decodeIssues accepts null, an array, a single string or a single object.
func decodeIssues(value json.RawMessage) ([]string, error) {
	trimmed := bytes.TrimSpace(value)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	switch trimmed[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, types.GenerationFailed("reviewer returned malformed issues", err)
		}
		issues := make([]string, 0, len(items))
		for _, item := range items {
			issue, err := decodeIssue(item)
			if err != nil {
				return nil, err
			}
			issues = append(issues, issue)
		}
		return issues, nil
	case '"', '{':
		issue, err := decodeIssue(trimmed)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(issue) == "" {
			return nil, types.GenerationFailed("reviewer returned malformed issues", nil)
		}
		return []string{issue}, nil
	default:
		return nil, types.GenerationFailed("reviewer returned malformed issues", nil)
	}
}

// decodeIssue reads one issue entry. Blank strings are kept so the caller can
// drop them; an object without a known text field is kept as its JSON.
func decodeIssue(item json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(item, &s); err == nil {
		return s, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(item, &fields); err != nil {
		return "", types.GenerationFailed("reviewer returned malformed issues", err)
	}
	if len(fields) == 0 {
		return "", nil
	}
	var obj issueArg
	if err := json.Unmarshal(item, &obj); err == nil && obj.String() != "" {
		return obj.String(), nil
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, item); err != nil {
		return "", types.GenerationFailed("reviewer returned malformed issues", err)
	}
	return compact.String(), nil
}

func enumeratedLines(text string) []string {
	var issues []string
	for _, line := range strings.Split(text, "\n") {
		if m := enumeratedRe.FindStringSubmatch(line); m != nil {
			issues = append(issues, m[1])
		}
	}
	return issues
}
