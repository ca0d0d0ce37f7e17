package reviewer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moolen/researchlab/internal/agent/multiagent/types"
)

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantIssues []string
	}{
		{
			name:       "json approved",
			raw:        `{"issues": []}`,
			wantIssues: []string{},
		},
		{
			name:       "json with issues",
			raw:        `{"issues": ["Add a citation for the 1.18 claim", "  ", "Shorten the intro"]}`,
			wantIssues: []string{"Add a citation for the 1.18 claim", "Shorten the intro"},
		},
		{
			name:       "fenced json with prose around it",
			raw:        "Here is my review:\n```json\n{\"issues\": [\"Fix the heading\"]}\n```\nThanks!",
			wantIssues: []string{"Fix the heading"},
		},
		{
			name:       "approved field is ignored",
			raw:        `{"approved": true, "issues": ["Still has a typo"]}`,
			wantIssues: []string{"Still has a typo"},
		},
		{
			name:       "approved false without issues is approval",
			raw:        `{"approved": false, "issues": []}`,
			wantIssues: []string{},
		},
		{
			name:       "issue objects",
			raw:        `{"issues": [{"description": "Cite [2]"}, {"issue": "Merge sections"}]}`,
			wantIssues: []string{"Cite [2]", "Merge sections"},
		},
		{
			name:       "null issues",
			raw:        `{"issues": null}`,
			wantIssues: []string{},
		},
		{
			name: "bullet list fallback",
			raw: "Suggested edits:\n" +
				"- Clarify the thesis.\n" +
				"* Add sources.\n" +
				"• Fix the conclusion.\n" +
				"**Overall** decent.\n" +
				"---\n",
			wantIssues: []string{"Clarify the thesis.", "Add sources.", "Fix the conclusion."},
		},
		{
			name:       "numbered list fallback",
			raw:        "1. First issue\n2) Second issue\n10. Tenth issue",
			wantIssues: []string{"First issue", "Second issue", "Tenth issue"},
		},
		{
			name:       "json without issues key falls back to lines",
			raw:        "{\"score\": 3}\n- One issue",
			wantIssues: []string{"One issue"},
		},
		{
			name:       "single string issue",
			raw:        `{"issues": "The introduction makes uncited claims about market size."}`,
			wantIssues: []string{"The introduction makes uncited claims about market size."},
		},
		{
			name:       "single issue object",
			raw:        `{"issues": {"suggestion": "Add a conclusion"}}`,
			wantIssues: []string{"Add a conclusion"},
		},
		{
			name:       "object without known fields is kept as json",
			raw:        `{"issues": [{"severity": "high", "where": "intro"}]}`,
			wantIssues: []string{`{"severity":"high","where":"intro"}`},
		},
		{
			name:       "issues key wins over enumerated lines",
			raw:        "{\"issues\": []}\n- not an issue, just a note",
			wantIssues: []string{},
		},
		{
			name:       "plain prose is approval",
			raw:        "Looks good to me.",
			wantIssues: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict, err := ParseVerdict(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.wantIssues, append([]string{}, verdict.Issues...))
			assert.Equal(t, len(tt.wantIssues) == 0, verdict.Approved)
		})
	}
}

func TestParseVerdict_Empty(t *testing.T) {
	_, err := ParseVerdict(" \n ")
	assert.ErrorIs(t, err, types.ErrGenerationFailed)
}

func TestParseVerdict_MalformedIssues(t *testing.T) {
	for _, raw := range []string{
		`{"issues": 3}`,
		`{"issues": true}`,
		`{"issues": ""}`,
		`{"issues": {}}`,
		`{"issues": ["fine", 42]}`,
	} {
		t.Run(raw, func(t *testing.T) {
			_, err := ParseVerdict(raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, types.ErrGenerationFailed)
			assert.Contains(t, err.Error(), "malformed issues")
		})
	}
}
