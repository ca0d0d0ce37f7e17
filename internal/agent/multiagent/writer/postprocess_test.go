package writer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moolen/researchlab/internal/agent/multiagent/types"
)

func TestPostProcess(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantTitle string
		wantMD    string
	}{
		{
			name:      "plain markdown",
			raw:       "\n# Title\n\nBody\n",
			wantTitle: "Title",
			wantMD:    "# Title\n\nBody",
		},
		{
			name:      "fenced markdown",
			raw:       "```markdown\n# Fenced\n\nBody\n```",
			wantTitle: "Fenced",
			wantMD:    "# Fenced\n\nBody",
		},
		{
			name:      "bare fence",
			raw:       "```\n# Bare\n```",
			wantTitle: "Bare",
			wantMD:    "# Bare",
		},
		{
			name:      "no heading",
			raw:       "Prompt length: 42 characters.",
			wantTitle: "",
			wantMD:    "Prompt length: 42 characters.",
		},
		{
			name:      "second level heading is not a title",
			raw:       "## Section\n\ntext\n\n# Real title",
			wantTitle: "Real title",
			wantMD:    "## Section\n\ntext\n\n# Real title",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft, err := PostProcess(tt.raw, 2)
			require.NoError(t, err)
			assert.Equal(t, 2, draft.Attempt)
			assert.Equal(t, tt.wantTitle, draft.Title)
			assert.Equal(t, tt.wantMD, draft.Markdown)
		})
	}
}

func TestPostProcess_Empty(t *testing.T) {
	for _, raw := range []string{"", "   ", "```\n```"} {
		_, err := PostProcess(raw, 0)
		assert.ErrorIs(t, err, types.ErrGenerationFailed, "raw=%q", raw)
	}
}
