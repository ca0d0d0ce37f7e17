package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVerdict(t *testing.T) {
	tests := []struct {
		name         string
		issues       []string
		wantIssues   []string
		wantApproved bool
	}{
		{"nil issues", nil, []string{}, true},
		{"blank issues dropped", []string{"  ", ""}, []string{}, true},
		{"issues kept in order", []string{" b ", "a"}, []string{"b", "a"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewVerdict(tt.issues)
			assert.Equal(t, tt.wantIssues, v.Issues)
			assert.Equal(t, tt.wantApproved, v.Approved)
		})
	}
}

func TestDraftWordCount(t *testing.T) {
	d := Draft{Markdown: "# Title\n\nOne two  three.\n"}
	assert.Equal(t, 5, d.WordCount())
}

func TestStateTransitions(t *testing.T) {
	legal := [][2]State{
		{StateStart, StateResearching},
		{StateResearching, StateWriting},
		{StateResearching, StateFailed},
		{StateWriting, StateReviewing},
		{StateWriting, StateFailed},
		{StateReviewing, StateDone},
		{StateReviewing, StateRevising},
		{StateReviewing, StateFailed},
		{StateRevising, StateWriting},
	}
	for _, edge := range legal {
		assert.True(t, edge[0].CanTransition(edge[1]), "%s -> %s", edge[0], edge[1])
	}

	illegal := [][2]State{
		{StateStart, StateWriting},
		{StateResearching, StateReviewing},
		{StateWriting, StateDone},
		{StateReviewing, StateWriting},
		{StateDone, StateResearching},
		{StateFailed, StateStart},
	}
	for _, edge := range illegal {
		assert.False(t, edge[0].CanTransition(edge[1]), "%s -> %s", edge[0], edge[1])
	}

	assert.True(t, StateDone.IsTerminal())
	assert.True(t, StateFailed.IsTerminal())
	assert.False(t, StateReviewing.IsTerminal())
}

func TestErrorsWrap(t *testing.T) {
	cause := errors.New("connection refused")

	err := SearchUnavailable(cause)
	assert.ErrorIs(t, err, ErrSearchUnavailable)
	assert.ErrorIs(t, err, cause)

	err = GenerationFailed("empty response", nil)
	assert.ErrorIs(t, err, ErrGenerationFailed)
	assert.Equal(t, "generation failed: empty response", err.Error())

	stageErr := &StageError{Stage: StateWriting, Err: GenerationFailed("writer", cause)}
	assert.ErrorIs(t, stageErr, ErrGenerationFailed)
	assert.ErrorIs(t, stageErr, cause)
	assert.Equal(t, "write failed: generation failed: writer: connection refused", stageErr.Error())

	var target *StageError
	require.ErrorAs(t, error(stageErr), &target)
	assert.Equal(t, StateWriting, target.Stage)
}
