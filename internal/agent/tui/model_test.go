package tui

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moolen/researchlab/internal/agent/multiagent/coordinator"
	"github.com/moolen/researchlab/internal/agent/multiagent/types"
)

var _ coordinator.Observer = (*Progress)(nil)

func apply(t *testing.T, m tea.Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		m, _ = m.Update(msg)
	}
	out, ok := m.(Model)
	require.True(t, ok)
	return out
}

func TestModel_StageRows(t *testing.T) {
	m := apply(t, NewModel(),
		RunStartedMsg{RunID: "run-1", Topic: "solid-state batteries"},
		StageStartedMsg{Stage: types.StateResearching},
		StageCompletedMsg{Stage: types.StateResearching, Elapsed: 120 * time.Millisecond},
		StageStartedMsg{Stage: types.StateWriting},
		StageCompletedMsg{Stage: types.StateWriting, Elapsed: 2 * time.Second},
		StageStartedMsg{Stage: types.StateReviewing},
		VerdictMsg{Attempt: 0, Issues: 2},
		StageCompletedMsg{Stage: types.StateReviewing, Elapsed: time.Second},
		StageStartedMsg{Stage: types.StateWriting, Attempt: 1},
	)

	require.Len(t, m.rows, 4)
	assert.Equal(t, StatusCompleted, m.rows[0].status)
	assert.Equal(t, "2 issue(s)", m.rows[2].note)
	assert.Equal(t, StatusActive, m.rows[3].status)
	assert.Equal(t, 1, m.rows[3].attempt)

	view := m.View()
	assert.Contains(t, view, "solid-state batteries")
	assert.Contains(t, view, "research")
	assert.Contains(t, view, "120ms")
	assert.Contains(t, view, "2.0s")
	assert.Contains(t, view, "#1")
	assert.NotContains(t, view, "done")
}

func TestModel_StageError(t *testing.T) {
	m := apply(t, NewModel(),
		RunStartedMsg{RunID: "run-1", Topic: "X"},
		StageStartedMsg{Stage: types.StateResearching},
		StageCompletedMsg{Stage: types.StateResearching, Err: errors.New("search unavailable")},
		RunFinishedMsg{Err: errors.New("research stage failed")},
	)

	require.Len(t, m.rows, 1)
	assert.Equal(t, StatusError, m.rows[0].status)
	view := m.View()
	assert.Contains(t, view, "search unavailable")
	assert.Contains(t, view, "failed: research stage failed")
}

func TestModel_Finished(t *testing.T) {
	m := apply(t, NewModel(),
		RunStartedMsg{RunID: "run-1", Topic: "X"},
		StageStartedMsg{Stage: types.StateReviewing},
		VerdictMsg{Approved: true},
		StageCompletedMsg{Stage: types.StateReviewing},
		RunFinishedMsg{Reason: types.ReasonApproved},
	)

	assert.Equal(t, "approved", m.rows[0].note)
	assert.Contains(t, m.View(), "done (approved, 0 revision(s))")
}

func TestModel_NewRunResets(t *testing.T) {
	m := apply(t, NewModel(),
		RunStartedMsg{RunID: "run-1", Topic: "first"},
		StageStartedMsg{Stage: types.StateResearching},
		RunFinishedMsg{Reason: types.ReasonRevisionLimit},
		RunStartedMsg{RunID: "run-2", Topic: "second"},
	)

	assert.Empty(t, m.rows)
	assert.False(t, m.finished)
	assert.Equal(t, "run-2", m.runID)
	assert.NotContains(t, m.View(), "first")
}

func TestModel_EmptyBeforeRun(t *testing.T) {
	assert.Empty(t, NewModel().View())
}

func TestModel_CompletionWithoutStartIgnored(t *testing.T) {
	m := apply(t, NewModel(),
		RunStartedMsg{RunID: "run-1", Topic: "X"},
		StageCompletedMsg{Stage: types.StateWriting},
		VerdictMsg{Issues: 1},
	)
	assert.Empty(t, m.rows)
}

func TestProgress_RendersToOutput(t *testing.T) {
	out := &bytes.Buffer{}
	p := NewProgress(out)

	// Events before Start are dropped instead of blocking.
	p.RunStarted(context.Background(), "run-0", "ignored")

	p.Start()
	ctx := context.Background()
	p.RunStarted(ctx, "run-1", "quantum networking")
	p.StageStarted(ctx, "run-1", types.StateResearching, 0)
	p.StageCompleted(ctx, "run-1", types.StateResearching, 0, 50*time.Millisecond, nil)
	p.RunCompleted(ctx, "run-1", &types.FinalReport{Reason: types.ReasonApproved}, nil)

	require.NoError(t, p.Stop(2*time.Second))
	assert.Contains(t, out.String(), "quantum networking")
	assert.NotContains(t, out.String(), "ignored")
}

func TestProgress_StopWithoutStart(t *testing.T) {
	p := NewProgress(&bytes.Buffer{})
	assert.NoError(t, p.Stop(time.Second))
}
