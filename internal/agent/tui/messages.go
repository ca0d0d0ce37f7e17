// Package tui renders live pipeline progress in the terminal using Bubble Tea.
package tui

import (
	"time"

	"github.com/moolen/researchlab/internal/agent/multiagent/types"
)

// Status represents the current state of a stage row.
type Status int

const (
	StatusPending Status = iota
	StatusActive
	StatusCompleted
	StatusError
)

// RunStartedMsg is sent when the coordinator accepts a topic.
type RunStartedMsg struct {
	RunID string
	Topic string
	At    time.Time
}

// StageStartedMsg is sent when a stage begins.
type StageStartedMsg struct {
	Stage   types.State
	Attempt int
	At      time.Time
}

// StageCompletedMsg is sent when a stage ends, successfully or not.
type StageCompletedMsg struct {
	Stage   types.State
	Attempt int
	Elapsed time.Duration
	Err     error
}

// VerdictMsg is sent when the reviewer returns a verdict.
type VerdictMsg struct {
	Attempt  int
	Issues   int
	Approved bool
}

// RunFinishedMsg is sent when the run reaches DONE or FAILED.
type RunFinishedMsg struct {
	Reason    types.TerminationReason
	Revisions int
	Err       error
}
