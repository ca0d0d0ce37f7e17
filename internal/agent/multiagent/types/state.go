package types

// State is a coordinator state.
type State string

const (
	StateStart       State = "START"
	StateResearching State = "RESEARCHING"
	StateWriting     State = "WRITING"
	StateReviewing   State = "REVIEWING"
	StateRevising    State = "REVISING"
	StateDone        State = "DONE"
	StateFailed      State = "FAILED"
)

// allowedTransitions lists every legal edge of the coordinator state machine.
var allowedTransitions = map[State][]State{
	StateStart:       {StateResearching, StateFailed},
	StateResearching: {StateWriting, StateFailed},
	StateWriting:     {StateReviewing, StateFailed},
	StateReviewing:   {StateDone, StateRevising, StateFailed},
	StateRevising:    {StateWriting, StateFailed},
}

// IsTerminal reports whether no transition leaves s.
func (s State) IsTerminal() bool {
	return s == StateDone || s == StateFailed
}

// CanTransition reports whether moving from s to next is a legal edge.
func (s State) CanTransition(next State) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Stage returns the lower-case stage name used in logs and metrics.
func (s State) Stage() string {
	switch s {
	case StateResearching:
		return "research"
	case StateWriting:
		return "write"
	case StateReviewing:
		return "review"
	case StateRevising:
		return "revise"
	case StateStart:
		return "start"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return string(s)
	}
}
