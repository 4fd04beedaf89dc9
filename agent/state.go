package agent

// State is a phase of the decision loop.
type State int

const (
	StateDeciding State = iota
	StateAwaitingTool
	StateSynthesizing
	StateDone
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateDeciding:
		return "DECIDING"
	case StateAwaitingTool:
		return "AWAITING_TOOL"
	case StateSynthesizing:
		return "SYNTHESIZING"
	case StateDone:
		return "DONE"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether no further transition can follow s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// TransitionFunc observes every state change.
type TransitionFunc func(from, to State)
