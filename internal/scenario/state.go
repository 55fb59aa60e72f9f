package scenario

import "fmt"

// State is the lifecycle position of one scenario execution.
type State int

const (
	StateNotStarted State = iota
	StatePreconditionVerified
	StateStepsExecuting
	StateAsserted
	StatePassed
	StateFailed
)

var stateNames = map[State]string{
	StateNotStarted:           "not_started",
	StatePreconditionVerified: "precondition_verified",
	StateStepsExecuting:       "steps_executing",
	StateAsserted:             "asserted",
	StatePassed:               "passed",
	StateFailed:               "failed",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// ParseState is the inverse of State.String.
func ParseState(name string) (State, error) {
	for s, n := range stateNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown scenario state %q", name)
}

// Terminal reports whether s ends an execution.
func (s State) Terminal() bool { return s == StatePassed || s == StateFailed }

// next lists the forward transitions. Every non-terminal state may also move to StateFailed.
var next = map[State]State{
	StateNotStarted:           StatePreconditionVerified,
	StatePreconditionVerified: StateStepsExecuting,
	StateStepsExecuting:       StateAsserted,
	StateAsserted:             StatePassed,
}

// CanTransition reports whether from -> to is a legal move.
func CanTransition(from, to State) bool {
	if from.Terminal() {
		return false
	}
	if to == StateFailed {
		return true
	}
	return next[from] == to
}
