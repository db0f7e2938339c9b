// Package workflow provides the explicit state machine driving the
// submission lifecycle of a solicitação: a small builder configures the
// permitted transitions and the machine enforces them, replacing the
// combinatorial boolean flags a naive implementation would need.
package workflow

// State is a submission lifecycle state.
type State string

const (
	// StateIdle accepts form edits and validation requests.
	StateIdle State = "IDLE"
	// StateAwaitingDivergence waits for the user to correct the form or
	// explicitly override detected divergences.
	StateAwaitingDivergence State = "AWAITING_DIVERGENCE_DECISION"
	// StateSending has a create-request call in flight.
	StateSending State = "SENDING"
	// StateSuccess and StateFailed are terminal for the controller; only
	// an explicit reset leaves them.
	StateSuccess State = "SUCCESS"
	StateFailed  State = "FAILED"
)

var validStates = map[State]bool{
	StateIdle:               true,
	StateAwaitingDivergence: true,
	StateSending:            true,
	StateSuccess:            true,
	StateFailed:             true,
}

var terminalStates = map[State]bool{
	StateSuccess: true,
	StateFailed:  true,
}

// IsValid reports whether s is a known submission state.
func (s State) IsValid() bool {
	return validStates[s]
}

// IsTerminal reports whether s ends the submission sequence.
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

func (s State) String() string {
	return string(s)
}
