package workflow

// Trigger is an event that may cause a state transition.
type Trigger string

const (
	// TriggerFlagDivergence surfaces detected divergences for a decision.
	TriggerFlagDivergence Trigger = "FLAG_DIVERGENCE"
	// TriggerCorrect returns to editing so the user can fix the form.
	TriggerCorrect Trigger = "CORRECT"
	// TriggerOverride sends despite divergences; the backend arbitrates.
	TriggerOverride Trigger = "OVERRIDE"
	// TriggerSend dispatches a divergence-free submission.
	TriggerSend Trigger = "SEND"
	// TriggerAccept records a backend success response.
	TriggerAccept Trigger = "ACCEPT"
	// TriggerReject records a backend semantic failure (success=false).
	TriggerReject Trigger = "REJECT"
	// TriggerFail records a transport failure; the step status is left
	// untouched because the backend's verdict is unknown.
	TriggerFail Trigger = "FAIL"
	// TriggerReset restarts the sequence from a terminal state.
	TriggerReset Trigger = "RESET"
)

func (t Trigger) String() string {
	return string(t)
}
