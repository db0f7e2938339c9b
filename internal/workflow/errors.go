package workflow

import "errors"

var (
	// ErrInvalidTransition is returned when a trigger is not permitted in
	// the current state.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrInvalidState is returned when an unknown state is configured.
	ErrInvalidState = errors.New("invalid state")
)
