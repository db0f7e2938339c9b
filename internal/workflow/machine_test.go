package workflow

import (
	"errors"
	"testing"
)

func TestState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    State
		expected bool
	}{
		{StateIdle, false},
		{StateAwaitingDivergence, false},
		{StateSending, false},
		{StateSuccess, true},
		{StateFailed, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.IsTerminal(); got != tt.expected {
				t.Errorf("State.IsTerminal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		expected bool
	}{
		{"idle", StateIdle, true},
		{"awaiting divergence", StateAwaitingDivergence, true},
		{"failed", StateFailed, true},
		{"invalid state", State("INVALID"), false},
		{"empty state", State(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.expected {
				t.Errorf("State.IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_String(t *testing.T) {
	if got := StateAwaitingDivergence.String(); got != "AWAITING_DIVERGENCE_DECISION" {
		t.Errorf("State.String() = %v, want %v", got, "AWAITING_DIVERGENCE_DECISION")
	}
}

func TestTrigger_String(t *testing.T) {
	if got := TriggerFlagDivergence.String(); got != "FLAG_DIVERGENCE" {
		t.Errorf("Trigger.String() = %v, want %v", got, "FLAG_DIVERGENCE")
	}
}

func TestBuilder_ConfigurePanicsOnInvalidState(t *testing.T) {
	builder := NewBuilder()

	defer func() {
		if r := recover(); r == nil {
			t.Error("Configure() should panic on invalid state")
		}
	}()

	builder.Configure(State("INVALID"))
}

func TestBuilder_BuildPanicsOnInvalidInitialState(t *testing.T) {
	builder := NewBuilder()

	defer func() {
		if r := recover(); r == nil {
			t.Error("Build() should panic on invalid initial state")
		}
	}()

	builder.Build(State("INVALID"))
}

func TestStateConfig_PermitPanicsOnInvalidTarget(t *testing.T) {
	builder := NewBuilder()

	defer func() {
		if r := recover(); r == nil {
			t.Error("Permit() should panic on invalid target state")
		}
	}()

	builder.Configure(StateIdle).Permit(TriggerSend, State("INVALID"))
}

func newTestMachine() StateMachine {
	b := NewBuilder()
	b.Configure(StateIdle).
		Permit(TriggerFlagDivergence, StateAwaitingDivergence).
		Permit(TriggerSend, StateSending)
	b.Configure(StateAwaitingDivergence).
		Permit(TriggerCorrect, StateIdle).
		Permit(TriggerOverride, StateSending)
	b.Configure(StateSending).
		Permit(TriggerAccept, StateSuccess).
		Permit(TriggerReject, StateFailed).
		Permit(TriggerFail, StateFailed)
	b.Configure(StateSuccess).
		Permit(TriggerReset, StateIdle)
	b.Configure(StateFailed).
		Permit(TriggerReset, StateIdle)
	return b.Build(StateIdle)
}

func TestMachine_Fire(t *testing.T) {
	tests := []struct {
		name     string
		triggers []Trigger
		final    State
	}{
		{"direct send accepted", []Trigger{TriggerSend, TriggerAccept}, StateSuccess},
		{"direct send rejected", []Trigger{TriggerSend, TriggerReject}, StateFailed},
		{"transport failure", []Trigger{TriggerSend, TriggerFail}, StateFailed},
		{"divergence corrected", []Trigger{TriggerFlagDivergence, TriggerCorrect}, StateIdle},
		{"divergence overridden", []Trigger{TriggerFlagDivergence, TriggerOverride, TriggerAccept}, StateSuccess},
		{"reset after failure", []Trigger{TriggerSend, TriggerFail, TriggerReset}, StateIdle},
		{"reset after success", []Trigger{TriggerSend, TriggerAccept, TriggerReset}, StateIdle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			machine := newTestMachine()
			for _, trigger := range tt.triggers {
				if err := machine.Fire(trigger); err != nil {
					t.Fatalf("Fire(%s) error = %v", trigger, err)
				}
			}
			if machine.State() != tt.final {
				t.Errorf("State() = %v, want %v", machine.State(), tt.final)
			}
		})
	}
}

func TestMachine_FireInvalidTransition(t *testing.T) {
	tests := []struct {
		name     string
		triggers []Trigger
		invalid  Trigger
	}{
		{"accept from idle", nil, TriggerAccept},
		{"send while awaiting decision", []Trigger{TriggerFlagDivergence}, TriggerSend},
		{"override while sending", []Trigger{TriggerSend}, TriggerOverride},
		{"accept after success", []Trigger{TriggerSend, TriggerAccept}, TriggerAccept},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			machine := newTestMachine()
			for _, trigger := range tt.triggers {
				if err := machine.Fire(trigger); err != nil {
					t.Fatalf("Fire(%s) error = %v", trigger, err)
				}
			}
			before := machine.State()
			err := machine.Fire(tt.invalid)
			if !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("Fire(%s) error = %v, want ErrInvalidTransition", tt.invalid, err)
			}
			if machine.State() != before {
				t.Errorf("State changed on invalid transition: %v -> %v", before, machine.State())
			}
		})
	}
}

func TestMachine_CanFire(t *testing.T) {
	machine := newTestMachine()

	if !machine.CanFire(TriggerSend) {
		t.Error("CanFire(SEND) should be true in IDLE")
	}
	if machine.CanFire(TriggerAccept) {
		t.Error("CanFire(ACCEPT) should be false in IDLE")
	}
}

func TestMachine_PermittedTriggers(t *testing.T) {
	machine := newTestMachine()

	triggers := machine.PermittedTriggers()
	if len(triggers) != 2 {
		t.Fatalf("PermittedTriggers() returned %d triggers, want 2", len(triggers))
	}
	seen := make(map[Trigger]bool)
	for _, trigger := range triggers {
		seen[trigger] = true
	}
	if !seen[TriggerSend] || !seen[TriggerFlagDivergence] {
		t.Errorf("PermittedTriggers() = %v, want SEND and FLAG_DIVERGENCE", triggers)
	}
}

func TestBuilder_BuildCopiesTransitionTable(t *testing.T) {
	b := NewBuilder()
	b.Configure(StateIdle).Permit(TriggerSend, StateSending)

	first := b.Build(StateIdle)
	second := b.Build(StateIdle)

	if err := first.Fire(TriggerSend); err != nil {
		t.Fatalf("Fire(SEND) error = %v", err)
	}
	if second.State() != StateIdle {
		t.Error("machines built from the same builder should not share state")
	}
}
