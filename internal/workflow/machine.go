package workflow

import "fmt"

// StateMachine tracks the current state and enforces configured
// transitions.
type StateMachine interface {
	// State returns the current state.
	State() State

	// CanFire reports whether the trigger is permitted in the current
	// state.
	CanFire(trigger Trigger) bool

	// Fire executes the trigger, transitioning to the configured target
	// state, or returns ErrInvalidTransition.
	Fire(trigger Trigger) error

	// PermittedTriggers lists the triggers that can fire in the current
	// state.
	PermittedTriggers() []Trigger
}

// Builder configures the transition table for state machines.
type Builder struct {
	transitions map[State]map[Trigger]State
}

// NewBuilder creates an empty transition-table builder.
func NewBuilder() *Builder {
	return &Builder{transitions: make(map[State]map[Trigger]State)}
}

// StateConfig configures the transitions leaving one state.
type StateConfig struct {
	builder *Builder
	from    State
}

// Configure returns the configuration for transitions leaving state.
// Unknown states are programming errors and panic.
func (b *Builder) Configure(state State) StateConfig {
	if !state.IsValid() {
		panic(fmt.Sprintf("workflow: %v: %s", ErrInvalidState, state))
	}
	if _, ok := b.transitions[state]; !ok {
		b.transitions[state] = make(map[Trigger]State)
	}
	return StateConfig{builder: b, from: state}
}

// Permit allows trigger to move from this state to target.
func (c StateConfig) Permit(trigger Trigger, target State) StateConfig {
	if !target.IsValid() {
		panic(fmt.Sprintf("workflow: %v: %s", ErrInvalidState, target))
	}
	c.builder.transitions[c.from][trigger] = target
	return c
}

// Build creates an independent machine starting at initial. The
// transition table is copied so machines built from the same builder do
// not share mutable state.
func (b *Builder) Build(initial State) StateMachine {
	if !initial.IsValid() {
		panic(fmt.Sprintf("workflow: %v: %s", ErrInvalidState, initial))
	}
	table := make(map[State]map[Trigger]State, len(b.transitions))
	for from, byTrigger := range b.transitions {
		copied := make(map[Trigger]State, len(byTrigger))
		for trigger, to := range byTrigger {
			copied[trigger] = to
		}
		table[from] = copied
	}
	return &machine{current: initial, transitions: table}
}

type machine struct {
	current     State
	transitions map[State]map[Trigger]State
}

func (m *machine) State() State {
	return m.current
}

func (m *machine) CanFire(trigger Trigger) bool {
	_, ok := m.transitions[m.current][trigger]
	return ok
}

func (m *machine) Fire(trigger Trigger) error {
	target, ok := m.transitions[m.current][trigger]
	if !ok {
		return fmt.Errorf("%w: trigger %s from state %s", ErrInvalidTransition, trigger, m.current)
	}
	m.current = target
	return nil
}

func (m *machine) PermittedTriggers() []Trigger {
	byTrigger := m.transitions[m.current]
	triggers := make([]Trigger, 0, len(byTrigger))
	for trigger := range byTrigger {
		triggers = append(triggers, trigger)
	}
	return triggers
}
