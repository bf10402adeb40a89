package model

import (
	"fmt"
)

// EventState is the lifecycle state of an event.
type EventState string

// Lifecycle states.
const (
	// StateNotOpenedYet means the event does not accept registrations yet.
	StateNotOpenedYet EventState = "not_opened_yet"
	// StateOpenForRegistration means participants can submit preferences.
	StateOpenForRegistration EventState = "open_for_registration"
	// StateAssigningSeats means an allocation run is in progress. A crash
	// mid-run leaves the event here with partially applied mutations.
	StateAssigningSeats EventState = "assigning_seats"
	// StateFinished means allocation completed; results are readable.
	StateFinished EventState = "finished"
)

// transitions is the explicit transition table. Same-state transitions are
// always allowed as no-ops; everything absent from the table is rejected.
var transitions = map[EventState][]EventState{
	StateNotOpenedYet:        {StateOpenForRegistration},
	StateOpenForRegistration: {StateNotOpenedYet, StateAssigningSeats},
	StateAssigningSeats:      {StateFinished},
	StateFinished:            {},
}

// Valid reports whether s is a known lifecycle state.
func (s EventState) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether the transition s -> to is in the table.
func (s EventState) CanTransition(to EventState) bool {
	if !s.Valid() || !to.Valid() {
		return false
	}
	if s == to {
		return true
	}
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition moves the event to the target state or returns
// ErrInvalidTransition. This is the only caller-visible error category the
// engine produces.
func (e *Event) Transition(to EventState) error {
	if !e.State.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, e.State, to)
	}
	e.State = to
	return nil
}
