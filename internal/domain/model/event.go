// Package model contains the registration domain entities. The aggregate root
// is Event, which owns its slots, sessions and participants and is persisted
// as a whole by the repository.
package model

import (
	"github.com/google/uuid"
)

// Event is the aggregate root: an ordered list of slots, the participant
// table and the lifecycle state.
type Event struct {
	ID           uuid.UUID                  `json:"id"`
	Name         string                     `json:"name"`
	Description  string                     `json:"description,omitempty"`
	Slots        []*Slot                    `json:"slots"`
	Participants map[uuid.UUID]*Participant `json:"participants"`
	State        EventState                 `json:"state"`
}

// NewEvent creates an event in its initial lifecycle state.
func NewEvent(name, description string) *Event {
	return &Event{
		ID:           uuid.New(),
		Name:         name,
		Description:  description,
		Slots:        []*Slot{},
		Participants: map[uuid.UUID]*Participant{},
		State:        StateNotOpenedYet,
	}
}

// FindSlot returns the slot with the given id, or nil.
func (e *Event) FindSlot(id uuid.UUID) *Slot {
	for _, s := range e.Slots {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// RemoveSlot deletes the slot with the given id, keeping slot order.
func (e *Event) RemoveSlot(id uuid.UUID) {
	kept := e.Slots[:0]
	for _, s := range e.Slots {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	e.Slots = kept
}

// RemoveParticipant deletes a participant and every trace of them: their
// table entry, assigned seats and pending applications.
func (e *Event) RemoveParticipant(id uuid.UUID) {
	delete(e.Participants, id)
	for _, slot := range e.Slots {
		for _, session := range slot.Sessions {
			session.UnassignParticipant(id)
			session.RemoveApplicationsFor(id)
		}
	}
}

// Slot is a named time-bucket of mutually exclusive sessions. Slot order is
// significant: it fixes the order in which the orchestrator allocates.
type Slot struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Sessions    []*Session `json:"sessions"`
}

// NewSlot creates an empty slot.
func NewSlot(name, description string) *Slot {
	return &Slot{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		Sessions:    []*Session{},
	}
}

// FindSession returns the session with the given id, or nil.
func (s *Slot) FindSession(id uuid.UUID) *Session {
	for _, sess := range s.Sessions {
		if sess.ID == id {
			return sess
		}
	}
	return nil
}

// RemoveSession deletes the session with the given id, keeping session order.
func (s *Slot) RemoveSession(id uuid.UUID) {
	kept := s.Sessions[:0]
	for _, sess := range s.Sessions {
		if sess.ID != id {
			kept = append(kept, sess)
		}
	}
	s.Sessions = kept
}

// Session is a capacity-limited offering within a slot.
type Session struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	// Seats is the capacity; always >= 1, enforced by session CRUD.
	Seats int `json:"seats"`
	// Assigned holds the participants seated by the allocation engine.
	// Its length never exceeds Seats.
	Assigned []uuid.UUID `json:"participants"`
	// Applications is the pending queue; best-first after ranking, emptied by
	// the end of an allocation run.
	Applications []*Application `json:"applications"`
}

// NewSession creates an empty session with the given capacity.
func NewSession(name, description string, seats int) *Session {
	return &Session{
		ID:           uuid.New(),
		Name:         name,
		Description:  description,
		Seats:        seats,
		Assigned:     []uuid.UUID{},
		Applications: []*Application{},
	}
}

// Full reports whether every seat is taken.
func (s *Session) Full() bool {
	return len(s.Assigned) >= s.Seats
}

// RemoveApplicationsFor drops every pending application by the participant.
func (s *Session) RemoveApplicationsFor(participantID uuid.UUID) {
	kept := s.Applications[:0]
	for _, a := range s.Applications {
		if a.ParticipantID != participantID {
			kept = append(kept, a)
		}
	}
	s.Applications = kept
}

// UnassignParticipant removes the participant from the assigned set.
func (s *Session) UnassignParticipant(participantID uuid.UUID) {
	kept := s.Assigned[:0]
	for _, id := range s.Assigned {
		if id != participantID {
			kept = append(kept, id)
		}
	}
	s.Assigned = kept
}
