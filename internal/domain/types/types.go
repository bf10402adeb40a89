// Package types contains the read shapes returned by the service layer and
// rendered by the HTTP API.
package types

import (
	"github.com/google/uuid"
)

// EventSummary is the admin list row for an event.
type EventSummary struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	State        string    `json:"state"`
	Slots        int       `json:"slots"`
	Participants int       `json:"participants"`
}

// SessionView is a session as shown to admins. AssignedNames is only
// populated once the event is finished.
type SessionView struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Seats         int       `json:"seats"`
	AssignedNames []string  `json:"assigned_names,omitempty"`
}

// SlotView is a slot as shown to admins.
type SlotView struct {
	ID          uuid.UUID     `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Sessions    []SessionView `json:"sessions"`
}

// AdminEventView is the full admin detail page for an event.
type AdminEventView struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	Description   string     `json:"description,omitempty"`
	State         string     `json:"state"`
	Slots         []SlotView `json:"slots"`
	InviteCodes   []string   `json:"invite_codes"`
	CanDistribute bool       `json:"can_distribute"`
	IsFinished    bool       `json:"is_finished"`
}

// SlotSelection is a participant's current picks within one slot.
type SlotSelection struct {
	First      *uuid.UUID `json:"first,omitempty"`
	Second     *uuid.UUID `json:"second,omitempty"`
	Third      *uuid.UUID `json:"third,omitempty"`
	FirstName  string     `json:"first_name,omitempty"`
	SecondName string     `json:"second_name,omitempty"`
	ThirdName  string     `json:"third_name,omitempty"`
}

// UserSessionView is a session as shown to an invitee.
type UserSessionView struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Seats       int       `json:"seats"`
	// Assigned is true when the invitee holds a seat here (finished events).
	Assigned bool `json:"assigned,omitempty"`
}

// UserSlotView is a slot plus the invitee's current selection in it.
type UserSlotView struct {
	ID          uuid.UUID         `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Sessions    []UserSessionView `json:"sessions"`
	Selection   SlotSelection     `json:"selection"`
}

// UserEventView is the invitee's event page.
type UserEventView struct {
	EventID         uuid.UUID      `json:"event_id"`
	EventName       string         `json:"event_name"`
	Description     string         `json:"description,omitempty"`
	State           string         `json:"state"`
	IsOpen          bool           `json:"is_open"`
	ParticipantID   uuid.UUID      `json:"participant_id"`
	ParticipantName string         `json:"participant_name"`
	Slots           []UserSlotView `json:"slots"`
}
