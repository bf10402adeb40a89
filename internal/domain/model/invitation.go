package model

import (
	"github.com/google/uuid"
)

// Invitation binds an invite code to an event, and once the holder first
// visits the event page, to the participant created for them.
type Invitation struct {
	Code    string    `json:"code"`
	EventID uuid.UUID `json:"event_id"`
	// ParticipantID is nil until the invitee registers.
	ParticipantID *uuid.UUID `json:"participant_id,omitempty"`
}

// AdminAccount is an administrator login. PasswordHash is a PHC-format
// argon2id string.
type AdminAccount struct {
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
}
