package model

import (
	"github.com/google/uuid"
)

// Preference is the rank a participant declared for a session. A participant
// holds at most one application per session, and at most one First, Second
// and Third per slot (enforced by the preference submission surface).
type Preference string

// Preference ranks.
const (
	PreferenceFirst  Preference = "first"
	PreferenceSecond Preference = "second"
	PreferenceThird  Preference = "third"
	PreferenceNone   Preference = "none"
)

// Valid reports whether p is one of the declared ranks.
func (p Preference) Valid() bool {
	switch p {
	case PreferenceFirst, PreferenceSecond, PreferenceThird, PreferenceNone:
		return true
	}
	return false
}

// Application is a participant's expression of interest in one session.
//
// The randomly generated ID doubles as the ranking tie-break token: two
// applications with equal scores order by ID bytes. That makes the ordering
// deterministic given identical identifiers and otherwise arbitrary. It is
// not a fairness mechanism and must not be replaced by one.
type Application struct {
	ID            uuid.UUID  `json:"id"`
	SessionID     uuid.UUID  `json:"session_id"`
	ParticipantID uuid.UUID  `json:"participant_id"`
	Preference    Preference `json:"preference"`
	// Score is set by the ranking stage; nil until ranked.
	Score *int `json:"score,omitempty"`
}

// NewApplication creates an unscored application.
func NewApplication(sessionID, participantID uuid.UUID, pref Preference) *Application {
	return &Application{
		ID:            uuid.New(),
		SessionID:     sessionID,
		ParticipantID: participantID,
		Preference:    pref,
	}
}

// ScoreValue returns the computed score, treating unranked as zero.
func (a *Application) ScoreValue() int {
	if a.Score == nil {
		return 0
	}
	return *a.Score
}

// Participant persists across slots and across allocation runs.
type Participant struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	// CarriedPoints is overwritten by the allocation engine based on the
	// outcome the participant received, and read back by the scoring stage on
	// the next run.
	CarriedPoints int `json:"carried_points"`
}

// NewParticipant creates an unnamed participant with no carried priority.
func NewParticipant() *Participant {
	return &Participant{ID: uuid.New()}
}
