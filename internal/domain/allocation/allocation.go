// Package allocation implements the greedy seat allocation engine: the
// per-slot scheduler loop and the event orchestrator that drives it.
package allocation

import (
	"context"
	"fmt"
	"time"

	"github.com/mahsan/gather/internal/domain/model"
	"github.com/mahsan/gather/internal/domain/ranking"
	"github.com/mahsan/gather/pkg/logger"
	"github.com/mahsan/gather/pkg/metrics"
)

// Carried-point values keyed by the preference rank a participant was
// granted. The inverse of the ranking bonus table: worse outcomes carry more
// priority into later runs.
const (
	carryFirst  = 0
	carrySecond = 5
	carryThird  = 10
	carryNone   = 15
)

// Carry returns the carried points awarded for being seated at the given rank.
func Carry(p model.Preference) int {
	switch p {
	case model.PreferenceFirst:
		return carryFirst
	case model.PreferenceSecond:
		return carrySecond
	case model.PreferenceThird:
		return carryThird
	default:
		return carryNone
	}
}

// Option applies a configuration option to the Allocator.
type Option func(*Allocator)

// WithLogger sets a custom logger for the allocator.
func WithLogger(log logger.Logger) Option {
	return func(a *Allocator) {
		if log != nil {
			a.log = log
		}
	}
}

// WithRanker sets a custom ranking stage.
func WithRanker(r *ranking.Ranker) Option {
	return func(a *Allocator) {
		if r != nil {
			a.ranker = r
		}
	}
}

// Allocator orchestrates one full allocation run over an event.
type Allocator struct {
	ranker *ranking.Ranker
	log    logger.Logger
}

// New creates an Allocator.
func New(opts ...Option) *Allocator {
	a := &Allocator{}
	for _, opt := range opts {
		opt(a)
	}
	if a.log == nil {
		a.log = logger.Get()
	}
	if a.ranker == nil {
		a.ranker = ranking.New(ranking.WithLogger(a.log))
	}
	return a
}

// Run closes registration and allocates every slot of the event.
//
// It is callable only while the event is open for registration; any other
// state returns model.ErrInvalidTransition. The caller must hold exclusive
// access to the event for the whole run. There is no rollback: an
// interruption leaves the event in StateAssigningSeats with partially applied
// mutations, and re-running on that data is not idempotent.
func (a *Allocator) Run(ctx context.Context, event *model.Event) error {
	if event.State != model.StateOpenForRegistration {
		return fmt.Errorf("%w: allocation requires %s, event %q is %s",
			model.ErrInvalidTransition, model.StateOpenForRegistration, event.Name, event.State)
	}
	start := time.Now()

	if err := event.Transition(model.StateAssigningSeats); err != nil {
		return err
	}

	// Rank every session up front. Carried points written during allocation
	// below are deliberately not visible to this run; they only matter the
	// next time Run is invoked on the mutated data.
	for _, slot := range event.Slots {
		for _, session := range slot.Sessions {
			a.ranker.Rank(ctx, session, event.Participants)
		}
	}

	for _, slot := range event.Slots {
		a.allocateSlot(ctx, slot, event)
	}

	if err := event.Transition(model.StateFinished); err != nil {
		return err
	}

	metrics.RecordAllocationRun(float64(time.Since(start).Milliseconds()))
	a.log.Info(ctx, "allocation run finished",
		logger.String("event", event.Name),
		logger.Int("slots", len(event.Slots)),
	)
	return nil
}

// allocateSlot runs the greedy scheduler loop for one slot until no session
// has a pending application. Anomalies never surface as errors; they degrade
// to logged drops.
func (a *Allocator) allocateSlot(ctx context.Context, slot *model.Slot, event *model.Event) {
	for {
		session := selectSession(slot)
		if session == nil {
			return
		}

		if session.Full() {
			// Capacity exhausted: nobody left in this queue can ever be
			// seated here during this run.
			a.log.Info(ctx, "no seats left, purging session queue",
				logger.String("session", session.Name),
				logger.Int("purged", len(session.Applications)),
			)
			metrics.RecordApplicationsPurged(len(session.Applications))
			session.Applications = []*model.Application{}
			continue
		}

		app := session.Applications[0]
		session.Applications = session.Applications[1:]
		session.Assigned = append(session.Assigned, app.ParticipantID)
		metrics.RecordSeatAssigned()
		a.log.Debug(ctx, "seated participant",
			logger.String("participant", app.ParticipantID.String()),
			logger.String("session", session.Name),
			logger.Int("score", app.ScoreValue()),
			logger.String("preference", string(app.Preference)),
		)

		// One seat per slot: drop the participant's remaining applications
		// across every session of this slot.
		for _, other := range slot.Sessions {
			other.RemoveApplicationsFor(app.ParticipantID)
		}

		if participant, ok := event.Participants[app.ParticipantID]; ok {
			participant.CarriedPoints = Carry(app.Preference)
		}
	}
}

// selectSession returns the session whose head application has the highest
// score, or nil when no session has pending applications. Sessions are
// scanned in stored order with a >= comparison, so on a tie the session later
// in the slot wins. That last-wins policy is part of the engine's observable
// behavior; do not flip it.
func selectSession(slot *model.Slot) *model.Session {
	var winner *model.Session
	best := -1
	for _, session := range slot.Sessions {
		if len(session.Applications) == 0 {
			continue
		}
		if score := session.Applications[0].ScoreValue(); score >= best {
			best = score
			winner = session
		}
	}
	return winner
}
