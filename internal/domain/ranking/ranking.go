// Package ranking computes priority scores for pending applications and
// orders each session's queue best-first.
package ranking

import (
	"bytes"
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/mahsan/gather/internal/domain/model"
	"github.com/mahsan/gather/pkg/logger"
	"github.com/mahsan/gather/pkg/metrics"
)

// Preference bonuses added on top of a participant's carried points.
const (
	bonusFirst  = 15
	bonusSecond = 10
	bonusThird  = 5
	bonusNone   = 0
)

// Bonus returns the fixed score bonus for a declared preference rank.
func Bonus(p model.Preference) int {
	switch p {
	case model.PreferenceFirst:
		return bonusFirst
	case model.PreferenceSecond:
		return bonusSecond
	case model.PreferenceThird:
		return bonusThird
	default:
		return bonusNone
	}
}

// Compare orders two scored applications best-first: higher score wins, equal
// scores are broken by descending application ID bytes. The ID comparison is
// an incidental, deterministic tie rule, not a fairness draw; it must stay a
// plain value comparison.
func Compare(a, b *model.Application) int {
	if as, bs := a.ScoreValue(), b.ScoreValue(); as != bs {
		if as > bs {
			return -1
		}
		return 1
	}
	return -bytes.Compare(a.ID[:], b.ID[:])
}

// Option applies a configuration option to the Ranker.
type Option func(*Ranker)

// WithLogger sets a custom logger for the ranker.
func WithLogger(log logger.Logger) Option {
	return func(r *Ranker) {
		if log != nil {
			r.log = log
		}
	}
}

// Ranker implements the scoring and ranking stage.
type Ranker struct {
	log logger.Logger
}

// New creates a Ranker.
func New(opts ...Option) *Ranker {
	r := &Ranker{}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logger.Get()
	}
	return r
}

// Rank scores every pending application of the session against the given
// participant table and sorts the queue best-first.
//
// Applications referencing a participant missing from the table are dropped
// and logged; this is a data-integrity guard, never an error to the caller.
// Rank is idempotent on unchanged input: scores are overwritten, and the sort
// order is fully determined by (score, application ID).
func (r *Ranker) Rank(ctx context.Context, session *model.Session, participants map[uuid.UUID]*model.Participant) {
	kept := session.Applications[:0]
	for _, app := range session.Applications {
		participant, ok := participants[app.ParticipantID]
		if !ok {
			r.log.Warn(ctx, "dropping application with unknown participant",
				logger.String("application", app.ID.String()),
				logger.String("participant", app.ParticipantID.String()),
				logger.String("session", session.Name),
			)
			metrics.RecordApplicationDropped()
			continue
		}
		score := participant.CarriedPoints + Bonus(app.Preference)
		app.Score = &score
		kept = append(kept, app)
	}
	session.Applications = kept

	sort.SliceStable(session.Applications, func(i, j int) bool {
		return Compare(session.Applications[i], session.Applications[j]) < 0
	})
}
