package allocation_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahsan/gather/internal/domain/allocation"
	"github.com/mahsan/gather/internal/domain/model"
	"github.com/mahsan/gather/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// fixedUUID builds a deterministic uuid from a single byte so tests can pin
// tie-break outcomes.
func fixedUUID(b byte) uuid.UUID {
	var u uuid.UUID
	for i := range u {
		u[i] = b
	}
	return u
}

func addApplication(sess *model.Session, id uuid.UUID, participantID uuid.UUID, pref model.Preference) *model.Application {
	app := &model.Application{
		ID:            id,
		SessionID:     sess.ID,
		ParticipantID: participantID,
		Preference:    pref,
	}
	sess.Applications = append(sess.Applications, app)
	return app
}

func openEvent(name string) *model.Event {
	ev := model.NewEvent(name, "")
	ev.State = model.StateOpenForRegistration
	return ev
}

func TestCarryTable(t *testing.T) {
	assert.Equal(t, 0, allocation.Carry(model.PreferenceFirst))
	assert.Equal(t, 5, allocation.Carry(model.PreferenceSecond))
	assert.Equal(t, 10, allocation.Carry(model.PreferenceThird))
	assert.Equal(t, 15, allocation.Carry(model.PreferenceNone))
}

func TestRunRequiresOpenRegistration(t *testing.T) {
	ctx := context.Background()
	a := allocation.New()

	for _, state := range []model.EventState{
		model.StateNotOpenedYet,
		model.StateAssigningSeats,
		model.StateFinished,
	} {
		ev := model.NewEvent("conf", "")
		ev.State = state
		err := a.Run(ctx, ev)
		require.Error(t, err, "state %s", state)
		assert.True(t, errors.Is(err, model.ErrInvalidTransition))
		assert.Equal(t, state, ev.State, "state must be untouched on rejection")
	}
}

// Scenario A from the design docs: two sessions with one seat each, two
// participants tied on Math. The application whose ID sorts later wins the
// tie, Math fills up, the loser's queue entry is purged, Art seats its only
// applicant.
func TestRunTieGoesToLaterSortingID(t *testing.T) {
	ctx := context.Background()
	a := allocation.New()

	ev := openEvent("conf")
	slot := model.NewSlot("morning", "")
	math := model.NewSession("Math", "", 1)
	art := model.NewSession("Art", "", 1)
	slot.Sessions = []*model.Session{math, art}
	ev.Slots = []*model.Slot{slot}

	p1 := model.NewParticipant()
	p2 := model.NewParticipant()
	p3 := model.NewParticipant()
	for _, p := range []*model.Participant{p1, p2, p3} {
		p.Name = "participant"
		ev.Participants[p.ID] = p
	}

	// P1's application ID sorts after P2's.
	addApplication(math, fixedUUID(0x20), p1.ID, model.PreferenceFirst)
	addApplication(math, fixedUUID(0x10), p2.ID, model.PreferenceFirst)
	addApplication(art, fixedUUID(0x30), p3.ID, model.PreferenceFirst)

	require.NoError(t, a.Run(ctx, ev))

	assert.Equal(t, model.StateFinished, ev.State)
	require.Len(t, math.Assigned, 1)
	assert.Equal(t, p1.ID, math.Assigned[0], "later-sorting ID wins the tie")
	require.Len(t, art.Assigned, 1)
	assert.Equal(t, p3.ID, art.Assigned[0])
	assert.Empty(t, math.Applications, "purged after capacity exhaustion")
	assert.Empty(t, art.Applications)
}

func TestRunCarriedPointsOverwritten(t *testing.T) {
	ctx := context.Background()
	a := allocation.New()

	ev := openEvent("conf")
	slot := model.NewSlot("morning", "")
	math := model.NewSession("Math", "", 1)
	art := model.NewSession("Art", "", 1)
	slot.Sessions = []*model.Session{math, art}
	ev.Slots = []*model.Slot{slot}

	p1 := model.NewParticipant()
	p2 := model.NewParticipant()
	p1.CarriedPoints = 99 // stale value from an earlier run; must be overwritten
	ev.Participants[p1.ID] = p1
	ev.Participants[p2.ID] = p2

	// P1 scores 99+15 on Math; P2 scores 10 on Math and gets seated on Art as
	// second preference.
	addApplication(math, fixedUUID(0x10), p1.ID, model.PreferenceFirst)
	addApplication(math, fixedUUID(0x20), p2.ID, model.PreferenceSecond)
	addApplication(art, fixedUUID(0x30), p2.ID, model.PreferenceSecond)

	require.NoError(t, a.Run(ctx, ev))

	assert.Equal(t, []uuid.UUID{p1.ID}, math.Assigned)
	assert.Equal(t, []uuid.UUID{p2.ID}, art.Assigned)
	assert.Equal(t, 0, p1.CarriedPoints, "first preference carries zero")
	assert.Equal(t, 5, p2.CarriedPoints, "second preference carries five")
}

func TestRunOneSeatPerSlotAndQueueDrain(t *testing.T) {
	ctx := context.Background()
	a := allocation.New()

	ev := openEvent("conf")
	slotA := model.NewSlot("morning", "")
	slotB := model.NewSlot("afternoon", "")
	s1 := model.NewSession("Math", "", 2)
	s2 := model.NewSession("Art", "", 1)
	s3 := model.NewSession("Chem", "", 1)
	slotA.Sessions = []*model.Session{s1, s2}
	slotB.Sessions = []*model.Session{s3}
	ev.Slots = []*model.Slot{slotA, slotB}

	var participants []*model.Participant
	for i := 0; i < 5; i++ {
		p := model.NewParticipant()
		ev.Participants[p.ID] = p
		participants = append(participants, p)
	}

	// Everyone applies to everything in slot A, plus the slot B session.
	for i, p := range participants {
		base := byte(0x10 * (i + 1))
		addApplication(s1, fixedUUID(base), p.ID, model.PreferenceFirst)
		addApplication(s2, fixedUUID(base+1), p.ID, model.PreferenceSecond)
		addApplication(s3, fixedUUID(base+2), p.ID, model.PreferenceFirst)
	}

	require.NoError(t, a.Run(ctx, ev))

	for _, slot := range ev.Slots {
		seatsInSlot := map[uuid.UUID]int{}
		for _, sess := range slot.Sessions {
			assert.LessOrEqual(t, len(sess.Assigned), sess.Seats, "capacity invariant for %s", sess.Name)
			assert.Empty(t, sess.Applications, "queue drain for %s", sess.Name)
			for _, pid := range sess.Assigned {
				seatsInSlot[pid]++
			}
		}
		for pid, n := range seatsInSlot {
			assert.Equal(t, 1, n, "participant %s seated more than once in slot %s", pid, slot.Name)
		}
	}
}

func TestRunIsDeterministic(t *testing.T) {
	ctx := context.Background()

	build := func() *model.Event {
		ev := openEvent("conf")
		slot := model.NewSlot("morning", "")
		m := model.NewSession("Math", "", 1)
		m.ID = fixedUUID(0x01)
		ar := model.NewSession("Art", "", 2)
		ar.ID = fixedUUID(0x02)
		slot.Sessions = []*model.Session{m, ar}
		ev.Slots = []*model.Slot{slot}
		for i := byte(0); i < 4; i++ {
			p := model.NewParticipant()
			p.ID = fixedUUID(0x40 + i)
			ev.Participants[p.ID] = p
			addApplication(m, fixedUUID(0x60+i), p.ID, model.PreferenceFirst)
			addApplication(ar, fixedUUID(0x70+i), p.ID, model.PreferenceSecond)
		}
		return ev
	}

	assignments := func(ev *model.Event) map[string][]uuid.UUID {
		out := map[string][]uuid.UUID{}
		for _, slot := range ev.Slots {
			for _, sess := range slot.Sessions {
				out[sess.Name] = append([]uuid.UUID(nil), sess.Assigned...)
			}
		}
		return out
	}

	ev1 := build()
	ev2 := build()
	require.NoError(t, allocation.New().Run(ctx, ev1))
	require.NoError(t, allocation.New().Run(ctx, ev2))

	assert.Equal(t, assignments(ev1), assignments(ev2))
}

func TestRunParticipantWithoutApplications(t *testing.T) {
	ctx := context.Background()
	a := allocation.New()

	ev := openEvent("conf")
	slot := model.NewSlot("morning", "")
	sess := model.NewSession("Math", "", 1)
	slot.Sessions = []*model.Session{sess}
	ev.Slots = []*model.Slot{slot}

	applicant := model.NewParticipant()
	bystander := model.NewParticipant()
	ev.Participants[applicant.ID] = applicant
	ev.Participants[bystander.ID] = bystander
	addApplication(sess, fixedUUID(0x11), applicant.ID, model.PreferenceFirst)

	require.NoError(t, a.Run(ctx, ev))

	assert.Equal(t, []uuid.UUID{applicant.ID}, sess.Assigned)
	assert.Equal(t, 0, bystander.CarriedPoints, "bystander untouched")
}

func TestRunEmptyEvent(t *testing.T) {
	ctx := context.Background()
	ev := openEvent("conf")

	require.NoError(t, allocation.New().Run(ctx, ev))
	assert.Equal(t, model.StateFinished, ev.State)
}
