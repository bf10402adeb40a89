package model_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/mahsan/gather/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSessionHelpers(t *testing.T) {
	Convey("Given a session with applications and assignments", t, func() {
		sess := model.NewSession("Math", "", 2)
		p1 := uuid.New()
		p2 := uuid.New()
		sess.Applications = append(sess.Applications,
			model.NewApplication(sess.ID, p1, model.PreferenceFirst),
			model.NewApplication(sess.ID, p2, model.PreferenceSecond),
			model.NewApplication(sess.ID, p1, model.PreferenceThird),
		)
		sess.Assigned = append(sess.Assigned, p1, p2)

		Convey("When removing one participant's applications", func() {
			sess.RemoveApplicationsFor(p1)

			Convey("Then only the other participant's applications remain", func() {
				So(len(sess.Applications), ShouldEqual, 1)
				So(sess.Applications[0].ParticipantID, ShouldEqual, p2)
			})
		})

		Convey("When unassigning a participant", func() {
			sess.UnassignParticipant(p1)
			So(sess.Assigned, ShouldResemble, []uuid.UUID{p2})
		})

		Convey("When checking capacity", func() {
			So(sess.Full(), ShouldBeTrue)
			sess.UnassignParticipant(p2)
			So(sess.Full(), ShouldBeFalse)
		})
	})
}

func TestEventRemoveParticipant(t *testing.T) {
	Convey("Given an event with a registered participant", t, func() {
		ev := model.NewEvent("conf", "")
		slot := model.NewSlot("morning", "")
		sess := model.NewSession("Art", "", 1)
		slot.Sessions = append(slot.Sessions, sess)
		ev.Slots = append(ev.Slots, slot)

		p := model.NewParticipant()
		ev.Participants[p.ID] = p
		sess.Applications = append(sess.Applications, model.NewApplication(sess.ID, p.ID, model.PreferenceFirst))
		sess.Assigned = append(sess.Assigned, p.ID)

		Convey("When removing the participant", func() {
			ev.RemoveParticipant(p.ID)

			Convey("Then every trace of them is gone", func() {
				So(ev.Participants, ShouldBeEmpty)
				So(sess.Applications, ShouldBeEmpty)
				So(sess.Assigned, ShouldBeEmpty)
			})
		})
	})
}
