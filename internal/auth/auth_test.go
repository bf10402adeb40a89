package auth_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mahsan/gather/internal/auth"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPasswordHashing(t *testing.T) {
	Convey("Given a hashed password", t, func() {
		hash, err := auth.HashPassword("hunter2")
		So(err, ShouldBeNil)
		So(hash, ShouldStartWith, "$argon2id$")

		Convey("Then the right password should verify", func() {
			So(auth.VerifyPassword("hunter2", hash), ShouldBeTrue)
		})

		Convey("Then a wrong password should not verify", func() {
			So(auth.VerifyPassword("hunter3", hash), ShouldBeFalse)
		})

		Convey("Then hashing is salted", func() {
			other, err := auth.HashPassword("hunter2")
			So(err, ShouldBeNil)
			So(other, ShouldNotEqual, hash)
			So(auth.VerifyPassword("hunter2", other), ShouldBeTrue)
		})

		Convey("Then malformed hashes verify as false", func() {
			So(auth.VerifyPassword("hunter2", ""), ShouldBeFalse)
			So(auth.VerifyPassword("hunter2", "$bcrypt$nope"), ShouldBeFalse)
			So(auth.VerifyPassword("hunter2", "$argon2id$v=19$m=65536,t=1,p=4$bad salt$x"), ShouldBeFalse)
		})
	})
}

func TestSessionManager(t *testing.T) {
	Convey("Given a session manager", t, func() {
		m := auth.NewManager(auth.WithTTL(time.Hour))

		Convey("When creating an admin session", func() {
			s := m.CreateAdmin()

			Convey("Then it should be retrievable and of admin kind", func() {
				got, err := m.Get(s.ID)
				So(err, ShouldBeNil)
				So(got.Kind, ShouldEqual, auth.KindAdmin)
				So(got.Code, ShouldBeEmpty)
			})
		})

		Convey("When creating a user session", func() {
			s := m.CreateUser("code-123")

			got, err := m.Get(s.ID)
			So(err, ShouldBeNil)
			So(got.Kind, ShouldEqual, auth.KindUser)
			So(got.Code, ShouldEqual, "code-123")
		})

		Convey("When looking up an unknown session", func() {
			_, err := m.Get(uuid.New())
			So(err, ShouldEqual, auth.ErrNoSession)
		})

		Convey("When a session expires", func() {
			short := auth.NewManager(auth.WithTTL(time.Nanosecond))
			s := short.CreateUser("code-456")
			time.Sleep(time.Millisecond)

			_, err := short.Get(s.ID)
			So(err, ShouldEqual, auth.ErrSessionExpired)

			Convey("Then it should have been removed lazily", func() {
				_, err := short.Get(s.ID)
				So(err, ShouldEqual, auth.ErrNoSession)
			})
		})

		Convey("When deleting a session", func() {
			s := m.CreateAdmin()
			m.Delete(s.ID)
			_, err := m.Get(s.ID)
			So(err, ShouldEqual, auth.ErrNoSession)
		})
	})
}
