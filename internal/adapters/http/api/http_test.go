package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/mahsan/gather/internal/adapters/http/api"
	"github.com/mahsan/gather/internal/adapters/repository"
	service "github.com/mahsan/gather/internal/app"
	"github.com/mahsan/gather/internal/auth"
	"github.com/mahsan/gather/internal/domain/model"
	"github.com/mahsan/gather/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

const (
	testAdminUser     = "admin"
	testAdminPassword = "correct horse battery staple"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

// seedState writes a state file with a known admin password so tests can
// log in over HTTP.
func seedState(t *testing.T) string {
	t.Helper()
	hash, err := auth.HashPassword(testAdminPassword)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	st := repository.NewStorage()
	st.Admins[testAdminUser] = &model.AdminAccount{
		Username:     testAdminUser,
		PasswordHash: hash,
	}
	raw, err := json.Marshal(st)
	if err != nil {
		t.Fatalf("marshal state: %v", err)
	}
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write state: %v", err)
	}
	return path
}

func newTestMux(t *testing.T) *http.ServeMux {
	t.Helper()
	svc := service.New(service.WithStatePath(seedState(t)))
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(svc.Stop)

	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(context.Background(), mux)
	return mux
}

// do runs a request against the mux, attaching the session cookie when set.
func do(mux *http.ServeMux, method, target, body, cookie string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: cookie})
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

// sessionID extracts the sid cookie from a login response.
func sessionID(w *httptest.ResponseRecorder) string {
	for _, c := range w.Result().Cookies() {
		if c.Name == "sid" {
			return c.Value
		}
	}
	return ""
}

func loginAdmin(t *testing.T, mux *http.ServeMux) string {
	t.Helper()
	body := fmt.Sprintf(`{"username":%q,"password":%q}`, testAdminUser, testAdminPassword)
	w := do(mux, "POST", "/login/admin", body, "")
	if w.Code != http.StatusOK {
		t.Fatalf("admin login failed: %d %s", w.Code, w.Body.String())
	}
	return sessionID(w)
}

func decodeID(t *testing.T, w *httptest.ResponseRecorder) uuid.UUID {
	t.Helper()
	var resp struct {
		ID uuid.UUID `json:"id"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode id: %v", err)
	}
	return resp.ID
}

func TestAuthEndpoints(t *testing.T) {
	Convey("Given a running API", t, func() {
		mux := newTestMux(t)

		Convey("Admin login succeeds with the right credentials", func() {
			sid := loginAdmin(t, mux)
			So(sid, ShouldNotBeEmpty)

			Convey("And the session opens the admin surface", func() {
				w := do(mux, "GET", "/admin/events", "", sid)
				So(w.Code, ShouldEqual, http.StatusOK)
			})

			Convey("And logout invalidates it", func() {
				w := do(mux, "POST", "/logout", "", sid)
				So(w.Code, ShouldEqual, http.StatusOK)

				w = do(mux, "GET", "/admin/events", "", sid)
				So(w.Code, ShouldEqual, http.StatusUnauthorized)
			})
		})

		Convey("Admin login fails with a wrong password", func() {
			w := do(mux, "POST", "/login/admin", `{"username":"admin","password":"nope"}`, "")
			So(w.Code, ShouldEqual, http.StatusUnauthorized)
		})

		Convey("Admin login rejects malformed JSON", func() {
			w := do(mux, "POST", "/login/admin", `{broken`, "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("User login fails for an unknown code", func() {
			w := do(mux, "POST", "/login", `{"code":"unknown"}`, "")
			So(w.Code, ShouldEqual, http.StatusUnauthorized)
		})

		Convey("The admin surface requires a session", func() {
			w := do(mux, "GET", "/admin/events", "", "")
			So(w.Code, ShouldEqual, http.StatusUnauthorized)

			w = do(mux, "GET", "/admin/events", "", uuid.NewString())
			So(w.Code, ShouldEqual, http.StatusUnauthorized)
		})

		Convey("Health and stats are open", func() {
			So(do(mux, "GET", "/healthz", "", "").Code, ShouldEqual, http.StatusOK)
			So(do(mux, "GET", "/stats", "", "").Code, ShouldEqual, http.StatusOK)
		})

		Convey("Unknown routes 404", func() {
			So(do(mux, "GET", "/nope", "", "").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestAdminEventEndpoints(t *testing.T) {
	Convey("Given an admin session", t, func() {
		mux := newTestMux(t)
		sid := loginAdmin(t, mux)

		Convey("Creating an event requires a name", func() {
			w := do(mux, "POST", "/admin/events", `{"name":""}`, sid)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Events can be created, fetched and deleted", func() {
			w := do(mux, "POST", "/admin/events", `{"name":"GopherCon","description":"annual"}`, sid)
			So(w.Code, ShouldEqual, http.StatusCreated)
			eventID := decodeID(t, w)

			w = do(mux, "GET", "/admin/events/"+eventID.String(), "", sid)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"GopherCon"`)
			So(w.Body.String(), ShouldContainSubstring, `"not_opened_yet"`)

			w = do(mux, "POST", "/admin/events/"+eventID.String()+"/delete", "", sid)
			So(w.Code, ShouldEqual, http.StatusOK)

			w = do(mux, "GET", "/admin/events/"+eventID.String(), "", sid)
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("Malformed event ids are rejected", func() {
			w := do(mux, "GET", "/admin/events/not-a-uuid", "", sid)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("State changes are restricted to the registration edge", func() {
			w := do(mux, "POST", "/admin/events", `{"name":"GopherCon"}`, sid)
			eventID := decodeID(t, w)
			base := "/admin/events/" + eventID.String()

			w = do(mux, "POST", base+"/state", `{"state":"open_for_registration"}`, sid)
			So(w.Code, ShouldEqual, http.StatusOK)

			w = do(mux, "POST", base+"/state", `{"state":"finished"}`, sid)
			So(w.Code, ShouldEqual, http.StatusBadRequest)

			Convey("Distribute finishes the event", func() {
				w = do(mux, "POST", base+"/distribute", "", sid)
				So(w.Code, ShouldEqual, http.StatusOK)

				w = do(mux, "GET", base, "", sid)
				So(w.Body.String(), ShouldContainSubstring, `"finished"`)

				Convey("And a second distribute is rejected", func() {
					w = do(mux, "POST", base+"/distribute", "", sid)
					So(w.Code, ShouldEqual, http.StatusBadRequest)
				})
			})
		})

		Convey("Slot and session CRUD works end to end", func() {
			w := do(mux, "POST", "/admin/events", `{"name":"GopherCon"}`, sid)
			eventID := decodeID(t, w)
			base := "/admin/events/" + eventID.String()

			w = do(mux, "POST", base+"/slots", `{"name":"Morning"}`, sid)
			So(w.Code, ShouldEqual, http.StatusCreated)
			slotID := decodeID(t, w)
			slotBase := base + "/slots/" + slotID.String()

			w = do(mux, "POST", slotBase, `{"name":"Morning Block"}`, sid)
			So(w.Code, ShouldEqual, http.StatusOK)

			w = do(mux, "POST", slotBase+"/sessions", `{"name":"Generics","seats":0}`, sid)
			So(w.Code, ShouldEqual, http.StatusBadRequest)

			w = do(mux, "POST", slotBase+"/sessions", `{"name":"Generics","seats":10}`, sid)
			So(w.Code, ShouldEqual, http.StatusCreated)
			sessionID := decodeID(t, w)
			sessionBase := slotBase + "/sessions/" + sessionID.String()

			w = do(mux, "POST", sessionBase, `{"name":"Generics","seats":20}`, sid)
			So(w.Code, ShouldEqual, http.StatusOK)

			w = do(mux, "POST", sessionBase+"/delete", "", sid)
			So(w.Code, ShouldEqual, http.StatusOK)

			w = do(mux, "POST", slotBase+"/delete", "", sid)
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("Invite upload reports the added count", func() {
			w := do(mux, "POST", "/admin/events", `{"name":"GopherCon"}`, sid)
			eventID := decodeID(t, w)
			base := "/admin/events/" + eventID.String()

			w = do(mux, "POST", base+"/invites/bulk", `{"codes":"alpha\nbeta\n\nalpha"}`, sid)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"added":2`)

			w = do(mux, "GET", base, "", sid)
			So(w.Body.String(), ShouldContainSubstring, `"alpha"`)

			Convey("And codes can be revoked", func() {
				w = do(mux, "POST", base+"/invites/alpha/delete", "", sid)
				So(w.Code, ShouldEqual, http.StatusOK)

				w = do(mux, "POST", base+"/invites/alpha/delete", "", sid)
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestUserEndpoints(t *testing.T) {
	Convey("Given an open event with an invited user", t, func() {
		mux := newTestMux(t)
		sid := loginAdmin(t, mux)

		w := do(mux, "POST", "/admin/events", `{"name":"GopherCon"}`, sid)
		eventID := decodeID(t, w)
		base := "/admin/events/" + eventID.String()

		w = do(mux, "POST", base+"/slots", `{"name":"Morning"}`, sid)
		slotID := decodeID(t, w)
		w = do(mux, "POST", base+"/slots/"+slotID.String()+"/sessions", `{"name":"Generics","seats":5}`, sid)
		generics := decodeID(t, w)
		w = do(mux, "POST", base+"/slots/"+slotID.String()+"/sessions", `{"name":"Fuzzing","seats":5}`, sid)
		fuzzing := decodeID(t, w)

		So(do(mux, "POST", base+"/invites/bulk", `{"codes":"alpha"}`, sid).Code, ShouldEqual, http.StatusOK)
		So(do(mux, "POST", base+"/state", `{"state":"open_for_registration"}`, sid).Code, ShouldEqual, http.StatusOK)

		Convey("The invitation deep link logs in and redirects", func() {
			w := do(mux, "GET", "/invitation/alpha", "", "")
			So(w.Code, ShouldEqual, http.StatusSeeOther)
			So(w.Header().Get("Location"), ShouldEqual, "/event")
			So(sessionID(w), ShouldNotBeEmpty)
		})

		Convey("With a user session", func() {
			w := do(mux, "POST", "/login", `{"code":"alpha"}`, "")
			So(w.Code, ShouldEqual, http.StatusOK)
			userSID := sessionID(w)

			Convey("A user session cannot reach the admin surface", func() {
				w := do(mux, "GET", "/admin/events", "", userSID)
				So(w.Code, ShouldEqual, http.StatusForbidden)
			})

			Convey("An admin session cannot reach the user surface", func() {
				w := do(mux, "GET", "/event", "", sid)
				So(w.Code, ShouldEqual, http.StatusForbidden)
			})

			Convey("GET /event shows the event and registers the participant", func() {
				w := do(mux, "GET", "/event", "", userSID)
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"GopherCon"`)
				So(w.Body.String(), ShouldContainSubstring, `"is_open":true`)
			})

			Convey("Preferences need a name first", func() {
				body := fmt.Sprintf(`{"first":%q}`, generics.String())
				w := do(mux, "POST", "/event/slots/"+slotID.String()+"/preferences", body, userSID)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})

			Convey("The full flow: name, preferences, distribute, result", func() {
				So(do(mux, "POST", "/event/name", `{"name":"Grace"}`, userSID).Code, ShouldEqual, http.StatusOK)

				body := fmt.Sprintf(`{"first":%q,"second":%q}`, generics.String(), fuzzing.String())
				w := do(mux, "POST", "/event/slots/"+slotID.String()+"/preferences", body, userSID)
				So(w.Code, ShouldEqual, http.StatusOK)

				Convey("Duplicate picks are rejected", func() {
					body := fmt.Sprintf(`{"first":%q,"second":%q}`, generics.String(), generics.String())
					w := do(mux, "POST", "/event/slots/"+slotID.String()+"/preferences", body, userSID)
					So(w.Code, ShouldEqual, http.StatusBadRequest)
				})

				Convey("After distribution the user sees their seat", func() {
					So(do(mux, "POST", base+"/distribute", "", sid).Code, ShouldEqual, http.StatusOK)

					w := do(mux, "GET", "/event", "", userSID)
					So(w.Code, ShouldEqual, http.StatusOK)
					So(w.Body.String(), ShouldContainSubstring, `"assigned":true`)

					Convey("And further submissions are rejected", func() {
						body := fmt.Sprintf(`{"first":%q}`, fuzzing.String())
						w := do(mux, "POST", "/event/slots/"+slotID.String()+"/preferences", body, userSID)
						So(w.Code, ShouldEqual, http.StatusBadRequest)
					})

					Convey("And the admin view lists assigned names", func() {
						w := do(mux, "GET", base, "", sid)
						So(w.Body.String(), ShouldContainSubstring, `"Grace"`)
					})
				})
			})
		})
	})
}
