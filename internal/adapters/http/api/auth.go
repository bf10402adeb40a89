package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// AuthHandler handles login and logout requests.
type AuthHandler struct {
	deps Dependencies
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(deps Dependencies) *AuthHandler {
	return &AuthHandler{deps: deps}
}

type adminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userLoginRequest struct {
	Code string `json:"code"`
}

// HandleAdminLogin handles POST /login/admin requests.
func (h *AuthHandler) HandleAdminLogin(w http.ResponseWriter, r *http.Request) {
	const op = "api.login_admin"
	var req adminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	sess, err := h.deps.LoginAdmin(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	setSessionCookie(w, sess)
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

// HandleUserLogin handles POST /login requests.
func (h *AuthHandler) HandleUserLogin(w http.ResponseWriter, r *http.Request) {
	const op = "api.login"
	var req userLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.Code) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	sess, err := h.deps.LoginUser(r.Context(), strings.TrimSpace(req.Code))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	setSessionCookie(w, sess)
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

// HandleInvitationLink handles GET /invitation/{code} requests. It is the
// deep-link form of user login: invitees follow the link from their mail,
// get a session cookie and land on their event page.
func (h *AuthHandler) HandleInvitationLink(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(r.PathValue("code"))
	if code == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind("api.invitation", ErrBadRequest))
		return
	}
	sess, err := h.deps.LoginUser(r.Context(), code)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	setSessionCookie(w, sess)
	http.Redirect(w, r, "/event", http.StatusSeeOther)
}

// HandleLogout handles POST /logout requests. Logging out without a live
// session is not an error.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		if id, err := uuid.Parse(cookie.Value); err == nil {
			h.deps.Logout(r.Context(), id)
		}
	}
	clearSessionCookie(w)
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}
