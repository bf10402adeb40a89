package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// UserHandler handles the invitee-facing requests.
type UserHandler struct {
	deps Dependencies
}

// NewUserHandler creates a new user handler.
func NewUserHandler(deps Dependencies) *UserHandler {
	return &UserHandler{deps: deps}
}

type nameRequest struct {
	Name string `json:"name"`
}

type preferencesRequest struct {
	First  *uuid.UUID `json:"first,omitempty"`
	Second *uuid.UUID `json:"second,omitempty"`
	Third  *uuid.UUID `json:"third,omitempty"`
}

// HandleGetEvent handles GET /event requests.
func (h *UserHandler) HandleGetEvent(w http.ResponseWriter, r *http.Request, code string) {
	view, err := h.deps.EventForCode(r.Context(), code)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleSaveName handles POST /event/name requests.
func (h *UserHandler) HandleSaveName(w http.ResponseWriter, r *http.Request, code string) {
	const op = "api.save_name"
	var req nameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	if err := h.deps.SaveName(r.Context(), code, req.Name); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

// HandleSavePreferences handles POST /event/slots/{slotID}/preferences requests.
func (h *UserHandler) HandleSavePreferences(w http.ResponseWriter, r *http.Request, code string) {
	const op = "api.save_preferences"
	slotID, err := pathUUID(r, "slotID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	var req preferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.deps.SavePreferences(r.Context(), code, slotID, req.First, req.Second, req.Third); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}
