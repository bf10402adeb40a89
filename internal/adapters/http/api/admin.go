package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// AdminHandler handles event administration requests.
type AdminHandler struct {
	deps Dependencies
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(deps Dependencies) *AdminHandler {
	return &AdminHandler{deps: deps}
}

type eventRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type stateRequest struct {
	State string `json:"state"`
}

type slotRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type sessionRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Seats       int    `json:"seats"`
}

type invitesRequest struct {
	Codes string `json:"codes"`
}

type invitesResponse struct {
	Added int `json:"added"`
}

// HandleListEvents handles GET /admin/events requests.
func (h *AdminHandler) HandleListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.deps.ListEvents(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// HandleCreateEvent handles POST /admin/events requests.
func (h *AdminHandler) HandleCreateEvent(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_event"
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	id, err := h.deps.CreateEvent(r.Context(), req.Name, req.Description)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}

// HandleGetEvent handles GET /admin/events/{eventID} requests.
func (h *AdminHandler) HandleGetEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathUUID(r, "eventID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	view, err := h.deps.GetEvent(r.Context(), eventID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleDeleteEvent handles POST /admin/events/{eventID}/delete requests.
func (h *AdminHandler) HandleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathUUID(r, "eventID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := h.deps.DeleteEvent(r.Context(), eventID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "deleted"})
}

// HandleSetState handles POST /admin/events/{eventID}/state requests.
func (h *AdminHandler) HandleSetState(w http.ResponseWriter, r *http.Request) {
	const op = "api.set_state"
	eventID, err := pathUUID(r, "eventID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	var req stateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.deps.SetEventState(r.Context(), eventID, req.State); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

// HandleDistribute handles POST /admin/events/{eventID}/distribute requests.
func (h *AdminHandler) HandleDistribute(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathUUID(r, "eventID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := h.deps.Distribute(r.Context(), eventID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "finished"})
}

// HandleCreateSlot handles POST /admin/events/{eventID}/slots requests.
func (h *AdminHandler) HandleCreateSlot(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_slot"
	eventID, err := pathUUID(r, "eventID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	var req slotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	id, err := h.deps.CreateSlot(r.Context(), eventID, req.Name, req.Description)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}

// HandleEditSlot handles POST /admin/events/{eventID}/slots/{slotID} requests.
func (h *AdminHandler) HandleEditSlot(w http.ResponseWriter, r *http.Request) {
	const op = "api.edit_slot"
	eventID, slotID, err := pathEventSlot(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	var req slotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.deps.EditSlot(r.Context(), eventID, slotID, req.Name, req.Description); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

// HandleDeleteSlot handles POST /admin/events/{eventID}/slots/{slotID}/delete requests.
func (h *AdminHandler) HandleDeleteSlot(w http.ResponseWriter, r *http.Request) {
	eventID, slotID, err := pathEventSlot(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := h.deps.DeleteSlot(r.Context(), eventID, slotID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "deleted"})
}

// HandleCreateSession handles POST .../slots/{slotID}/sessions requests.
func (h *AdminHandler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_session"
	eventID, slotID, err := pathEventSlot(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	id, err := h.deps.CreateSession(r.Context(), eventID, slotID, req.Name, req.Description, req.Seats)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}

// HandleEditSession handles POST .../sessions/{sessionID} requests.
func (h *AdminHandler) HandleEditSession(w http.ResponseWriter, r *http.Request) {
	const op = "api.edit_session"
	eventID, slotID, err := pathEventSlot(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	sessionID, err := pathUUID(r, "sessionID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.deps.EditSession(r.Context(), eventID, slotID, sessionID, req.Name, req.Description, req.Seats); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

// HandleDeleteSession handles POST .../sessions/{sessionID}/delete requests.
func (h *AdminHandler) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	eventID, slotID, err := pathEventSlot(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	sessionID, err := pathUUID(r, "sessionID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := h.deps.DeleteSession(r.Context(), eventID, slotID, sessionID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "deleted"})
}

// HandleAddInvites handles POST /admin/events/{eventID}/invites/bulk requests.
func (h *AdminHandler) HandleAddInvites(w http.ResponseWriter, r *http.Request) {
	const op = "api.add_invites"
	eventID, err := pathUUID(r, "eventID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	var req invitesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	added, err := h.deps.AddInvites(r.Context(), eventID, req.Codes)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, invitesResponse{Added: added})
}

// HandleDeleteInvite handles POST .../invites/{code}/delete requests.
func (h *AdminHandler) HandleDeleteInvite(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathUUID(r, "eventID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	code := strings.TrimSpace(r.PathValue("code"))
	if code == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind("api.delete_invite", ErrBadRequest))
		return
	}
	if err := h.deps.DeleteInvite(r.Context(), eventID, code); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "deleted"})
}

// pathEventSlot parses the eventID and slotID path parameters.
func pathEventSlot(r *http.Request) (uuid.UUID, uuid.UUID, error) {
	eventID, err := pathUUID(r, "eventID")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	slotID, err := pathUUID(r, "slotID")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return eventID, slotID, nil
}
