// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	service "github.com/mahsan/gather/internal/app"
	"github.com/mahsan/gather/internal/auth"
	"github.com/mahsan/gather/internal/domain/model"
	"github.com/mahsan/gather/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Auth operations back the login endpoints and the session middleware.
	LoginAdmin(ctx context.Context, username, password string) (auth.Session, error)
	LoginUser(ctx context.Context, code string) (auth.Session, error)
	Logout(ctx context.Context, id uuid.UUID)
	Session(ctx context.Context, id uuid.UUID) (auth.Session, error)

	// Admin operations manage events, slots, sessions and invitations.
	ListEvents(ctx context.Context) ([]types.EventSummary, error)
	CreateEvent(ctx context.Context, name, description string) (uuid.UUID, error)
	GetEvent(ctx context.Context, id uuid.UUID) (types.AdminEventView, error)
	DeleteEvent(ctx context.Context, id uuid.UUID) error
	SetEventState(ctx context.Context, id uuid.UUID, state string) error
	Distribute(ctx context.Context, id uuid.UUID) error
	CreateSlot(ctx context.Context, eventID uuid.UUID, name, description string) (uuid.UUID, error)
	EditSlot(ctx context.Context, eventID, slotID uuid.UUID, name, description string) error
	DeleteSlot(ctx context.Context, eventID, slotID uuid.UUID) error
	CreateSession(ctx context.Context, eventID, slotID uuid.UUID, name, description string, seats int) (uuid.UUID, error)
	EditSession(ctx context.Context, eventID, slotID, sessionID uuid.UUID, name, description string, seats int) error
	DeleteSession(ctx context.Context, eventID, slotID, sessionID uuid.UUID) error
	AddInvites(ctx context.Context, eventID uuid.UUID, codes string) (int, error)
	DeleteInvite(ctx context.Context, eventID uuid.UUID, code string) error

	// User operations back the invitee surface.
	EventForCode(ctx context.Context, code string) (types.UserEventView, error)
	SaveName(ctx context.Context, code, name string) error
	SavePreferences(ctx context.Context, code string, slotID uuid.UUID, first, second, third *uuid.UUID) error
}

// Server wires HTTP routes for the registration API.
type Server struct {
	deps          Dependencies
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	authHandler   *AuthHandler
	adminHandler  *AdminHandler
	userHandler   *UserHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		deps:          deps,
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		authHandler:   NewAuthHandler(deps),
		adminHandler:  NewAdminHandler(deps),
		userHandler:   NewUserHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /login/admin", MetricsMiddleware(s.authHandler.HandleAdminLogin, "login_admin"))
	mux.HandleFunc("POST /login", MetricsMiddleware(s.authHandler.HandleUserLogin, "login"))
	mux.HandleFunc("GET /invitation/{code}", MetricsMiddleware(s.authHandler.HandleInvitationLink, "invitation"))
	mux.HandleFunc("POST /logout", MetricsMiddleware(s.authHandler.HandleLogout, "logout"))

	mux.HandleFunc("GET /admin/events", MetricsMiddleware(s.requireAdmin(s.adminHandler.HandleListEvents), "admin_events"))
	mux.HandleFunc("POST /admin/events", MetricsMiddleware(s.requireAdmin(s.adminHandler.HandleCreateEvent), "admin_events"))
	mux.HandleFunc("GET /admin/events/{eventID}", MetricsMiddleware(s.requireAdmin(s.adminHandler.HandleGetEvent), "admin_event"))
	mux.HandleFunc("POST /admin/events/{eventID}/delete", MetricsMiddleware(s.requireAdmin(s.adminHandler.HandleDeleteEvent), "admin_event_delete"))
	mux.HandleFunc("POST /admin/events/{eventID}/state", MetricsMiddleware(s.requireAdmin(s.adminHandler.HandleSetState), "admin_event_state"))
	mux.HandleFunc("POST /admin/events/{eventID}/distribute", MetricsMiddleware(s.requireAdmin(s.adminHandler.HandleDistribute), "admin_event_distribute"))

	mux.HandleFunc("POST /admin/events/{eventID}/slots", MetricsMiddleware(s.requireAdmin(s.adminHandler.HandleCreateSlot), "admin_slots"))
	mux.HandleFunc("POST /admin/events/{eventID}/slots/{slotID}", MetricsMiddleware(s.requireAdmin(s.adminHandler.HandleEditSlot), "admin_slot"))
	mux.HandleFunc("POST /admin/events/{eventID}/slots/{slotID}/delete", MetricsMiddleware(s.requireAdmin(s.adminHandler.HandleDeleteSlot), "admin_slot_delete"))

	mux.HandleFunc("POST /admin/events/{eventID}/slots/{slotID}/sessions", MetricsMiddleware(s.requireAdmin(s.adminHandler.HandleCreateSession), "admin_sessions"))
	mux.HandleFunc("POST /admin/events/{eventID}/slots/{slotID}/sessions/{sessionID}", MetricsMiddleware(s.requireAdmin(s.adminHandler.HandleEditSession), "admin_session"))
	mux.HandleFunc("POST /admin/events/{eventID}/slots/{slotID}/sessions/{sessionID}/delete", MetricsMiddleware(s.requireAdmin(s.adminHandler.HandleDeleteSession), "admin_session_delete"))

	mux.HandleFunc("POST /admin/events/{eventID}/invites/bulk", MetricsMiddleware(s.requireAdmin(s.adminHandler.HandleAddInvites), "admin_invites_bulk"))
	mux.HandleFunc("POST /admin/events/{eventID}/invites/{code}/delete", MetricsMiddleware(s.requireAdmin(s.adminHandler.HandleDeleteInvite), "admin_invite_delete"))

	mux.HandleFunc("GET /event", MetricsMiddleware(s.requireUser(s.userHandler.HandleGetEvent), "event"))
	mux.HandleFunc("POST /event/name", MetricsMiddleware(s.requireUser(s.userHandler.HandleSaveName), "event_name"))
	mux.HandleFunc("POST /event/slots/{slotID}/preferences", MetricsMiddleware(s.requireUser(s.userHandler.HandleSavePreferences), "event_preferences"))
}

type statusResponse struct {
	Status string `json:"status"`
}

type createdResponse struct {
	ID uuid.UUID `json:"id"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError translates service-layer sentinel errors to HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized", err)
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrValidation), errors.Is(err, model.ErrInvalidTransition):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// pathUUID parses a path parameter as a UUID.
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, WrapKind("api.path_param", ErrBadRequest, err)
	}
	return id, nil
}
