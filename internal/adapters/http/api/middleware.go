package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/mahsan/gather/internal/auth"
	"github.com/mahsan/gather/pkg/metrics"
)

// sessionCookie is the cookie carrying the login session id.
const sessionCookie = "sid"

// MetricsMiddleware wraps HTTP handlers to record Prometheus metrics.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		durationMs := float64(time.Since(start).Milliseconds())
		metrics.RecordHTTPRequest(endpoint, r.Method, strconv.Itoa(wrapped.statusCode))
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, durationMs)
	}
}

// sessionFromRequest resolves the live session behind the request cookie.
func (s *Server) sessionFromRequest(r *http.Request) (auth.Session, error) {
	const op = "api.session"
	cookie, err := r.Cookie(sessionCookie)
	if err != nil {
		return auth.Session{}, NewKind(op, ErrUnauthorized)
	}
	id, err := uuid.Parse(cookie.Value)
	if err != nil {
		return auth.Session{}, NewKind(op, ErrUnauthorized)
	}
	sess, err := s.deps.Session(r.Context(), id)
	if err != nil {
		return auth.Session{}, WrapKind(op, ErrUnauthorized, err)
	}
	return sess, nil
}

// requireAdmin rejects requests without a live admin session.
func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.sessionFromRequest(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized", err)
			return
		}
		if sess.Kind != auth.KindAdmin {
			writeError(w, http.StatusForbidden, "forbidden", NewKind("api.require_admin", ErrForbidden))
			return
		}
		next.ServeHTTP(w, r)
	}
}

// userHandlerFunc is a handler that operates on the invitee behind the
// session's invitation code.
type userHandlerFunc func(w http.ResponseWriter, r *http.Request, code string)

// requireUser rejects requests without a live user session and hands the
// invitation code to the handler.
func (s *Server) requireUser(next userHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.sessionFromRequest(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized", err)
			return
		}
		if sess.Kind != auth.KindUser {
			writeError(w, http.StatusForbidden, "forbidden", NewKind("api.require_user", ErrForbidden))
			return
		}
		next(w, r, sess.Code)
	}
}

// setSessionCookie attaches the session id to the response.
func setSessionCookie(w http.ResponseWriter, sess auth.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.ID.String(),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  sess.ValidUntil,
	})
}

// clearSessionCookie expires the session cookie.
func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("failed to write response: %w", err)
	}
	return n, nil
}
