package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mahsan/gather/pkg/metrics"
)

// Kind distinguishes the two login surfaces.
type Kind int

// Session kinds.
const (
	KindAdmin Kind = iota
	KindUser
)

// Session is a live cookie session. For KindUser, Code holds the invitation
// code the session was created from.
type Session struct {
	ID         uuid.UUID
	Kind       Kind
	Code       string
	ValidUntil time.Time
}

// Expired reports whether the session is past its lifetime.
func (s Session) Expired() bool {
	return !s.ValidUntil.After(time.Now())
}

// Default session manager configuration.
const (
	defaultTTL             = 24 * time.Hour
	defaultCleanupInterval = 30 * time.Minute
)

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithTTL sets the lifetime of newly created sessions.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithCleanupInterval sets how often expired sessions are swept.
func WithCleanupInterval(interval time.Duration) Option {
	return func(m *Manager) {
		if interval > 0 {
			m.cleanupInterval = interval
		}
	}
}

// Manager is an in-memory cookie session store. Sessions are not persisted;
// a restart logs everyone out.
type Manager struct {
	mu              sync.RWMutex
	sessions        map[uuid.UUID]Session
	ttl             time.Duration
	cleanupInterval time.Duration
	lastCleanup     time.Time
}

// NewManager creates a session manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		sessions:        make(map[uuid.UUID]Session),
		ttl:             defaultTTL,
		cleanupInterval: defaultCleanupInterval,
		lastCleanup:     time.Now(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateAdmin creates an admin session and returns it.
func (m *Manager) CreateAdmin() Session {
	return m.create(Session{ID: uuid.New(), Kind: KindAdmin})
}

// CreateUser creates a user session bound to an invitation code.
func (m *Manager) CreateUser(code string) Session {
	return m.create(Session{ID: uuid.New(), Kind: KindUser, Code: code})
}

func (m *Manager) create(s Session) Session {
	s.ValidUntil = time.Now().Add(m.ttl)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleanupLocked()
	m.sessions[s.ID] = s
	metrics.UpdateActiveSessions(len(m.sessions))
	return s
}

// Get returns the live session with the given id. Expired sessions are
// reported as ErrSessionExpired and removed lazily.
func (m *Manager) Get(id uuid.UUID) (Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok {
		return Session{}, ErrNoSession
	}
	if s.Expired() {
		m.Delete(id)
		return Session{}, ErrSessionExpired
	}
	return s, nil
}

// Delete removes a session, e.g. on logout.
func (m *Manager) Delete(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	metrics.UpdateActiveSessions(len(m.sessions))
}

// Len returns the number of stored sessions, expired ones included.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// cleanupLocked sweeps expired sessions at most once per cleanup interval.
// Callers must hold the write lock.
func (m *Manager) cleanupLocked() {
	now := time.Now()
	if now.Sub(m.lastCleanup) < m.cleanupInterval {
		return
	}
	m.lastCleanup = now
	for id, s := range m.sessions {
		if !s.ValidUntil.After(now) {
			delete(m.sessions, id)
		}
	}
}
