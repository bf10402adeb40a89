// Package repository persists the registration aggregate as a single JSON
// state file and guards it behind one coarse read/write lock. Allocation runs
// inside a Mutate critical section, so nothing can observe a half-allocated
// event.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mahsan/gather/internal/auth"
	"github.com/mahsan/gather/internal/domain/model"
	"github.com/mahsan/gather/pkg/logger"
	"github.com/mahsan/gather/pkg/metrics"
)

// initialAdminUsername is the account generated on first startup.
const initialAdminUsername = "admin"

// Storage is the persisted aggregate: everything the service knows lives in
// this one document.
type Storage struct {
	Events      map[uuid.UUID]*model.Event     `json:"events"`
	Invitations map[string]*model.Invitation   `json:"invitation_codes"`
	Admins      map[string]*model.AdminAccount `json:"admins"`
}

// NewStorage creates an empty aggregate.
func NewStorage() *Storage {
	return &Storage{
		Events:      map[uuid.UUID]*model.Event{},
		Invitations: map[string]*model.Invitation{},
		Admins:      map[string]*model.AdminAccount{},
	}
}

// Store owns the aggregate and its file. Load reads it from disk,
// Mutate/View run callbacks under the store lock, Save writes atomically.
type Store struct {
	mu   sync.RWMutex
	data *Storage
	path string
	log  logger.Logger
}

// NewStore creates a store with default configuration. Call Load before use.
func NewStore(opts ...Option) *Store {
	s := &Store{
		data: NewStorage(),
		path: "data/state.json",
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Get()
	}
	return s
}

// Load reads the state file, falling back to a fresh aggregate when the file
// is missing or unparseable. When no admin account exists yet it generates
// one with a random password, persists immediately and prints the credentials
// once to stderr.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	switch {
	case os.IsNotExist(err):
		s.data = NewStorage()
	case err != nil:
		return fmt.Errorf("%w: %w", ErrLoadState, err)
	default:
		var storage Storage
		if uerr := json.Unmarshal(raw, &storage); uerr != nil {
			s.log.Error(ctx, "state file unparseable, starting fresh",
				logger.String("path", s.path), logger.Error(uerr))
			s.data = NewStorage()
		} else {
			if storage.Events == nil {
				storage.Events = map[uuid.UUID]*model.Event{}
			}
			if storage.Invitations == nil {
				storage.Invitations = map[string]*model.Invitation{}
			}
			if storage.Admins == nil {
				storage.Admins = map[string]*model.AdminAccount{}
			}
			s.data = &storage
		}
	}

	if len(s.data.Admins) == 0 {
		if err := s.generateInitialAdminLocked(ctx); err != nil {
			s.log.Error(ctx, "failed to generate initial admin credentials", logger.Error(err))
		}
	}
	return nil
}

// Save writes the aggregate to the state file atomically (temp file plus
// rename) under the read lock.
func (s *Store) Save(ctx context.Context) error {
	s.mu.RLock()
	raw, err := json.MarshalIndent(s.data, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		metrics.RecordStateSaveError()
		return fmt.Errorf("%w: %w", ErrSaveState, err)
	}

	start := time.Now()
	if err := s.writeAtomic(raw); err != nil {
		metrics.RecordStateSaveError()
		return err
	}
	metrics.RecordStateSave(float64(time.Since(start).Milliseconds()))
	s.log.Debug(ctx, "state saved", logger.String("path", s.path))
	return nil
}

func (s *Store) writeAtomic(raw []byte) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("%w: %w", ErrSaveState, err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("%w: %w", ErrSaveState, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("%w: %w", ErrSaveState, err)
	}
	return nil
}

// StartAutosave launches a background goroutine that saves on a ticker until
// ctx is canceled.
func (s *Store) StartAutosave(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.Save(ctx); err != nil {
					s.log.Error(ctx, "autosave failed", logger.Error(err))
				}
			}
		}
	}()
}

// View runs fn with shared read access to the aggregate. fn must not retain
// references past its return.
func (s *Store) View(fn func(*Storage) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.data)
}

// Mutate runs fn with exclusive write access to the aggregate. The whole
// allocation run happens inside one Mutate call.
func (s *Store) Mutate(fn func(*Storage) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

// generateInitialAdminLocked creates the first admin account with a random
// 64-hex-char password, persists the state immediately so the credentials
// survive a crash, and prints them once to stderr. Callers hold the write
// lock.
func (s *Store) generateInitialAdminLocked(ctx context.Context) error {
	password := strings.ReplaceAll(uuid.New().String()+uuid.New().String(), "-", "")
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	s.data.Admins[initialAdminUsername] = &model.AdminAccount{
		Username:     initialAdminUsername,
		PasswordHash: hash,
	}

	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSaveState, err)
	}
	if err := s.writeAtomic(raw); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr,
		"Initial admin credentials generated.\nUsername: %s\nPassword: %s\nNOTE: store this password securely, it will not be printed again.\n",
		initialAdminUsername, password)
	s.log.Info(ctx, "initial admin account generated", logger.String("username", initialAdminUsername))
	return nil
}
