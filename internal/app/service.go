// Package service provides the core business service that implements the
// dependencies required by the HTTP API: event administration, invitation
// handling, preference submission and the allocation trigger.
package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mahsan/gather/internal/adapters/repository"
	"github.com/mahsan/gather/internal/auth"
	"github.com/mahsan/gather/internal/domain/allocation"
	"github.com/mahsan/gather/internal/domain/model"
	"github.com/mahsan/gather/internal/domain/types"
	"github.com/mahsan/gather/pkg/logger"
	"github.com/mahsan/gather/pkg/metrics"
)

// Default service configuration.
const (
	defaultStatePath        = "data/state.json"
	defaultAutosaveInterval = 30 * time.Second
	defaultSessionTTL       = 24 * time.Hour
	defaultMaxSeats         = 10_000
	defaultMaxBulkInvites   = 1_000
)

// Service implements the API dependencies for the registration system.
type Service struct {
	mu sync.Mutex

	store     *repository.Store
	sessions  *auth.Manager
	allocator *allocation.Allocator

	statePath        string
	autosaveInterval time.Duration
	sessionTTL       time.Duration
	maxSeats         int
	maxBulkInvites   int

	started    bool
	cancelSave context.CancelFunc

	log logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStatePath sets the JSON state file path.
func WithStatePath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.statePath = path
		}
	}
}

// WithAutosaveInterval sets how often the state is flushed to disk.
func WithAutosaveInterval(interval time.Duration) Option {
	return func(s *Service) {
		if interval > 0 {
			s.autosaveInterval = interval
		}
	}
}

// WithSessionTTL sets the lifetime of login cookie sessions.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

// WithMaxSeats caps the seat count accepted by session CRUD.
func WithMaxSeats(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxSeats = n
		}
	}
}

// WithMaxBulkInvites caps the number of codes accepted per invite upload.
func WithMaxBulkInvites(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxBulkInvites = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		statePath:        defaultStatePath,
		autosaveInterval: defaultAutosaveInterval,
		sessionTTL:       defaultSessionTTL,
		maxSeats:         defaultMaxSeats,
		maxBulkInvites:   defaultMaxBulkInvites,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start loads state from disk and launches the autosave loop.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.log == nil {
		s.log = logger.Get()
	}

	s.store = repository.NewStore(
		repository.WithPath(s.statePath),
		repository.WithLogger(s.log),
	)
	if err := s.store.Load(ctx); err != nil {
		return err
	}
	s.sessions = auth.NewManager(auth.WithTTL(s.sessionTTL))
	s.allocator = allocation.New(allocation.WithLogger(s.log))

	saveCtx, cancel := context.WithCancel(context.Background())
	s.cancelSave = cancel
	s.store.StartAutosave(saveCtx, s.autosaveInterval)

	s.started = true
	s.log.Info(ctx, "registration service started",
		logger.String("state_path", s.statePath),
		logger.String("autosave_interval", s.autosaveInterval.String()),
	)
	s.refreshGauges()
	return nil
}

// Stop flushes the state to disk and stops background work.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	if s.cancelSave != nil {
		s.cancelSave()
	}
	if err := s.store.Save(ctx); err != nil {
		s.log.Error(ctx, "final state save failed", logger.Error(err))
	}
	s.started = false
	s.log.Info(ctx, "registration service stopped")
}

// --- auth -------------------------------------------------------------

// LoginAdmin verifies admin credentials and creates an admin session.
func (s *Service) LoginAdmin(ctx context.Context, username, password string) (auth.Session, error) {
	ok := false
	_ = s.store.View(func(st *repository.Storage) error {
		if acc, found := st.Admins[username]; found {
			ok = auth.VerifyPassword(password, acc.PasswordHash)
		}
		return nil
	})
	if !ok {
		s.log.Warn(ctx, "admin login rejected", logger.String("username", username))
		return auth.Session{}, ErrUnauthorized
	}
	return s.sessions.CreateAdmin(), nil
}

// LoginUser validates an invitation code and creates a user session.
func (s *Service) LoginUser(ctx context.Context, code string) (auth.Session, error) {
	valid := false
	_ = s.store.View(func(st *repository.Storage) error {
		_, valid = st.Invitations[code]
		return nil
	})
	if !valid {
		s.log.Warn(ctx, "invitation login rejected")
		return auth.Session{}, ErrUnauthorized
	}
	return s.sessions.CreateUser(code), nil
}

// Logout removes a session.
func (s *Service) Logout(_ context.Context, id uuid.UUID) {
	s.sessions.Delete(id)
}

// Session resolves a live session by id.
func (s *Service) Session(_ context.Context, id uuid.UUID) (auth.Session, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return auth.Session{}, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	return sess, nil
}

// --- admin: events ----------------------------------------------------

// ListEvents returns summaries of all events, sorted by name.
func (s *Service) ListEvents(_ context.Context) ([]types.EventSummary, error) {
	var out []types.EventSummary
	err := s.store.View(func(st *repository.Storage) error {
		for _, ev := range st.Events {
			out = append(out, types.EventSummary{
				ID:           ev.ID,
				Name:         ev.Name,
				Description:  ev.Description,
				State:        string(ev.State),
				Slots:        len(ev.Slots),
				Participants: len(ev.Participants),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// CreateEvent creates an event in its initial state.
func (s *Service) CreateEvent(ctx context.Context, name, description string) (uuid.UUID, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return uuid.Nil, fmt.Errorf("%w: event name must not be empty", ErrValidation)
	}
	ev := model.NewEvent(name, strings.TrimSpace(description))
	err := s.store.Mutate(func(st *repository.Storage) error {
		st.Events[ev.ID] = ev
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	s.log.Info(ctx, "event created", logger.String("event", ev.Name))
	s.refreshGauges()
	return ev.ID, nil
}

// GetEvent returns the admin detail view. Assigned participant names are only
// included once the event is finished.
func (s *Service) GetEvent(_ context.Context, id uuid.UUID) (types.AdminEventView, error) {
	var view types.AdminEventView
	err := s.store.View(func(st *repository.Storage) error {
		ev, ok := st.Events[id]
		if !ok {
			return fmt.Errorf("%w: event %s", ErrNotFound, id)
		}
		view = types.AdminEventView{
			ID:            ev.ID,
			Name:          ev.Name,
			Description:   ev.Description,
			State:         string(ev.State),
			Slots:         []types.SlotView{},
			InviteCodes:   []string{},
			CanDistribute: ev.State == model.StateOpenForRegistration,
			IsFinished:    ev.State == model.StateFinished,
		}
		for code, inv := range st.Invitations {
			if inv.EventID == id {
				view.InviteCodes = append(view.InviteCodes, code)
			}
		}
		sort.Strings(view.InviteCodes)
		for _, slot := range ev.Slots {
			sv := types.SlotView{
				ID:          slot.ID,
				Name:        slot.Name,
				Description: slot.Description,
				Sessions:    []types.SessionView{},
			}
			for _, sess := range slot.Sessions {
				ssv := types.SessionView{
					ID:          sess.ID,
					Name:        sess.Name,
					Description: sess.Description,
					Seats:       sess.Seats,
				}
				if view.IsFinished {
					for _, pid := range sess.Assigned {
						if p, found := ev.Participants[pid]; found {
							ssv.AssignedNames = append(ssv.AssignedNames, p.Name)
						}
					}
				}
				sv.Sessions = append(sv.Sessions, ssv)
			}
			view.Slots = append(view.Slots, sv)
		}
		return nil
	})
	return view, err
}

// DeleteEvent removes an event and its invitation codes.
func (s *Service) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	err := s.store.Mutate(func(st *repository.Storage) error {
		delete(st.Events, id)
		for code, inv := range st.Invitations {
			if inv.EventID == id {
				delete(st.Invitations, code)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info(ctx, "event deleted", logger.String("event_id", id.String()))
	s.refreshGauges()
	return nil
}

// SetEventState opens or closes registration. Only the reversible
// NotOpenedYet <-> OpenForRegistration edge (or a same-state no-op) is
// reachable through this operation; allocation owns the rest of the
// lifecycle.
func (s *Service) SetEventState(ctx context.Context, id uuid.UUID, state string) error {
	target := model.EventState(state)
	if target != model.StateNotOpenedYet && target != model.StateOpenForRegistration {
		return fmt.Errorf("%w: cannot set state %q directly", ErrValidation, state)
	}
	err := s.store.Mutate(func(st *repository.Storage) error {
		ev, ok := st.Events[id]
		if !ok {
			return fmt.Errorf("%w: event %s", ErrNotFound, id)
		}
		if err := ev.Transition(target); err != nil {
			return fmt.Errorf("%w: %w", ErrValidation, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info(ctx, "event state changed",
		logger.String("event_id", id.String()),
		logger.String("state", state),
	)
	return nil
}

// Distribute closes registration and runs the allocation engine for the
// event. The whole run executes inside the store's write lock, so no
// concurrent submission or admin edit can observe a half-allocated event.
// State is flushed to disk right after the run.
func (s *Service) Distribute(ctx context.Context, id uuid.UUID) error {
	err := s.store.Mutate(func(st *repository.Storage) error {
		ev, ok := st.Events[id]
		if !ok {
			return fmt.Errorf("%w: event %s", ErrNotFound, id)
		}
		return s.allocator.Run(ctx, ev)
	})
	if err != nil {
		return err
	}
	if err := s.store.Save(ctx); err != nil {
		s.log.Error(ctx, "state save after allocation failed", logger.Error(err))
	}
	s.log.Info(ctx, "event distributed", logger.String("event_id", id.String()))
	return nil
}

// --- admin: slots and sessions -----------------------------------------

// CreateSlot appends a slot to the event. Slot order fixes allocation order.
func (s *Service) CreateSlot(_ context.Context, eventID uuid.UUID, name, description string) (uuid.UUID, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return uuid.Nil, fmt.Errorf("%w: slot name must not be empty", ErrValidation)
	}
	slot := model.NewSlot(name, strings.TrimSpace(description))
	err := s.store.Mutate(func(st *repository.Storage) error {
		ev, ok := st.Events[eventID]
		if !ok {
			return fmt.Errorf("%w: event %s", ErrNotFound, eventID)
		}
		ev.Slots = append(ev.Slots, slot)
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return slot.ID, nil
}

// EditSlot renames a slot.
func (s *Service) EditSlot(_ context.Context, eventID, slotID uuid.UUID, name, description string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: slot name must not be empty", ErrValidation)
	}
	return s.store.Mutate(func(st *repository.Storage) error {
		slot, err := findSlot(st, eventID, slotID)
		if err != nil {
			return err
		}
		slot.Name = name
		slot.Description = strings.TrimSpace(description)
		return nil
	})
}

// DeleteSlot removes a slot and everything in it.
func (s *Service) DeleteSlot(_ context.Context, eventID, slotID uuid.UUID) error {
	return s.store.Mutate(func(st *repository.Storage) error {
		ev, ok := st.Events[eventID]
		if !ok {
			return fmt.Errorf("%w: event %s", ErrNotFound, eventID)
		}
		ev.RemoveSlot(slotID)
		return nil
	})
}

// CreateSession adds a session to a slot. Seat capacity must be in
// [1, maxSeats]: the allocation engine assumes seats >= 1.
func (s *Service) CreateSession(_ context.Context, eventID, slotID uuid.UUID, name, description string, seats int) (uuid.UUID, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return uuid.Nil, fmt.Errorf("%w: session name must not be empty", ErrValidation)
	}
	if seats < 1 || seats > s.maxSeats {
		return uuid.Nil, fmt.Errorf("%w: seats must be between 1 and %d", ErrValidation, s.maxSeats)
	}
	sess := model.NewSession(name, strings.TrimSpace(description), seats)
	err := s.store.Mutate(func(st *repository.Storage) error {
		slot, err := findSlot(st, eventID, slotID)
		if err != nil {
			return err
		}
		slot.Sessions = append(slot.Sessions, sess)
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return sess.ID, nil
}

// EditSession updates a session's name, description and capacity.
func (s *Service) EditSession(_ context.Context, eventID, slotID, sessionID uuid.UUID, name, description string, seats int) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: session name must not be empty", ErrValidation)
	}
	if seats < 1 || seats > s.maxSeats {
		return fmt.Errorf("%w: seats must be between 1 and %d", ErrValidation, s.maxSeats)
	}
	return s.store.Mutate(func(st *repository.Storage) error {
		slot, err := findSlot(st, eventID, slotID)
		if err != nil {
			return err
		}
		sess := slot.FindSession(sessionID)
		if sess == nil {
			return fmt.Errorf("%w: session %s", ErrNotFound, sessionID)
		}
		sess.Name = name
		sess.Description = strings.TrimSpace(description)
		sess.Seats = seats
		return nil
	})
}

// DeleteSession removes a session from a slot.
func (s *Service) DeleteSession(_ context.Context, eventID, slotID, sessionID uuid.UUID) error {
	return s.store.Mutate(func(st *repository.Storage) error {
		slot, err := findSlot(st, eventID, slotID)
		if err != nil {
			return err
		}
		slot.RemoveSession(sessionID)
		return nil
	})
}

// --- admin: invitations -------------------------------------------------

// AddInvites registers newline-separated invitation codes for an event.
// Blank lines and codes that already exist anywhere are skipped. Returns the
// number of codes added.
func (s *Service) AddInvites(ctx context.Context, eventID uuid.UUID, codes string) (int, error) {
	lines := strings.Split(codes, "\n")
	if len(lines) > s.maxBulkInvites {
		return 0, fmt.Errorf("%w: at most %d codes per upload", ErrValidation, s.maxBulkInvites)
	}
	added := 0
	err := s.store.Mutate(func(st *repository.Storage) error {
		if _, ok := st.Events[eventID]; !ok {
			return fmt.Errorf("%w: event %s", ErrNotFound, eventID)
		}
		for _, line := range lines {
			code := strings.TrimSpace(line)
			if code == "" {
				continue
			}
			if _, exists := st.Invitations[code]; exists {
				continue
			}
			st.Invitations[code] = &model.Invitation{Code: code, EventID: eventID}
			added++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	metrics.RecordInvitesIssued(added)
	s.log.Info(ctx, "invitation codes added",
		logger.String("event_id", eventID.String()),
		logger.Int("added", added),
	)
	return added, nil
}

// DeleteInvite removes an invitation code. When the invitee already
// registered, their participant entry, seats and applications are removed
// with it.
func (s *Service) DeleteInvite(_ context.Context, eventID uuid.UUID, code string) error {
	err := s.store.Mutate(func(st *repository.Storage) error {
		inv, ok := st.Invitations[code]
		if !ok || inv.EventID != eventID {
			return fmt.Errorf("%w: invitation", ErrNotFound)
		}
		if inv.ParticipantID != nil {
			if ev, found := st.Events[eventID]; found {
				ev.RemoveParticipant(*inv.ParticipantID)
			}
		}
		delete(st.Invitations, code)
		return nil
	})
	if err != nil {
		return err
	}
	s.refreshGauges()
	return nil
}

// --- user surface --------------------------------------------------------

// EventForCode returns the invitee's event view. On first visit it creates
// the participant and binds it to the invitation.
func (s *Service) EventForCode(_ context.Context, code string) (types.UserEventView, error) {
	var view types.UserEventView
	err := s.store.Mutate(func(st *repository.Storage) error {
		inv, ok := st.Invitations[code]
		if !ok {
			return fmt.Errorf("%w: invitation", ErrUnauthorized)
		}
		ev, ok := st.Events[inv.EventID]
		if !ok {
			return fmt.Errorf("%w: event %s", ErrNotFound, inv.EventID)
		}
		participant := ensureParticipant(ev, inv)

		view = types.UserEventView{
			EventID:         ev.ID,
			EventName:       ev.Name,
			Description:     ev.Description,
			State:           string(ev.State),
			IsOpen:          ev.State == model.StateOpenForRegistration,
			ParticipantID:   participant.ID,
			ParticipantName: participant.Name,
			Slots:           []types.UserSlotView{},
		}
		finished := ev.State == model.StateFinished
		for _, slot := range ev.Slots {
			usv := types.UserSlotView{
				ID:          slot.ID,
				Name:        slot.Name,
				Description: slot.Description,
				Sessions:    []types.UserSessionView{},
				Selection:   slotSelection(slot, participant.ID),
			}
			for _, sess := range slot.Sessions {
				v := types.UserSessionView{
					ID:          sess.ID,
					Name:        sess.Name,
					Description: sess.Description,
					Seats:       sess.Seats,
				}
				if finished {
					for _, pid := range sess.Assigned {
						if pid == participant.ID {
							v.Assigned = true
						}
					}
				}
				usv.Sessions = append(usv.Sessions, v)
			}
			view.Slots = append(view.Slots, usv)
		}
		return nil
	})
	return view, err
}

// SaveName sets the invitee's display name. A non-empty name is required
// before preferences can be submitted.
func (s *Service) SaveName(_ context.Context, code, name string) error {
	return s.store.Mutate(func(st *repository.Storage) error {
		inv, ok := st.Invitations[code]
		if !ok {
			return fmt.Errorf("%w: invitation", ErrUnauthorized)
		}
		ev, ok := st.Events[inv.EventID]
		if !ok {
			return fmt.Errorf("%w: event %s", ErrNotFound, inv.EventID)
		}
		participant := ensureParticipant(ev, inv)
		participant.Name = strings.TrimSpace(name)
		return nil
	})
}

// SavePreferences replaces the invitee's applications within one slot.
// The chosen sessions must be distinct and belong to the slot, the event must
// be open for registration, and the participant must have a name.
func (s *Service) SavePreferences(_ context.Context, code string, slotID uuid.UUID, first, second, third *uuid.UUID) error {
	picks := []*uuid.UUID{first, second, third}
	for i := 0; i < len(picks); i++ {
		for j := i + 1; j < len(picks); j++ {
			if picks[i] != nil && picks[j] != nil && *picks[i] == *picks[j] {
				return fmt.Errorf("%w: preferences must be distinct sessions", ErrValidation)
			}
		}
	}

	return s.store.Mutate(func(st *repository.Storage) error {
		inv, ok := st.Invitations[code]
		if !ok {
			return fmt.Errorf("%w: invitation", ErrUnauthorized)
		}
		ev, ok := st.Events[inv.EventID]
		if !ok {
			return fmt.Errorf("%w: event %s", ErrNotFound, inv.EventID)
		}
		if ev.State != model.StateOpenForRegistration {
			return fmt.Errorf("%w: registration is not open", ErrValidation)
		}
		if inv.ParticipantID == nil {
			return fmt.Errorf("%w: register a name first", ErrValidation)
		}
		participant, found := ev.Participants[*inv.ParticipantID]
		if !found || strings.TrimSpace(participant.Name) == "" {
			return fmt.Errorf("%w: register a name first", ErrValidation)
		}

		slot := ev.FindSlot(slotID)
		if slot == nil {
			return fmt.Errorf("%w: slot %s", ErrNotFound, slotID)
		}
		for _, pick := range picks {
			if pick != nil && slot.FindSession(*pick) == nil {
				return fmt.Errorf("%w: session %s does not belong to slot", ErrValidation, *pick)
			}
		}

		// Replace previous applications in this slot.
		for _, sess := range slot.Sessions {
			sess.RemoveApplicationsFor(participant.ID)
		}
		submit := func(pick *uuid.UUID, pref model.Preference) {
			if pick == nil {
				return
			}
			target := slot.FindSession(*pick)
			target.Applications = append(target.Applications,
				model.NewApplication(target.ID, participant.ID, pref))
		}
		submit(first, model.PreferenceFirst)
		submit(second, model.PreferenceSecond)
		submit(third, model.PreferenceThird)
		return nil
	})
}

// --- ops -----------------------------------------------------------------

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	if !s.started {
		return map[string]interface{}{"started": false}
	}
	stats := map[string]interface{}{
		"started":         s.started,
		"active_sessions": s.sessions.Len(),
	}
	events := 0
	participants := 0
	invites := 0
	_ = s.store.View(func(st *repository.Storage) error {
		events = len(st.Events)
		invites = len(st.Invitations)
		for _, ev := range st.Events {
			participants += len(ev.Participants)
		}
		return nil
	})
	stats["events"] = events
	stats["participants"] = participants
	stats["invitations"] = invites

	metrics.UpdateEventCount(events)
	metrics.UpdateParticipantCount(participants)
	return stats
}

// refreshGauges pushes current aggregate sizes to the metrics registry.
func (s *Service) refreshGauges() {
	events := 0
	participants := 0
	_ = s.store.View(func(st *repository.Storage) error {
		events = len(st.Events)
		for _, ev := range st.Events {
			participants += len(ev.Participants)
		}
		return nil
	})
	metrics.UpdateEventCount(events)
	metrics.UpdateParticipantCount(participants)
}

// findSlot resolves a slot within an event, mapping misses to ErrNotFound.
func findSlot(st *repository.Storage, eventID, slotID uuid.UUID) (*model.Slot, error) {
	ev, ok := st.Events[eventID]
	if !ok {
		return nil, fmt.Errorf("%w: event %s", ErrNotFound, eventID)
	}
	slot := ev.FindSlot(slotID)
	if slot == nil {
		return nil, fmt.Errorf("%w: slot %s", ErrNotFound, slotID)
	}
	return slot, nil
}

// ensureParticipant returns the participant bound to the invitation, creating
// and binding one on first contact.
func ensureParticipant(ev *model.Event, inv *model.Invitation) *model.Participant {
	if inv.ParticipantID != nil {
		if p, ok := ev.Participants[*inv.ParticipantID]; ok {
			return p
		}
	}
	p := model.NewParticipant()
	ev.Participants[p.ID] = p
	pid := p.ID
	inv.ParticipantID = &pid
	return p
}

// slotSelection extracts the participant's current picks within a slot.
func slotSelection(slot *model.Slot, participantID uuid.UUID) types.SlotSelection {
	var sel types.SlotSelection
	for _, sess := range slot.Sessions {
		for _, app := range sess.Applications {
			if app.ParticipantID != participantID {
				continue
			}
			id := sess.ID
			switch app.Preference {
			case model.PreferenceFirst:
				sel.First = &id
				sel.FirstName = sess.Name
			case model.PreferenceSecond:
				sel.Second = &id
				sel.SecondName = sess.Name
			case model.PreferenceThird:
				sel.Third = &id
				sel.ThirdName = sess.Name
			}
		}
	}
	return sel
}
