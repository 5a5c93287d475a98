package session

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/skynet2/spending-dashboard/pkg/common"
	"github.com/skynet2/spending-dashboard/pkg/database"
)

const DefaultMaxAgeDays = 30

type Config struct {
	Store Store
	Keys  common.Keys
	Now   func() time.Time
}

// Manager owns the import sessions, the active session pointer and the
// session numbering counter. Every mutation persists the full state.
type Manager struct {
	store Store
	keys  common.Keys
	now   func() time.Time

	// serializes each mutation with the delivery of its events
	emitMut sync.Mutex

	mut           sync.Mutex
	state         database.ManagerState
	loaded        bool
	subscriptions []subscription
	lastSubID     int
}

func NewManager(cfg *Config) *Manager {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Manager{
		store: cfg.Store,
		keys:  cfg.Keys,
		now:   now,
		state: emptyState(),
	}
}

func emptyState() database.ManagerState {
	return database.ManagerState{
		NextSessionNumber: 1,
	}
}

// Init hydrates the state from storage and announces the restored active
// session to the listeners.
func (m *Manager) Init(ctx context.Context) {
	m.emitMut.Lock()
	defer m.emitMut.Unlock()

	m.mut.Lock()
	m.loaded = false
	m.ensureLoaded(ctx)
	active := m.activeID()
	m.mut.Unlock()

	if active != "" {
		m.emit(ctx, []event{activeChanged("", active)})
	}
}

// Dispose persists the current state and drops every listener.
func (m *Manager) Dispose(ctx context.Context) {
	m.mut.Lock()
	defer m.mut.Unlock()

	if m.loaded {
		m.persist(ctx)
	}

	m.subscriptions = nil
}

func (m *Manager) ensureLoaded(ctx context.Context) {
	if m.loaded {
		return
	}

	m.loaded = true
	m.state = emptyState()

	raw, ok, err := m.store.Get(ctx, m.keys.ImportManager())
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to read import sessions, starting empty")
		return
	}

	if !ok {
		return
	}

	var state database.ManagerState
	if err = json.Unmarshal([]byte(raw), &state); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("malformed import sessions record, starting empty")
		return
	}

	m.state = repairState(state)
}

func repairState(state database.ManagerState) database.ManagerState {
	state.Sessions = lo.Filter(state.Sessions, func(s *database.ImportSession, _ int) bool {
		return s != nil && s.ID != ""
	})

	if state.NextSessionNumber < 1 {
		state.NextSessionNumber = len(state.Sessions) + 1
	}

	activeID := ""
	if state.ActiveSessionID != nil {
		activeID = *state.ActiveSessionID
	}

	if _, ok := lo.Find(state.Sessions, func(s *database.ImportSession) bool { return s.ID == activeID }); !ok {
		activeID = ""

		if flagged, found := lo.Find(state.Sessions, func(s *database.ImportSession) bool { return s.IsActive }); found {
			activeID = flagged.ID
		} else if recent := mostRecentlyAccessed(state.Sessions); recent != nil {
			activeID = recent.ID
		}
	}

	for _, s := range state.Sessions {
		s.IsActive = s.ID == activeID
	}

	state.ActiveSessionID = nil
	if activeID != "" {
		state.ActiveSessionID = &activeID
	}

	return state
}

func (m *Manager) persist(ctx context.Context) {
	b, err := json.Marshal(m.state)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to serialize import sessions")
		return
	}

	if err = m.store.Set(ctx, m.keys.ImportManager(), string(b)); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to persist import sessions")
	}
}

func (m *Manager) activeID() string {
	if m.state.ActiveSessionID == nil {
		return ""
	}

	return *m.state.ActiveSessionID
}

func (m *Manager) setActive(id string) {
	for _, s := range m.state.Sessions {
		s.IsActive = false
	}

	if id == "" {
		m.state.ActiveSessionID = nil
		return
	}

	for _, s := range m.state.Sessions {
		if s.ID == id {
			s.IsActive = true
		}
	}

	m.state.ActiveSessionID = &id
}

func (m *Manager) find(id string) (*database.ImportSession, int) {
	for i, s := range m.state.Sessions {
		if s.ID == id {
			return s, i
		}
	}

	return nil, -1
}

// mostRecentlyAccessed keeps the first session on equal access dates.
func mostRecentlyAccessed(sessions []*database.ImportSession) *database.ImportSession {
	if len(sessions) == 0 {
		return nil
	}

	return lo.Reduce(sessions[1:], func(best *database.ImportSession, s *database.ImportSession, _ int) *database.ImportSession {
		if s.LastAccessDate.After(best.LastAccessDate) {
			return s
		}

		return best
	}, sessions[0])
}

func baseFileName(originalFileName string) string {
	trimmed := strings.TrimSpace(originalFileName)
	if trimmed == "" {
		return ""
	}

	return filepath.Base(trimmed)
}

func sessionName(number int, originalFileName string) string {
	base := baseFileName(originalFileName)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	if stem == "" || stem == "." {
		return fmt.Sprintf("Import %d", number)
	}

	return fmt.Sprintf("Import %d - %s", number, stem)
}

func (m *Manager) CreateSession(
	ctx context.Context,
	result *database.CsvAnalysisResult,
	originalFileName string,
) string {
	m.emitMut.Lock()
	defer m.emitMut.Unlock()

	m.mut.Lock()
	m.ensureLoaded(ctx)

	previous := m.activeID()
	now := m.now()
	number := m.state.NextSessionNumber

	newSession := &database.ImportSession{
		ID:               uuid.NewString(),
		Name:             sessionName(number, originalFileName),
		FileName:         baseFileName(originalFileName),
		OriginalFileName: originalFileName,
		UploadDate:       now,
		LastAccessDate:   now,
		AnalysisResult:   result.Clone(),
	}

	m.state.Sessions = append(m.state.Sessions, newSession)
	m.setActive(newSession.ID)
	m.state.NextSessionNumber = number + 1

	m.persist(ctx)
	m.mut.Unlock()

	m.emit(ctx, []event{activeChanged(previous, newSession.ID)})

	return newSession.ID
}

func (m *Manager) SwitchToSession(ctx context.Context, id string) bool {
	m.emitMut.Lock()
	defer m.emitMut.Unlock()

	m.mut.Lock()
	m.ensureLoaded(ctx)

	target, _ := m.find(id)
	if target == nil {
		m.mut.Unlock()
		zerolog.Ctx(ctx).Warn().Str("session_id", id).Msg("cannot switch to unknown session")

		return false
	}

	previous := m.activeID()

	m.setActive(id)
	target.LastAccessDate = m.now()

	m.persist(ctx)
	m.mut.Unlock()

	if previous != id {
		m.emit(ctx, []event{activeChanged(previous, id)})
	}

	return true
}

func (m *Manager) DeleteSession(ctx context.Context, id string) bool {
	m.emitMut.Lock()
	defer m.emitMut.Unlock()

	m.mut.Lock()
	m.ensureLoaded(ctx)

	_, idx := m.find(id)
	if idx < 0 {
		m.mut.Unlock()
		return false
	}

	previous := m.activeID()
	m.state.Sessions = append(m.state.Sessions[:idx], m.state.Sessions[idx+1:]...)

	var events []event

	if previous == id {
		next := ""
		if recent := mostRecentlyAccessed(m.state.Sessions); recent != nil {
			next = recent.ID
		}

		m.setActive(next)
		events = append(events, activeChanged(previous, next))
	}

	events = append(events, deleted(id))

	m.persist(ctx)
	m.mut.Unlock()

	m.emit(ctx, events)

	return true
}

func (m *Manager) RenameSession(ctx context.Context, id string, newName string) bool {
	newName = strings.TrimSpace(newName)

	m.mut.Lock()
	defer m.mut.Unlock()

	m.ensureLoaded(ctx)

	target, _ := m.find(id)
	if target == nil || newName == "" {
		return false
	}

	target.Name = newName
	m.persist(ctx)

	return true
}

func (m *Manager) DuplicateSession(ctx context.Context, id string) (string, bool) {
	m.mut.Lock()
	defer m.mut.Unlock()

	m.ensureLoaded(ctx)

	source, _ := m.find(id)
	if source == nil {
		return "", false
	}

	now := m.now()
	copied := &database.ImportSession{
		ID:               uuid.NewString(),
		Name:             source.Name + " (copy)",
		FileName:         source.FileName,
		OriginalFileName: source.OriginalFileName,
		UploadDate:       now,
		LastAccessDate:   now,
		IsActive:         false,
		AnalysisResult:   source.AnalysisResult.Clone(),
	}

	m.state.Sessions = append(m.state.Sessions, copied)
	m.persist(ctx)

	return copied.ID, true
}

// CleanOldSessions drops sessions not accessed within maxAgeDays. The active
// session is treated like any other.
func (m *Manager) CleanOldSessions(ctx context.Context, maxAgeDays int) int {
	if maxAgeDays <= 0 {
		maxAgeDays = DefaultMaxAgeDays
	}

	m.emitMut.Lock()
	defer m.emitMut.Unlock()

	m.mut.Lock()
	m.ensureLoaded(ctx)

	cutoff := m.now().Add(-time.Duration(maxAgeDays) * 24 * time.Hour)

	stale, kept := lo.FilterReject(m.state.Sessions, func(s *database.ImportSession, _ int) bool {
		return s.LastAccessDate.Before(cutoff)
	})

	if len(stale) == 0 {
		m.mut.Unlock()
		return 0
	}

	previous := m.activeID()
	m.state.Sessions = kept

	var events []event

	if _, idx := m.find(previous); previous != "" && idx < 0 {
		next := ""
		if recent := mostRecentlyAccessed(kept); recent != nil {
			next = recent.ID
		}

		m.setActive(next)
		events = append(events, activeChanged(previous, next))
	}

	for _, s := range stale {
		events = append(events, deleted(s.ID))
	}

	m.persist(ctx)
	m.mut.Unlock()

	zerolog.Ctx(ctx).Info().Int("removed", len(stale)).Msg("cleaned old import sessions")

	m.emit(ctx, events)

	return len(stale)
}

func (m *Manager) Sessions(ctx context.Context) []*database.ImportSession {
	m.mut.Lock()
	defer m.mut.Unlock()

	m.ensureLoaded(ctx)

	return lo.Map(m.state.Sessions, func(s *database.ImportSession, _ int) *database.ImportSession {
		return s.Clone()
	})
}

// SessionsByRecency returns the sessions most recently accessed first.
func (m *Manager) SessionsByRecency(ctx context.Context) []*database.ImportSession {
	sessions := m.Sessions(ctx)

	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].LastAccessDate.After(sessions[j].LastAccessDate)
	})

	return sessions
}

func (m *Manager) Session(ctx context.Context, id string) (*database.ImportSession, bool) {
	m.mut.Lock()
	defer m.mut.Unlock()

	m.ensureLoaded(ctx)

	target, _ := m.find(id)
	if target == nil {
		return nil, false
	}

	return target.Clone(), true
}

func (m *Manager) HasSession(ctx context.Context, id string) bool {
	if id == "" {
		return false
	}

	m.mut.Lock()
	defer m.mut.Unlock()

	m.ensureLoaded(ctx)

	target, _ := m.find(id)

	return target != nil
}

func (m *Manager) ActiveSessionID(ctx context.Context) string {
	m.mut.Lock()
	defer m.mut.Unlock()

	m.ensureLoaded(ctx)

	return m.activeID()
}

func (m *Manager) ActiveSession(ctx context.Context) (*database.ImportSession, bool) {
	m.mut.Lock()
	defer m.mut.Unlock()

	m.ensureLoaded(ctx)

	target, _ := m.find(m.activeID())
	if target == nil {
		return nil, false
	}

	return target.Clone(), true
}

func (m *Manager) NextSessionNumber(ctx context.Context) int {
	m.mut.Lock()
	defer m.mut.Unlock()

	m.ensureLoaded(ctx)

	return m.state.NextSessionNumber
}
