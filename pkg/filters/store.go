package filters

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/skynet2/spending-dashboard/pkg/common"
	"github.com/skynet2/spending-dashboard/pkg/database"
)

const DefaultFlushInterval = 300 * time.Millisecond

type Panel int

const (
	PanelExpenseFilters = Panel(iota)
	PanelIncomeFilters
	PanelJointAccount
	PanelCompensation
)

type Config struct {
	Store         Store
	Sessions      SessionLookup
	Keys          common.Keys
	FlushInterval time.Duration
}

// FilterStore holds the filter selections of one session at a time. Mutations
// only mark the store dirty; Flush and Run decide when they hit storage.
type FilterStore struct {
	store    Store
	sessions SessionLookup
	keys     common.Keys
	interval time.Duration

	mut       sync.Mutex
	sessionID string
	filters   database.PersistedFilters
	dirty     bool
}

func NewFilterStore(cfg *Config) *FilterStore {
	interval := cfg.FlushInterval
	if interval <= 0 {
		interval = DefaultFlushInterval
	}

	return &FilterStore{
		store:    cfg.Store,
		sessions: cfg.Sessions,
		keys:     cfg.Keys,
		interval: interval,
		filters:  database.DefaultFilters(),
	}
}

func (f *FilterStore) LoadFilters(ctx context.Context, sessionID string) bool {
	f.mut.Lock()
	defer f.mut.Unlock()

	return f.load(ctx, sessionID)
}

func (f *FilterStore) load(ctx context.Context, sessionID string) bool {
	raw, ok, err := f.store.Get(ctx, f.keys.Filters(sessionID))
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("session_id", sessionID).Msg("failed to read filters")
		return false
	}

	if !ok {
		return false
	}

	var loaded database.PersistedFilters
	if err = json.Unmarshal([]byte(raw), &loaded); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("session_id", sessionID).Msg("malformed filters record")
		return false
	}

	f.filters = loaded.Clone()

	return true
}

func (f *FilterStore) SaveFilters(ctx context.Context, sessionID string) {
	f.mut.Lock()
	defer f.mut.Unlock()

	if err := f.save(ctx, sessionID); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("session_id", sessionID).Msg("failed to save filters")
	}
}

func (f *FilterStore) save(ctx context.Context, sessionID string) error {
	b, err := json.Marshal(f.filters)
	if err != nil {
		return errors.WithStack(err)
	}

	return f.store.Set(ctx, f.keys.Filters(sessionID), string(b))
}

func (f *FilterStore) ResetFilters() {
	f.mut.Lock()
	defer f.mut.Unlock()

	f.filters = database.DefaultFilters()
}

func (f *FilterStore) DeleteFilters(ctx context.Context, sessionID string) {
	if err := f.store.Remove(ctx, f.keys.Filters(sessionID)); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("session_id", sessionID).Msg("failed to delete filters")
	}
}

// ActiveSessionChanged saves the outgoing session's filters and swaps in the
// incoming ones, falling back to defaults.
func (f *FilterStore) ActiveSessionChanged(ctx context.Context, _ string, next string) {
	f.mut.Lock()
	defer f.mut.Unlock()

	if outgoing := f.sessionID; outgoing != "" && f.sessions.HasSession(ctx, outgoing) {
		if err := f.save(ctx, outgoing); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("session_id", outgoing).Msg("failed to save outgoing filters")
		}
	}

	f.sessionID = next
	f.dirty = false

	if next == "" || !f.load(ctx, next) {
		f.filters = database.DefaultFilters()
	}
}

func (f *FilterStore) SessionDeleted(ctx context.Context, sessionID string) {
	f.DeleteFilters(ctx, sessionID)
}

// Flush persists pending changes when the owning session still exists.
func (f *FilterStore) Flush(ctx context.Context) bool {
	f.mut.Lock()
	defer f.mut.Unlock()

	if !f.dirty {
		return false
	}

	if f.sessionID == "" || !f.sessions.HasSession(ctx, f.sessionID) {
		f.dirty = false
		return false
	}

	if err := f.save(ctx, f.sessionID); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("session_id", f.sessionID).Msg("failed to flush filters")
		return false
	}

	f.dirty = false

	return true
}

// Run flushes on a fixed interval until ctx is done, then flushes once more.
func (f *FilterStore) Run(ctx context.Context) {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			f.Flush(context.WithoutCancel(ctx))
			return
		case <-ticker.C:
			f.Flush(ctx)
		}
	}
}

func (f *FilterStore) SessionID() string {
	f.mut.Lock()
	defer f.mut.Unlock()

	return f.sessionID
}

func (f *FilterStore) IsDirty() bool {
	f.mut.Lock()
	defer f.mut.Unlock()

	return f.dirty
}

func (f *FilterStore) Filters() database.PersistedFilters {
	f.mut.Lock()
	defer f.mut.Unlock()

	return f.filters.Clone()
}

func (f *FilterStore) update(fn func(filters *database.PersistedFilters)) {
	f.mut.Lock()
	defer f.mut.Unlock()

	fn(&f.filters)
	f.dirty = true
}

func (f *FilterStore) Replace(filters database.PersistedFilters) {
	f.update(func(current *database.PersistedFilters) {
		*current = filters.Clone()
	})
}

func (f *FilterStore) SetSelectedExpenseCategories(categories []string) {
	f.update(func(filters *database.PersistedFilters) {
		filters.SelectedExpenseCategories = normalizeNames(categories)
	})
}

func (f *FilterStore) ToggleExpenseCategory(category string) {
	f.update(func(filters *database.PersistedFilters) {
		filters.SelectedExpenseCategories = toggle(filters.SelectedExpenseCategories, category)
	})
}

func (f *FilterStore) SetSelectedIncomeCategories(categories []string) {
	f.update(func(filters *database.PersistedFilters) {
		filters.SelectedIncomeCategories = normalizeNames(categories)
	})
}

func (f *FilterStore) ToggleIncomeCategory(category string) {
	f.update(func(filters *database.PersistedFilters) {
		filters.SelectedIncomeCategories = toggle(filters.SelectedIncomeCategories, category)
	})
}

func (f *FilterStore) SetJointAccountCategories(categories []string) {
	f.update(func(filters *database.PersistedFilters) {
		filters.JointAccountCategories = normalizeNames(categories)
	})
}

func (f *FilterStore) ToggleJointAccountCategory(category string) {
	f.update(func(filters *database.PersistedFilters) {
		filters.JointAccountCategories = toggle(filters.JointAccountCategories, category)
	})
}

// AddCompensationRule replaces an existing rule for the same category pair.
func (f *FilterStore) AddCompensationRule(rule database.CompensationRule) error {
	rule.ExpenseCategory = strings.TrimSpace(rule.ExpenseCategory)
	rule.IncomeCategory = strings.TrimSpace(rule.IncomeCategory)

	if rule.ExpenseCategory == "" || rule.IncomeCategory == "" {
		return errors.Wrap(common.ErrInvalidName, "compensation rule needs both categories")
	}

	if rule.AffectedAmount.IsNegative() {
		return common.ErrInvalidAmount
	}

	f.update(func(filters *database.PersistedFilters) {
		_, idx, found := lo.FindIndexOf(filters.CompensationRules, func(r database.CompensationRule) bool {
			return r.ExpenseCategory == rule.ExpenseCategory && r.IncomeCategory == rule.IncomeCategory
		})
		if found {
			filters.CompensationRules[idx] = rule
			return
		}

		filters.CompensationRules = append(filters.CompensationRules, rule)
	})

	return nil
}

func (f *FilterStore) RemoveCompensationRule(index int) bool {
	f.mut.Lock()
	defer f.mut.Unlock()

	if index < 0 || index >= len(f.filters.CompensationRules) {
		return false
	}

	f.filters.CompensationRules = append(
		append([]database.CompensationRule{}, f.filters.CompensationRules[:index]...),
		f.filters.CompensationRules[index+1:]...,
	)
	f.dirty = true

	return true
}

func (f *FilterStore) SetSelectedMonths(months []string) {
	f.update(func(filters *database.PersistedFilters) {
		filters.SelectedMonths = normalizeNames(months)
	})
}

func (f *FilterStore) SetPanelVisibility(panel Panel, visible bool) {
	f.update(func(filters *database.PersistedFilters) {
		switch panel {
		case PanelExpenseFilters:
			filters.ShowExpenseFilters = visible
		case PanelIncomeFilters:
			filters.ShowIncomeFilters = visible
		case PanelJointAccount:
			filters.ShowJointAccountPanel = visible
		case PanelCompensation:
			filters.ShowCompensationPanel = visible
		}
	})
}

func normalizeNames(values []string) []string {
	out := lo.Uniq(lo.FilterMap(values, func(v string, _ int) (string, bool) {
		v = strings.TrimSpace(v)
		return v, v != ""
	}))

	if out == nil {
		return []string{}
	}

	return out
}

func toggle(values []string, value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return values
	}

	if lo.Contains(values, value) {
		return lo.Without(values, value)
	}

	return append(append([]string{}, values...), value)
}
