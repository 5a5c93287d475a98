package filters_test

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/skynet2/spending-dashboard/pkg/common"
	"github.com/skynet2/spending-dashboard/pkg/database"
	"github.com/skynet2/spending-dashboard/pkg/filters"
	"github.com/skynet2/spending-dashboard/pkg/repo"
	"github.com/skynet2/spending-dashboard/pkg/session"
)

var keys = common.NewKeys("test")

type fixture struct {
	store    *repo.Memory
	sessions *session.Manager
	filters  *filters.FilterStore
}

func newFixture() *fixture {
	store := repo.NewMemory()
	sessions := session.NewManager(&session.Config{
		Store: store,
		Keys:  keys,
	})

	f := &fixture{
		store:    store,
		sessions: sessions,
		filters: filters.NewFilterStore(&filters.Config{
			Store:    store,
			Sessions: sessions,
			Keys:     keys,
		}),
	}

	sessions.Subscribe(f.filters)

	return f
}

func sampleFilters() database.PersistedFilters {
	return database.PersistedFilters{
		SelectedExpenseCategories: []string{"Food", "Rent"},
		SelectedIncomeCategories:  []string{"Salary"},
		JointAccountCategories:    []string{"Rent"},
		CompensationRules: []database.CompensationRule{
			{ExpenseCategory: "Health", IncomeCategory: "Insurance", AffectedAmount: decimal.RequireFromString("42.5")},
		},
		SelectedMonths:        []string{"01/2024", "02/2024"},
		ShowExpenseFilters:    true,
		ShowCompensationPanel: true,
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := repo.NewMemory()

	lookup := session.NewManager(&session.Config{Store: store, Keys: keys})

	first := filters.NewFilterStore(&filters.Config{Store: store, Sessions: lookup, Keys: keys})
	first.Replace(sampleFilters())
	first.SaveFilters(ctx, "session-1")

	fresh := filters.NewFilterStore(&filters.Config{Store: store, Sessions: lookup, Keys: keys})
	assert.True(t, fresh.LoadFilters(ctx, "session-1"))
	assert.Equal(t, first.Filters(), fresh.Filters())
	assert.Equal(t, sampleFilters(), fresh.Filters())
}

func TestLoadFilters_Missing(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.filters.SetSelectedMonths([]string{"03/2024"})

	assert.False(t, f.filters.LoadFilters(ctx, "missing"))
	assert.Equal(t, []string{"03/2024"}, f.filters.Filters().SelectedMonths)
}

func TestLoadFilters_Malformed(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	assert.NoError(t, f.store.Set(ctx, keys.Filters("broken"), "{oops"))

	assert.False(t, f.filters.LoadFilters(ctx, "broken"))
	assert.Equal(t, database.DefaultFilters(), f.filters.Filters())
}

func TestResetFilters(t *testing.T) {
	f := newFixture()

	f.filters.Replace(sampleFilters())
	f.filters.ResetFilters()

	assert.Equal(t, database.DefaultFilters(), f.filters.Filters())
}

func TestDeleteFilters(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.filters.Replace(sampleFilters())
	f.filters.SaveFilters(ctx, "s1")
	f.filters.DeleteFilters(ctx, "s1")

	_, ok, err := f.store.Get(ctx, keys.Filters("s1"))
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestSwitchingSessionsSwapsFilters(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	a := f.sessions.CreateSession(ctx, &database.CsvAnalysisResult{}, "a.csv")
	assert.Equal(t, a, f.filters.SessionID())
	assert.Equal(t, database.DefaultFilters(), f.filters.Filters())

	f.filters.SetSelectedExpenseCategories([]string{"Food"})

	b := f.sessions.CreateSession(ctx, &database.CsvAnalysisResult{}, "b.csv")
	assert.Equal(t, b, f.filters.SessionID())
	assert.Equal(t, database.DefaultFilters(), f.filters.Filters())
	assert.False(t, f.filters.IsDirty())

	f.filters.SetSelectedExpenseCategories([]string{"Rent"})

	assert.True(t, f.sessions.SwitchToSession(ctx, a))
	assert.Equal(t, []string{"Food"}, f.filters.Filters().SelectedExpenseCategories)

	assert.True(t, f.sessions.SwitchToSession(ctx, b))
	assert.Equal(t, []string{"Rent"}, f.filters.Filters().SelectedExpenseCategories)
}

func TestDeletingSessionRemovesItsFilters(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	a := f.sessions.CreateSession(ctx, &database.CsvAnalysisResult{}, "a.csv")
	f.filters.SetSelectedMonths([]string{"01/2024"})

	b := f.sessions.CreateSession(ctx, &database.CsvAnalysisResult{}, "b.csv")
	f.filters.SetSelectedMonths([]string{"02/2024"})
	assert.True(t, f.filters.Flush(ctx))

	assert.True(t, f.sessions.DeleteSession(ctx, b))

	_, ok, _ := f.store.Get(ctx, keys.Filters(b))
	assert.False(t, ok)

	assert.Equal(t, a, f.filters.SessionID())
	assert.Equal(t, []string{"01/2024"}, f.filters.Filters().SelectedMonths)

	assert.True(t, f.sessions.DeleteSession(ctx, a))

	leftovers, err := f.store.Keys(ctx, keys.FiltersPrefix())
	assert.NoError(t, err)
	assert.Empty(t, leftovers)
	assert.Equal(t, "", f.filters.SessionID())
}

func TestFlush(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	assert.False(t, f.filters.Flush(ctx))

	a := f.sessions.CreateSession(ctx, &database.CsvAnalysisResult{}, "a.csv")

	f.filters.ToggleIncomeCategory("Salary")
	f.filters.ToggleIncomeCategory("Gifts")
	f.filters.ToggleIncomeCategory("Salary")
	assert.True(t, f.filters.IsDirty())

	_, ok, _ := f.store.Get(ctx, keys.Filters(a))
	assert.False(t, ok)

	assert.True(t, f.filters.Flush(ctx))
	assert.False(t, f.filters.IsDirty())
	assert.False(t, f.filters.Flush(ctx))

	fresh := filters.NewFilterStore(&filters.Config{Store: f.store, Sessions: f.sessions, Keys: keys})
	assert.True(t, fresh.LoadFilters(ctx, a))
	assert.Equal(t, []string{"Gifts"}, fresh.Filters().SelectedIncomeCategories)
}

func TestFlush_SkipsWithoutSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.filters.SetSelectedMonths([]string{"01/2024"})

	assert.False(t, f.filters.Flush(ctx))
	assert.False(t, f.filters.IsDirty())

	keysLeft, _ := f.store.Keys(ctx, keys.FiltersPrefix())
	assert.Empty(t, keysLeft)
}

func TestRun_FlushesOnShutdown(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())

	a := f.sessions.CreateSession(ctx, &database.CsvAnalysisResult{}, "a.csv")
	f.filters.SetPanelVisibility(filters.PanelJointAccount, true)

	done := make(chan struct{})
	go func() {
		f.filters.Run(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop")
	}

	fresh := filters.NewFilterStore(&filters.Config{Store: f.store, Sessions: f.sessions, Keys: keys})
	assert.True(t, fresh.LoadFilters(context.Background(), a))
	assert.True(t, fresh.Filters().ShowJointAccountPanel)
}

func TestCompensationRules(t *testing.T) {
	f := newFixture()

	assert.Error(t, f.filters.AddCompensationRule(database.CompensationRule{ExpenseCategory: "Health"}))
	assert.ErrorIs(t, f.filters.AddCompensationRule(database.CompensationRule{
		ExpenseCategory: "Health",
		IncomeCategory:  "Insurance",
		AffectedAmount:  decimal.NewFromInt(-1),
	}), common.ErrInvalidAmount)

	assert.NoError(t, f.filters.AddCompensationRule(database.CompensationRule{
		ExpenseCategory: "Health",
		IncomeCategory:  "Insurance",
		AffectedAmount:  decimal.NewFromInt(10),
	}))
	assert.NoError(t, f.filters.AddCompensationRule(database.CompensationRule{
		ExpenseCategory: " Health ",
		IncomeCategory:  "Insurance",
		AffectedAmount:  decimal.NewFromInt(20),
	}))

	rules := f.filters.Filters().CompensationRules
	assert.Len(t, rules, 1)
	assert.Equal(t, "20", rules[0].AffectedAmount.String())

	assert.False(t, f.filters.RemoveCompensationRule(3))
	assert.True(t, f.filters.RemoveCompensationRule(0))
	assert.Empty(t, f.filters.Filters().CompensationRules)
}

func TestSetters_Normalize(t *testing.T) {
	f := newFixture()

	f.filters.SetSelectedExpenseCategories([]string{" Food", "Food", "", "Rent"})
	f.filters.SetJointAccountCategories(nil)
	f.filters.ToggleJointAccountCategory("Rent")

	got := f.filters.Filters()
	assert.Equal(t, []string{"Food", "Rent"}, got.SelectedExpenseCategories)
	assert.Equal(t, []string{"Rent"}, got.JointAccountCategories)
}

func TestFiltersReturnsCopy(t *testing.T) {
	f := newFixture()

	f.filters.SetSelectedMonths([]string{"01/2024"})

	got := f.filters.Filters()
	got.SelectedMonths[0] = "changed"

	assert.Equal(t, []string{"01/2024"}, f.filters.Filters().SelectedMonths)
}

func TestStoreFailures(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := NewMockStore(ctrl)
	lookup := NewMockSessionLookup(ctrl)

	fs := filters.NewFilterStore(&filters.Config{Store: store, Sessions: lookup, Keys: keys})

	store.EXPECT().Get(gomock.Any(), "test-filters-a").Return("", false, errors.New("denied"))
	fs.ActiveSessionChanged(ctx, "", "a")
	assert.Equal(t, database.DefaultFilters(), fs.Filters())

	fs.SetSelectedMonths([]string{"01/2024"})

	lookup.EXPECT().HasSession(gomock.Any(), "a").Return(true).Times(2)
	store.EXPECT().Set(gomock.Any(), "test-filters-a", gomock.Any()).Return(errors.New("quota exceeded"))
	store.EXPECT().Set(gomock.Any(), "test-filters-a", gomock.Any()).Return(nil)

	assert.False(t, fs.Flush(ctx))
	assert.True(t, fs.IsDirty())
	assert.True(t, fs.Flush(ctx))

	store.EXPECT().Remove(gomock.Any(), "test-filters-a").Return(errors.New("denied"))
	fs.SessionDeleted(ctx, "a")
}
