package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gammazero/workerpool"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/skynet2/spending-dashboard/pkg/charts"
	"github.com/skynet2/spending-dashboard/pkg/common"
	"github.com/skynet2/spending-dashboard/pkg/database"
	"github.com/skynet2/spending-dashboard/pkg/duplicatecleaner"
	"github.com/skynet2/spending-dashboard/pkg/filters"
	"github.com/skynet2/spending-dashboard/pkg/fingerprint"
	"github.com/skynet2/spending-dashboard/pkg/reimbursement"
	"github.com/skynet2/spending-dashboard/pkg/repo"
	"github.com/skynet2/spending-dashboard/pkg/session"
)

const resetPoolSize = 8

type Config struct {
	Store         Store
	Parser        Parser
	Prefix        string
	FlushInterval time.Duration
	MaxAgeDays    int
	Now           func() time.Time
}

// App is the explicit application context: one storage backend shared by the
// session manager, the filter store and the reimbursement ledger.
type App struct {
	store      Store
	parser     Parser
	keys       common.Keys
	maxAgeDays int

	sessions   *session.Manager
	filters    *filters.FilterStore
	ledger     *reimbursement.Ledger
	duplicates *duplicatecleaner.DuplicateCleaner

	// per process, never persisted
	tabStore *repo.Memory

	mut         sync.Mutex
	unsubscribe func()
	trackingID  string
}

func NewApp(cfg *Config) *App {
	keys := common.NewKeys(cfg.Prefix)

	sessions := session.NewManager(&session.Config{
		Store: cfg.Store,
		Keys:  keys,
		Now:   cfg.Now,
	})

	return &App{
		store:      cfg.Store,
		parser:     cfg.Parser,
		keys:       keys,
		maxAgeDays: cfg.MaxAgeDays,
		sessions:   sessions,
		filters: filters.NewFilterStore(&filters.Config{
			Store:         cfg.Store,
			Sessions:      sessions,
			Keys:          keys,
			FlushInterval: cfg.FlushInterval,
		}),
		ledger: reimbursement.NewLedger(&reimbursement.Config{
			Store: cfg.Store,
			Keys:  keys,
			Now:   cfg.Now,
		}),
		duplicates: duplicatecleaner.NewDuplicateCleaner(sessions),
		tabStore:   repo.NewMemory(),
	}
}

// Init hydrates every store, drops stale sessions and assigns the tracking id.
func (a *App) Init(ctx context.Context) {
	a.mut.Lock()
	if a.unsubscribe == nil {
		a.unsubscribe = a.sessions.Subscribe(a.filters)
	}
	a.mut.Unlock()

	a.sessions.Init(ctx)
	a.ledger.Init(ctx)

	if removed := a.sessions.CleanOldSessions(ctx, a.maxAgeDays); removed > 0 {
		zerolog.Ctx(ctx).Info().Int("removed", removed).Msg("dropped stale sessions on startup")
	}

	a.initTrackingID(ctx)
}

func (a *App) initTrackingID(ctx context.Context) {
	a.mut.Lock()
	defer a.mut.Unlock()

	key := a.keys.TrackingSession()

	id, ok, _ := a.tabStore.Get(ctx, key)
	if !ok {
		id = uuid.NewString()
		_ = a.tabStore.Set(ctx, key, id)
	}

	a.trackingID = id
}

// Dispose flushes pending filter changes and detaches the stores.
func (a *App) Dispose(ctx context.Context) {
	a.filters.Flush(ctx)

	a.mut.Lock()
	if a.unsubscribe != nil {
		a.unsubscribe()
		a.unsubscribe = nil
	}
	a.mut.Unlock()

	a.sessions.Dispose(ctx)
}

// Run keeps flushing filter changes until ctx is done.
func (a *App) Run(ctx context.Context) {
	a.filters.Run(ctx)
}

func (a *App) Sessions() *session.Manager {
	return a.sessions
}

func (a *App) Filters() *filters.FilterStore {
	return a.filters
}

func (a *App) Ledger() *reimbursement.Ledger {
	return a.ledger
}

func (a *App) TrackingID() string {
	a.mut.Lock()
	defer a.mut.Unlock()

	return a.trackingID
}

// ImportFile parses an uploaded export and opens it as the new active session.
func (a *App) ImportFile(
	ctx context.Context,
	fileName string,
	data []byte,
) (string, *database.CsvAnalysisResult, error) {
	result, err := a.parser.Parse(ctx, fileName, data)
	if err != nil {
		return "", nil, errors.Wrapf(err, "failed to parse %s", fileName)
	}

	if !result.IsValid {
		return "", result, errors.Wrapf(common.ErrNoTransactions, "file %s", fileName)
	}

	id := a.sessions.CreateSession(ctx, result, fileName)

	logger := zerolog.Ctx(ctx)
	logger.Info().
		Str("session_id", id).
		Int("transactions", len(result.Transactions)).
		Int("errors", len(result.Errors)).
		Msg("imported file")

	if duplicates := a.duplicates.GetDuplicates(ctx, result.Transactions, id); len(duplicates) > 0 {
		logger.Warn().
			Str("session_id", id).
			Int("duplicates", len(duplicates)).
			Msg("transactions already imported in other sessions")
	}

	return id, result, nil
}

// AssociateTransaction records a reimbursement for a transaction of the active
// session. Fingerprints shared by several transactions are logged since the
// record cannot tell them apart.
func (a *App) AssociateTransaction(
	ctx context.Context,
	tx database.Transaction,
	personID string,
	customAmount *decimal.Decimal,
	note string,
) (*database.ReimbursementTransaction, error) {
	key := fingerprint.Key(tx)

	if active, ok := a.sessions.ActiveSession(ctx); ok && active.AnalysisResult != nil {
		if lo.Contains(active.AnalysisResult.FingerprintCollisions, key) {
			zerolog.Ctx(ctx).Warn().
				Str("transaction_id", key).
				Str("session_id", active.ID).
				Msg("associating an ambiguous transaction fingerprint")
		}
	}

	return a.ledger.AssociateTransaction(ctx, tx, personID, customAmount, note)
}

// Duplicates lists the transactions of a session that other sessions also
// contain, keyed by fingerprint.
func (a *App) Duplicates(ctx context.Context, sessionID string) (map[string][]string, error) {
	return a.duplicates.SessionDuplicates(ctx, sessionID)
}

func (a *App) Overview(ctx context.Context) (*Overview, error) {
	active, ok := a.sessions.ActiveSession(ctx)
	if !ok {
		return nil, common.ErrSessionNotFound
	}

	current := a.filters.Filters()
	result := active.AnalysisResult
	if result == nil {
		result = &database.CsvAnalysisResult{}
	}

	expenses, income := result.ExpenseCategories, result.IncomeCategories
	if len(current.SelectedMonths) > 0 || (expenses == nil && income == nil) {
		expenses, income = charts.CategoryTotals(charts.FilterByMonths(result.Transactions, current.SelectedMonths))
	}

	expenses, income = charts.ApplyCompensationRules(expenses, income, current.CompensationRules)

	overview := &Overview{
		SessionID:       active.ID,
		SessionName:     active.Name,
		SelectedMonths:  current.SelectedMonths,
		AvailableMonths: charts.AvailableMonths(result.Transactions),
		ExpenseSlices:   charts.BuildSlices(expenses, current.SelectedExpenseCategories),
		IncomeSlices:    charts.BuildSlices(income, current.SelectedIncomeCategories),
		TotalExpenses:   charts.Total(charts.FilterCategories(expenses, current.SelectedExpenseCategories)),
		TotalIncome:     charts.Total(charts.FilterCategories(income, current.SelectedIncomeCategories)),
		Reimbursements:  a.ledger.Summary(ctx),
	}

	overview.Balance = overview.TotalIncome.Sub(overview.TotalExpenses)
	overview.JointAccountTotal = decimal.Zero

	if len(current.JointAccountCategories) > 0 {
		overview.JointAccountTotal = charts.Total(charts.FilterCategories(expenses, current.JointAccountCategories))
	}

	return overview, nil
}

// ResetAll wipes every persisted key of the application and starts over.
func (a *App) ResetAll(ctx context.Context) error {
	a.filters.ActiveSessionChanged(ctx, "", "")

	keys, err := a.store.Keys(ctx, a.keys.All())
	if err != nil {
		return errors.Wrap(err, "failed to list keys")
	}

	pool := workerpool.New(resetPoolSize)

	var mut sync.Mutex
	var finalErr error

	for _, key := range keys {
		keyCopy := key

		pool.Submit(func() {
			if removeErr := a.store.Remove(ctx, keyCopy); removeErr != nil {
				mut.Lock()
				finalErr = errors.Join(finalErr, removeErr)
				mut.Unlock()
			}
		})
	}

	pool.StopWait()

	a.sessions.Init(ctx)
	a.ledger.Init(ctx)

	return finalErr
}
