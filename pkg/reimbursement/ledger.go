package reimbursement

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/skynet2/spending-dashboard/pkg/common"
	"github.com/skynet2/spending-dashboard/pkg/database"
	"github.com/skynet2/spending-dashboard/pkg/fingerprint"
)

type Config struct {
	Store Store
	Keys  common.Keys
	Now   func() time.Time
}

// Ledger tracks who owes what. Records join back to raw transactions only
// through fingerprint.Key, independently of import sessions.
type Ledger struct {
	store Store
	keys  common.Keys
	now   func() time.Time

	mut          sync.Mutex
	loaded       bool
	people       []*database.Person
	transactions []*database.ReimbursementTransaction
}

func NewLedger(cfg *Config) *Ledger {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Ledger{
		store: cfg.Store,
		keys:  cfg.Keys,
		now:   now,
	}
}

func (l *Ledger) Init(ctx context.Context) {
	l.mut.Lock()
	defer l.mut.Unlock()

	l.loaded = false
	l.ensureLoaded(ctx)
}

func (l *Ledger) ensureLoaded(ctx context.Context) {
	if l.loaded {
		return
	}

	l.loaded = true
	l.people = nil
	l.transactions = nil

	if err := l.read(ctx, l.keys.People(), &l.people); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to load people")
		l.people = nil
	}

	if err := l.read(ctx, l.keys.ReimbursementTransactions(), &l.transactions); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to load reimbursement transactions")
		l.transactions = nil
	}

	l.people = lo.Filter(l.people, func(p *database.Person, _ int) bool { return p != nil })
	l.transactions = lo.Filter(l.transactions, func(r *database.ReimbursementTransaction, _ int) bool { return r != nil })
}

func (l *Ledger) read(ctx context.Context, key string, target any) error {
	raw, ok, err := l.store.Get(ctx, key)
	if err != nil {
		return err
	}

	if !ok {
		return nil
	}

	return errors.Wrapf(json.Unmarshal([]byte(raw), target), "malformed record %s", key)
}

func (l *Ledger) persist(ctx context.Context) {
	l.write(ctx, l.keys.People(), l.people)
	l.write(ctx, l.keys.ReimbursementTransactions(), l.transactions)
}

func (l *Ledger) write(ctx context.Context, key string, value any) {
	b, err := json.Marshal(value)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("failed to serialize ledger record")
		return
	}

	if err = l.store.Set(ctx, key, string(b)); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("failed to persist ledger record")
	}
}

func (l *Ledger) findPerson(id string) (*database.Person, int) {
	for i, p := range l.people {
		if p.ID == id {
			return p, i
		}
	}

	return nil, -1
}

func (l *Ledger) findRecord(id string) (*database.ReimbursementTransaction, int) {
	for i, r := range l.transactions {
		if r.ID == id {
			return r, i
		}
	}

	return nil, -1
}

func (l *Ledger) AddPerson(ctx context.Context, name string, email string) (*database.Person, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, common.ErrInvalidName
	}

	l.mut.Lock()
	defer l.mut.Unlock()

	l.ensureLoaded(ctx)

	now := l.now()
	person := &database.Person{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     strings.TrimSpace(email),
		CreatedAt: now,
		UpdatedAt: now,
	}

	l.people = append(l.people, person)
	l.persist(ctx)

	cloned := *person

	return &cloned, nil
}

func (l *Ledger) UpdatePerson(ctx context.Context, id string, update PersonUpdate) bool {
	l.mut.Lock()
	defer l.mut.Unlock()

	l.ensureLoaded(ctx)

	person, _ := l.findPerson(id)
	if person == nil {
		return false
	}

	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return false
		}

		person.Name = name
	}

	if update.Email != nil {
		person.Email = strings.TrimSpace(*update.Email)
	}

	if update.Avatar != nil {
		person.Avatar = *update.Avatar
	}

	person.UpdatedAt = l.now()
	l.persist(ctx)

	return true
}

// DeletePerson removes the person together with every record assigned to them.
func (l *Ledger) DeletePerson(ctx context.Context, id string) bool {
	l.mut.Lock()
	defer l.mut.Unlock()

	l.ensureLoaded(ctx)

	_, idx := l.findPerson(id)
	if idx < 0 {
		return false
	}

	l.people = append(l.people[:idx], l.people[idx+1:]...)
	l.transactions = lo.Reject(l.transactions, func(r *database.ReimbursementTransaction, _ int) bool {
		return r.PersonID == id
	})

	l.persist(ctx)

	return true
}

func (l *Ledger) AssociateTransaction(
	ctx context.Context,
	tx database.Transaction,
	personID string,
	customAmount *decimal.Decimal,
	note string,
) (*database.ReimbursementTransaction, error) {
	l.mut.Lock()
	defer l.mut.Unlock()

	l.ensureLoaded(ctx)

	if person, _ := l.findPerson(personID); person == nil {
		return nil, common.ErrPersonNotFound
	}

	key := fingerprint.Key(tx)
	if _, found := lo.Find(l.transactions, func(r *database.ReimbursementTransaction) bool {
		return r.TransactionID == key
	}); found {
		return nil, common.ErrTransactionAlreadyAssociated
	}

	amount := tx.Amount.Abs()
	if customAmount != nil {
		if !customAmount.IsPositive() {
			return nil, common.ErrInvalidAmount
		}

		amount = *customAmount
	}

	record := &database.ReimbursementTransaction{
		ID:            uuid.NewString(),
		TransactionID: key,
		PersonID:      personID,
		Amount:        amount,
		Description:   tx.Description,
		Date:          tx.Date,
		Category:      tx.Category,
		Note:          strings.TrimSpace(note),
		CreatedAt:     l.now(),
	}

	l.transactions = append(l.transactions, record)
	l.persist(ctx)

	cloned := *record

	return &cloned, nil
}

func (l *Ledger) MarkAsReimbursed(ctx context.Context, recordID string, reimbursed bool) bool {
	l.mut.Lock()
	defer l.mut.Unlock()

	l.ensureLoaded(ctx)

	record, _ := l.findRecord(recordID)
	if record == nil {
		return false
	}

	record.IsReimbursed = reimbursed
	record.ReimbursedAt = nil

	if reimbursed {
		now := l.now()
		record.ReimbursedAt = &now
	}

	l.persist(ctx)

	return true
}

func (l *Ledger) RemoveAssociation(ctx context.Context, recordID string) bool {
	l.mut.Lock()
	defer l.mut.Unlock()

	l.ensureLoaded(ctx)

	_, idx := l.findRecord(recordID)
	if idx < 0 {
		return false
	}

	l.transactions = append(l.transactions[:idx], l.transactions[idx+1:]...)
	l.persist(ctx)

	return true
}

func (l *Ledger) IsTransactionAssociated(ctx context.Context, tx database.Transaction) bool {
	_, ok := l.GetTransactionAssociation(ctx, tx)

	return ok
}

func (l *Ledger) GetTransactionAssociation(
	ctx context.Context,
	tx database.Transaction,
) (*database.ReimbursementTransaction, bool) {
	l.mut.Lock()
	defer l.mut.Unlock()

	l.ensureLoaded(ctx)

	key := fingerprint.Key(tx)

	record, found := lo.Find(l.transactions, func(r *database.ReimbursementTransaction) bool {
		return r.TransactionID == key
	})
	if !found {
		return nil, false
	}

	cloned := *record

	return &cloned, true
}

func (l *Ledger) People(ctx context.Context) []database.Person {
	l.mut.Lock()
	defer l.mut.Unlock()

	l.ensureLoaded(ctx)

	return lo.Map(l.people, func(p *database.Person, _ int) database.Person {
		return *p
	})
}

func (l *Ledger) Person(ctx context.Context, id string) (database.Person, bool) {
	l.mut.Lock()
	defer l.mut.Unlock()

	l.ensureLoaded(ctx)

	person, _ := l.findPerson(id)
	if person == nil {
		return database.Person{}, false
	}

	return *person, true
}

func (l *Ledger) Transactions(ctx context.Context) []database.ReimbursementTransaction {
	l.mut.Lock()
	defer l.mut.Unlock()

	l.ensureLoaded(ctx)

	return lo.Map(l.transactions, func(r *database.ReimbursementTransaction, _ int) database.ReimbursementTransaction {
		return *r
	})
}

func (l *Ledger) PersonTransactions(ctx context.Context, personID string) []database.ReimbursementTransaction {
	return lo.Filter(l.Transactions(ctx), func(r database.ReimbursementTransaction, _ int) bool {
		return r.PersonID == personID
	})
}

// PersonDebts sums the unreimbursed amounts per person, largest debt first.
// People with nothing left to pay are omitted.
func (l *Ledger) PersonDebts(ctx context.Context) []PersonDebt {
	l.mut.Lock()
	defer l.mut.Unlock()

	l.ensureLoaded(ctx)

	return l.personDebts()
}

func (l *Ledger) personDebts() []PersonDebt {
	var order []string
	debts := map[string]*PersonDebt{}

	for _, r := range l.transactions {
		debt, ok := debts[r.PersonID]
		if !ok {
			debt = &PersonDebt{
				PersonID:    r.PersonID,
				TotalAmount: decimal.Zero,
			}
			if person, _ := l.findPerson(r.PersonID); person != nil {
				debt.PersonName = person.Name
			}

			debts[r.PersonID] = debt
			order = append(order, r.PersonID)
		}

		if !r.IsReimbursed {
			debt.TotalAmount = debt.TotalAmount.Add(r.Amount)
		}

		debt.TransactionCount += 1

		if debt.LastTransactionDate == "" || laterDate(r.Date, debt.LastTransactionDate) {
			debt.LastTransactionDate = r.Date
		}
	}

	result := make([]PersonDebt, 0, len(order))
	for _, id := range order {
		if debts[id].TotalAmount.IsPositive() {
			result = append(result, *debts[id])
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].TotalAmount.GreaterThan(result[j].TotalAmount)
	})

	return result
}

func (l *Ledger) Summary(ctx context.Context) Summary {
	l.mut.Lock()
	defer l.mut.Unlock()

	l.ensureLoaded(ctx)

	summary := Summary{
		TotalAmount:      decimal.Zero,
		TotalReimbursed:  decimal.Zero,
		TotalPending:     decimal.Zero,
		PeopleCount:      len(l.people),
		TransactionCount: len(l.transactions),
		PersonDebts:      l.personDebts(),
	}

	for _, r := range l.transactions {
		summary.TotalAmount = summary.TotalAmount.Add(r.Amount)

		if r.IsReimbursed {
			summary.TotalReimbursed = summary.TotalReimbursed.Add(r.Amount)
		} else {
			summary.TotalPending = summary.TotalPending.Add(r.Amount)
		}
	}

	return summary
}

// laterDate compares parsed dates and falls back to plain string order.
func laterDate(candidate string, current string) bool {
	c, okC := common.ParseDate(candidate)
	cur, okCur := common.ParseDate(current)

	if okC && okCur {
		return c.After(cur)
	}

	return candidate > current
}
