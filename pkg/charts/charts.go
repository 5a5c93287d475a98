// Package charts holds the projections behind the dashboard graphs. Every
// function returns fresh values and leaves its inputs untouched.
package charts

import (
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/skynet2/spending-dashboard/pkg/common"
	"github.com/skynet2/spending-dashboard/pkg/database"
)

const UncategorizedName = "Uncategorized"

var Palette = []string{
	"#FF6384",
	"#36A2EB",
	"#FFCE56",
	"#4BC0C0",
	"#9966FF",
	"#FF9F40",
	"#C9CBCF",
	"#71B37C",
	"#EC932F",
	"#5D6D7E",
	"#A569BD",
	"#E74C3C",
}

var (
	hundred     = decimal.NewFromInt(100)
	goldenAngle = decimal.RequireFromString("137.508")
	fullCircle  = decimal.NewFromInt(360)
)

type Slice struct {
	Category   string          `json:"category"`
	Amount     decimal.Decimal `json:"amount"`
	Percentage decimal.Decimal `json:"percentage"`
	Color      string          `json:"color"`
}

// FilterCategories keeps only the categories listed in subset. An empty subset
// keeps everything.
func FilterCategories(values map[string]decimal.Decimal, subset []string) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(values))

	if len(subset) == 0 {
		for k, v := range values {
			out[k] = v
		}

		return out
	}

	for _, category := range subset {
		if v, ok := values[category]; ok {
			out[category] = v
		}
	}

	return out
}

func Total(values map[string]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v.Abs())
	}

	return total
}

// Percentages rounds to two places. A zero total yields zero for every category.
func Percentages(values map[string]decimal.Decimal) map[string]decimal.Decimal {
	total := Total(values)
	out := make(map[string]decimal.Decimal, len(values))

	for k, v := range values {
		if total.IsZero() {
			out[k] = decimal.Zero
			continue
		}

		out[k] = v.Abs().Mul(hundred).Div(total).Round(2)
	}

	return out
}

// rank orders categories by absolute amount, largest first, then by name.
func rank(values map[string]decimal.Decimal) []string {
	names := lo.Keys(values)

	sort.Slice(names, func(i, j int) bool {
		a, b := values[names[i]].Abs(), values[names[j]].Abs()
		if !a.Equal(b) {
			return a.GreaterThan(b)
		}

		return names[i] < names[j]
	})

	return names
}

func ColorAt(index int) string {
	if index < len(Palette) {
		return Palette[index]
	}

	hue := decimal.NewFromInt(int64(index)).Mul(goldenAngle).Mod(fullCircle)

	return "hsl(" + hue.String() + ", 65%, 55%)"
}

func AssignColors(values map[string]decimal.Decimal) map[string]string {
	out := make(map[string]string, len(values))

	for i, name := range rank(values) {
		out[name] = ColorAt(i)
	}

	return out
}

// ApplyCompensationRules nets reimbursements out of the category views: each
// rule lowers its expense category (never below zero) and zeroes its income
// category.
func ApplyCompensationRules(
	expenses map[string]decimal.Decimal,
	income map[string]decimal.Decimal,
	rules []database.CompensationRule,
) (map[string]decimal.Decimal, map[string]decimal.Decimal) {
	newExpenses := FilterCategories(expenses, nil)
	newIncome := FilterCategories(income, nil)

	for _, rule := range rules {
		if current, ok := newExpenses[rule.ExpenseCategory]; ok {
			newExpenses[rule.ExpenseCategory] = decimal.Max(current.Sub(rule.AffectedAmount), decimal.Zero)
		}

		if _, ok := newIncome[rule.IncomeCategory]; ok {
			newIncome[rule.IncomeCategory] = decimal.Zero
		}
	}

	return newExpenses, newIncome
}

// BuildSlices turns a category map into chart slices, largest first. Zero
// amounts are left out; colours follow the rank among the kept slices.
func BuildSlices(values map[string]decimal.Decimal, subset []string) []Slice {
	filtered := lo.PickBy(FilterCategories(values, subset), func(_ string, v decimal.Decimal) bool {
		return !v.IsZero()
	})

	percentages := Percentages(filtered)

	return lo.Map(rank(filtered), func(name string, i int) Slice {
		return Slice{
			Category:   name,
			Amount:     filtered[name].Abs(),
			Percentage: percentages[name],
			Color:      ColorAt(i),
		}
	})
}

// FilterByMonths keeps transactions dated in one of the MM/YYYY months.
// Without months every transaction is kept; with months, undated ones are dropped.
func FilterByMonths(transactions []database.Transaction, months []string) []database.Transaction {
	if len(months) == 0 {
		return append([]database.Transaction{}, transactions...)
	}

	wanted := lo.SliceToMap(months, func(m string) (string, struct{}) {
		return m, struct{}{}
	})

	return lo.Filter(transactions, func(tx database.Transaction, _ int) bool {
		month, ok := common.MonthKey(tx.Date)
		if !ok {
			return false
		}

		_, found := wanted[month]

		return found
	})
}

func IsExpense(tx database.Transaction) bool {
	switch tx.Type {
	case database.TransactionTypeExpense:
		return true
	case database.TransactionTypeIncome:
		return false
	default:
		return tx.Amount.IsNegative()
	}
}

func categoryName(tx database.Transaction) string {
	if name := strings.TrimSpace(tx.Category); name != "" {
		return name
	}

	return UncategorizedName
}

// CategoryTotals sums absolute amounts per category, split into expenses and income.
func CategoryTotals(transactions []database.Transaction) (map[string]decimal.Decimal, map[string]decimal.Decimal) {
	expenses := map[string]decimal.Decimal{}
	income := map[string]decimal.Decimal{}

	for _, tx := range transactions {
		target := income
		if IsExpense(tx) {
			target = expenses
		}

		name := categoryName(tx)
		target[name] = target[name].Add(tx.Amount.Abs())
	}

	return expenses, income
}

// AvailableMonths lists the MM/YYYY months present, oldest first.
func AvailableMonths(transactions []database.Transaction) []string {
	type month struct {
		key  string
		sort string
	}

	seen := map[string]month{}

	for _, tx := range transactions {
		parsed, ok := common.ParseDate(tx.Date)
		if !ok {
			continue
		}

		key := parsed.Format("01/2006")
		seen[key] = month{key: key, sort: parsed.Format("2006-01")}
	}

	months := lo.Values(seen)
	sort.Slice(months, func(i, j int) bool {
		return months[i].sort < months[j].sort
	})

	return lo.Map(months, func(m month, _ int) string {
		return m.key
	})
}
