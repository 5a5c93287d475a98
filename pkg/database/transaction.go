package database

import (
	"github.com/shopspring/decimal"
)

type Transaction struct {
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Type        TransactionType `json:"type"`
	Account     string          `json:"account,omitempty"`
}

type TransactionType int32

const (
	TransactionTypeUnknown = TransactionType(0)
	TransactionTypeIncome  = TransactionType(1)
	TransactionTypeExpense = TransactionType(2)
)

func (t TransactionType) String() string {
	switch t {
	case TransactionTypeIncome:
		return "income"
	case TransactionTypeExpense:
		return "expense"
	default:
		return "unknown"
	}
}

type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// CsvAnalysisResult is the parsed form of one uploaded bank export. Category
// maps hold absolute amounts.
type CsvAnalysisResult struct {
	Transactions          []Transaction              `json:"transactions"`
	ExpenseCategories     map[string]decimal.Decimal `json:"expenseCategories"`
	IncomeCategories      map[string]decimal.Decimal `json:"incomeCategories"`
	TotalExpenses         decimal.Decimal            `json:"totalExpenses"`
	TotalIncome           decimal.Decimal            `json:"totalIncome"`
	DateRange             DateRange                  `json:"dateRange"`
	IsValid               bool                       `json:"isValid"`
	Errors                []string                   `json:"errors"`
	FingerprintCollisions []string                   `json:"fingerprintCollisions,omitempty"`
}

func (r *CsvAnalysisResult) Clone() *CsvAnalysisResult {
	if r == nil {
		return nil
	}

	cloned := *r
	cloned.Transactions = append([]Transaction(nil), r.Transactions...)
	cloned.ExpenseCategories = cloneAmounts(r.ExpenseCategories)
	cloned.IncomeCategories = cloneAmounts(r.IncomeCategories)
	cloned.Errors = append([]string(nil), r.Errors...)
	cloned.FingerprintCollisions = append([]string(nil), r.FingerprintCollisions...)

	return &cloned
}

func cloneAmounts(in map[string]decimal.Decimal) map[string]decimal.Decimal {
	if in == nil {
		return nil
	}

	out := make(map[string]decimal.Decimal, len(in))
	for k, v := range in {
		out[k] = v
	}

	return out
}
