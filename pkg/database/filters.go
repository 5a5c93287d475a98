package database

import (
	"github.com/shopspring/decimal"
)

type CompensationRule struct {
	ExpenseCategory string          `json:"expenseCategory"`
	IncomeCategory  string          `json:"incomeCategory"`
	AffectedAmount  decimal.Decimal `json:"affectedAmount"`
}

type PersistedFilters struct {
	SelectedExpenseCategories []string           `json:"selectedExpenseCategories"`
	SelectedIncomeCategories  []string           `json:"selectedIncomeCategories"`
	JointAccountCategories    []string           `json:"jointAccountCategories"`
	CompensationRules         []CompensationRule `json:"compensationRules"`
	SelectedMonths            []string           `json:"selectedMonths"`

	ShowExpenseFilters    bool `json:"showExpenseFilters"`
	ShowIncomeFilters     bool `json:"showIncomeFilters"`
	ShowJointAccountPanel bool `json:"showJointAccountPanel"`
	ShowCompensationPanel bool `json:"showCompensationPanel"`
}

func DefaultFilters() PersistedFilters {
	return PersistedFilters{
		SelectedExpenseCategories: []string{},
		SelectedIncomeCategories:  []string{},
		JointAccountCategories:    []string{},
		CompensationRules:         []CompensationRule{},
		SelectedMonths:            []string{},
	}
}

// Clone returns a deep copy where every list is non-nil.
func (f PersistedFilters) Clone() PersistedFilters {
	f.SelectedExpenseCategories = append([]string{}, f.SelectedExpenseCategories...)
	f.SelectedIncomeCategories = append([]string{}, f.SelectedIncomeCategories...)
	f.JointAccountCategories = append([]string{}, f.JointAccountCategories...)
	f.CompensationRules = append([]CompensationRule{}, f.CompensationRules...)
	f.SelectedMonths = append([]string{}, f.SelectedMonths...)

	return f
}
