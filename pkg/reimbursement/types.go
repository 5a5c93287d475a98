package reimbursement

import (
	"github.com/shopspring/decimal"
)

// PersonUpdate carries the fields to change; nil fields stay untouched.
type PersonUpdate struct {
	Name   *string `json:"name,omitempty"`
	Email  *string `json:"email,omitempty"`
	Avatar *string `json:"avatar,omitempty"`
}

type PersonDebt struct {
	PersonID            string          `json:"personId"`
	PersonName          string          `json:"personName"`
	TotalAmount         decimal.Decimal `json:"totalAmount"`
	TransactionCount    int             `json:"transactionCount"`
	LastTransactionDate string          `json:"lastTransactionDate"`
}

type Summary struct {
	TotalAmount      decimal.Decimal `json:"totalAmount"`
	TotalReimbursed  decimal.Decimal `json:"totalReimbursed"`
	TotalPending     decimal.Decimal `json:"totalPending"`
	PeopleCount      int             `json:"peopleCount"`
	TransactionCount int             `json:"transactionCount"`
	PersonDebts      []PersonDebt    `json:"personDebts"`
}
