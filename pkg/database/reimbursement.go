package database

import (
	"time"

	"github.com/shopspring/decimal"
)

type Person struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Avatar    string    `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ReimbursementTransaction struct {
	ID            string          `json:"id"`
	TransactionID string          `json:"transactionId"`
	PersonID      string          `json:"personId"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
	Date          string          `json:"date"`
	Category      string          `json:"category"`
	Note          string          `json:"note,omitempty"`
	IsReimbursed  bool            `json:"isReimbursed"`
	ReimbursedAt  *time.Time      `json:"reimbursedAt,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}
