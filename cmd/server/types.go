package main

import (
	"github.com/shopspring/decimal"

	"github.com/skynet2/spending-dashboard/pkg/database"
)

type ImportResponse struct {
	SessionID string                      `json:"sessionId"`
	Summary   string                      `json:"summary"`
	Result    *database.CsvAnalysisResult `json:"result"`
}

type SessionsResponse struct {
	ActiveSessionID   string                    `json:"activeSessionId"`
	NextSessionNumber int                       `json:"nextSessionNumber"`
	Sessions          []*database.ImportSession `json:"sessions"`
}

type RenameRequest struct {
	Name string `json:"name"`
}

type CleanRequest struct {
	MaxAgeDays int `json:"maxAgeDays"`
}

type CleanResponse struct {
	Removed int `json:"removed"`
}

type PersonRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type AssociateRequest struct {
	Transaction database.Transaction `json:"transaction"`
	PersonID    string               `json:"personId"`
	Amount      *decimal.Decimal     `json:"amount"`
	Note        string               `json:"note"`
}

type ReimbursedRequest struct {
	Reimbursed *bool `json:"reimbursed"`
}

type IDResponse struct {
	ID string `json:"id"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
