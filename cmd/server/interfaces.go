package main

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/skynet2/spending-dashboard/pkg/dashboard"
	"github.com/skynet2/spending-dashboard/pkg/database"
	"github.com/skynet2/spending-dashboard/pkg/filters"
	"github.com/skynet2/spending-dashboard/pkg/reimbursement"
	"github.com/skynet2/spending-dashboard/pkg/session"
)

type Dashboard interface {
	Sessions() *session.Manager
	Filters() *filters.FilterStore
	Ledger() *reimbursement.Ledger
	TrackingID() string
	ImportFile(
		ctx context.Context,
		fileName string,
		data []byte,
	) (string, *database.CsvAnalysisResult, error)
	AssociateTransaction(
		ctx context.Context,
		tx database.Transaction,
		personID string,
		customAmount *decimal.Decimal,
		note string,
	) (*database.ReimbursementTransaction, error)
	Duplicates(ctx context.Context, sessionID string) (map[string][]string, error)
	Overview(ctx context.Context) (*dashboard.Overview, error)
	ResetAll(ctx context.Context) error
}
