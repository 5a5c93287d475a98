package main

import (
	"context"

	"github.com/skynet2/spending-dashboard/pkg/dashboard"
	"github.com/skynet2/spending-dashboard/pkg/reimbursement"
	"github.com/skynet2/spending-dashboard/pkg/session"
)

type Notifier interface {
	SendMessage(
		ctx context.Context,
		chatID int64,
		text string,
	) error
}

type Reporter interface {
	Sessions() *session.Manager
	Ledger() *reimbursement.Ledger
	Overview(ctx context.Context) (*dashboard.Overview, error)
}
