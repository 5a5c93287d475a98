package main

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"

	"github.com/skynet2/spending-dashboard/pkg/common"
	"github.com/skynet2/spending-dashboard/pkg/printer"
)

// buildReport renders the pending debts, the import sessions and the charts of
// the active session, when there is one.
func buildReport(ctx context.Context, app Reporter) (string, error) {
	p := printer.NewPrinter()

	var sb strings.Builder

	sb.WriteString(p.Debts(app.Ledger().Summary(ctx)))
	sb.WriteString("\n\n")
	sb.WriteString(p.Sessions(app.Sessions().SessionsByRecency(ctx), app.Sessions().ActiveSessionID(ctx)))

	overview, err := app.Overview(ctx)
	if err != nil {
		if errors.Is(err, common.ErrSessionNotFound) {
			return sb.String(), nil
		}

		return "", err
	}

	sb.WriteString("\n\n" + overview.SessionName + "\n")
	sb.WriteString(p.Slices("Expenses", overview.ExpenseSlices))
	sb.WriteString(p.Slices("Income", overview.IncomeSlices))

	return sb.String(), nil
}

func sendReport(
	ctx context.Context,
	app Reporter,
	notifier Notifier,
	chatID int64,
) error {
	report, err := buildReport(ctx, app)
	if err != nil {
		return errors.Wrap(err, "failed to build report")
	}

	if err = notifier.SendMessage(ctx, chatID, report); err != nil {
		return errors.Wrap(err, "failed to send report")
	}

	zerolog.Ctx(ctx).Info().Int64("chat_id", chatID).Msg("report sent")

	return nil
}
