package printer

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/skynet2/spending-dashboard/pkg/charts"
	"github.com/skynet2/spending-dashboard/pkg/database"
	"github.com/skynet2/spending-dashboard/pkg/reimbursement"
)

type Printer struct {
}

func NewPrinter() *Printer {
	return &Printer{}
}

// Import summarizes a freshly parsed file.
func (p *Printer) Import(result *database.CsvAnalysisResult) string {
	if result == nil {
		return "Nothing imported"
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Total transactions: %v", len(result.Transactions)))
	sb.WriteString(fmt.Sprintf("\nPeriod: %s - %s", result.DateRange.Start, result.DateRange.End))
	sb.WriteString(fmt.Sprintf("\nExpenses: %v 💸", result.TotalExpenses.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("\nIncome: %v 💰", result.TotalIncome.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("\nErrors: %v 🚒", len(result.Errors)))

	if len(result.FingerprintCollisions) > 0 {
		sb.WriteString(fmt.Sprintf("\nAmbiguous transactions: %v ⚠️", len(result.FingerprintCollisions)))
	}

	for _, e := range result.Errors {
		sb.WriteString(fmt.Sprintf("\nError: %s", e))
	}

	if result.IsValid && len(result.Errors) == 0 {
		sb.WriteString("\n\nAll rows imported! 🎉")
	}

	return sb.String()
}

func (p *Printer) Sessions(sessions []*database.ImportSession, activeID string) string {
	if len(sessions) == 0 {
		return "No import sessions"
	}

	var sb strings.Builder

	for _, s := range sessions {
		marker := " "
		if s.ID == activeID {
			marker = "*"
		}

		count := 0
		if s.AnalysisResult != nil {
			count = len(s.AnalysisResult.Transactions)
		}

		sb.WriteString(fmt.Sprintf("%s %s (%d transactions, last opened %s)\n",
			marker, s.Name, count, s.LastAccessDate.Format("2006-01-02 15:04")))
	}

	return sb.String()
}

func (p *Printer) Slices(title string, slices []charts.Slice) string {
	var sb strings.Builder

	total := decimal.Zero
	for _, s := range slices {
		total = total.Add(s.Amount)
	}

	sb.WriteString(fmt.Sprintf("%s: %v\n", title, total.StringFixed(2)))

	if len(slices) == 0 {
		sb.WriteString("  no data\n")
		return sb.String()
	}

	for _, s := range slices {
		sb.WriteString(fmt.Sprintf("  %-20s %10s %6s%%\n", s.Category, s.Amount.StringFixed(2), s.Percentage.StringFixed(2)))
	}

	return sb.String()
}

func (p *Printer) Debts(summary reimbursement.Summary) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("People: %v", summary.PeopleCount))
	sb.WriteString(fmt.Sprintf("\nRecords: %v", summary.TransactionCount))
	sb.WriteString(fmt.Sprintf("\nTotal: %v", summary.TotalAmount.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("\nReimbursed: %v ✅", summary.TotalReimbursed.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("\nPending: %v ⏳", summary.TotalPending.StringFixed(2)))

	if len(summary.PersonDebts) == 0 {
		sb.WriteString("\n\nNobody owes anything! 🎉")
		return sb.String()
	}

	sb.WriteString("\n")

	for _, debt := range summary.PersonDebts {
		sb.WriteString(fmt.Sprintf("\n%s owes %v (%d records, last %s)",
			debt.PersonName, debt.TotalAmount.StringFixed(2), debt.TransactionCount, debt.LastTransactionDate))
	}

	return sb.String()
}
