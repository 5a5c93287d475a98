package dashboard

import (
	"github.com/shopspring/decimal"

	"github.com/skynet2/spending-dashboard/pkg/charts"
	"github.com/skynet2/spending-dashboard/pkg/reimbursement"
)

// Overview is what the dashboard shows for the active session once the
// filters and compensation rules are applied.
type Overview struct {
	SessionID       string   `json:"sessionId"`
	SessionName     string   `json:"sessionName"`
	SelectedMonths  []string `json:"selectedMonths"`
	AvailableMonths []string `json:"availableMonths"`

	ExpenseSlices []charts.Slice `json:"expenseSlices"`
	IncomeSlices  []charts.Slice `json:"incomeSlices"`

	TotalExpenses     decimal.Decimal `json:"totalExpenses"`
	TotalIncome       decimal.Decimal `json:"totalIncome"`
	Balance           decimal.Decimal `json:"balance"`
	JointAccountTotal decimal.Decimal `json:"jointAccountTotal"`

	Reimbursements reimbursement.Summary `json:"reimbursements"`
}
