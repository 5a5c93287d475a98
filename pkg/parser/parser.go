package parser

import (
	"bytes"
	"context"
	"encoding/csv"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/davecgh/go-spew/spew"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/skynet2/spending-dashboard/pkg/charts"
	"github.com/skynet2/spending-dashboard/pkg/common"
	"github.com/skynet2/spending-dashboard/pkg/database"
	"github.com/skynet2/spending-dashboard/pkg/fingerprint"
)

const headerSearchRows = 10

var (
	delimiters   = []rune{';', ',', '\t'}
	incomeTypes  = []string{"income", "credit", "crédit", "revenu", "in"}
	expenseTypes = []string{"expense", "debit", "débit", "dépense", "depense", "out"}
)

type Parser struct {
}

func NewParser() *Parser {
	return &Parser{}
}

// Parse picks the reader from the file extension. Anything that is not a
// spreadsheet is treated as delimited text.
func (p *Parser) Parse(ctx context.Context, fileName string, data []byte) (*database.CsvAnalysisResult, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx":
		return p.ParseXLSX(ctx, data)
	case ".xls":
		return nil, errors.Wrapf(common.ErrUnsupportedFormat, "legacy excel file %s", fileName)
	default:
		return p.ParseCSV(ctx, data)
	}
}

func (p *Parser) ParseCSV(ctx context.Context, data []byte) (*database.CsvAnalysisResult, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, common.ErrEmptyFile
	}

	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "can not read csv")
	}

	return p.analyze(ctx, rows)
}

func sniffDelimiter(data []byte) rune {
	var lines []string
	for _, line := range strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}

		lines = append(lines, line)
		if len(lines) == 5 {
			break
		}
	}

	best := ','
	bestCount := 0

	for _, d := range delimiters {
		count := 0
		for _, line := range lines {
			count += strings.Count(line, string(d))
		}

		if count > bestCount {
			best = d
			bestCount = count
		}
	}

	return best
}

func (p *Parser) analyze(ctx context.Context, rows [][]string) (*database.CsvAnalysisResult, error) {
	h, headerRow, found := locateHeader(rows)
	if !found {
		if len(rows) == 0 {
			return nil, common.ErrEmptyFile
		}

		return nil, errors.Wrapf(common.ErrMissingColumns, "header %v", spew.Sprint(rows[0]))
	}

	result := &database.CsvAnalysisResult{
		Errors: []string{},
	}

	var first, last time.Time

	for i := headerRow + 1; i < len(rows); i++ {
		row := rows[i]
		if isBlank(row) {
			continue
		}

		tx, err := parseRow(h, row)
		if err != nil {
			result.Errors = append(result.Errors, errors.Wrapf(err, "row %d", i+1).Error())
			continue
		}

		parsed, _ := common.ParseDate(tx.Date)
		if first.IsZero() || parsed.Before(first) {
			first = parsed
			result.DateRange.Start = tx.Date
		}

		if last.IsZero() || parsed.After(last) {
			last = parsed
			result.DateRange.End = tx.Date
		}

		result.Transactions = append(result.Transactions, tx)
	}

	result.ExpenseCategories, result.IncomeCategories = charts.CategoryTotals(result.Transactions)
	result.TotalExpenses = charts.Total(result.ExpenseCategories)
	result.TotalIncome = charts.Total(result.IncomeCategories)
	result.IsValid = len(result.Transactions) > 0
	result.FingerprintCollisions = fingerprint.Collisions(result.Transactions)

	if len(result.FingerprintCollisions) > 0 {
		zerolog.Ctx(ctx).Warn().
			Strs("keys", result.FingerprintCollisions).
			Msg("several transactions share the same fingerprint")
	}

	return result, nil
}

// locateHeader skips preamble lines some banks put above the table.
func locateHeader(rows [][]string) (header, int, bool) {
	for i := 0; i < len(rows) && i < headerSearchRows; i++ {
		if detected, ok := detectHeader(rows[i]); ok {
			return detected, i, true
		}
	}

	return header{}, -1, false
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}

	return true
}

func parseRow(h header, row []string) (database.Transaction, error) {
	date := h.value(row, columnDate)
	if _, ok := common.ParseDate(date); !ok {
		return database.Transaction{}, errors.Newf("can not parse date %q in %v", date, spew.Sprint(row))
	}

	description := h.value(row, columnDescription)
	if description == "" {
		return database.Transaction{}, errors.Newf("missing description in %v", spew.Sprint(row))
	}

	amount, err := rowAmount(h, row)
	if err != nil {
		return database.Transaction{}, err
	}

	tx := database.Transaction{
		Date:        date,
		Description: description,
		Amount:      amount,
		Category:    h.value(row, columnCategory),
		Account:     h.value(row, columnAccount),
		Type:        database.TransactionTypeIncome,
	}

	switch rawType := strings.ToLower(h.value(row, columnType)); {
	case lo.Contains(expenseTypes, rawType):
		tx.Type = database.TransactionTypeExpense
	case lo.Contains(incomeTypes, rawType):
		tx.Type = database.TransactionTypeIncome
	case amount.IsNegative():
		tx.Type = database.TransactionTypeExpense
	}

	if tx.Type == database.TransactionTypeExpense {
		tx.Amount = tx.Amount.Abs().Neg()
	} else {
		tx.Amount = tx.Amount.Abs()
	}

	return tx, nil
}

func rowAmount(h header, row []string) (decimal.Decimal, error) {
	if raw := h.value(row, columnAmount); raw != "" {
		return parseAmount(raw)
	}

	debit := h.value(row, columnDebit)
	credit := h.value(row, columnCredit)

	if debit == "" && credit == "" {
		return decimal.Zero, errors.Newf("missing amount in %v", spew.Sprint(row))
	}

	amount := decimal.Zero

	if debit != "" {
		parsed, err := parseAmount(debit)
		if err != nil {
			return decimal.Zero, err
		}

		amount = amount.Sub(parsed.Abs())
	}

	if credit != "" {
		parsed, err := parseAmount(credit)
		if err != nil {
			return decimal.Zero, err
		}

		amount = amount.Add(parsed.Abs())
	}

	return amount, nil
}
