package parser

import (
	"strings"

	"github.com/samber/lo"
)

type column int

const (
	columnDate = column(iota)
	columnDescription
	columnAmount
	columnDebit
	columnCredit
	columnCategory
	columnType
	columnAccount
)

var columnAliases = map[column][]string{
	columnDate:        {"date", "transaction date", "booking date", "date opération", "date operation", "date de l'opération"},
	columnDescription: {"description", "libellé", "libelle", "label", "détail", "detail", "memo", "payee"},
	columnAmount:      {"amount", "montant", "value", "valeur"},
	columnDebit:       {"debit", "débit", "withdrawal"},
	columnCredit:      {"credit", "crédit", "deposit"},
	columnCategory:    {"category", "catégorie", "categorie"},
	columnType:        {"type", "transaction type", "sens"},
	columnAccount:     {"account", "compte"},
}

type header struct {
	index map[column]int
}

func normalizeHeader(value string) string {
	value = strings.TrimPrefix(value, "\ufeff")

	return strings.ToLower(strings.TrimSpace(value))
}

func detectHeader(row []string) (header, bool) {
	h := header{index: map[column]int{}}

	for i, raw := range row {
		name := normalizeHeader(raw)

		for col, aliases := range columnAliases {
			if _, taken := h.index[col]; taken {
				continue
			}

			if lo.Contains(aliases, name) {
				h.index[col] = i
				break
			}
		}
	}

	_, hasDate := h.index[columnDate]
	_, hasDescription := h.index[columnDescription]

	return h, hasDate && hasDescription && (h.has(columnAmount) || h.has(columnDebit) || h.has(columnCredit))
}

func (h header) has(col column) bool {
	_, ok := h.index[col]

	return ok
}

func (h header) value(row []string, col column) string {
	i, ok := h.index[col]
	if !ok || i >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[i])
}
