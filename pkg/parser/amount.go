package parser

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
)

var currencyReplacer = strings.NewReplacer(
	"€", "",
	"$", "",
	"£", "",
	"EUR", "",
	"USD", "",
	"GBP", "",
	" ", "",
	"\u00a0", "",
	"\u202f", "",
	"'", "",
)

// parseAmount accepts both 1,234.56 and 1 234,56 styles. The right-most
// separator is taken as the decimal point.
func parseAmount(raw string) (decimal.Decimal, error) {
	value := currencyReplacer.Replace(strings.TrimSpace(raw))

	negative := false
	if strings.HasPrefix(value, "(") && strings.HasSuffix(value, ")") {
		negative = true
		value = value[1 : len(value)-1]
	}

	if value == "" {
		return decimal.Zero, errors.New("empty amount")
	}

	lastComma := strings.LastIndex(value, ",")
	lastDot := strings.LastIndex(value, ".")

	switch {
	case lastComma > lastDot:
		value = strings.ReplaceAll(value, ".", "")
		value = strings.Replace(value, ",", ".", 1)
	case lastDot > lastComma:
		value = strings.ReplaceAll(value, ",", "")
	}

	amount, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "can not parse amount: %s", raw)
	}

	if negative {
		amount = amount.Neg()
	}

	return amount, nil
}
