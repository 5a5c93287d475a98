package common

import (
	"strings"
	"time"
)

var dateLayouts = []string{
	"02/01/2006",
	"2006-01-02",
	"02.01.2006",
	"02-01-2006",
	"2006/01/02",
	time.RFC3339,
}

// ParseDate understands the day-first layouts found in bank exports.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)

	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, true
		}
	}

	return time.Time{}, false
}

// MonthKey returns the MM/YYYY bucket of a transaction date.
func MonthKey(value string) (string, bool) {
	parsed, ok := ParseDate(value)
	if !ok {
		return "", false
	}

	return parsed.Format("01/2006"), true
}
