// Package fingerprint builds the composite key that links a reimbursement
// record back to a raw transaction. Two transactions sharing date,
// description and amount produce the same key; Collisions reports them.
package fingerprint

import (
	"fmt"
	"sort"

	"github.com/skynet2/spending-dashboard/pkg/database"
)

func Key(tx database.Transaction) string {
	return fmt.Sprintf("%s-%s-%s", tx.Date, tx.Description, tx.Amount.String())
}

func Collisions(transactions []database.Transaction) []string {
	counts := map[string]int{}
	for _, tx := range transactions {
		counts[Key(tx)] += 1
	}

	var collisions []string
	for key, count := range counts {
		if count > 1 {
			collisions = append(collisions, key)
		}
	}

	sort.Strings(collisions)

	return collisions
}
