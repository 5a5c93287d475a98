package duplicatecleaner

import (
	"context"

	"github.com/samber/lo"

	"github.com/skynet2/spending-dashboard/pkg/common"
	"github.com/skynet2/spending-dashboard/pkg/database"
	"github.com/skynet2/spending-dashboard/pkg/fingerprint"
)

// DuplicateCleaner finds transactions that were already imported through
// another session, matching them by fingerprint.
type DuplicateCleaner struct {
	sessions SessionSource
}

func NewDuplicateCleaner(
	sessions SessionSource,
) *DuplicateCleaner {
	return &DuplicateCleaner{
		sessions: sessions,
	}
}

// GetDuplicates maps every fingerprint of transactions that also appears in a
// session other than excludeSessionID to the ids of those sessions.
func (d *DuplicateCleaner) GetDuplicates(
	ctx context.Context,
	transactions []database.Transaction,
	excludeSessionID string,
) map[string][]string {
	final := map[string][]string{}

	if len(transactions) == 0 {
		return final
	}

	wanted := lo.SliceToMap(transactions, func(tx database.Transaction) (string, struct{}) {
		return fingerprint.Key(tx), struct{}{}
	})

	for _, s := range d.sessions.Sessions(ctx) {
		if s.ID == excludeSessionID || s.AnalysisResult == nil {
			continue
		}

		seen := map[string]struct{}{}

		for _, tx := range s.AnalysisResult.Transactions {
			key := fingerprint.Key(tx)

			if _, ok := wanted[key]; !ok {
				continue
			}

			if _, ok := seen[key]; ok {
				continue
			}

			seen[key] = struct{}{}
			final[key] = append(final[key], s.ID)
		}
	}

	return final
}

// SessionDuplicates runs GetDuplicates for the transactions of one session.
func (d *DuplicateCleaner) SessionDuplicates(
	ctx context.Context,
	sessionID string,
) (map[string][]string, error) {
	target, ok := lo.Find(d.sessions.Sessions(ctx), func(s *database.ImportSession) bool {
		return s.ID == sessionID
	})
	if !ok {
		return nil, common.ErrSessionNotFound
	}

	if target.AnalysisResult == nil {
		return map[string][]string{}, nil
	}

	return d.GetDuplicates(ctx, target.AnalysisResult.Transactions, sessionID), nil
}
