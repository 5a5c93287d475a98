package duplicatecleaner

import (
	"context"

	"github.com/skynet2/spending-dashboard/pkg/database"
)

//go:generate mockgen -destination interfaces_mocks_test.go -package duplicatecleaner_test -source=interfaces.go

type SessionSource interface {
	Sessions(ctx context.Context) []*database.ImportSession
}
