package dashboard

import (
	"context"

	"github.com/skynet2/spending-dashboard/pkg/database"
)

//go:generate mockgen -destination interfaces_mocks_test.go -package dashboard_test -source=interfaces.go

type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string) error
	Remove(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
}

type Parser interface {
	Parse(ctx context.Context, fileName string, data []byte) (*database.CsvAnalysisResult, error)
}
