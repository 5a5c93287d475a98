package filters

import (
	"context"
)

//go:generate mockgen -destination interfaces_mocks_test.go -package filters_test -source=interfaces.go

type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string) error
	Remove(ctx context.Context, key string) error
}

type SessionLookup interface {
	HasSession(ctx context.Context, id string) bool
}
