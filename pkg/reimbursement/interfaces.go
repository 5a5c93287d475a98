package reimbursement

import (
	"context"
)

//go:generate mockgen -destination interfaces_mocks_test.go -package reimbursement_test -source=interfaces.go

type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string) error
}
