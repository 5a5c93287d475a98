package common

import "github.com/cockroachdb/errors"

var (
	ErrSessionNotFound              = errors.New("session not found")
	ErrPersonNotFound               = errors.New("Person not found")
	ErrRecordNotFound               = errors.New("reimbursement record not found")
	ErrTransactionAlreadyAssociated = errors.New("Transaction already associated")
	ErrInvalidName                  = errors.New("name must not be empty")
	ErrInvalidAmount                = errors.New("amount must be positive")
	ErrEmptyFile                    = errors.New("empty file")
	ErrNoTransactions               = errors.New("no transactions found")
	ErrMissingColumns               = errors.New("required columns not found")
	ErrUnsupportedFormat            = errors.New("unsupported file format")
)
