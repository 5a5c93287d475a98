package session

import (
	"context"
)

//go:generate mockgen -destination interfaces_mocks_test.go -package session_test -source=interfaces.go

type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string) error
}

// Listener receives session lifecycle events. Callbacks run after the manager
// released its lock, so they may call back into the manager.
type Listener interface {
	// ActiveSessionChanged reports a change of the active session id. An
	// empty id means no session.
	ActiveSessionChanged(ctx context.Context, previous string, next string)
	SessionDeleted(ctx context.Context, sessionID string)
}
