package identity

import "context"

// Store persists ledger records. Save is an upsert; Find returns
// sentinel.ErrNotFound (optionally wrapped) for unknown users, and backed
// implementations return sentinel.ErrUnavailable-wrapped errors when the
// backing service is unreachable. Concurrent writers to the same user race
// last-write-wins; the service adds no locking on top.
type Store interface {
	Save(ctx context.Context, rec Record) error
	Find(ctx context.Context, userID string) (Record, error)
	List(ctx context.Context) ([]string, error)
}

// Publisher receives ledger log lines for the console stream.
type Publisher interface {
	Info(message string)
	Warn(message string)
}
