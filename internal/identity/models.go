package identity

import "time"

// Record is one user's ledger entry: the provider-signed binding of their
// public key plus the currently issued one-time code, if any. Re-registering
// overwrites the whole record, which is what invalidates an outstanding code.
type Record struct {
	UserID       string
	KeyBinding   []byte
	CurrentCode  string
	CodeIssuedAt time.Time
}
