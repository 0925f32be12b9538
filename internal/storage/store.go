// Package storage provides the durable key-value store backing the
// ledger. Values are JSON strings; the engine owns three keys, one per
// persisted collection. Callers treat the store as best-effort: a
// failed write is logged and the in-memory state stays authoritative
// for the running session.
package storage

import "context"

// Keys owned by the ledger engine.
const (
	KeyTransactions   = "transactions"
	KeyBalance        = "balance"
	KeyBalanceHistory = "balanceHistory"
)

// Store is an abstract durable key-value store with string keys and
// JSON-serialized string values.
type Store interface {
	// Get returns the value for key. The second result is false when
	// the key is not present.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set writes value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Remove deletes key entirely. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
	// Close releases the underlying resources.
	Close() error
}
