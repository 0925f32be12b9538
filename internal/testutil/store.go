// Package testutil provides test helpers for setting up in-memory
// durable stores, creating fixtures, and making assertions.
package testutil

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"pocketledger/internal/storage"
)

// SetupTestStore creates a GORM-backed store over an in-memory SQLite
// database. The store is closed automatically when the test ends.
func SetupTestStore(t *testing.T) *storage.GormStore {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	store, err := storage.NewGormStoreWithDB(db)
	if err != nil {
		t.Fatalf("failed to set up test store: %v", err)
	}

	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("failed to close test store: %v", err)
		}
	})
	return store
}

// SetupTestWriter starts an async writer over the given store and
// closes it (flushing pending writes) when the test ends.
func SetupTestWriter(t *testing.T, store storage.Store) *storage.Writer {
	t.Helper()

	writer := storage.NewWriter(store)
	t.Cleanup(writer.Close)
	return writer
}
