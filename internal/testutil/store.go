package testutil

import (
	"context"
	"testing"

	"github.com/HerbHall/dnsswitch/internal/journal"
	"github.com/HerbHall/dnsswitch/internal/store"
)

// NewStore creates an in-memory SQLiteStore for testing.
// The store is automatically closed when the test completes.
func NewStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	db, err := store.New(store.MemoryPath)
	if err != nil {
		t.Fatalf("testutil.NewStore: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// NewJournal returns a migrated journal over an in-memory store.
func NewJournal(t *testing.T) *journal.Repository {
	t.Helper()
	repo, err := journal.NewRepository(context.Background(), NewStore(t))
	if err != nil {
		t.Fatalf("testutil.NewJournal: %v", err)
	}
	return repo
}
