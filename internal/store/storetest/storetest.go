// Package storetest opens throwaway in-memory stores for tests.
package storetest

import (
	"context"
	"testing"

	"github.com/amaironohi/shop/internal/store"
)

// New returns a migrated in-memory SQLite store that is closed when t ends
func New(t testing.TB) *store.Store {
	t.Helper()

	ctx := context.Background()
	s, err := store.Open(ctx, store.Config{Driver: string(store.DialectSQLite), DSN: ":memory:"})
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate test store: %v", err)
	}
	return s
}
