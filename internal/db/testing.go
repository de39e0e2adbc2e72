// Package db test helpers. Using these ensures in-memory databases for
// speed and cleanup via t.Cleanup().
package db

import (
	"testing"
)

// NewTestDB creates an in-memory workspace database for testing.
// The database is closed automatically when the test completes and schema
// migrations are applied.
func NewTestDB(t testing.TB) *DB {
	t.Helper()

	d, err := OpenInMemory()
	if err != nil {
		t.Fatalf("create test db: %v", err)
	}

	t.Cleanup(func() {
		_ = d.Close()
	})

	return d
}
