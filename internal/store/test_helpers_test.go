package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/retracehq/retrace/internal/fact"
)

// createTestStore creates a new on-disk store in a temp dir for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// mustAssert writes one transaction and fails the test on error.
func mustAssert(t *testing.T, s *Store, entity uuid.UUID, changes map[string]fact.Value) int64 {
	t.Helper()
	txID, _, err := s.Assert(context.Background(), entity, changes)
	if err != nil {
		t.Fatalf("Assert() failed: %v", err)
	}
	return txID
}

// mustRetract writes one retraction transaction and fails the test on error.
func mustRetract(t *testing.T, s *Store, entity uuid.UUID, attrs ...string) int64 {
	t.Helper()
	txID, _, err := s.Retract(context.Background(), entity, attrs)
	if err != nil {
		t.Fatalf("Retract() failed: %v", err)
	}
	return txID
}

// countRows counts rows in a table.
func countRows(t *testing.T, s *Store, table string) int {
	t.Helper()
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return count
}
