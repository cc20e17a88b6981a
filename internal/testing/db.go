// Package testing provides mocks, fixtures and database helpers shared by
// package tests.
package testing

import (
	"strings"
	"testing"

	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/database"
)

// NewTestDB creates an isolated in-memory SQLite database with schema applied.
// The database is closed when the test finishes.
func NewTestDB(t *testing.T, schema string) *database.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.New(database.Config{
		Path:    "file:" + name + "?mode=memory",
		Profile: database.ProfileStandard,
		Name:    name,
	})
	if err != nil {
		t.Fatalf("Failed to create test database %s: %v", name, err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("Warning: Failed to close test database %s: %v", name, err)
		}
	})

	if schema != "" {
		if err := db.Migrate(schema); err != nil {
			t.Fatalf("Failed to migrate test database %s: %v", name, err)
		}
	}

	return db
}
