// Package testing provides test helpers shared across packages.
package testing

import (
	"testing"

	"github.com/aristath/portfolio-monitor/internal/database"
)

// NewTestDB creates a migrated in-memory cache database. It is closed when
// the test ends.
func NewTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.New(database.Config{
		Path:    database.MemoryPath,
		Profile: database.ProfileCache,
		Name:    "test_cache",
	})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	if err := db.Migrate(); err != nil {
		_ = db.Close()
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		// Tests may close the database themselves
		_ = db.Close()
	})
	return db
}
