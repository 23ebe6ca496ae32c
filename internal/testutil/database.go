package testutil

import (
	"testing"

	"cpindex/internal/database"
)

// NewTestDatabase creates a new in-memory SQLite store with the schema
// applied. The store is automatically closed when the test completes.
func NewTestDatabase(t *testing.T) *database.SQLStore {
	t.Helper()
	return NewTestDatabaseWithOptions(t, database.Options{})
}

// NewTestDatabaseWithOptions is NewTestDatabase with store options.
func NewTestDatabaseWithOptions(t *testing.T, opts database.Options) *database.SQLStore {
	t.Helper()

	sqlDB, err := database.OpenConnection(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	if _, err := sqlDB.Exec(database.Schema); err != nil {
		sqlDB.Close()
		t.Fatalf("failed to apply schema: %v", err)
	}

	db := database.NewSQLiteDatabaseFromDB(sqlDB, opts)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}
