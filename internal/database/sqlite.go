package database

import (
	"database/sql"
	"fmt"

	"cpindex/internal/database/migrations"
	"cpindex/internal/query"
)

// NewSQLiteDatabase opens a SQLite-backed store.
// path can be a file path or ":memory:" for an in-memory database.
func NewSQLiteDatabase(path string, opts Options) (*SQLStore, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	return NewSQLiteDatabaseFromDB(db, opts), nil
}

// NewSQLiteDatabaseFromDB wraps an existing connection opened with OpenConnection.
func NewSQLiteDatabaseFromDB(db *sql.DB, opts Options) *SQLStore {
	return &SQLStore{
		db:         db,
		dialect:    query.SQLite{},
		migrations: migrations.SQLite,
		columnsSQL: "SELECT name FROM pragma_table_info('registros') ORDER BY cid",
		opts:       opts,
	}
}

// OpenConnection opens and configures a SQLite connection with the
// casefold and page_ordinal functions registered.
// This is exported for use in tools and tests that need a properly configured SQLite connection.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open(sqliteDriver, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: an in-memory database exists per connection, and a
	// single writer avoids SQLITE_BUSY on files.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}
