package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver

	"cpindex/internal/database/migrations"
	"cpindex/internal/query"
)

// NewPostgresDatabase opens a PostgreSQL-backed store through pgx.
func NewPostgresDatabase(dsn string, opts Options) (*SQLStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	return NewPostgresDatabaseFromDB(db, opts), nil
}

// NewPostgresDatabaseFromDB wraps an existing pgx connection pool.
func NewPostgresDatabaseFromDB(db *sql.DB, opts Options) *SQLStore {
	return &SQLStore{
		db:         db,
		dialect:    query.Postgres{},
		migrations: migrations.Postgres,
		columnsSQL: "SELECT column_name FROM information_schema.columns WHERE table_name = 'registros' ORDER BY ordinal_position",
		// Restores insert explicit ids, so the sequence has to catch up.
		afterRestore: "SELECT setval(pg_get_serial_sequence('registros', 'id'), COALESCE(MAX(id), 0) + 1, false) FROM registros",
		opts:         opts,
	}
}
