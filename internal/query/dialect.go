package query

import (
	"fmt"
	"strconv"
)

// Dialect captures the SQL differences between the supported engines.
type Dialect interface {
	Name() string
	// Placeholder returns the bind marker for the n-th argument, counting from 1.
	Placeholder(n int) string
	// Fold wraps expr in a Unicode-aware lower-casing expression.
	Fold(expr string) string
	// PageOrdinal returns the leading integer of a page/folio expression,
	// or NULL when it has none.
	PageOrdinal(expr string) string
}

// SQLite folds with the casefold function and extracts ordinals with
// page_ordinal. Both are registered by the database package's driver.
type SQLite struct{}

func (SQLite) Name() string            { return "sqlite" }
func (SQLite) Placeholder(int) string  { return "?" }
func (SQLite) Fold(expr string) string { return fmt.Sprintf("casefold(%s)", expr) }
func (SQLite) PageOrdinal(expr string) string {
	return fmt.Sprintf("NULLIF(page_ordinal(%s), -1)", expr)
}

// Postgres uses numbered placeholders and a regular expression substring.
type Postgres struct{}

func (Postgres) Name() string             { return "postgres" }
func (Postgres) Placeholder(n int) string { return "$" + strconv.Itoa(n) }
func (Postgres) Fold(expr string) string  { return fmt.Sprintf("lower(%s)", expr) }
func (Postgres) PageOrdinal(expr string) string {
	return fmt.Sprintf(`CAST(NULLIF(substring(%s from '^\s*([0-9]+)'), '') AS BIGINT)`, expr)
}

// DialectFor returns the dialect registered under name.
func DialectFor(name string) (Dialect, error) {
	switch name {
	case "sqlite", "sqlite3", "memory":
		return SQLite{}, nil
	case "postgres", "pgx":
		return Postgres{}, nil
	}
	return nil, fmt.Errorf("unknown SQL dialect: %q", name)
}
