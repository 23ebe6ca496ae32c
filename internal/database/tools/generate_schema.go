package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cpindex/internal/database"
	"cpindex/internal/database/migrations"
)

func main() {
	db, err := database.OpenConnection(":memory:")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := migrations.MigrateUp(db, migrations.SQLite); err != nil {
		fmt.Fprintf(os.Stderr, "Migration failed: %v\n", err)
		os.Exit(1)
	}

	schema, err := extractSchema(db)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to extract schema: %v\n", err)
		os.Exit(1)
	}

	outPath := filepath.Join("internal", "database", "schema.sql")
	if err := os.WriteFile(outPath, []byte(schema), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write schema file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generated %s from migrations\n", outPath)
}

// extractSchema reads every CREATE statement from sqlite_master, skipping
// SQLite internals and the migration tracking table.
func extractSchema(db *sql.DB) (string, error) {
	query := `
		SELECT sql || ';'
		FROM sqlite_master
		WHERE type IN ('table', 'index')
		  AND sql IS NOT NULL
		  AND name NOT LIKE 'sqlite_%'
		  AND name != 'schema_migrations'
		  AND tbl_name != 'schema_migrations'
		ORDER BY
		  CASE type
		    WHEN 'table' THEN 1
		    WHEN 'index' THEN 2
		  END,
		  name
	`

	rows, err := db.Query(query)
	if err != nil {
		return "", fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var b strings.Builder
	b.WriteString(`-- This file is auto-generated from migration files.
-- DO NOT EDIT MANUALLY. Run 'go generate ./internal/database' to regenerate.
-- Source: internal/database/migrations/files/sqlite/*.sql

`)
	for rows.Next() {
		var stmt string
		if err := rows.Scan(&stmt); err != nil {
			return "", fmt.Errorf("scan failed: %w", err)
		}
		b.WriteString(stmt + "\n\n")
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("rows error: %w", err)
	}
	return b.String(), nil
}
