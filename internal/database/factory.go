package database

import (
	"fmt"
	"os"
	"path/filepath"

	"cpindex/internal/config"
)

// NewDatabaseFromConfig creates a store based on the database config type.
// In-memory databases start empty, so their migrations are applied here.
func NewDatabaseFromConfig(cfg config.DatabaseConfig, instanceID string) (*SQLStore, error) {
	opts := Options{StrictColumns: cfg.StrictColumns}
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dbPath := filepath.Join(cfg.DataDir, instanceID+".db")
		return NewSQLiteDatabase(dbPath, opts)
	case "memory":
		db, err := NewSQLiteDatabase(":memory:", opts)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrating in-memory database: %w", err)
		}
		return db, nil
	case "postgres":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("dsn required for postgres database")
		}
		return NewPostgresDatabase(cfg.DSN, opts)
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}
