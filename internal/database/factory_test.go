package database

import (
	"testing"

	"cpindex/internal/config"
)

func TestNewDatabaseFromConfig(t *testing.T) {
	t.Run("memory database is migrated", func(t *testing.T) {
		cfg := config.DatabaseConfig{Type: "memory"}
		got, err := NewDatabaseFromConfig(cfg, "test-instance")
		if err != nil {
			t.Fatalf("NewDatabaseFromConfig() unexpected error: %v", err)
		}
		defer got.Close()

		if err := got.CheckMigrations(); err != nil {
			t.Errorf("CheckMigrations() error = %v", err)
		}
	})

	t.Run("sqlite database", func(t *testing.T) {
		cfg := config.DatabaseConfig{
			Type:    "sqlite",
			DataDir: t.TempDir(),
		}
		got, err := NewDatabaseFromConfig(cfg, "test-instance")
		if err != nil {
			t.Fatalf("NewDatabaseFromConfig() unexpected error: %v", err)
		}
		defer got.Close()

		if err := got.CheckMigrations(); err == nil {
			t.Error("CheckMigrations() on a fresh file expected error, got nil")
		}
		if err := got.Migrate(); err != nil {
			t.Fatalf("Migrate() error = %v", err)
		}
		if err := got.CheckMigrations(); err != nil {
			t.Errorf("CheckMigrations() after Migrate error = %v", err)
		}
	})

	t.Run("sqlite database without data_dir", func(t *testing.T) {
		cfg := config.DatabaseConfig{Type: "sqlite"}
		got, err := NewDatabaseFromConfig(cfg, "test-instance")
		if err == nil {
			t.Error("NewDatabaseFromConfig() expected error for missing data_dir, got nil")
		}
		if got != nil {
			t.Error("NewDatabaseFromConfig() should return nil on error")
			got.Close()
		}
	})

	t.Run("postgres without dsn", func(t *testing.T) {
		_, err := NewDatabaseFromConfig(config.DatabaseConfig{Type: "postgres"}, "test-instance")
		if err == nil {
			t.Error("NewDatabaseFromConfig() expected error for missing dsn, got nil")
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := NewDatabaseFromConfig(config.DatabaseConfig{Type: "oracle"}, "test-instance")
		if err == nil {
			t.Error("NewDatabaseFromConfig() expected error for unknown type, got nil")
		}
	})
}
