package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	original := &Config{
		InstanceID:      "paroquia-abc",
		BaseDir:         "/home/user/.local/share/cpindex",
		LogDir:          "/home/user/.local/share/cpindex/log",
		DisplayTimezone: "America/Sao_Paulo",
		Admins:          []string{"admin@example.org"},
		Users: []UserConfig{
			{Email: "admin@example.org", PasswordHash: "$2a$10$abc"},
			{Email: "ana@example.org", PasswordHash: "$2a$10$def"},
		},
		Database: DatabaseConfig{Type: "postgres", DSN: "postgres://localhost/cpindex", StrictColumns: true},
		Vaults: []VaultConfig{
			{Type: "filesystem", Name: "local", FSVaultRoot: "/backup/vault"},
		},
		Encryption: EncryptionConfig{
			Type:           "age",
			PublicKeyPath:  "/home/user/.local/share/cpindex/keys/cpindex.pub",
			PrivateKeyPath: "/home/user/.local/share/cpindex/keys/cpindex.key",
		},
		Export: ExportConfig{Formats: []string{"xlsx"}},
		Server: ServerConfig{Addr: ":9000"},
		Cache:  CacheConfig{TTLSeconds: 30},
	}

	var buf bytes.Buffer
	m := &Manager{}

	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if diff := cmp.Diff(original, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestManager_Read(t *testing.T) {
	t.Run("minimal file", func(t *testing.T) {
		in := `
instance_id = "x"
admins = ["Admin@Example.org"]

[database]
type = "memory"

[[users]]
email = "admin@example.org"
password_hash = "h"
`
		got, err := (&Manager{}).Read(strings.NewReader(in))
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if got.Database.Type != "memory" {
			t.Errorf("Database.Type = %q, want memory", got.Database.Type)
		}
		if len(got.Users) != 1 || got.Users[0].PasswordHash != "h" {
			t.Errorf("Users = %+v", got.Users)
		}
		if got.Database.StrictColumns {
			t.Error("StrictColumns should default to false")
		}
	})

	t.Run("invalid toml", func(t *testing.T) {
		if _, err := (&Manager{}).Read(strings.NewReader("instance_id = ")); err == nil {
			t.Fatal("Read() expected error")
		}
	})
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("host-1", "/data/cpindex")

	if cfg.InstanceID != "host-1" {
		t.Errorf("InstanceID = %q, want %q", cfg.InstanceID, "host-1")
	}
	if cfg.BaseDir != "/data/cpindex" {
		t.Errorf("BaseDir = %q, want %q", cfg.BaseDir, "/data/cpindex")
	}
	if cfg.LogDir != "/data/cpindex/log" {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, "/data/cpindex/log")
	}
	if cfg.Database.Type != "sqlite" || cfg.Database.DataDir != "/data/cpindex/db" {
		t.Errorf("Database = %+v, want sqlite under /data/cpindex/db", cfg.Database)
	}
	if len(cfg.Vaults) != 1 || cfg.Vaults[0].Type != "filesystem" || cfg.Vaults[0].FSVaultRoot != "/data/cpindex/backups" {
		t.Errorf("Vaults = %+v, want one filesystem vault under /data/cpindex/backups", cfg.Vaults)
	}
	if cfg.Encryption.Type != "none" {
		t.Errorf("Encryption.Type = %q, want none", cfg.Encryption.Type)
	}
	if cfg.Encryption.PublicKeyPath != "/data/cpindex/keys/cpindex.pub" {
		t.Errorf("Encryption.PublicKeyPath = %q", cfg.Encryption.PublicKeyPath)
	}
	if diff := cmp.Diff([]string{"xlsx", "pdf-table", "pdf-detailed"}, cfg.Export.Formats); diff != "" {
		t.Errorf("Export.Formats mismatch (-want +got):\n%s", diff)
	}
}

func TestConfig_Location(t *testing.T) {
	t.Run("defaults to Sao Paulo", func(t *testing.T) {
		loc, err := (&Config{}).Location()
		if err != nil {
			t.Fatalf("Location() error = %v", err)
		}
		if loc.String() != DefaultTimezone {
			t.Errorf("Location() = %q, want %q", loc, DefaultTimezone)
		}
	})

	t.Run("configured zone", func(t *testing.T) {
		loc, err := (&Config{DisplayTimezone: "UTC"}).Location()
		if err != nil {
			t.Fatalf("Location() error = %v", err)
		}
		if loc.String() != "UTC" {
			t.Errorf("Location() = %q, want UTC", loc)
		}
	})

	t.Run("unknown zone", func(t *testing.T) {
		if _, err := (&Config{DisplayTimezone: "Nowhere/Atlantis"}).Location(); err == nil {
			t.Fatal("Location() expected error")
		}
	})
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "cpindex.toml")
		cfg := NewConfig("h1", dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		if _, err := os.Stat(path); err != nil {
			t.Fatalf("config file not created: %v", err)
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "cpindex.toml")
		cfg := NewConfig("h1", dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}

		err := Init(path, cfg)
		if err == nil {
			t.Fatal("second Init() expected error")
		}
	})
}

func TestReadFromFile(t *testing.T) {
	t.Run("reads valid config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "cpindex.toml")
		cfg := NewConfig("read-test", dir)
		cfg.Database = DatabaseConfig{Type: "memory"}

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.InstanceID != "read-test" {
			t.Errorf("InstanceID = %q, want %q", got.InstanceID, "read-test")
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		_, err := ReadFromFile("/nonexistent/path/cpindex.toml")
		if err == nil {
			t.Fatal("ReadFromFile() expected error for missing file")
		}
	})
}
