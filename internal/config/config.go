package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
	_ "time/tzdata" // display timezone must resolve on hosts without zoneinfo

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration for cpindex.
type Config struct {
	InstanceID      string           `toml:"instance_id"`
	BaseDir         string           `toml:"base_dir"`
	LogDir          string           `toml:"log_dir"`
	DisplayTimezone string           `toml:"display_timezone"`
	Admins          []string         `toml:"admins"`
	Users           []UserConfig     `toml:"users"`
	Database        DatabaseConfig   `toml:"database"`
	Vaults          []VaultConfig    `toml:"vaults"`
	Encryption      EncryptionConfig `toml:"encryption"`
	Export          ExportConfig     `toml:"export"`
	Server          ServerConfig     `toml:"server"`
	Cache           CacheConfig      `toml:"cache"`
}

// DefaultTimezone is the zone audit timestamps are displayed in.
const DefaultTimezone = "America/Sao_Paulo"

// UserConfig is one account known to the static authenticator.
type UserConfig struct {
	Email        string `toml:"email"`
	PasswordHash string `toml:"password_hash"` // bcrypt
}

// EncryptionConfig holds paths to the age key pair used for encrypted backups.
type EncryptionConfig struct {
	Type           string `toml:"type"`             // "age", "test" or "none" (default)
	PublicKeyPath  string `toml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path"`
}

// VaultConfig represents configuration for a backup vault backend.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type VaultConfig struct {
	Type string `toml:"type"` // "memory", "s3", or "filesystem"
	Name string `toml:"name"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket   string `toml:"s3_bucket,omitempty"`
	S3Prefix   string `toml:"s3_prefix,omitempty"`
	S3Region   string `toml:"s3_region,omitempty"`
	S3Endpoint string `toml:"s3_endpoint,omitempty"` // S3-compatible services; forces path-style addressing

	// Static credentials; the default AWS credential chain is used when empty.
	S3AccessKeyID     string `toml:"s3_access_key_id,omitempty"`
	S3SecretAccessKey string `toml:"s3_secret_access_key,omitempty"`

	// FileSystem-specific fields (only used when Type == "filesystem")
	FSVaultRoot string `toml:"fs_vault_root,omitempty"`
}

// DatabaseConfig represents configuration for the records database.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type          string `toml:"type"`               // "sqlite", "memory" or "postgres"
	DataDir       string `toml:"data_dir,omitempty"` // only used for type=sqlite
	DSN           string `toml:"dsn,omitempty"`      // only used for type=postgres
	StrictColumns bool   `toml:"strict_columns"`     // reject duplicate or reserved columns on insert
}

// ExportConfig lists the enabled export formats.
type ExportConfig struct {
	Formats []string `toml:"formats"` // "xlsx", "pdf-table", "pdf-detailed"
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// CacheConfig configures the read cache for distinct books and locations.
type CacheConfig struct {
	TTLSeconds int `toml:"ttl_seconds"` // 0 keeps entries until the next write
}

// NewConfig creates a new Config with the provided values and defaults.
func NewConfig(instanceID, baseDir string) *Config {
	return &Config{
		InstanceID:      instanceID,
		BaseDir:         baseDir,
		LogDir:          filepath.Join(baseDir, "log"),
		DisplayTimezone: DefaultTimezone,
		Database: DatabaseConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "db"),
		},
		Vaults: []VaultConfig{{
			Type:        "filesystem",
			Name:        "local",
			FSVaultRoot: filepath.Join(baseDir, "backups"),
		}},
		Encryption: EncryptionConfig{
			Type:           "none",
			PublicKeyPath:  filepath.Join(baseDir, "keys", "cpindex.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "cpindex.key"),
		},
		Export: ExportConfig{
			Formats: []string{"xlsx", "pdf-table", "pdf-detailed"},
		},
		Server: ServerConfig{Addr: "127.0.0.1:8080"},
	}
}

// Location loads the display timezone, falling back to DefaultTimezone
// when none is configured.
func (c *Config) Location() (*time.Location, error) {
	name := c.DisplayTimezone
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("loading display timezone %q: %w", name, err)
	}
	return loc, nil
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
// This is an internal helper and should not be exported.
func writeToFile(path string, cfg *Config) error {
	// Ensure the directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	// Check if config already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
