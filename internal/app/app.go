package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/natefinch/atomic"

	"cpindex/internal/auth"
	"cpindex/internal/config"
	"cpindex/internal/database"
	"cpindex/internal/encryption"
	"cpindex/internal/export"
	"cpindex/internal/httpapi"
	"cpindex/internal/indexer"
	"cpindex/internal/readcache"
	"cpindex/internal/tabular"
	"cpindex/internal/vault"
)

// CPIndexApp is the application layer between the CLI and the indexer
// service. It constructs all dependencies from config, exposes operations
// that take file paths and raw credentials, and releases resources on Close.
type CPIndexApp struct {
	cfg       *config.Config
	db        *database.SQLStore
	vault     indexer.Vault
	encryptor indexer.Encryptor
	service   *indexer.Service
	op        *Operation
	logger    *slog.Logger
	logFile   *os.File
	clock     indexer.Clock
}

// Options tune how NewCPIndexApp builds the app.
type Options struct {
	// Verbose enables debug records in the log.
	Verbose bool
	// Stderr receives a copy of every log line. Nil keeps logs in the file only.
	Stderr io.Writer
}

// NewCPIndexApp creates a fully wired CPIndexApp from the given config.
// operation names the CLI command being run (e.g. "Search", "AdminBackup").
// The caller must call Close when done.
func NewCPIndexApp(ctx context.Context, cfg *config.Config, operation string, opts Options) (*CPIndexApp, error) {
	clock := indexer.RealClock{}
	op := NewOperation(operation, clock, indexer.UUIDGenerator{})

	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger, logFile, err := newLogger(cfg.LogDir, op.ID, level, opts.Stderr)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	a := &CPIndexApp{cfg: cfg, op: op, logger: logger, logFile: logFile, clock: clock}
	if err := a.wire(ctx); err != nil {
		a.Close()
		return nil, err
	}
	logger.Debug("operation started", "operation", operation)
	return a, nil
}

func (a *CPIndexApp) wire(ctx context.Context) error {
	db, err := database.NewDatabaseFromConfig(a.cfg.Database, a.cfg.InstanceID)
	if err != nil {
		return fmt.Errorf("creating database: %w", err)
	}
	a.db = db

	if err := db.CheckMigrations(); err != nil {
		return fmt.Errorf("database schema out of date (run `cpindex db migrate`): %w", err)
	}

	if len(a.cfg.Vaults) > 0 {
		v, err := vault.NewVaultFromConfig(ctx, a.cfg.Vaults[0])
		if err != nil {
			return fmt.Errorf("creating vault: %w", err)
		}
		a.vault = v
	}

	enc, err := encryption.NewEncryptorFromConfig(a.cfg.Encryption)
	if err != nil {
		return fmt.Errorf("creating encryptor: %w", err)
	}
	a.encryptor = enc

	renderers, err := export.NewRenderers(a.cfg.Export.Formats)
	if err != nil {
		return fmt.Errorf("configuring export: %w", err)
	}

	loc, err := a.cfg.Location()
	if err != nil {
		return err
	}

	cache := readcache.New(time.Duration(a.cfg.Cache.TTLSeconds) * time.Second)

	svc, err := indexer.NewService(db, cache, a.vault, a.encryptor, renderers,
		&slogAdapter{l: a.logger}, a.clock, indexer.UUIDGenerator{}, loc)
	if err != nil {
		return fmt.Errorf("creating service: %w", err)
	}
	a.service = svc
	return nil
}

// MigrateDatabase applies pending schema migrations to the configured store.
func MigrateDatabase(cfg *config.Config) error {
	db, err := database.NewDatabaseFromConfig(cfg.Database, cfg.InstanceID)
	if err != nil {
		return fmt.Errorf("creating database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	return nil
}

// SetupEncryption generates the backup key pair for the configured
// encryptor. It is a no-op when encryption is disabled.
func SetupEncryption(cfg *config.Config, passphrase string) error {
	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return fmt.Errorf("creating encryptor: %w", err)
	}
	if enc == nil {
		return nil
	}
	return enc.Setup(passphrase)
}

func (a *CPIndexApp) Service() *indexer.Service { return a.service }
func (a *CPIndexApp) Config() *config.Config    { return a.cfg }
func (a *CPIndexApp) Operation() *Operation     { return a.op }

// Encrypted reports whether backups are sealed before they reach the vault.
func (a *CPIndexApp) Encrypted() bool { return a.encryptor != nil }

// Authenticator returns the static authenticator over the configured users.
func (a *CPIndexApp) Authenticator() (auth.Authenticator, error) {
	return auth.NewStaticAuthenticator(a.cfg.Users, a.cfg.Admins)
}

// RequiresPassword reports whether Actor checks passwords. Without
// configured users the CLI trusts the given email.
func (a *CPIndexApp) RequiresPassword() bool { return len(a.cfg.Users) > 0 }

// Actor resolves the identity a CLI command runs as.
func (a *CPIndexApp) Actor(email, password string) (indexer.Actor, error) {
	if email == "" {
		return indexer.Actor{}, fmt.Errorf("no user given: pass --as or set CPINDEX_USER")
	}
	if !a.RequiresPassword() {
		return indexer.Actor{Email: email, Admin: indexer.IsAdmin(email, a.cfg.Admins)}, nil
	}
	authenticator, err := a.Authenticator()
	if err != nil {
		return indexer.Actor{}, err
	}
	return authenticator.Authenticate(email, password)
}

// ExportToFile renders the selected books into path. The file is replaced
// atomically and left untouched when there is nothing to export.
func (a *CPIndexApp) ExportToFile(ctx context.Context, format string, books []string, path string) (int, error) {
	var buf bytes.Buffer
	n, err := a.service.Export(ctx, format, books, &buf)
	if err != nil || n == 0 {
		return n, err
	}
	if err := atomic.WriteFile(path, &buf); err != nil {
		return 0, fmt.Errorf("writing %s: %w", path, err)
	}
	return n, nil
}

// BackupToFile writes a plain CSV backup to path.
func (a *CPIndexApp) BackupToFile(ctx context.Context, actor indexer.Actor, path string) (int, error) {
	var buf bytes.Buffer
	n, err := a.service.Backup(ctx, actor, &buf)
	if err != nil {
		return 0, err
	}
	if err := atomic.WriteFile(path, &buf); err != nil {
		return 0, fmt.Errorf("writing %s: %w", path, err)
	}
	return n, nil
}

// RestoreFromFile replaces every record with a CSV backup read from path.
func (a *CPIndexApp) RestoreFromFile(ctx context.Context, actor indexer.Actor, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening backup: %w", err)
	}
	defer f.Close()
	return a.service.Restore(ctx, actor, f)
}

// RestoreFromVault restores a stored backup. passphrase unlocks the private
// key and is only used for encrypted backups.
func (a *CPIndexApp) RestoreFromVault(ctx context.Context, actor indexer.Actor, key, passphrase string) (int, error) {
	var dec indexer.DecryptionContext
	if indexer.IsEncryptedBackup(key) {
		if a.encryptor == nil {
			return 0, fmt.Errorf("backup %s is encrypted but encryption is not configured", key)
		}
		var err error
		if dec, err = a.encryptor.Unlock(passphrase); err != nil {
			return 0, fmt.Errorf("unlocking backup key: %w", err)
		}
	}
	return a.service.RestoreFromVault(ctx, actor, key, dec)
}

// ImportFile ingests a CSV or XLSX file, picking the format from its name.
func (a *CPIndexApp) ImportFile(ctx context.Context, actor indexer.Actor, recordType, book, path string) (indexer.ImportResult, error) {
	format, err := tabular.FormatFromName(path)
	if err != nil {
		return indexer.ImportResult{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return indexer.ImportResult{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	return a.service.Import(ctx, actor, indexer.ImportRequest{
		Type:   recordType,
		Book:   book,
		Format: format,
		Data:   f,
	})
}

// Serve runs the HTTP API on the configured address until ctx is done.
func (a *CPIndexApp) Serve(ctx context.Context) error {
	authenticator, err := a.Authenticator()
	if err != nil {
		return fmt.Errorf("loading users: %w", err)
	}
	logger := &slogAdapter{l: a.logger}
	h := httpapi.NewHandler(a.service, authenticator, logger, indexer.UUIDGenerator{})
	e := httpapi.NewServer(h, logger)

	a.logger.Info("serving", "addr", a.cfg.Server.Addr)
	return httpapi.Serve(ctx, e, a.cfg.Server.Addr)
}

// Close logs the outcome of the operation and releases the database and
// log file.
func (a *CPIndexApp) Close() error {
	var firstErr error

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			firstErr = fmt.Errorf("closing database: %w", err)
		}
	}

	if a.logFile != nil {
		a.logger.Debug("operation finished", "operation", a.op.Name, "status", a.op.Status,
			"elapsed", a.clock.Now().Sub(a.op.Started).Truncate(time.Millisecond))
		a.logFile.Close()
	}

	return firstErr
}
