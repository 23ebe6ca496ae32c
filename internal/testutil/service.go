package testutil

import (
	"testing"
	"time"

	"cpindex/internal/database"
	"cpindex/internal/indexer"
	"cpindex/internal/readcache"
)

// Admin and Editor are the actors used across service tests.
var (
	Admin  = indexer.Actor{Email: "admin@paroquia.org", Admin: true}
	Editor = indexer.Actor{Email: "ana@paroquia.org"}
)

// ServiceFixture bundles a Service with the collaborators a test inspects.
type ServiceFixture struct {
	Service   *indexer.Service
	DB        *database.SQLStore
	Cache     *readcache.Cache
	Vault     indexer.Vault
	Encryptor indexer.Encryptor
	Clock     *StubClock
}

// ServiceOption customizes NewTestService.
type ServiceOption func(*serviceConfig)

type serviceConfig struct {
	vault     indexer.Vault
	encryptor indexer.Encryptor
	renderers []indexer.Renderer
	dbOpts    database.Options
	loc       *time.Location
}

// WithVault attaches a backup vault.
func WithVault(v indexer.Vault) ServiceOption {
	return func(c *serviceConfig) { c.vault = v }
}

// WithEncryptor attaches a backup encryptor.
func WithEncryptor(e indexer.Encryptor) ServiceOption {
	return func(c *serviceConfig) { c.encryptor = e }
}

// WithRenderers enables export renderers.
func WithRenderers(r ...indexer.Renderer) ServiceOption {
	return func(c *serviceConfig) { c.renderers = r }
}

// WithStrictColumns makes the store reject duplicate columns.
func WithStrictColumns() ServiceOption {
	return func(c *serviceConfig) { c.dbOpts.StrictColumns = true }
}

// WithLocation sets the display timezone.
func WithLocation(loc *time.Location) ServiceOption {
	return func(c *serviceConfig) { c.loc = loc }
}

// NewTestService wires a Service over an in-memory store, a real read cache
// and a fixed clock.
func NewTestService(t *testing.T, opts ...ServiceOption) *ServiceFixture {
	t.Helper()

	var cfg serviceConfig
	for _, o := range opts {
		o(&cfg)
	}

	db := NewTestDatabaseWithOptions(t, cfg.dbOpts)
	cache := readcache.New(0)
	clock := FixedClock()

	svc, err := indexer.NewService(db, cache, cfg.vault, cfg.encryptor, cfg.renderers,
		indexer.NewNopLogger(), clock, NewStubIDGenerator(), cfg.loc)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}

	return &ServiceFixture{
		Service:   svc,
		DB:        db,
		Cache:     cache,
		Vault:     cfg.vault,
		Encryptor: cfg.encryptor,
		Clock:     clock,
	}
}
