package indexer

import (
	"fmt"
	"time"

	"cpindex/internal/catalog"
)

// Service is the orchestration layer that coordinates the store, the read
// cache, the backup vault and the export renderers for the CLI and the HTTP
// API.
type Service struct {
	database  Database
	cache     Cache
	vault     Vault
	encryptor Encryptor
	renderers map[string]Renderer
	formats   []string
	logger    Logger
	clock     Clock
	idgen     IDGenerator
	loc       *time.Location
}

// NewService creates a new Service with the provided dependencies.
// vault and encryptor may be nil: backups then fail with ErrNoVault and are
// stored unencrypted respectively. The field catalog is validated here so a
// bad label never reaches the store.
func NewService(database Database, cache Cache, vault Vault, encryptor Encryptor, renderers []Renderer, logger Logger, clock Clock, idgen IDGenerator, loc *time.Location) (*Service, error) {
	if err := catalog.Validate(); err != nil {
		return nil, fmt.Errorf("invalid field catalog: %w", err)
	}
	if cache == nil {
		cache = nopCache{}
	}
	if logger == nil {
		logger = NewNopLogger()
	}
	if clock == nil {
		clock = RealClock{}
	}
	if idgen == nil {
		idgen = UUIDGenerator{}
	}
	if loc == nil {
		loc = time.UTC
	}

	s := &Service{
		database:  database,
		cache:     cache,
		vault:     vault,
		encryptor: encryptor,
		renderers: make(map[string]Renderer),
		logger:    logger,
		clock:     clock,
		idgen:     idgen,
		loc:       loc,
	}
	for _, r := range renderers {
		if _, dup := s.renderers[r.Format()]; dup {
			return nil, fmt.Errorf("duplicate renderer for format %q", r.Format())
		}
		s.renderers[r.Format()] = r
		s.formats = append(s.formats, r.Format())
	}
	return s, nil
}

// Location returns the display timezone.
func (s *Service) Location() *time.Location { return s.loc }

// Types lists the record types in catalog order.
func (s *Service) Types() []catalog.RecordType { return catalog.Types() }

// invalidate flushes the read cache. Every write calls it before reporting
// success.
func (s *Service) invalidate() {
	s.cache.Flush()
}

// now returns the current time in UTC, the zone timestamps are stored in.
func (s *Service) now() time.Time {
	return s.clock.Now().UTC()
}

type nopCache struct{}

func (nopCache) Get(string) (any, bool) { return nil, false }
func (nopCache) Set(string, any)        {}
func (nopCache) Flush()                 {}
