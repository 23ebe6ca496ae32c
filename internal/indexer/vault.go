package indexer

import "io"

// Vault stores backup objects. Operations stream through io.Reader and
// io.Writer so a full-table dump never has to sit in memory twice.
type Vault interface {
	// PutObject stores the object under key. size is the number of bytes
	// that will be read from r. Writing an existing key replaces it.
	PutObject(key string, r io.Reader, size int64) error

	// GetObject writes the object stored under key to w.
	GetObject(key string, w io.Writer) error

	// ListObjects returns the keys starting with prefix, sorted ascending.
	ListObjects(prefix string) ([]string, error)

	// ValidateSetup verifies that the vault is accessible and properly configured.
	ValidateSetup() error
}
