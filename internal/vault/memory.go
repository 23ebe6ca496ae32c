package vault

import (
	"bytes"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"cpindex/internal/indexer"
)

// MemoryVault is an in-memory implementation of the Vault interface,
// useful for tests and throwaway instances.
// This implementation is safe for concurrent use.
type MemoryVault struct {
	name    string
	objects map[string][]byte
	mu      sync.RWMutex
}

// NewMemoryVault creates a new in-memory vault with the given name.
func NewMemoryVault(name string) *MemoryVault {
	return &MemoryVault{
		name:    name,
		objects: make(map[string][]byte),
	}
}

// PutObject stores an object, replacing any previous object under key.
func (m *MemoryVault) PutObject(key string, r io.Reader, size int64) error {
	if err := validateKey(key); err != nil {
		return err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read object: %w", err)
	}

	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.objects[key] = data
	return nil
}

// GetObject writes the object stored under key to w.
func (m *MemoryVault) GetObject(key string, w io.Writer) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.objects[key]
	if !ok {
		return fmt.Errorf("object not found: %s", key)
	}

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write object: %w", err)
	}

	return nil
}

// ListObjects returns the stored keys starting with prefix, sorted.
func (m *MemoryVault) ListObjects(prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var keys []string
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys, nil
}

// ValidateSetup always succeeds for in-memory vault.
func (m *MemoryVault) ValidateSetup() error {
	return nil
}

// validateKey rejects keys that could escape a directory or bucket prefix.
func validateKey(key string) error {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return fmt.Errorf("invalid object key: %q", key)
	}
	return nil
}

// Compile-time check that MemoryVault implements indexer.Vault interface
var _ indexer.Vault = (*MemoryVault)(nil)
