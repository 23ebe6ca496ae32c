package testutil

import (
	"cpindex/internal/vault"
)

// NewTestVault creates a new in-memory backup vault for testing.
func NewTestVault() *vault.MemoryVault {
	return vault.NewMemoryVault("test-vault")
}
