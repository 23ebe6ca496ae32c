package encryption

import (
	"bytes"
	"fmt"
	"io"

	"cpindex/internal/indexer"
)

// testHeader marks data sealed by TestEncryptor.
var testHeader = []byte("CPIXTEST")

// TestEncryptor is a deterministic stand-in for AgeEncryptor. It prepends a
// fixed header on encryption and strips it on decryption, so sealed backups
// differ from plaintext without any key material.
type TestEncryptor struct {
	setupCalled bool
}

var _ indexer.Encryptor = (*TestEncryptor)(nil)

// NewTestEncryptor creates a new TestEncryptor.
func NewTestEncryptor() *TestEncryptor {
	return &TestEncryptor{}
}

func (e *TestEncryptor) Setup(passphrase string) error {
	e.setupCalled = true
	return nil
}

func (e *TestEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	if _, err := w.Write(testHeader); err != nil {
		return fmt.Errorf("writing test header: %w", err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}

// Unlock accepts any passphrase except "wrong", which lets callers exercise
// the failure path.
func (e *TestEncryptor) Unlock(passphrase string) (indexer.DecryptionContext, error) {
	if passphrase == "wrong" {
		return nil, fmt.Errorf("decrypting private key: incorrect passphrase")
	}
	return &TestDecryptionContext{}, nil
}

func (e *TestEncryptor) IsConfigured() bool {
	return true
}

// TestDecryptionContext strips the header added by TestEncryptor.
type TestDecryptionContext struct{}

var _ indexer.DecryptionContext = (*TestDecryptionContext)(nil)

func (c *TestDecryptionContext) Decrypt(r io.Reader, w io.Writer) error {
	header := make([]byte, len(testHeader))
	if _, err := io.ReadFull(r, header); err != nil {
		return fmt.Errorf("reading test header: %w", err)
	}
	if !bytes.Equal(header, testHeader) {
		return fmt.Errorf("invalid test encryption header")
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}
