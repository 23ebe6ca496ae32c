package encryption

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"filippo.io/age"
	"filippo.io/age/armor"
	"github.com/natefinch/atomic"

	"cpindex/internal/config"
	"cpindex/internal/indexer"
)

// ErrKeysExist is returned by Setup when a key pair is already present.
var ErrKeysExist = errors.New("encryption keys already exist")

// AgeEncryptor implements indexer.Encryptor using filippo.io/age with X25519
// keys. The public key is stored in plaintext so backups can be sealed
// unattended; the private key is sealed with the operator's passphrase
// (scrypt) and stored ASCII-armored.
type AgeEncryptor struct {
	publicKeyPath  string
	privateKeyPath string
}

var _ indexer.Encryptor = (*AgeEncryptor)(nil)

// NewAgeEncryptor creates a new AgeEncryptor from configuration.
func NewAgeEncryptor(cfg config.EncryptionConfig) *AgeEncryptor {
	return &AgeEncryptor{
		publicKeyPath:  cfg.PublicKeyPath,
		privateKeyPath: cfg.PrivateKeyPath,
	}
}

// Setup generates a key pair. It never overwrites existing keys: backups
// sealed with them would become unreadable.
func (e *AgeEncryptor) Setup(passphrase string) error {
	if passphrase == "" {
		return fmt.Errorf("passphrase must not be empty")
	}
	for _, p := range []string{e.publicKeyPath, e.privateKeyPath} {
		if _, err := os.Stat(p); err == nil {
			return fmt.Errorf("%w: %s", ErrKeysExist, p)
		}
	}

	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return fmt.Errorf("generating key pair: %w", err)
	}

	sealed, err := sealIdentity(identity, passphrase)
	if err != nil {
		return err
	}

	for _, p := range []string{e.publicKeyPath, e.privateKeyPath} {
		if err := os.MkdirAll(filepath.Dir(p), 0700); err != nil {
			return fmt.Errorf("creating key directory: %w", err)
		}
	}
	if err := atomic.WriteFile(e.privateKeyPath, bytes.NewReader(sealed)); err != nil {
		return fmt.Errorf("writing private key: %w", err)
	}
	if err := os.Chmod(e.privateKeyPath, 0600); err != nil {
		return fmt.Errorf("restricting private key permissions: %w", err)
	}
	pub := identity.Recipient().String() + "\n"
	if err := atomic.WriteFile(e.publicKeyPath, bytes.NewReader([]byte(pub))); err != nil {
		return fmt.Errorf("writing public key: %w", err)
	}
	return nil
}

// sealIdentity encrypts an identity with a passphrase and armors it.
func sealIdentity(identity *age.X25519Identity, passphrase string) ([]byte, error) {
	recipient, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt recipient: %w", err)
	}

	var buf bytes.Buffer
	aw := armor.NewWriter(&buf)
	w, err := age.Encrypt(aw, recipient)
	if err != nil {
		return nil, fmt.Errorf("creating encrypted writer: %w", err)
	}
	if _, err := io.WriteString(w, identity.String()+"\n"); err != nil {
		return nil, fmt.Errorf("writing encrypted private key: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalizing encrypted private key: %w", err)
	}
	if err := aw.Close(); err != nil {
		return nil, fmt.Errorf("finalizing armor: %w", err)
	}
	return buf.Bytes(), nil
}

// Encrypt reads plaintext from r and writes age ciphertext to w using the
// stored public key.
func (e *AgeEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	recipient, err := e.loadRecipient()
	if err != nil {
		return fmt.Errorf("loading public key: %w", err)
	}

	encWriter, err := age.Encrypt(w, recipient)
	if err != nil {
		return fmt.Errorf("creating encrypted writer: %w", err)
	}
	if _, err := io.Copy(encWriter, r); err != nil {
		return fmt.Errorf("encrypting data: %w", err)
	}
	if err := encWriter.Close(); err != nil {
		return fmt.Errorf("finalizing encryption: %w", err)
	}
	return nil
}

// Unlock opens the sealed private key with the passphrase.
func (e *AgeEncryptor) Unlock(passphrase string) (indexer.DecryptionContext, error) {
	f, err := os.Open(e.privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("opening private key file: %w", err)
	}
	defer f.Close()

	identity, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt identity: %w", err)
	}

	decReader, err := age.Decrypt(armor.NewReader(f), identity)
	if err != nil {
		return nil, fmt.Errorf("decrypting private key: %w", err)
	}

	identities, err := age.ParseIdentities(decReader)
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}
	if len(identities) == 0 {
		return nil, fmt.Errorf("no identities found in private key")
	}

	return &AgeDecryptionContext{identity: identities[0]}, nil
}

// IsConfigured returns true if both key files exist.
func (e *AgeEncryptor) IsConfigured() bool {
	for _, p := range []string{e.publicKeyPath, e.privateKeyPath} {
		if _, err := os.Stat(p); err != nil {
			return false
		}
	}
	return true
}

// loadRecipient reads the public key from disk and parses it.
func (e *AgeEncryptor) loadRecipient() (age.Recipient, error) {
	f, err := os.Open(e.publicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("reading public key: %w", err)
	}
	defer f.Close()

	recipients, err := age.ParseRecipients(f)
	if err != nil {
		return nil, fmt.Errorf("parsing public key: %w", err)
	}
	if len(recipients) == 0 {
		return nil, fmt.Errorf("no recipients found in public key file")
	}
	return recipients[0], nil
}

// AgeDecryptionContext holds an unlocked age identity for decrypting backups.
type AgeDecryptionContext struct {
	identity age.Identity
}

var _ indexer.DecryptionContext = (*AgeDecryptionContext)(nil)

// Decrypt reads age ciphertext from r and writes plaintext to w.
func (c *AgeDecryptionContext) Decrypt(r io.Reader, w io.Writer) error {
	decReader, err := age.Decrypt(r, c.identity)
	if err != nil {
		return fmt.Errorf("creating decrypted reader: %w", err)
	}
	if _, err := io.Copy(w, decReader); err != nil {
		return fmt.Errorf("decrypting data: %w", err)
	}
	return nil
}
