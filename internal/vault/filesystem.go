package vault

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/natefinch/atomic"

	"cpindex/internal/indexer"
)

// FileSystemVault is a filesystem-based implementation of the Vault interface.
// Objects are plain files named by their key:
//
//	<root>/
//	  objects/
//	    backup-20240115T103000Z-<uuid>.csv
//	    backup-20240116T090000Z-<uuid>.csv.age
type FileSystemVault struct {
	name       string
	root       string
	objectsDir string
}

// NewFileSystemVault creates a new filesystem vault rooted at the given path.
func NewFileSystemVault(name, root string) (*FileSystemVault, error) {
	objectsDir := filepath.Join(root, "objects")

	if err := os.MkdirAll(objectsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create objects directory: %w", err)
	}

	return &FileSystemVault{
		name:       name,
		root:       root,
		objectsDir: objectsDir,
	}, nil
}

// PutObject stores an object, replacing any previous object under key.
// The file is replaced atomically, so readers never see a partial backup.
func (v *FileSystemVault) PutObject(key string, r io.Reader, size int64) error {
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

	if err := atomic.WriteFile(filepath.Join(v.objectsDir, key), bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write object %s: %w", key, err)
	}
	return nil
}

// GetObject writes the object stored under key to w.
func (v *FileSystemVault) GetObject(key string, w io.Writer) error {
	if err := validateKey(key); err != nil {
		return err
	}
	f, err := os.Open(filepath.Join(v.objectsDir, key))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("object not found: %s", key)
		}
		return fmt.Errorf("failed to open object: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to read object: %w", err)
	}
	return nil
}

// ListObjects returns the stored keys starting with prefix, sorted.
// Hidden files such as interrupted temp files are skipped.
func (v *FileSystemVault) ListObjects(prefix string) ([]string, error) {
	entries, err := os.ReadDir(v.objectsDir)
	if err != nil {
		return nil, fmt.Errorf("listing objects: %w", err)
	}

	var keys []string
	for _, e := range entries {
		name := e.Name()
		if !e.Type().IsRegular() || strings.HasPrefix(name, ".") {
			continue
		}
		if strings.HasPrefix(name, prefix) {
			keys = append(keys, name)
		}
	}
	slices.Sort(keys)
	return keys, nil
}

// ValidateSetup verifies that the vault directories are accessible.
func (v *FileSystemVault) ValidateSetup() error {
	for _, dir := range []string{v.root, v.objectsDir} {
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("vault directory not accessible: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("vault path is not a directory: %s", dir)
		}
	}
	return nil
}

// Compile-time check that FileSystemVault implements indexer.Vault interface
var _ indexer.Vault = (*FileSystemVault)(nil)
