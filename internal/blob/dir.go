package blob

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/illarion/passvault/internal/security"
)

const (
	DirPermSecure  = 0700 // Directory: owner rwx only
	FilePermSecure = 0600 // File: owner rw only
)

var ErrInvalidName = security.ErrInvalidName

var _ Store = (*DirStore)(nil)

// DirStore keeps one file per blob inside a directory.
// Saves write a temporary file and rename it over the target, so a reader
// sees either the old or the new blob, never a partial one. All access goes
// through a security.Root, so blob names cannot reach outside the directory.
type DirStore struct {
	root *security.Root
}

// NewDirStore creates the directory if needed and returns a store rooted at it
func NewDirStore(dir string) (*DirStore, error) {
	if err := os.MkdirAll(dir, DirPermSecure); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}
	root, err := security.Open(dir)
	if err != nil {
		return nil, err
	}
	return &DirStore{root: root}, nil
}

// Close releases the directory handle
func (d *DirStore) Close() error {
	return d.root.Close()
}

// Dir returns the directory backing the store
func (d *DirStore) Dir() string {
	return d.root.Path()
}

func (d *DirStore) Save(name string, data []byte) error {
	if err := d.root.WriteFile(name, data); err != nil {
		return fmt.Errorf("failed to save blob %s: %w", name, err)
	}
	return nil
}

func (d *DirStore) Load(name string) ([]byte, error) {
	data, err := d.root.ReadFile(name)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s: %w", name, err)
	}
	return data, nil
}

func (d *DirStore) Delete(name string) error {
	if err := d.root.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete blob %s: %w", name, err)
	}
	return nil
}

func (d *DirStore) Exists(name string) (bool, error) {
	_, err := d.root.Stat(name)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat blob %s: %w", name, err)
	}
	return true, nil
}

// WriteFileAtomic writes data to a temporary file next to path, syncs it
// and renames it over path.
func WriteFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Chmod(FilePermSecure); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// Atomic replace
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
