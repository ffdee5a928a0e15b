package security

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const FilePermSecure = 0600 // File: owner rw only

var ErrInvalidName = errors.New("name must be a single local path element")

// Root provides file operations confined to one directory using the
// os.Root API. Symlinks cannot lead reads or writes outside of it.
type Root struct {
	root *os.Root
	path string
}

// Open opens an existing directory as a Root
func Open(dir string) (*Root, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	root, err := os.OpenRoot(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open root: %w", err)
	}

	return &Root{root: root, path: absPath}, nil
}

// Close releases the directory handle
func (r *Root) Close() error {
	return r.root.Close()
}

// Path returns the absolute directory path
func (r *Root) Path() string {
	return r.path
}

// ValidateName accepts a single, local path element. It rejects:
// - Empty names
// - Separators of either platform
// - Names that are not local (using filepath.IsLocal), including reserved names
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidName)
	}
	if strings.ContainsAny(name, `/\`) || name == "." || !filepath.IsLocal(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// ReadFile reads name
func (r *Root) ReadFile(name string) ([]byte, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	f, err := r.root.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// Stat stats name
func (r *Root) Stat(name string) (os.FileInfo, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	return r.root.Stat(name)
}

// Remove removes name
func (r *Root) Remove(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	return r.root.Remove(name)
}

// WriteFile replaces name with data. The data is written to a temporary
// file inside the root, synced, and renamed over name, so readers see either
// the old or the new content.
func (r *Root) WriteFile(name string, data []byte) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	tmpName := "." + name + ".tmp-" + uuid.NewString()
	tmp, err := r.root.OpenFile(tmpName, os.O_WRONLY|os.O_CREATE|os.O_EXCL, FilePermSecure)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		r.root.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		r.root.Remove(tmpName)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		r.root.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := r.root.Rename(tmpName, name); err != nil {
		r.root.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}
