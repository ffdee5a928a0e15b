package blob

import "errors"

// ErrNotFound is returned by Load when no blob exists under the name.
var ErrNotFound = errors.New("blob not found")

// Store is opaque named byte-blob storage.
//
// Implementations must be durable across process restarts (MemoryStore
// excepted) and must replace a blob atomically on Save. Nothing is assumed
// about atomicity across different names.
type Store interface {
	// Save creates or replaces the blob stored under name.
	Save(name string, data []byte) error
	// Load returns a copy of the blob, or ErrNotFound.
	Load(name string) ([]byte, error)
	// Delete removes the blob. Deleting an absent blob is not an error.
	Delete(name string) error
	// Exists reports whether a blob is stored under name.
	Exists(name string) (bool, error)
}
