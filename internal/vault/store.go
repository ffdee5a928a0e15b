package vault

import (
	"errors"
	"fmt"
	"sync"

	"github.com/illarion/passvault/internal/blob"
	"github.com/illarion/passvault/internal/crypto"
)

// DefaultBlobName is the blob holding the vault envelope
const DefaultBlobName = "vault"

var (
	ErrWrongPassphraseOrCorrupt = errors.New("wrong passphrase or corrupt vault")
	ErrPersistFailed            = errors.New("failed to persist vault")
	ErrFormat                   = errors.New("malformed vault payload")
	ErrReadFailed               = errors.New("failed to read vault")
	ErrRecordNotFound           = errors.New("record not found")
	ErrDuplicateRecord          = errors.New("record already exists")
)

// Store owns the decrypted record list of an unlocked vault and persists it
// as a single envelope. Every mutation rewrites the whole set; a mutation
// whose save fails is undone in memory.
type Store struct {
	sink blob.Store
	name string

	mu      sync.Mutex
	records []Record
	loaded  bool
}

// NewStore creates a record store persisting to the named blob in sink
func NewStore(sink blob.Store, name string) *Store {
	if name == "" {
		name = DefaultBlobName
	}
	return &Store{sink: sink, name: name}
}

// Exists reports whether a sealed vault has been persisted
func (s *Store) Exists() (bool, error) {
	return s.sink.Exists(s.name)
}

// Load decrypts the persisted vault and replaces the in-memory list.
// An absent vault loads as empty. On failure the list is left unchanged.
func (s *Store) Load(passphrase string) error {
	envelope, err := s.sink.Load(s.name)
	if errors.Is(err, blob.ErrNotFound) {
		s.mu.Lock()
		s.records = []Record{}
		s.loaded = true
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrReadFailed, err)
	}

	plaintext, err := crypto.Open(envelope, passphrase)
	if err != nil {
		if errors.Is(err, crypto.ErrDecryptionFailed) || errors.Is(err, crypto.ErrInvalidEnvelope) || errors.Is(err, crypto.ErrInvalidPassphrase) {
			return ErrWrongPassphraseOrCorrupt
		}
		return err
	}
	defer crypto.ClearBytes(plaintext)

	records, err := Decode(plaintext)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.records = records
	s.loaded = true
	s.mu.Unlock()
	return nil
}

// Save seals the full in-memory list under passphrase and replaces the persisted vault.
func (s *Store) Save(passphrase string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(passphrase)
}

func (s *Store) saveLocked(passphrase string) error {
	plaintext, err := Encode(s.records)
	if err != nil {
		return err
	}
	defer crypto.ClearBytes(plaintext)

	envelope, err := crypto.Seal(plaintext, passphrase)
	if err != nil {
		return err
	}

	if err := s.sink.Save(s.name, envelope); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistFailed, err)
	}
	s.loaded = true
	return nil
}

// mutate applies fn to a copy of the list, saves, and keeps the copy only on success
func (s *Store) mutate(passphrase string, fn func([]Record) ([]Record, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous := s.records
	next, err := fn(cloneRecords(previous))
	if err != nil {
		return err
	}

	s.records = next
	if err := s.saveLocked(passphrase); err != nil {
		s.records = previous
		return err
	}
	return nil
}

// Add appends a record and persists the vault
func (s *Store) Add(record Record, passphrase string) error {
	if err := record.Validate(); err != nil {
		return err
	}
	return s.mutate(passphrase, func(records []Record) ([]Record, error) {
		if indexOf(records, record.ID) >= 0 {
			return nil, ErrDuplicateRecord
		}
		return append(records, record.clone()), nil
	})
}

// Update replaces the record sharing record.ID and persists the vault
func (s *Store) Update(record Record, passphrase string) error {
	if err := record.Validate(); err != nil {
		return err
	}
	return s.mutate(passphrase, func(records []Record) ([]Record, error) {
		i := indexOf(records, record.ID)
		if i < 0 {
			return nil, ErrRecordNotFound
		}
		records[i] = record.clone()
		return records, nil
	})
}

// Delete removes the record sharing record.ID and persists the vault
func (s *Store) Delete(record Record, passphrase string) error {
	return s.mutate(passphrase, func(records []Record) ([]Record, error) {
		i := indexOf(records, record.ID)
		if i < 0 {
			return nil, ErrRecordNotFound
		}
		return append(records[:i], records[i+1:]...), nil
	})
}

// Records returns a copy of the in-memory list, in insertion order
func (s *Store) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneRecords(s.records)
}

// Find returns the record with id
func (s *Store) Find(id string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.records, id)
	if i < 0 {
		return Record{}, false
	}
	return s.records[i].clone(), true
}

// Reset discards the decrypted records, leaving the persisted vault untouched
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.records {
		s.records[i] = Record{}
	}
	s.records = nil
	s.loaded = false
}

// Envelope returns the persisted sealed vault bytes
func (s *Store) Envelope() ([]byte, error) {
	return s.sink.Load(s.name)
}

// Destroy deletes the persisted vault and discards the in-memory list
func (s *Store) Destroy() error {
	if err := s.sink.Delete(s.name); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistFailed, err)
	}
	s.Reset()
	return nil
}

func indexOf(records []Record, id string) int {
	for i := range records {
		if records[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneRecords(records []Record) []Record {
	if records == nil {
		return []Record{}
	}
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = r.clone()
	}
	return out
}
