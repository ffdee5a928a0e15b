package keyring

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/illarion/passvault/internal/blob"
)

// DefaultService is the keyring service name entries are grouped under
const DefaultService = "passvault"

// passwordPrefix namespaces cached vault passphrases away from blobs
const passwordPrefix = "password:"

var _ blob.Store = (*Store)(nil)

// Store keeps blobs in the OS keyring, base64 encoded, one entry per name.
type Store struct {
	service string
}

// NewStore returns a keyring-backed blob store for service
func NewStore(service string) *Store {
	if service == "" {
		service = DefaultService
	}
	return &Store{service: service}
}

// Service returns the keyring service name
func (s *Store) Service() string {
	return s.service
}

func (s *Store) Save(name string, data []byte) error {
	if err := keyring.Set(s.service, name, base64.StdEncoding.EncodeToString(data)); err != nil {
		return fmt.Errorf("failed to save %s to keyring: %w", name, err)
	}
	return nil
}

func (s *Store) Load(name string) ([]byte, error) {
	encoded, err := keyring.Get(s.service, name)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, blob.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s from keyring: %w", name, err)
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("corrupt keyring entry %s: %w", name, err)
	}
	return data, nil
}

func (s *Store) Delete(name string) error {
	err := keyring.Delete(s.service, name)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete %s from keyring: %w", name, err)
	}
	return nil
}

func (s *Store) Exists(name string) (bool, error) {
	_, err := keyring.Get(s.service, name)
	if errors.Is(err, keyring.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query keyring: %w", err)
	}
	return true, nil
}

// SavePassword caches a vault passphrase in the OS keyring
func (s *Store) SavePassword(vaultID string, password string) error {
	return keyring.Set(s.service, passwordPrefix+vaultID, password)
}

// GetPassword retrieves a cached vault passphrase
func (s *Store) GetPassword(vaultID string) (string, error) {
	return keyring.Get(s.service, passwordPrefix+vaultID)
}

// DeletePassword removes a cached vault passphrase
func (s *Store) DeletePassword(vaultID string) error {
	return keyring.Delete(s.service, passwordPrefix+vaultID)
}

// HasPassword checks if a passphrase is cached for the vault
func (s *Store) HasPassword(vaultID string) bool {
	_, err := keyring.Get(s.service, passwordPrefix+vaultID)
	return err == nil
}
