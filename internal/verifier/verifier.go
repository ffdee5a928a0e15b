package verifier

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/illarion/passvault/internal/blob"
	"github.com/illarion/passvault/internal/crypto"
)

// Scopes with independent verifiers
const (
	ScopeVault  = "vault"
	ScopeMaster = "master"
)

var (
	ErrStorage       = errors.New("verifier storage failure")
	ErrInconsistent  = errors.New("verifier hash and salt out of sync")
	ErrNoBackup      = errors.New("no verifier backup")
	ErrInvalidBackup = errors.New("invalid verifier backup")
)

// Backup is an in-memory snapshot of a verifier, used to roll back a rotation.
// It is never persisted.
type Backup struct {
	Hash []byte
	Salt []byte
}

// Clear zeroes the snapshot
func (b *Backup) Clear() {
	if b == nil {
		return
	}
	crypto.ClearBytes(b.Hash)
	crypto.ClearBytes(b.Salt)
}

// Verifier proves knowledge of a passphrase for one scope without storing it.
// The hash and salt live in two blobs, "<scope>Hash" and "<scope>Salt";
// either both exist or the scope has no passphrase.
type Verifier struct {
	store blob.Store
	scope string
}

// New creates a verifier for scope over store
func New(store blob.Store, scope string) *Verifier {
	return &Verifier{store: store, scope: scope}
}

// Scope returns the verifier scope
func (v *Verifier) Scope() string {
	return v.scope
}

// HashName returns the blob name of the stored hash
func (v *Verifier) HashName() string {
	return v.scope + "Hash"
}

// SaltName returns the blob name of the stored salt
func (v *Verifier) SaltName() string {
	return v.scope + "Salt"
}

func derive(passphrase string, salt []byte) ([]byte, error) {
	if !utf8.ValidString(passphrase) {
		return nil, crypto.ErrInvalidPassphrase
	}
	kdf := &crypto.KDF{Salt: salt, Iterations: crypto.DefaultIters}
	return kdf.DeriveKey([]byte(passphrase))
}

// Set stores a fresh verifier for passphrase, replacing any existing one.
func (v *Verifier) Set(passphrase string) error {
	kdf, err := crypto.NewKDF()
	if err != nil {
		return err
	}
	hash, err := derive(passphrase, kdf.Salt)
	if err != nil {
		return err
	}
	defer crypto.ClearBytes(hash)

	return v.write(hash, kdf.Salt)
}

// write stores hash then salt, deleting the hash again if the salt write fails
func (v *Verifier) write(hash, salt []byte) error {
	if err := v.store.Save(v.HashName(), hash); err != nil {
		return fmt.Errorf("%w: failed to save hash: %v", ErrStorage, err)
	}
	if err := v.store.Save(v.SaltName(), salt); err != nil {
		if delErr := v.store.Delete(v.HashName()); delErr != nil {
			return fmt.Errorf("%w: failed to save salt: %v (hash rollback failed: %v)", ErrStorage, err, delErr)
		}
		return fmt.Errorf("%w: failed to save salt: %v", ErrStorage, err)
	}
	return nil
}

// load returns the stored pair, or (nil, nil, nil) when the scope has no
// passphrase. A lone hash or salt counts as no passphrase.
func (v *Verifier) load() (hash, salt []byte, err error) {
	hash, err = v.store.Load(v.HashName())
	if errors.Is(err, blob.ErrNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: failed to load hash: %v", ErrStorage, err)
	}

	salt, err = v.store.Load(v.SaltName())
	if errors.Is(err, blob.ErrNotFound) {
		crypto.ClearBytes(hash)
		return nil, nil, nil
	}
	if err != nil {
		crypto.ClearBytes(hash)
		return nil, nil, fmt.Errorf("%w: failed to load salt: %v", ErrStorage, err)
	}

	if len(hash) != crypto.KeySize || len(salt) == 0 {
		crypto.ClearBytes(hash)
		return nil, nil, ErrInconsistent
	}
	return hash, salt, nil
}

// Verify reports whether passphrase matches the stored verifier.
// It is false when no passphrase is set or the verifier cannot be read.
func (v *Verifier) Verify(passphrase string) bool {
	hash, salt, err := v.load()
	if err != nil || hash == nil {
		return false
	}
	defer crypto.ClearBytes(hash)

	candidate, err := derive(passphrase, salt)
	if err != nil {
		return false
	}
	defer crypto.ClearBytes(candidate)

	return crypto.ConstantTimeCompare(candidate, hash)
}

// Has reports whether a passphrase is set for the scope
func (v *Verifier) Has() bool {
	hash, _, err := v.load()
	if err != nil || hash == nil {
		return false
	}
	crypto.ClearBytes(hash)
	return true
}

// Delete removes both blobs. Deleting an absent verifier succeeds.
func (v *Verifier) Delete() error {
	hashErr := v.store.Delete(v.HashName())
	saltErr := v.store.Delete(v.SaltName())
	if err := errors.Join(hashErr, saltErr); err != nil {
		return fmt.Errorf("%w: failed to delete verifier: %v", ErrStorage, err)
	}
	return nil
}

// Backup snapshots the stored verifier. It returns nil when no passphrase is set.
func (v *Verifier) Backup() (*Backup, error) {
	hash, salt, err := v.load()
	if err != nil {
		return nil, err
	}
	if hash == nil {
		return nil, nil
	}
	return &Backup{Hash: hash, Salt: salt}, nil
}

// Restore writes a snapshot back, with the same hash rollback as Set.
func (v *Verifier) Restore(b *Backup) error {
	if b == nil {
		return ErrNoBackup
	}
	if len(b.Hash) != crypto.KeySize || len(b.Salt) == 0 {
		return ErrInvalidBackup
	}
	return v.write(b.Hash, b.Salt)
}
