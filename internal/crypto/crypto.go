package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	SaltSize     = 16     // Salt size in bytes
	KeySize      = 32     // AES-256 key size
	NonceSize    = 12     // GCM nonce size
	TagSize      = 16     // GCM authentication tag size
	DefaultIters = 100000 // PBKDF2 iterations, fixed by the envelope format

	// MinEnvelopeSize is the size of an envelope sealing an empty payload
	MinEnvelopeSize = SaltSize + NonceSize + TagSize
)

var (
	ErrSaltGeneration    = errors.New("salt generation failed")
	ErrNonceGeneration   = errors.New("nonce generation failed")
	ErrKeyDerivation     = errors.New("key derivation failed")
	ErrInvalidPassphrase = errors.New("invalid passphrase")
	ErrInvalidEnvelope   = errors.New("invalid envelope")
	ErrDecryptionFailed  = errors.New("decryption failed")
)

// randReader is the entropy source for salts and nonces
var randReader io.Reader = rand.Reader

// KDF handles key derivation from passphrases
type KDF struct {
	Salt       []byte
	Iterations int
}

// NewKDF creates a new KDF with a fresh random salt
func NewKDF() (*KDF, error) {
	salt, err := GenerateRandom(SaltSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSaltGeneration, err)
	}

	return &KDF{
		Salt:       salt,
		Iterations: DefaultIters,
	}, nil
}

// DeriveKey derives a KeySize-byte key from a passphrase.
// It is used both for envelope keys and for passphrase verifiers.
func (k *KDF) DeriveKey(passphrase []byte) ([]byte, error) {
	if len(k.Salt) == 0 || k.Iterations <= 0 {
		return nil, ErrKeyDerivation
	}
	key := pbkdf2.Key(passphrase, k.Salt, k.Iterations, KeySize, sha256.New)
	if len(key) != KeySize {
		ClearBytes(key)
		return nil, ErrKeyDerivation
	}
	return key, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCMWithTagSize(block, TagSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// ClearBytes securely clears a byte slice
func ClearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// ConstantTimeCompare performs a constant-time comparison of two byte slices.
// Slices of different length never match.
func ConstantTimeCompare(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// GenerateRandom generates n random bytes
func GenerateRandom(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(randReader, b); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return b, nil
}
