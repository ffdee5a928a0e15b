package crypto

import (
	"fmt"
	"unicode/utf8"
)

// Seal encrypts plaintext under a key derived from passphrase and returns
// the envelope salt || nonce || ciphertext || tag.
// Every call uses a fresh salt and a fresh nonce.
func Seal(plaintext []byte, passphrase string) ([]byte, error) {
	if !utf8.ValidString(passphrase) {
		return nil, ErrInvalidPassphrase
	}

	kdf, err := NewKDF()
	if err != nil {
		return nil, err
	}

	key, err := kdf.DeriveKey([]byte(passphrase))
	if err != nil {
		return nil, err
	}
	defer ClearBytes(key)

	gcm, err := newGCM(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyDerivation, err)
	}

	nonce, err := GenerateRandom(NonceSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNonceGeneration, err)
	}

	envelope := make([]byte, SaltSize+NonceSize, MinEnvelopeSize+len(plaintext))
	copy(envelope, kdf.Salt)
	copy(envelope[SaltSize:], nonce)

	// GCM appends ciphertext || tag
	return gcm.Seal(envelope, nonce, plaintext, nil), nil
}

// Open authenticates and decrypts an envelope produced by Seal.
// A wrong passphrase and a corrupted envelope both yield ErrDecryptionFailed.
func Open(envelope []byte, passphrase string) ([]byte, error) {
	if len(envelope) < MinEnvelopeSize {
		return nil, ErrInvalidEnvelope
	}
	if !utf8.ValidString(passphrase) {
		return nil, ErrInvalidPassphrase
	}

	salt := envelope[:SaltSize]
	nonce := envelope[SaltSize : SaltSize+NonceSize]
	sealed := envelope[SaltSize+NonceSize:]

	kdf := &KDF{
		Salt:       append([]byte(nil), salt...),
		Iterations: DefaultIters,
	}
	key, err := kdf.DeriveKey([]byte(passphrase))
	if err != nil {
		return nil, err
	}
	defer ClearBytes(key)

	gcm, err := newGCM(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyDerivation, err)
	}

	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	return plaintext, nil
}
