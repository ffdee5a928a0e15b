// Package crypto provides the vault envelope cipher.
//
// An envelope is laid out as:
//
//	salt(16) || nonce(12) || ciphertext(n) || tag(16)
//
// Encryption uses AES-256-GCM with:
//   - 32-byte key derived from the passphrase via PBKDF2
//   - 12-byte random nonce per Seal call
//   - 16-byte authentication tag covering the whole payload
//
// Key derivation uses PBKDF2-HMAC-SHA256 with:
//   - 16-byte random salt per Seal call (stored in the envelope)
//   - 100,000 iterations
//
// The same KDF backs passphrase verifiers, always with an independent salt.
//
// Memory safety:
//   - Derived keys are zeroed before Seal and Open return
//   - Use ClearBytes() to zero other sensitive data after use
package crypto
