// Package verifier stores salted PBKDF2 verifiers that prove knowledge of a
// passphrase without storing the passphrase itself.
//
// Verifiers are scoped ("vault", "master"), each scope persisting a
// 32-byte hash and a 16-byte salt as two blobs. Either both exist or the
// scope has no passphrase; every read checks the pair.
package verifier
