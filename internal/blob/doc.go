// Package blob defines the named byte-blob storage the vault engine
// persists verifiers and envelopes to, with in-memory and directory
// implementations. Keyring, bbolt and SQLite backends live in their own
// packages.
package blob
