// Package storage provides the on-disk backends for passvault.
//
// The default backend is a BBolt database with three buckets:
//   - config: format version, timestamps, vault ID (unencrypted)
//   - vault: the sealed vault envelope
//   - secrets: passphrase verifier blobs when the OS keyring is not used
//
// The unencrypted config bucket lets passvault status work without a
// passphrase. BBolt provides ACID transactions, file locking, and
// corruption detection; each blob write is its own transaction.
//
// SQLiteStore offers the same blob.Store contract on a SQLite file.
package storage
