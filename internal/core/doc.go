// Package core provides the passvault session: the single owner of one vault
// that wires the configured backend, the passphrase verifiers, the record
// store and the rotation coordinator.
//
// Core operations include:
//   - Init: set the first passphrase and seal an empty vault
//   - Unlock/Lock: decrypt the records or discard them
//   - Add/Update/Delete: mutate records, persisting the whole vault each time
//   - ChangePassword: rotate the passphrase and re-encrypt the vault
//   - Status/Export/Compact: inspect and maintain the sealed vault
//
// Verifier blobs live in the OS keyring or, for headless machines, in the
// vault backend itself.
package core
