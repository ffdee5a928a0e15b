// Package vault holds the credential records of an unlocked vault and
// persists them as one sealed envelope.
//
// There is no incremental on-disk patching: Add, Update and Delete rewrite
// the whole set, and roll their in-memory change back when the save fails,
// so memory and disk never diverge.
package vault
