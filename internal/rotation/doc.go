// Package rotation implements the vault passphrase change protocol.
//
// A rotation moves through Idle, Verifying and Rewriting, ending Committed
// or RolledBack:
//
//  1. verify the current passphrase (when one is set) and load the records
//  2. snapshot the verifier
//  3. delete the verifier
//  4. set the verifier for the new passphrase; on failure restore the snapshot
//  5. re-encrypt and save the records under the new passphrase; on failure
//     delete the new verifier and restore the snapshot
//
// The vault blob is only replaced by the final step, so it always decrypts
// under exactly one of the two passphrases, and the verifier is restored to
// match it whenever that passphrase is the old one.
package rotation
