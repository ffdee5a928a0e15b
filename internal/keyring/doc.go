// Package keyring stores passphrase verifiers in the OS keyring and caches
// vault passphrases for non-interactive unlocks.
package keyring
