package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/illarion/passvault/internal/core"
)

// PasswordSource tells where a password came from
type PasswordSource int

const (
	SourceEnv PasswordSource = iota
	SourceKeyring
	SourcePrompt
)

// GetPasswordWithRetry tries the environment, then the keyring cache, then
// the terminal. A cached password that no longer verifies is dropped from
// the keyring and the user is prompted instead.
func GetPasswordWithRetry(prompt string, session *core.Session) (string, PasswordSource, error) {
	if password, ok := core.GetPasswordFromEnv(); ok {
		return password, SourceEnv, nil
	}

	if password, ok := session.CachedPassword(); ok {
		err := session.VerifyPassword(password)
		if err == nil {
			return password, SourceKeyring, nil
		}
		if !errors.Is(err, core.ErrWrongPassphrase) {
			return "", SourceKeyring, err
		}
		fmt.Fprintln(os.Stderr, "warning: password in keyring is stale, removing it")
		_ = session.ForgetPassword()
	}

	password, err := core.ReadPassword(prompt)
	if err != nil {
		return "", SourcePrompt, err
	}
	return password, SourcePrompt, nil
}

// OfferToSavePassword asks whether to cache a prompted password in the keyring
func OfferToSavePassword(session *core.Session, password string) {
	if session.HasCachedPassword() {
		return
	}
	if !Confirm("Save password to keyring?") {
		return
	}
	if err := session.CachePassword(password); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %s\n", err)
		return
	}
	fmt.Println("Password saved to keyring")
}

// UnlockOrExit unlocks session with a password from env, keyring or prompt
func UnlockOrExit(ctx context.Context, session *core.Session) (string, PasswordSource) {
	password, source, err := GetPasswordWithRetry("Enter password: ", session)
	if err != nil {
		HandleError(err)
	}
	if err := session.Unlock(ctx, password); err != nil {
		HandleError(err)
	}
	return password, source
}
