package cmd

import (
	"fmt"
	"os"

	"github.com/illarion/passvault/internal/core"
)

// KeyringSave saves the vault password to the OS keyring
func KeyringSave() {
	session := OpenSession()
	defer session.Close()

	// Prompt for password
	password, err := core.ReadPassword("Enter password: ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	// Verifies the password before storing it
	if err := session.CachePassword(password); err != nil {
		HandleError(err)
	}

	fmt.Println("Password saved to keyring")
}

// KeyringDelete removes the vault password from the OS keyring
func KeyringDelete() {
	session := OpenSession()
	defer session.Close()

	if err := session.ForgetPassword(); err != nil {
		fmt.Println("No password stored in keyring")
		return
	}

	fmt.Println("Password removed from keyring")
}

// KeyringStatus checks if a password is stored in the keyring
func KeyringStatus() {
	session := OpenSession()
	defer session.Close()

	if session.HasCachedPassword() {
		fmt.Println("Password: stored in keyring")
	} else {
		fmt.Println("Password: not stored")
	}
}
