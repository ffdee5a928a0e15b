package core

import (
	"fmt"
	"os"
	"syscall"

	"golang.org/x/term"

	"github.com/illarion/passvault/internal/crypto"
)

// PasswordEnv names the variable a passphrase may be supplied in
const PasswordEnv = "PASSVAULT_PASSWORD"

// ReadPassword reads a password from the terminal without echoing
func ReadPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)

	// Read password without echo
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // New line after password

	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	defer crypto.ClearBytes(password)

	return string(password), nil
}

// ReadPasswordConfirm reads a password twice and ensures they match
func ReadPasswordConfirm(prompt string) (string, error) {
	password1, err := ReadPassword(prompt)
	if err != nil {
		return "", err
	}

	password2, err := ReadPassword("Confirm password: ")
	if err != nil {
		return "", err
	}

	if !crypto.ConstantTimeCompare([]byte(password1), []byte(password2)) {
		return "", fmt.Errorf("passwords do not match")
	}

	return password1, nil
}

// GetPasswordFromEnv reads password from PASSVAULT_PASSWORD environment variable
func GetPasswordFromEnv() (string, bool) {
	password := os.Getenv(PasswordEnv)
	if password == "" {
		return "", false
	}
	return password, true
}
