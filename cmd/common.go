package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/illarion/passvault/internal/config"
	"github.com/illarion/passvault/internal/core"
	"github.com/illarion/passvault/internal/crypto"
	"github.com/illarion/passvault/internal/policy"
	"github.com/illarion/passvault/internal/rotation"
	"github.com/illarion/passvault/internal/vault"
	"github.com/illarion/passvault/internal/verifier"
)

// stdin is shared so buffered input survives between prompts
var stdin = bufio.NewReader(os.Stdin)

// OpenSession loads configuration and returns a session, exiting on error
func OpenSession() *core.Session {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	return core.New(cfg)
}

// GetPassword retrieves password from environment or prompts user
func GetPassword(prompt string) (string, error) {
	// Try environment variable first
	if password, ok := core.GetPasswordFromEnv(); ok {
		return password, nil
	}

	// Prompt user
	password, err := core.ReadPassword(prompt)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	return password, nil
}

// GetPasswordOrExit is like GetPassword but exits on error
func GetPasswordOrExit(prompt string) string {
	password, err := GetPassword(prompt)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	return password
}

// GetNewPassword retrieves a new password from environment or prompts with confirmation
func GetNewPassword(prompt string) (string, error) {
	if password, ok := core.GetPasswordFromEnv(); ok {
		return password, nil
	}
	return core.ReadPasswordConfirm(prompt)
}

// Prompt reads one line from stdin, returning def when the answer is empty
func Prompt(prompt, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(os.Stderr, "%s [%s]: ", prompt, def)
	} else {
		fmt.Fprintf(os.Stderr, "%s: ", prompt)
	}

	line, err := stdin.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return def, nil
	}
	return line, nil
}

// ReadSecret reads a record secret without echo on a terminal, or as a plain
// line when stdin is piped
func ReadSecret(prompt string) (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		return core.ReadPassword(prompt + ": ")
	}
	return Prompt(prompt, "")
}

// Confirm asks a yes/no question, defaulting to no
func Confirm(question string) bool {
	answer, err := Prompt(question+" (y/N)", "")
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

// HandleError handles common errors consistently
func HandleError(err error) {
	switch {
	case errors.Is(err, core.ErrNotInitialized):
		fmt.Fprintf(os.Stderr, "Error: passvault not initialized\n")
		fmt.Fprintf(os.Stderr, "Run 'passvault init' first\n")
	case errors.Is(err, core.ErrAlreadyExists):
		fmt.Fprintf(os.Stderr, "Error: vault already initialized\n")
		fmt.Fprintf(os.Stderr, "Use 'passvault status' to see current state\n")
	case errors.Is(err, core.ErrWrongPassphrase), errors.Is(err, rotation.ErrWrongPassphrase):
		fmt.Fprintf(os.Stderr, "Error: wrong password\n")
	case errors.Is(err, vault.ErrWrongPassphraseOrCorrupt):
		fmt.Fprintf(os.Stderr, "Error: wrong password or corrupt vault\n")
	case errors.Is(err, policy.ErrWeakPassphrase):
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		fmt.Fprintf(os.Stderr, "Use at least 8 characters with letters and digits\n")
	case errors.Is(err, vault.ErrRecordNotFound):
		fmt.Fprintf(os.Stderr, "Error: no such record\n")
		fmt.Fprintf(os.Stderr, "Use 'passvault ls' to list record IDs\n")
	case errors.Is(err, verifier.ErrInconsistent):
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		fmt.Fprintf(os.Stderr, "The stored passphrase verifier is damaged\n")
	case errors.Is(err, crypto.ErrInvalidEnvelope):
		fmt.Fprintf(os.Stderr, "Error: not a passvault envelope\n")
	case errors.Is(err, core.ErrNoMasterPassword):
		fmt.Fprintf(os.Stderr, "Error: no master password set\n")
		fmt.Fprintf(os.Stderr, "Use 'passvault master set' to create one\n")
	default:
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
	os.Exit(1)
}
