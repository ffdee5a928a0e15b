package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/illarion/passvault/internal/core"
)

// Passwd changes the vault password and re-encrypts the vault
func Passwd(ctx context.Context) {
	session := OpenSession()
	defer session.Close()

	// Get current password with retry on stale keyring
	currentPassword, _, err := GetPasswordWithRetry("Enter current password: ", session)
	if err != nil {
		HandleError(err)
	}
	if err := session.VerifyPassword(currentPassword); err != nil {
		HandleError(err)
	}

	// Get new password
	newPassword, err := core.ReadPasswordConfirm("Enter new password: ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	cached := session.HasCachedPassword()

	result, err := session.ChangePassword(ctx, currentPassword, newPassword)
	if err != nil {
		if result != nil && len(result.Steps) > 0 {
			fmt.Fprintf(os.Stderr, "rotation %s after: %s\n", result.State, strings.Join(result.Steps, ", "))
		}
		HandleError(err)
	}

	// Keep a cached password in step with the vault
	if cached {
		if err := session.CachePassword(newPassword); err == nil {
			fmt.Println("Keyring updated with new password")
		}
	}

	// Compact database after rewriting the vault
	if err := session.Compact(); err != nil && !errors.Is(err, core.ErrCompactUnsupported) {
		fmt.Fprintf(os.Stderr, "warning: compaction failed: %s\n", err)
	}

	fmt.Println("password changed successfully")
}
