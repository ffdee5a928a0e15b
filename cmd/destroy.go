package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/illarion/passvault/internal/core"
)

// Destroy deletes the sealed vault and its passphrase verifiers
func Destroy(ctx context.Context, force bool) {
	session := OpenSession()
	defer session.Close()

	password, _, err := GetPasswordWithRetry("Enter password: ", session)
	if err != nil {
		HandleError(err)
	}
	if err := session.VerifyPassword(password); err != nil {
		HandleError(err)
	}

	if !force && !Confirm("Delete all records? This cannot be undone.") {
		fmt.Fprintln(os.Stderr, "aborted")
		os.Exit(1)
	}

	if err := session.Destroy(ctx, password); err != nil {
		HandleError(err)
	}

	if err := session.Compact(); err != nil && !errors.Is(err, core.ErrCompactUnsupported) {
		fmt.Fprintf(os.Stderr, "warning: compaction failed: %s\n", err)
	}
	fmt.Println("vault destroyed")
	fmt.Println("Run 'passvault init' to start over")
}
