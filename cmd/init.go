package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/illarion/passvault/internal/core"
)

// Init creates a new vault and sets its first password
func Init(ctx context.Context) {
	session := OpenSession()
	defer session.Close()

	password, err := GetNewPassword("Enter password: ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	if err := session.Init(ctx, password); err != nil {
		HandleError(err)
	}

	vaultID, err := session.GetVaultID()
	if err != nil {
		HandleError(err)
	}
	fmt.Printf("initialized vault %s\n", vaultID)

	if _, fromEnv := core.GetPasswordFromEnv(); !fromEnv {
		OfferToSavePassword(session, password)
	}
}
