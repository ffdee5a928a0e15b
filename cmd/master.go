package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/illarion/passvault/internal/core"
)

// MasterSet sets or replaces the master password
func MasterSet(ctx context.Context) {
	session := OpenSession()
	defer session.Close()

	has, err := session.HasMasterPassword()
	if err != nil {
		HandleError(err)
	}

	var current string
	if has {
		current, err = core.ReadPassword("Enter current master password: ")
		if err != nil {
			HandleError(err)
		}
	}

	next, err := core.ReadPasswordConfirm("Enter new master password: ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	if err := session.SetMasterPassword(ctx, current, next); err != nil {
		HandleError(err)
	}
	fmt.Println("master password set")
}

// MasterCheck verifies a master password
func MasterCheck() {
	session := OpenSession()
	defer session.Close()

	password, err := core.ReadPassword("Enter master password: ")
	if err != nil {
		HandleError(err)
	}
	if err := session.CheckMasterPassword(password); err != nil {
		HandleError(err)
	}
	fmt.Println("master password ok")
}

// MasterClear removes the master password
func MasterClear() {
	session := OpenSession()
	defer session.Close()

	password, err := core.ReadPassword("Enter master password: ")
	if err != nil {
		HandleError(err)
	}
	if err := session.ClearMasterPassword(password); err != nil {
		HandleError(err)
	}
	fmt.Println("master password removed")
}
