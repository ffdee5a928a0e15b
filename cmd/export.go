package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/illarion/passvault/internal/core"
)

// Export copies the sealed vault envelope to a file (no password required)
func Export(ctx context.Context, path string) {
	session := OpenSession()
	defer session.Close()

	if err := session.Export(ctx, path); err != nil {
		HandleError(err)
	}
	fmt.Printf("exported sealed vault to %s\n", path)
}

// Decrypt opens an exported envelope and prints its records as JSON
func Decrypt(ctx context.Context, path string) {
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	password := GetPasswordOrExit("Enter password: ")

	records, err := core.DecryptFile(ctx, path, password)
	if err != nil {
		HandleError(err)
	}

	out, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		HandleError(err)
	}
	fmt.Println(string(out))
}
