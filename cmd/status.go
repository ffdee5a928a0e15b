package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/illarion/passvault/internal/core"
	"github.com/illarion/passvault/internal/git"
)

// Status shows the current state of the vault (no password required)
func Status(ctx context.Context) {
	session := OpenSession()
	defer session.Close()

	status, err := session.Status(ctx)
	if errors.Is(err, core.ErrNotInitialized) {
		fmt.Println("No vault found")
		fmt.Println("Run 'passvault init' to create one")
		return
	}
	if err != nil {
		HandleError(err)
	}

	fmt.Printf("Vault:      %s (%s)\n", status.Path, status.Backend)
	fmt.Printf("Vault ID:   %s\n", status.VaultID)
	fmt.Printf("Secrets:    %s\n", status.Secrets)
	fmt.Printf("Encryption: %s, PBKDF2-SHA256 %d iterations\n", status.Algorithm, status.KDFIterations)
	if status.Size > 0 {
		fmt.Printf("Size:       %s\n", formatSize(status.Size))
	}
	if !status.Created.IsZero() {
		fmt.Printf("Created:    %s\n", status.Created.Format(time.RFC3339))
		fmt.Printf("Modified:   %s\n", status.Modified.Format(time.RFC3339))
	}
	fmt.Println()
	fmt.Printf("sealed vault:      %s\n", presence(status.VaultPresent))
	fmt.Printf("vault password:    %s\n", presence(status.VerifierPresent))
	fmt.Printf("master password:   %s\n", presence(status.MasterPresent))
	if session.HasCachedPassword() {
		fmt.Println("keyring password:  cached")
	}

	if status.GitStatus != nil {
		fmt.Print(git.FormatStatus(status.GitStatus, status.Path))
	}
}

func presence(ok bool) string {
	if ok {
		return "present"
	}
	return "absent"
}

// formatSize formats a file size in human-readable form
func formatSize(size int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case size >= GB:
		return fmt.Sprintf("%.1f GB", float64(size)/GB)
	case size >= MB:
		return fmt.Sprintf("%.1f MB", float64(size)/MB)
	case size >= KB:
		return fmt.Sprintf("%.1f KB", float64(size)/KB)
	default:
		return fmt.Sprintf("%d bytes", size)
	}
}
