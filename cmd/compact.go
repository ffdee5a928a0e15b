package cmd

import (
	"context"
	"fmt"
)

// Compact compacts the vault database to reclaim unused space
func Compact(ctx context.Context) {
	session := OpenSession()
	defer session.Close()

	before, err := session.Status(ctx)
	if err != nil {
		HandleError(err)
	}

	if err := session.Compact(); err != nil {
		HandleError(err)
	}

	after, err := session.Status(ctx)
	if err != nil {
		HandleError(err)
	}

	fmt.Printf("Compacted: %s -> %s\n", formatSize(before.Size), formatSize(after.Size))
}
