package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/illarion/passvault/internal/core"
	"github.com/illarion/passvault/internal/vault"
)

// Add stores a new record. Missing title or username are prompted for.
func Add(ctx context.Context, title, username string, notes *string) {
	session := OpenSession()
	defer session.Close()

	password, source := UnlockOrExit(ctx, session)

	var err error
	if title == "" {
		if title, err = Prompt("Title", ""); err != nil {
			HandleError(err)
		}
	}
	if username == "" {
		if username, err = Prompt("Username", ""); err != nil {
			HandleError(err)
		}
	}
	secret, err := ReadSecret("Record password")
	if err != nil {
		HandleError(err)
	}

	record, err := session.Add(title, username, secret, notes)
	if err != nil {
		HandleError(err)
	}
	fmt.Printf("added: %s %s\n", record.ID, record.Title)

	if source == SourcePrompt {
		OfferToSavePassword(session, password)
	}
}

// Ls lists records without their passwords
func Ls(ctx context.Context, quiet bool) {
	session := OpenSession()
	defer session.Close()

	password, source := UnlockOrExit(ctx, session)

	records, err := session.Records()
	if err != nil {
		HandleError(err)
	}

	if quiet {
		for _, record := range records {
			fmt.Println(record.ID)
		}
		return
	}

	if len(records) == 0 {
		fmt.Println("No records in vault")
	} else {
		fmt.Println("Records:")
		for _, record := range records {
			fmt.Printf("  %s  %s (%s)\n", record.ID, record.Title, record.Username)
		}
	}

	if source == SourcePrompt {
		OfferToSavePassword(session, password)
	}
}

// Show prints one record including its password
func Show(ctx context.Context, id string) {
	session := OpenSession()
	defer session.Close()

	UnlockOrExit(ctx, session)

	record, err := session.Record(id)
	if err != nil {
		HandleError(err)
	}
	printRecord(record)
}

func printRecord(record vault.Record) {
	fmt.Printf("id:       %s\n", record.ID)
	fmt.Printf("title:    %s\n", record.Title)
	fmt.Printf("username: %s\n", record.Username)
	fmt.Printf("password: %s\n", record.Password)
	if record.Notes != nil {
		fmt.Printf("notes:\n%s\n", *record.Notes)
	}
}

// EditOptions holds the fields to change; nil means unchanged
type EditOptions struct {
	Title      *string
	Username   *string
	Password   bool // prompt for a new record password
	Notes      *string
	ClearNotes bool
}

// Edit updates a record and prints what changed
func Edit(ctx context.Context, id string, opts EditOptions) {
	session := OpenSession()
	defer session.Close()

	UnlockOrExit(ctx, session)

	prev, err := session.Record(id)
	if err != nil {
		HandleError(err)
	}

	next := prev
	if opts.Title != nil {
		next.Title = *opts.Title
	}
	if opts.Username != nil {
		next.Username = *opts.Username
	}
	if opts.Password {
		if next.Password, err = ReadSecret("New record password"); err != nil {
			HandleError(err)
		}
	}
	switch {
	case opts.ClearNotes:
		next = next.WithNotes(nil)
	case opts.Notes != nil:
		next = next.WithNotes(opts.Notes)
	}

	diff := core.RecordDiff(prev, next)
	if diff == "" {
		fmt.Println("No changes")
		return
	}

	if err := session.Update(next); err != nil {
		HandleError(err)
	}
	fmt.Print(diff)
}

// Remove deletes records by ID
func Remove(ctx context.Context, ids []string) {
	if len(ids) == 0 {
		fmt.Fprintf(os.Stderr, "Error: rm requires at least one record ID\n")
		fmt.Fprintf(os.Stderr, "Usage: passvault rm <id> [id...]\n")
		os.Exit(1)
	}

	session := OpenSession()
	defer session.Close()

	UnlockOrExit(ctx, session)

	for _, id := range ids {
		if err := session.Delete(id); err != nil {
			HandleError(err)
		}
		fmt.Printf("removed: %s\n", id)
	}

	// Compact database to reclaim space
	if err := session.Compact(); err != nil && !errors.Is(err, core.ErrCompactUnsupported) {
		fmt.Fprintf(os.Stderr, "warning: compaction failed: %s\n", err)
	}
}
