package core

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/illarion/passvault/internal/vault"
)

// RecordDiff describes how next differs from prev, one field per line.
// Notes are diffed line by line; passwords are never printed.
// Returns empty string if the records are identical.
func RecordDiff(prev, next vault.Record) string {
	if prev.Equal(next) {
		return ""
	}

	var result strings.Builder
	field := func(name, a, b string) {
		if a != b {
			result.WriteString(fmt.Sprintf("%s: %q -> %q\n", name, a, b))
		}
	}
	field("title", prev.Title, next.Title)
	field("username", prev.Username, next.Username)
	if prev.Password != next.Password {
		result.WriteString("password: changed\n")
	}

	switch {
	case prev.Notes == nil && next.Notes != nil:
		result.WriteString("notes: added\n")
	case prev.Notes != nil && next.Notes == nil:
		result.WriteString("notes: removed\n")
	}
	if notes := NotesDiff(prev.NotesText(), next.NotesText()); notes != "" {
		result.WriteString("--- notes\n+++ notes\n")
		result.WriteString(notes)
	}
	return result.String()
}

// NotesDiff returns a line diff of two notes texts with -, + and space
// prefixes. Returns empty string if they are identical.
func NotesDiff(prev, next string) string {
	if prev == next {
		return ""
	}

	dmp := diffmatchpatch.New()

	// Line-mode diff for better output
	a, b, lineArray := dmp.DiffLinesToChars(prev, next)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var result strings.Builder
	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			result.WriteString(prefix)
			result.WriteString(line)
			if !strings.HasSuffix(line, "\n") {
				result.WriteString("\n")
			}
		}
	}
	return result.String()
}
