package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/illarion/passvault/internal/vault"
)

func TestNotesDiff(t *testing.T) {
	tests := []struct {
		name string
		prev string
		next string
		want string
	}{
		{name: "identical", prev: "a\nb\n", next: "a\nb\n", want: ""},
		{name: "changed line", prev: "a\nb\nc\n", next: "a\nB\nc\n", want: " a\n-b\n+B\n c\n"},
		{name: "added", prev: "", next: "pin 1234", want: "+pin 1234\n"},
		{name: "removed", prev: "x\ny\n", next: "x\n", want: " x\n-y\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NotesDiff(tt.prev, tt.next))
		})
	}
}

func TestRecordDiff(t *testing.T) {
	prev := vault.NewRecord("mail", "alice", "old-secret", nil)
	assert.Empty(t, RecordDiff(prev, prev))

	next := prev
	next.Username = "bob"
	next.Password = "new-secret"
	next = next.WithNotes(vault.Notes("recovery codes in safe"))

	diff := RecordDiff(prev, next)
	assert.Contains(t, diff, `username: "alice" -> "bob"`)
	assert.Contains(t, diff, "password: changed")
	assert.Contains(t, diff, "notes: added")
	assert.Contains(t, diff, "+recovery codes in safe\n")
	assert.NotContains(t, diff, "title:")
	assert.False(t, strings.Contains(diff, "secret\""), "passwords never appear")
}
