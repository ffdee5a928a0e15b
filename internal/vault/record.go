package vault

import (
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Record is a single credential. ID is immutable once created.
type Record struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Username string  `json:"username"`
	Password string  `json:"password"`
	Notes    *string `json:"notes,omitempty"`
}

// NewRecord creates a record with a fresh random identifier
func NewRecord(title, username, password string, notes *string) Record {
	return Record{
		ID:       uuid.NewString(),
		Title:    title,
		Username: username,
		Password: password,
		Notes:    cloneNotes(notes),
	}
}

// WithNotes returns a copy of r with the given notes
func (r Record) WithNotes(notes *string) Record {
	r.Notes = cloneNotes(notes)
	return r
}

// NotesText returns the notes, or "" when absent
func (r Record) NotesText() string {
	if r.Notes == nil {
		return ""
	}
	return *r.Notes
}

// Equal compares records field by field, distinguishing absent from empty notes
func (r Record) Equal(o Record) bool {
	if r.ID != o.ID || r.Title != o.Title || r.Username != o.Username || r.Password != o.Password {
		return false
	}
	if (r.Notes == nil) != (o.Notes == nil) {
		return false
	}
	return r.Notes == nil || *r.Notes == *o.Notes
}

// Validate rejects a record the payload cannot carry byte for byte.
// JSON replaces invalid UTF-8 with U+FFFD, so every text field must be valid.
func (r Record) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("%w: record without id", ErrFormat)
	}
	fields := []struct{ name, value string }{
		{"id", r.ID},
		{"title", r.Title},
		{"username", r.Username},
		{"password", r.Password},
		{"notes", r.NotesText()},
	}
	for _, f := range fields {
		if !utf8.ValidString(f.value) {
			return fmt.Errorf("%w: %s is not valid UTF-8", ErrFormat, f.name)
		}
	}
	return nil
}

func (r Record) clone() Record {
	r.Notes = cloneNotes(r.Notes)
	return r
}

func cloneNotes(notes *string) *string {
	if notes == nil {
		return nil
	}
	n := *notes
	return &n
}

// Notes is a convenience for building optional notes
func Notes(s string) *string {
	return &s
}
