package vault

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodePreservesAbsentNotes(t *testing.T) {
	records := []Record{
		{ID: "1", Title: "Email", Username: "a@b.com", Password: "p1"},
		{ID: "2", Title: "Bank", Username: "me", Password: "p2", Notes: Notes("")},
		{ID: "3", Title: "VPN", Username: "me", Password: "p3", Notes: Notes("pin 1234")},
	}

	data, err := Encode(records)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	require.Len(t, decoded, len(records))

	for i := range records {
		assert.True(t, records[i].Equal(decoded[i]), "record %d: %+v != %+v", i, records[i], decoded[i])
	}
	assert.Nil(t, decoded[0].Notes)
	require.NotNil(t, decoded[1].Notes)
	assert.Equal(t, "", *decoded[1].Notes)
}

func TestEncodeRejectsInvalidUTF8(t *testing.T) {
	tests := []struct {
		name   string
		record Record
	}{
		{"title", Record{ID: "1", Title: "t\xff"}},
		{"username", Record{ID: "1", Username: "\xc3"}},
		{"password", Record{ID: "1", Password: "p\xffw"}},
		{"notes", Record{ID: "1", Notes: Notes("\xed\xa0\x80")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode([]Record{tt.record})
			require.ErrorIs(t, err, ErrFormat)
			assert.Contains(t, err.Error(), tt.name)
		})
	}
}

func TestEncodeEmpty(t *testing.T) {
	data, err := Encode(nil)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.NotNil(t, decoded)
	assert.Empty(t, decoded)
}

func TestDecodeRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "garbage"},
		{"wrong version", `{"version":2,"records":[]}`},
		{"missing version", `{"records":[]}`},
		{"missing id", `{"version":1,"records":[{"title":"x"}]}`},
		{"duplicate id", `{"version":1,"records":[{"id":"a"},{"id":"a"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data))
			assert.ErrorIs(t, err, ErrFormat)
		})
	}
}

func TestRecordEqual(t *testing.T) {
	base := Record{ID: "1", Title: "t", Username: "u", Password: "p"}

	assert.True(t, base.Equal(base))
	assert.False(t, base.Equal(base.WithNotes(Notes(""))))
	assert.True(t, base.WithNotes(Notes("x")).Equal(base.WithNotes(Notes("x"))))
	assert.False(t, base.WithNotes(Notes("x")).Equal(base.WithNotes(Notes("y"))))

	other := base
	other.Password = "q"
	assert.False(t, base.Equal(other))
}

func TestNewRecordIdentifiers(t *testing.T) {
	notes := "n"
	a := NewRecord("t", "u", "p", &notes)
	b := NewRecord("t", "u", "p", nil)

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)

	// Notes are copied, not aliased
	notes = "changed"
	assert.Equal(t, "n", a.NotesText())
	assert.Equal(t, "", b.NotesText())
}
