package storage

import (
	"path/filepath"
	"testing"

	"github.com/illarion/passvault/internal/blob"
	"github.com/illarion/passvault/internal/blob/blobtest"
)

func TestSQLiteStoreContract(t *testing.T) {
	blobtest.Run(t, func(t *testing.T) blob.Store {
		s, err := OpenSQLite(filepath.Join(t.TempDir(), "test.sqlite"))
		if err != nil {
			t.Fatalf("Failed to open sqlite: %v", err)
		}
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestSQLiteStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.sqlite")

	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("Failed to open sqlite: %v", err)
	}
	if err := s.Save("vault", []byte("envelope")); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Failed to close: %v", err)
	}

	s, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("Failed to reopen sqlite: %v", err)
	}
	defer s.Close()

	data, err := s.Load("vault")
	if err != nil {
		t.Fatalf("Failed to load: %v", err)
	}
	if string(data) != "envelope" {
		t.Errorf("Data mismatch: got %q", data)
	}
	if s.Path() != path {
		t.Errorf("Path mismatch: got %s, want %s", s.Path(), path)
	}
}
