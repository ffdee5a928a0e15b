package security

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "plain", input: "vault"},
		{name: "with dot", input: "vault.bak"},
		{name: "hidden", input: ".vault"},
		{name: "empty", input: "", wantErr: ErrInvalidName},
		{name: "dot", input: ".", wantErr: ErrInvalidName},
		{name: "parent", input: "..", wantErr: ErrInvalidName},
		{name: "traversal", input: "../vault", wantErr: ErrInvalidName},
		{name: "nested", input: "a/b", wantErr: ErrInvalidName},
		{name: "backslash", input: `a\b`, wantErr: ErrInvalidName},
		{name: "absolute", input: "/etc/passwd", wantErr: ErrInvalidName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if tt.wantErr == nil && err != nil {
				t.Errorf("ValidateName(%q) unexpected error: %v", tt.input, err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateName(%q) = %v, want %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestRoot_WriteReadRemove(t *testing.T) {
	tmpDir := t.TempDir()

	root, err := Open(tmpDir)
	if err != nil {
		t.Fatalf("Failed to open root: %v", err)
	}
	defer root.Close()

	if err := root.WriteFile("vault", []byte("one")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := root.WriteFile("vault", []byte("two")); err != nil {
		t.Fatalf("WriteFile (replace) failed: %v", err)
	}

	data, err := root.ReadFile("vault")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "two" {
		t.Errorf("ReadFile = %q, want %q", data, "two")
	}

	info, err := root.Stat("vault")
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Mode().Perm() != FilePermSecure {
		t.Errorf("Permissions = %v, want %v", info.Mode().Perm(), os.FileMode(FilePermSecure))
	}

	// No temp files left behind
	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected 1 entry, got %d", len(entries))
	}

	if err := root.Remove("vault"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := root.ReadFile("vault"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected ErrNotExist after remove, got %v", err)
	}
}

func TestRoot_ActualEscapePrevention(t *testing.T) {
	tmpDir := t.TempDir()

	// Create a file OUTSIDE the root to try to overwrite
	outsideDir := t.TempDir()
	targetFile := filepath.Join(outsideDir, "secret")
	if err := os.WriteFile(targetFile, []byte("original"), 0600); err != nil {
		t.Fatalf("Failed to create outside file: %v", err)
	}

	root, err := Open(tmpDir)
	if err != nil {
		t.Fatalf("Failed to open root: %v", err)
	}
	defer root.Close()

	// Attempt to write outside using path traversal
	if err := root.WriteFile("../secret", []byte("pwned")); err == nil {
		t.Error("Expected error when trying to write outside root, got none")
	}

	if runtime.GOOS == "windows" {
		return
	}

	// A symlink inside the root must not lead reads outside
	if err := os.Symlink(targetFile, filepath.Join(tmpDir, "link")); err != nil {
		t.Fatalf("Failed to create symlink: %v", err)
	}
	if _, err := root.ReadFile("link"); err == nil {
		t.Error("Read through escaping symlink succeeded - security breach!")
	}

	data, err := os.ReadFile(targetFile)
	if err != nil {
		t.Fatalf("Failed to read outside file: %v", err)
	}
	if string(data) != "original" {
		t.Error("File outside root was modified - security breach!")
	}
}

func TestRoot_WriteFileReplacesSymlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	tmpDir := t.TempDir()
	targetFile := filepath.Join(t.TempDir(), "secret")
	if err := os.WriteFile(targetFile, []byte("original"), 0600); err != nil {
		t.Fatalf("Failed to create outside file: %v", err)
	}
	if err := os.Symlink(targetFile, filepath.Join(tmpDir, "vault")); err != nil {
		t.Fatalf("Failed to create symlink: %v", err)
	}

	root, err := Open(tmpDir)
	if err != nil {
		t.Fatalf("Failed to open root: %v", err)
	}
	defer root.Close()

	if err := root.WriteFile("vault", []byte("sealed")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	info, err := os.Lstat(filepath.Join(tmpDir, "vault"))
	if err != nil {
		t.Fatalf("Lstat failed: %v", err)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		t.Error("vault is still a symlink")
	}
	data, err := os.ReadFile(targetFile)
	if err != nil {
		t.Fatalf("Failed to read outside file: %v", err)
	}
	if string(data) != "original" {
		t.Error("File outside root was modified - security breach!")
	}
}

func TestRoot_WriteFileFollowsMovedDirectory(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("open directories cannot be renamed on windows")
	}
	parent := t.TempDir()
	dir := filepath.Join(parent, "vault.d")
	if err := os.Mkdir(dir, 0700); err != nil {
		t.Fatalf("Mkdir failed: %v", err)
	}

	root, err := Open(dir)
	if err != nil {
		t.Fatalf("Failed to open root: %v", err)
	}
	defer root.Close()

	moved := filepath.Join(parent, "moved.d")
	if err := os.Rename(dir, moved); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}

	if err := root.WriteFile("vault", []byte("sealed")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(moved, "vault"))
	if err != nil {
		t.Fatalf("Failed to read written file: %v", err)
	}
	if string(data) != "sealed" {
		t.Errorf("Expected sealed, got %q", data)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("Expected nothing at the old path, got %v", err)
	}
}
