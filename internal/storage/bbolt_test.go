package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/illarion/passvault/internal/blob"
	"github.com/illarion/passvault/internal/blob/blobtest"
)

func openTestStorage(t *testing.T) *Storage {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Initialize(); err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}
	return db
}

func TestOpenAndInitialize(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	// Open database
	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	initialized, err := db.IsInitialized()
	if err != nil {
		t.Fatalf("Failed to check initialization: %v", err)
	}
	if initialized {
		t.Error("Fresh database should not be initialized")
	}

	// Initialize
	if err := db.Initialize(); err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}

	initialized, err = db.IsInitialized()
	if err != nil {
		t.Fatalf("Failed to check initialization: %v", err)
	}
	if !initialized {
		t.Error("Database should be initialized")
	}

	if db.Path() != dbPath {
		t.Errorf("Path mismatch: got %s, want %s", db.Path(), dbPath)
	}
}

func TestInitializeKeepsVaultID(t *testing.T) {
	db := openTestStorage(t)

	id, err := db.GetVaultID()
	if err != nil {
		t.Fatalf("Failed to get vault ID: %v", err)
	}
	if len(id) != 36 {
		t.Errorf("Vault ID should be a UUID, got %q", id)
	}

	// Initializing twice must not regenerate identity or timestamps
	created, _ := db.GetCreated()
	if err := db.Initialize(); err != nil {
		t.Fatalf("Second initialize failed: %v", err)
	}
	again, _ := db.GetVaultID()
	if again != id {
		t.Errorf("Vault ID changed: %s -> %s", id, again)
	}
	createdAgain, _ := db.GetCreated()
	if !created.Equal(createdAgain) {
		t.Errorf("Created time changed: %v -> %v", created, createdAgain)
	}
}

func TestBucketStoreContract(t *testing.T) {
	blobtest.Run(t, func(t *testing.T) blob.Store {
		return openTestStorage(t).Bucket(SecretsBucket)
	})
}

func TestBucketsAreIndependent(t *testing.T) {
	db := openTestStorage(t)
	vault := db.Bucket(VaultBucket)
	secrets := db.Bucket(SecretsBucket)

	if err := vault.Save("vault", []byte("envelope")); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}

	if ok, _ := secrets.Exists("vault"); ok {
		t.Error("Blob leaked into another bucket")
	}
}

func TestSaveUpdatesModified(t *testing.T) {
	db := openTestStorage(t)

	before, err := db.GetModified()
	if err != nil {
		t.Fatalf("Failed to get modified: %v", err)
	}

	if err := db.Bucket(VaultBucket).Save("vault", []byte("envelope")); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}

	after, err := db.GetModified()
	if err != nil {
		t.Fatalf("Failed to get modified: %v", err)
	}
	if after.Before(before) {
		t.Errorf("Modified time went backwards: %v -> %v", before, after)
	}
}

func TestSaveUninitializedBucket(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := db.Bucket(VaultBucket).Save("vault", []byte("x")); err == nil {
		t.Error("Save into an uninitialized database should fail")
	}
	if _, err := db.Bucket(VaultBucket).Load("vault"); err != blob.ErrNotFound {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestCompact(t *testing.T) {
	db := openTestStorage(t)
	vault := db.Bucket(VaultBucket)

	// Churn the envelope to leave free pages behind
	big := make([]byte, 64*1024)
	for i := 0; i < 20; i++ {
		big[0] = byte(i)
		if err := vault.Save("vault", big); err != nil {
			t.Fatalf("Failed to save: %v", err)
		}
	}
	if err := vault.Save("vault", []byte("small")); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}

	infoBefore, err := os.Stat(db.Path())
	if err != nil {
		t.Fatalf("Failed to stat: %v", err)
	}

	if err := db.Compact(); err != nil {
		t.Fatalf("Compact failed: %v", err)
	}

	infoAfter, err := os.Stat(db.Path())
	if err != nil {
		t.Fatalf("Failed to stat: %v", err)
	}
	if infoAfter.Size() > infoBefore.Size() {
		t.Errorf("Compaction grew the file: %d -> %d", infoBefore.Size(), infoAfter.Size())
	}

	// Bucket stores created before compaction keep working
	data, err := vault.Load("vault")
	if err != nil {
		t.Fatalf("Load after compact failed: %v", err)
	}
	if string(data) != "small" {
		t.Errorf("Data mismatch after compact: got %q", data)
	}

	if _, err := os.Stat(db.Path() + ".backup"); !os.IsNotExist(err) {
		t.Error("Backup file should be removed")
	}
}
