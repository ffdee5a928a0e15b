package storage

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/illarion/passvault/internal/blob"
)

// Bucket names
var (
	ConfigBucket  = []byte("config")  // Format version, timestamps, vault ID - unencrypted
	VaultBucket   = []byte("vault")   // Sealed vault envelope
	SecretsBucket = []byte("secrets") // Passphrase verifier blobs when the OS keyring is not used
)

// Config keys
var (
	ConfigVersion  = []byte("version")
	ConfigCreated  = []byte("created")
	ConfigModified = []byte("modified")
	ConfigVaultID  = []byte("vault_id")
)

const FormatVersion = "1"

var ErrNotInitialized = errors.New("database not initialized")

// Storage provides BBolt-based storage for passvault
type Storage struct {
	db *bolt.DB
}

// Open opens or creates a passvault database
func Open(path string) (*Storage, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Storage{db: db}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	return s.db.Close()
}

// Path returns the database file path
func (s *Storage) Path() string {
	return s.db.Path()
}

// Initialize creates the bucket structure. It is a no-op on an initialized database.
func (s *Storage) Initialize() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{ConfigBucket, VaultBucket, SecretsBucket} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}

		config := tx.Bucket(ConfigBucket)
		if config.Get(ConfigVersion) != nil {
			return nil
		}
		if err := config.Put(ConfigVersion, []byte(FormatVersion)); err != nil {
			return err
		}

		now := time.Now()
		created, _ := now.MarshalBinary()
		if err := config.Put(ConfigCreated, created); err != nil {
			return err
		}
		if err := config.Put(ConfigModified, created); err != nil {
			return err
		}
		return config.Put(ConfigVaultID, []byte(uuid.NewString()))
	})
}

// IsInitialized checks if the database has been initialized
func (s *Storage) IsInitialized() (bool, error) {
	var initialized bool
	err := s.db.View(func(tx *bolt.Tx) error {
		config := tx.Bucket(ConfigBucket)
		if config != nil && config.Get(ConfigVersion) != nil {
			initialized = true
		}
		return nil
	})
	return initialized, err
}

func (s *Storage) getTime(key []byte) (time.Time, error) {
	var t time.Time
	err := s.db.View(func(tx *bolt.Tx) error {
		config := tx.Bucket(ConfigBucket)
		if config == nil {
			return ErrNotInitialized
		}
		data := config.Get(key)
		if data == nil {
			return fmt.Errorf("%s time not found", key)
		}
		return t.UnmarshalBinary(data)
	})
	return t, err
}

// GetCreated retrieves the creation timestamp
func (s *Storage) GetCreated() (time.Time, error) {
	return s.getTime(ConfigCreated)
}

// GetModified retrieves the last modified timestamp
func (s *Storage) GetModified() (time.Time, error) {
	return s.getTime(ConfigModified)
}

// GetVaultID retrieves the vault ID from config bucket
func (s *Storage) GetVaultID() (string, error) {
	var vaultID string
	err := s.db.View(func(tx *bolt.Tx) error {
		config := tx.Bucket(ConfigBucket)
		if config == nil {
			return ErrNotInitialized
		}
		data := config.Get(ConfigVaultID)
		if data == nil {
			return fmt.Errorf("vault_id not found")
		}
		vaultID = string(data)
		return nil
	})
	return vaultID, err
}

// Bucket returns a blob store over one of the data buckets
func (s *Storage) Bucket(name []byte) *BucketStore {
	return &BucketStore{storage: s, bucket: name}
}

var _ blob.Store = (*BucketStore)(nil)

// BucketStore is a blob.Store over a single bbolt bucket.
// Every Save commits in its own transaction together with the modified timestamp.
type BucketStore struct {
	storage *Storage
	bucket  []byte
}

func (b *BucketStore) Save(name string, data []byte) error {
	return b.storage.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(b.bucket)
		if bucket == nil {
			return fmt.Errorf("%w: bucket %s not found", ErrNotInitialized, b.bucket)
		}
		// bbolt treats a nil value as empty; keep empty blobs distinguishable from absent ones
		if data == nil {
			data = []byte{}
		}
		if err := bucket.Put([]byte(name), data); err != nil {
			return fmt.Errorf("failed to store %s: %w", name, err)
		}

		modified, _ := time.Now().MarshalBinary()
		return tx.Bucket(ConfigBucket).Put(ConfigModified, modified)
	})
}

func (b *BucketStore) Load(name string) ([]byte, error) {
	var data []byte
	err := b.storage.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(b.bucket)
		if bucket == nil {
			return blob.ErrNotFound
		}
		v := bucket.Get([]byte(name))
		if v == nil {
			return blob.ErrNotFound
		}
		// Make a copy since the slice is only valid during the transaction
		data = append([]byte{}, v...)
		return nil
	})
	return data, err
}

func (b *BucketStore) Delete(name string) error {
	return b.storage.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(b.bucket)
		if bucket == nil {
			return nil
		}
		return bucket.Delete([]byte(name))
	})
}

func (b *BucketStore) Exists(name string) (bool, error) {
	var exists bool
	err := b.storage.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(b.bucket)
		exists = bucket != nil && bucket.Get([]byte(name)) != nil
		return nil
	})
	return exists, err
}

// Compact creates a compacted copy of the database, removing unused space.
// Rotations rewrite the whole envelope, so free pages accumulate over time.
func (s *Storage) Compact() error {
	srcPath := s.db.Path()
	tmpPath := srcPath + ".compact"

	// Create new database
	dst, err := bolt.Open(tmpPath, 0600, nil)
	if err != nil {
		return fmt.Errorf("failed to create compact database: %w", err)
	}

	// Copy all buckets
	err = s.db.View(func(srcTx *bolt.Tx) error {
		return dst.Update(func(dstTx *bolt.Tx) error {
			return srcTx.ForEach(func(name []byte, srcBucket *bolt.Bucket) error {
				dstBucket, err := dstTx.CreateBucketIfNotExists(name)
				if err != nil {
					return err
				}
				return srcBucket.ForEach(func(k, v []byte) error {
					return dstBucket.Put(k, v)
				})
			})
		})
	})

	if err != nil {
		dst.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to copy data: %w", err)
	}

	if err := dst.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close compact database: %w", err)
	}

	if err := s.db.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close source database: %w", err)
	}

	// Atomic replace
	backupPath := srcPath + ".backup"
	if err := os.Rename(srcPath, backupPath); err != nil {
		s.db, _ = bolt.Open(srcPath, 0600, nil)
		os.Remove(tmpPath)
		return fmt.Errorf("failed to backup original: %w", err)
	}
	if err := os.Rename(tmpPath, srcPath); err != nil {
		os.Rename(backupPath, srcPath) // rollback
		s.db, _ = bolt.Open(srcPath, 0600, nil)
		return fmt.Errorf("failed to replace database: %w", err)
	}
	os.Remove(backupPath)

	// Reopen database
	s.db, err = bolt.Open(srcPath, 0600, nil)
	if err != nil {
		return fmt.Errorf("failed to reopen database: %w", err)
	}

	return nil
}
