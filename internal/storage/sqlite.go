package storage

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/illarion/passvault/internal/blob"
)

const createBlobsTable = `CREATE TABLE IF NOT EXISTS blobs (
	name       TEXT PRIMARY KEY,
	data       BLOB NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

var _ blob.Store = (*SQLiteStore)(nil)

// SQLiteStore is a blob.Store over a single SQLite table.
// Each statement runs in its own implicit transaction, so a Save replaces
// the row atomically.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens or creates a SQLite blob database with WAL mode and a busy timeout.
func OpenSQLite(path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(FULL)",
		path,
	)
	return openSQLite(dsn, path)
}

func openSQLite(dsn, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single writer avoids "database is locked" errors
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if _, err := db.Exec(createBlobsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("create blobs table: %w", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Path returns the database file path
func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) Save(name string, data []byte) error {
	if data == nil {
		data = []byte{}
	}
	const query = `INSERT OR REPLACE INTO blobs (name, data, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)`
	if _, err := s.db.Exec(query, name, data); err != nil {
		return fmt.Errorf("save blob %q: %w", name, err)
	}
	return nil
}

func (s *SQLiteStore) Load(name string) ([]byte, error) {
	const query = `SELECT data FROM blobs WHERE name = ?`
	var data []byte
	err := s.db.QueryRow(query, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, blob.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load blob %q: %w", name, err)
	}
	if data == nil {
		data = []byte{}
	}
	return data, nil
}

func (s *SQLiteStore) Delete(name string) error {
	const query = `DELETE FROM blobs WHERE name = ?`
	if _, err := s.db.Exec(query, name); err != nil {
		return fmt.Errorf("delete blob %q: %w", name, err)
	}
	return nil
}

func (s *SQLiteStore) Exists(name string) (bool, error) {
	const query = `SELECT 1 FROM blobs WHERE name = ?`
	var one int
	err := s.db.QueryRow(query, name).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query blob %q: %w", name, err)
	}
	return true, nil
}
