package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// SQLiteStore keeps blobs in a single key-value table of an embedded SQLite database.
type SQLiteStore struct {
	conn *sqlite.Conn
	mu   sync.Mutex
}

// NewSQLiteStore opens (or creates) the database at path and ensures the table exists.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	conn, err := sqlite.OpenConn(path, sqlite.OpenCreate|sqlite.OpenReadWrite|sqlite.OpenWAL)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	err = sqlitex.ExecuteTransient(conn, `
		CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value BLOB NOT NULL,
			updated_at TEXT NOT NULL
		)
	`, nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &SQLiteStore{conn: conn}, nil
}

// Load implements Store.
func (s *SQLiteStore) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		data  []byte
		found bool
	)

	err := sqlitex.Execute(s.conn, "SELECT value FROM kv WHERE key = ?", &sqlitex.ExecOptions{
		Args: []any{key},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			data = make([]byte, stmt.ColumnLen(0))
			stmt.ColumnBytes(0, data)
			found = true
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", key, err)
	}

	if !found {
		return nil, ErrNotFound
	}

	return data, nil
}

// Save implements Store.
func (s *SQLiteStore) Save(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := sqlitex.Execute(s.conn, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, &sqlitex.ExecOptions{
		Args: []any{key, data, time.Now().UTC().Format(time.RFC3339Nano)},
	})
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}

	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.conn.Close()
}
