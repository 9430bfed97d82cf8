// Package storage provides the durable key-value blobs the moderation engine persists to.
// Every backend stores opaque byte blobs under string keys and rewrites a key in full on save.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load when a key has never been saved.
var ErrNotFound = errors.New("key not found")

// ErrCorrupt is returned by Load when the stored data cannot be read back.
var ErrCorrupt = errors.New("stored data is corrupt")

// ErrUnknownDriver is returned by Open for an unsupported driver name.
var ErrUnknownDriver = errors.New("unknown storage driver")

// Store is a process-local or shared key-value store holding whole JSON blobs.
// Writes are last-writer-wins; there is no versioning or merge.
type Store interface {
	// Load returns the blob saved under key, ErrNotFound, or ErrCorrupt.
	Load(ctx context.Context, key string) ([]byte, error)
	// Save replaces the blob under key.
	Save(ctx context.Context, key string, data []byte) error
	// Close releases any resources held by the store.
	Close() error
}

// Driver names accepted by Open.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverRedis    = "redis"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)
