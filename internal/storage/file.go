package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

// FileStore keeps every key in a single JSON document on disk, so blobs must be valid JSON.
// The document is read on each Load and rewritten through a temp file on each Save.
type FileStore struct {
	path   string
	logger *zap.Logger
	mu     sync.Mutex
}

// NewFileStore creates a FileStore backed by the document at path.
// The parent directory is created if it does not exist.
func NewFileStore(path string, logger *zap.Logger) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	return &FileStore{
		path:   path,
		logger: logger.Named("file_store"),
	}, nil
}

// Load implements Store.
func (s *FileStore) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.readDocument()
	if err != nil {
		return nil, err
	}

	raw, ok := doc[key]
	if !ok {
		return nil, ErrNotFound
	}

	return []byte(raw), nil
}

// Save implements Store.
func (s *FileStore) Save(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.readDocument()
	if err != nil {
		if !errors.Is(err, ErrCorrupt) {
			return err
		}

		// A corrupt document is replaced rather than blocking every later write
		s.logger.Warn("Discarding unreadable store document",
			zap.String("path", s.path),
			zap.Error(err))

		doc = make(map[string]json.RawMessage)
	}

	doc[key] = json.RawMessage(data)

	encoded, err := sonic.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode store document: %w", err)
	}

	return s.writeAtomic(encoded)
}

// Close implements Store.
func (s *FileStore) Close() error {
	return nil
}

// readDocument parses the whole document; a missing file is an empty document
// and an unparsable one is reported as ErrCorrupt.
func (s *FileStore) readDocument() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]json.RawMessage), nil
		}
		return nil, fmt.Errorf("failed to read store document: %w", err)
	}

	doc := make(map[string]json.RawMessage)
	if len(data) == 0 {
		return doc, nil
	}

	if err := sonic.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: failed to parse store document: %w", ErrCorrupt, err)
	}

	return doc, nil
}

// writeAtomic replaces the document through a temp file and rename.
func (s *FileStore) writeAtomic(data []byte) error {
	temp, err := os.CreateTemp(filepath.Dir(s.path), "store-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	tempPath := temp.Name()

	if _, err := temp.Write(data); err != nil {
		temp.Close()
		os.Remove(tempPath)

		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := temp.Sync(); err != nil {
		temp.Close()
		os.Remove(tempPath)

		return fmt.Errorf("failed to sync temp file: %w", err)
	}

	temp.Close()

	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace store document: %w", err)
	}

	return nil
}
