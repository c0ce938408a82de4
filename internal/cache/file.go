package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"citycost/internal/core"
)

// FileStore implements Store using a single JSON object on local disk.
// This is suitable for single-instance deployments.
type FileStore struct {
	mu       sync.RWMutex
	filePath string
}

// NewFileStore creates a file-backed store at filePath.
func NewFileStore(filePath string) *FileStore {
	return &FileStore{filePath: filePath}
}

// Path returns the cache file location.
func (s *FileStore) Path() string {
	return s.filePath
}

// Exists reports whether the cache file is present.
func (s *FileStore) Exists() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err := os.Stat(s.filePath)
	return err == nil
}

// Load reads the cache file. A missing, unreadable or malformed file yields
// an empty Cache.
func (s *FileStore) Load(ctx context.Context) Cache {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.filePath == "" {
		return Cache{}
	}

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.WarnContext(ctx, "failed to read cache file, using empty cache", "path", s.filePath, "error", err)
		}
		return Cache{}
	}

	var c Cache
	if err := json.Unmarshal(data, &c); err != nil || c == nil {
		slog.WarnContext(ctx, "cache file is corrupt, using empty cache", "path", s.filePath, "error", err)
		return Cache{}
	}
	for key, rec := range c {
		if !core.IsObject(rec) {
			slog.WarnContext(ctx, "skipping corrupt cache entry", "path", s.filePath, "key", key)
			delete(c, key)
		}
	}
	return c
}

// Persist writes the full cache to the file, replacing it atomically.
func (s *FileStore) Persist(ctx context.Context, c Cache) error {
	if c == nil {
		c = Cache{}
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}
	return s.WriteRaw(data)
}

// WriteRaw replaces the cache file with data as-is.
func (s *FileStore) WriteRaw(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.filePath == "" {
		return nil
	}

	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	// Write atomically using temp file + rename
	tmpFile := s.filePath + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := os.Rename(tmpFile, s.filePath); err != nil {
		_ = os.Remove(tmpFile)
		return fmt.Errorf("failed to rename cache file: %w", err)
	}
	return nil
}

// ReadRaw returns the cache file bytes.
func (s *FileStore) ReadRaw() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return os.ReadFile(s.filePath)
}

// Close is a no-op for the file store.
func (s *FileStore) Close() error {
	return nil
}
