package cache

import (
	"context"
	"errors"
	"log/slog"

	"citycost/internal/core"
	"citycost/internal/objectstore"
)

// ObjectStore is the remote side of a MirroredStore.
type ObjectStore interface {
	// Download returns objectstore.ErrNotFound when the key does not exist.
	Download(ctx context.Context, key string) ([]byte, error)
	Upload(ctx context.Context, key string, data []byte) error
}

// MirroredStore keeps the cache in an ephemeral local file and mirrors it to
// a remote object store. The local file is restored from the remote copy on
// cold start and uploaded after every successful write.
type MirroredStore struct {
	*FileStore
	remote    ObjectStore
	remoteKey string
}

// NewMirroredStore creates a store mirroring local to remote under remoteKey.
func NewMirroredStore(local *FileStore, remote ObjectStore, remoteKey string) *MirroredStore {
	return &MirroredStore{
		FileStore: local,
		remote:    remote,
		remoteKey: remoteKey,
	}
}

// Restore downloads the remote cache when the local file is missing.
// A remote "not found" initializes an empty local cache. Any other remote
// failure is returned as a storage error.
func (s *MirroredStore) Restore(ctx context.Context) error {
	if s.Exists() {
		return nil
	}

	data, err := s.remote.Download(ctx, s.remoteKey)
	switch {
	case errors.Is(err, objectstore.ErrNotFound):
		slog.InfoContext(ctx, "no remote cache found, initializing empty cache", "key", s.remoteKey)
		data = []byte("{}")
	case err != nil:
		return core.NewStorageError("failed to retrieve cache from object store", err)
	default:
		slog.InfoContext(ctx, "restored cache from object store", "key", s.remoteKey, "bytes", len(data))
	}

	if err := s.WriteRaw(data); err != nil {
		return core.NewStorageError("failed to write restored cache", err)
	}
	return nil
}

// Persist writes the cache locally, then uploads it. The upload is best
// effort: its failure is logged and never returned.
func (s *MirroredStore) Persist(ctx context.Context, c Cache) error {
	if err := s.FileStore.Persist(ctx, c); err != nil {
		return err
	}

	data, err := s.ReadRaw()
	if err != nil {
		slog.WarnContext(ctx, "failed to read cache file for upload", "error", err)
		return nil
	}
	if err := s.remote.Upload(ctx, s.remoteKey, data); err != nil {
		slog.WarnContext(ctx, "failed to upload cache to object store", "key", s.remoteKey, "error", err)
	}
	return nil
}
