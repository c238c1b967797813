package content

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// FileStore keeps blobs on the local filesystem, one file per digest,
// sharded by the first two hex characters to keep directories small.
type FileStore struct {
	dir    string
	logger *zap.Logger
}

func NewFileStore(dir string, logger *zap.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create content directory: %w", err)
	}
	return &FileStore{
		dir:    dir,
		logger: logger.With(zap.String("component", "content_file_store")),
	}, nil
}

func (fs *FileStore) path(digest string) string {
	if len(digest) < 2 {
		return filepath.Join(fs.dir, digest)
	}
	return filepath.Join(fs.dir, digest[:2], digest)
}

func (fs *FileStore) Put(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	digest := Digest(data)
	path := fs.path(digest)

	if _, err := os.Stat(path); err == nil {
		// Same bytes, same digest: nothing to write.
		return digest, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create shard directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "put-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to write content: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to commit content: %w", err)
	}

	fs.logger.Debug("Stored content", zap.String("digest", digest), zap.Int("size", len(data)))
	return digest, nil
}

func (fs *FileStore) Get(ctx context.Context, digest string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(fs.path(digest))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read content: %w", err)
	}
	return data, nil
}
