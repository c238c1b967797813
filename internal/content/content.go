package content

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// ErrNotFound is returned by Get when no blob exists for the digest.
var ErrNotFound = errors.New("content not found")

// Store is a content-addressed blob store. Put is deterministic: the same
// bytes always map to the same digest, so writes deduplicate naturally.
// Content is immutable once written; there is no delete or update.
type Store interface {
	Put(ctx context.Context, data []byte) (digest string, err error)
	Get(ctx context.Context, digest string) ([]byte, error)
}

// Digest computes the content fingerprint used as the storage key.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
