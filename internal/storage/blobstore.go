// Package storage provides content-addressed receipt blob storage: a
// small BlobStore abstraction with local-filesystem and Google Cloud
// Storage backends, the canonical key layout, and repair of keys written
// under older, inconsistent conventions.
package storage

import (
	"context"
	"errors"
)

// ErrBlobNotFound is returned by Read when no blob exists under the key.
var ErrBlobNotFound = errors.New("blob not found")

// BlobStore is a flat key/value store for receipt blobs. Keys are
// slash-separated paths. DeleteIfExists is idempotent: deleting an
// absent key is not an error, which is what makes concurrent cleanup
// and the best-effort hard-delete path safe.
type BlobStore interface {
	Write(ctx context.Context, key string, data []byte) error
	Read(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
	DeleteIfExists(ctx context.Context, key string) error
}
