package storage

import (
	"context"
	"errors"
	"time"

	"kasa/internal/logger"
	"kasa/internal/receipt"
)

// ReceiptStore is the content-addressed store for receipt blobs and
// their thumbnails, layered over any BlobStore backend.
type ReceiptStore struct {
	blobs BlobStore
}

// NewReceiptStore wraps a BlobStore with the receipt key layout.
func NewReceiptStore(blobs BlobStore) *ReceiptStore {
	return &ReceiptStore{blobs: blobs}
}

// Commit writes data under its canonical content-addressed key and
// returns the key. If a blob with that key already exists the write is
// skipped: identical bytes hash to the same key, so duplicate uploads
// collapse to one stored object. The existence check is not atomic
// against a concurrent writer; that race is harmless because both
// writers carry identical content.
func (s *ReceiptStore) Commit(ctx context.Context, data []byte, ext string, now time.Time) (string, error) {
	key := ReceiptKey(receipt.Hash(data), ext, now)

	exists, err := s.blobs.Exists(ctx, key)
	if err != nil {
		return "", err
	}
	if !exists {
		if err := s.blobs.Write(ctx, key, data); err != nil {
			return "", err
		}
	}
	return key, nil
}

// CommitThumbnail writes thumbnail bytes keyed after the main blob.
// The at-most-once guarantee lives with the caller: it only calls this
// when the transaction has no thumbnail reference yet.
func (s *ReceiptStore) CommitThumbnail(ctx context.Context, data []byte, blobKey string, now time.Time) (string, error) {
	key := ThumbnailKey(blobKey, now)

	exists, err := s.blobs.Exists(ctx, key)
	if err != nil {
		return "", err
	}
	if !exists {
		if err := s.blobs.Write(ctx, key, data); err != nil {
			return "", err
		}
	}
	return key, nil
}

// RepairReceiptKey self-heals a main receipt key written under a legacy
// layout: it computes the corrected key, physically relocates the blob
// when one is stored under the old key, and returns the corrected key.
// Unchanged keys come back as-is.
func (s *ReceiptStore) RepairReceiptKey(ctx context.Context, key string, now time.Time) (string, error) {
	return s.repair(ctx, receiptRepairRules, key, now)
}

// RepairThumbnailKey is RepairReceiptKey for thumbnail keys.
func (s *ReceiptStore) RepairThumbnailKey(ctx context.Context, key string, now time.Time) (string, error) {
	return s.repair(ctx, thumbnailRepairRules, key, now)
}

func (s *ReceiptStore) repair(ctx context.Context, rules []RepairRule, key string, now time.Time) (string, error) {
	key = normalizeKey(key)
	for _, rule := range rules {
		if !rule.Match(key) {
			continue
		}
		fixed := rule.Fix(key, now)
		if fixed == key {
			continue
		}
		if err := s.move(ctx, key, fixed); err != nil {
			return key, err
		}
		key = fixed
	}
	return key, nil
}

// move copies src to dst (unless dst already exists) and then deletes
// src best-effort. A missing src only renames the reference: the row
// pointed at a blob that was never written, and the corrected key is
// still the right place to look.
func (s *ReceiptStore) move(ctx context.Context, src, dst string) error {
	data, err := s.blobs.Read(ctx, src)
	if errors.Is(err, ErrBlobNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	exists, err := s.blobs.Exists(ctx, dst)
	if err != nil {
		return err
	}
	if !exists {
		if err := s.blobs.Write(ctx, dst, data); err != nil {
			return err
		}
	}

	if err := s.blobs.DeleteIfExists(ctx, src); err != nil {
		logger.Get().Warnw("failed to delete blob after relocation", "key", src, "error", err)
	}
	return nil
}

// Read returns the blob stored under key.
func (s *ReceiptStore) Read(ctx context.Context, key string) ([]byte, error) {
	return s.blobs.Read(ctx, key)
}

// Exists reports whether a blob is stored under key.
func (s *ReceiptStore) Exists(ctx context.Context, key string) (bool, error) {
	return s.blobs.Exists(ctx, key)
}

// DeleteIfExists removes the blob under key if present.
func (s *ReceiptStore) DeleteIfExists(ctx context.Context, key string) error {
	return s.blobs.DeleteIfExists(ctx, key)
}

// Cleanup deletes every given key best-effort and returns a warning per
// failure. Dangling blobs are a storage-cost problem, not a correctness
// problem, so nothing here is fatal.
func (s *ReceiptStore) Cleanup(ctx context.Context, keys []string) []string {
	var warnings []string
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := s.blobs.DeleteIfExists(ctx, key); err != nil {
			logger.Get().Warnw("receipt cleanup failed", "key", key, "error", err)
			warnings = append(warnings, "failed to delete "+key)
		}
	}
	return warnings
}
