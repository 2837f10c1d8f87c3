package storage

import (
	"context"
	"testing"
	"time"

	"kasa/internal/receipt"
)

func newTestStore(t *testing.T) *ReceiptStore {
	t.Helper()
	local, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create local store: %v", err)
	}
	return NewReceiptStore(local)
}

func TestLocalStoreRoundTrip(t *testing.T) {
	local, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if err := local.Write(ctx, "receipts/2025/03/x.bin", []byte("data")); err != nil {
		t.Fatal(err)
	}

	got, err := local.Read(ctx, "receipts/2025/03/x.bin")
	if err != nil || string(got) != "data" {
		t.Fatalf("Read = (%q, %v)", got, err)
	}

	exists, err := local.Exists(ctx, "receipts/2025/03/x.bin")
	if err != nil || !exists {
		t.Fatalf("Exists = (%v, %v)", exists, err)
	}

	if err := local.DeleteIfExists(ctx, "receipts/2025/03/x.bin"); err != nil {
		t.Fatal(err)
	}
	// Deleting a missing key is not an error.
	if err := local.DeleteIfExists(ctx, "receipts/2025/03/x.bin"); err != nil {
		t.Errorf("second delete should be a no-op, got %v", err)
	}
	if _, err := local.Read(ctx, "receipts/2025/03/x.bin"); err != ErrBlobNotFound {
		t.Errorf("expected ErrBlobNotFound, got %v", err)
	}
}

func TestCommitIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	data := []byte("receipt content")

	key1, err := s.Commit(ctx, data, ".png", fixedNow)
	if err != nil {
		t.Fatal(err)
	}
	key2, err := s.Commit(ctx, data, ".png", fixedNow)
	if err != nil {
		t.Fatal(err)
	}

	if key1 != key2 {
		t.Errorf("same bytes committed twice should share a key: %q vs %q", key1, key2)
	}
	want := "receipts/2025/03/" + receipt.Hash(data) + ".png"
	if key1 != want {
		t.Errorf("key = %q, want %q", key1, want)
	}

	got, err := s.Read(ctx, key1)
	if err != nil || string(got) != string(data) {
		t.Fatalf("Read = (%q, %v)", got, err)
	}
}

func TestCommitThumbnail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	key, err := s.CommitThumbnail(ctx, []byte("thumb"), "receipts/2025/03/abc.png", fixedNow)
	if err != nil {
		t.Fatal(err)
	}
	if key != "receipts/thumbnails/2025/03/abc.webp" {
		t.Errorf("thumbnail key = %q", key)
	}
}

func TestRepairReceiptKeyMovesBlob(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	legacy := "receipts/tmp/receipts/2024/01/abc.png"
	if err := s.blobs.Write(ctx, legacy, []byte("bytes")); err != nil {
		t.Fatal(err)
	}

	fixed, err := s.RepairReceiptKey(ctx, legacy, fixedNow)
	if err != nil {
		t.Fatal(err)
	}
	if fixed != "receipts/2024/01/abc.png" {
		t.Errorf("fixed key = %q", fixed)
	}

	// Blob physically relocated, old key gone.
	got, err := s.Read(ctx, fixed)
	if err != nil || string(got) != "bytes" {
		t.Fatalf("relocated blob: (%q, %v)", got, err)
	}
	if exists, _ := s.Exists(ctx, legacy); exists {
		t.Error("legacy key should no longer exist")
	}
}

func TestRepairReceiptKeyMissingBlob(t *testing.T) {
	s := newTestStore(t)

	// No blob on file: the reference is still corrected.
	fixed, err := s.RepairReceiptKey(context.Background(), "receipts/tmp/receipts/2024/01/ghost.png", fixedNow)
	if err != nil {
		t.Fatal(err)
	}
	if fixed != "receipts/2024/01/ghost.png" {
		t.Errorf("fixed key = %q", fixed)
	}
}

func TestRepairDoesNotOverwriteExistingDestination(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.blobs.Write(ctx, "receipts/2024/01/abc.png", []byte("canonical")); err != nil {
		t.Fatal(err)
	}
	if err := s.blobs.Write(ctx, "receipts/tmp/receipts/2024/01/abc.png", []byte("stale copy")); err != nil {
		t.Fatal(err)
	}

	fixed, err := s.RepairReceiptKey(ctx, "receipts/tmp/receipts/2024/01/abc.png", fixedNow)
	if err != nil {
		t.Fatal(err)
	}

	got, _ := s.Read(ctx, fixed)
	if string(got) != "canonical" {
		t.Errorf("destination content overwritten: %q", got)
	}
}

func TestCleanup(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.blobs.Write(ctx, "receipts/2025/03/a.png", []byte("a")); err != nil {
		t.Fatal(err)
	}

	warnings := s.Cleanup(ctx, []string{"receipts/2025/03/a.png", "receipts/2025/03/missing.png", ""})
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if exists, _ := s.Exists(ctx, "receipts/2025/03/a.png"); exists {
		t.Error("blob should be deleted")
	}
}

func TestRepairWithCurrentMonthRelocation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC)

	if err := s.blobs.Write(ctx, "receipts/tmp/old.png", []byte("old")); err != nil {
		t.Fatal(err)
	}

	fixed, err := s.RepairReceiptKey(ctx, "receipts/tmp/old.png", now)
	if err != nil {
		t.Fatal(err)
	}
	if fixed != "receipts/2025/07/old.png" {
		t.Errorf("fixed key = %q", fixed)
	}
	if got, err := s.Read(ctx, fixed); err != nil || string(got) != "old" {
		t.Fatalf("relocated blob: (%q, %v)", got, err)
	}
}
