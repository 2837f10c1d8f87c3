package storage

import (
	"testing"
	"time"
)

var fixedNow = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

func TestReceiptKey(t *testing.T) {
	got := ReceiptKey("abc123", ".png", fixedNow)
	want := "receipts/2025/03/abc123.png"
	if got != want {
		t.Errorf("ReceiptKey = %q, want %q", got, want)
	}
}

func TestThumbnailKey(t *testing.T) {
	got := ThumbnailKey("receipts/2024/01/abc123.png", fixedNow)
	want := "receipts/thumbnails/2025/03/abc123.webp"
	if got != want {
		t.Errorf("ThumbnailKey = %q, want %q", got, want)
	}
}

func TestRepairedReceiptKey(t *testing.T) {
	cases := []struct {
		name        string
		in          string
		want        string
		wantChanged bool
	}{
		{
			name:        "canonical_untouched",
			in:          "receipts/2024/01/abc.png",
			want:        "receipts/2024/01/abc.png",
			wantChanged: false,
		},
		{
			name:        "tmp_nesting_stripped",
			in:          "receipts/tmp/receipts/2024/01/abc.png",
			want:        "receipts/2024/01/abc.png",
			wantChanged: true,
		},
		{
			name:        "tmp_remnant_relocated_to_current_month",
			in:          "receipts/tmp/abc.png",
			want:        "receipts/2025/03/abc.png",
			wantChanged: true,
		},
		{
			name:        "backslashes_normalized",
			in:          `receipts\tmp\receipts\2024\01\abc.png`,
			want:        "receipts/2024/01/abc.png",
			wantChanged: true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, changed := RepairedReceiptKey(tc.in, fixedNow)
			if got != tc.want || changed != tc.wantChanged {
				t.Errorf("RepairedReceiptKey(%q) = (%q, %v), want (%q, %v)",
					tc.in, got, changed, tc.want, tc.wantChanged)
			}
		})
	}
}

func TestRepairedThumbnailKey(t *testing.T) {
	got, changed := RepairedThumbnailKey("receipts/thumbnails/receipts/2024/01/abc.webp", fixedNow)
	if !changed || got != "receipts/thumbnails/2024/01/abc.webp" {
		t.Errorf("got (%q, %v)", got, changed)
	}

	got, changed = RepairedThumbnailKey("receipts/thumbnails/2024/01/abc.webp", fixedNow)
	if changed || got != "receipts/thumbnails/2024/01/abc.webp" {
		t.Errorf("canonical key should be untouched, got (%q, %v)", got, changed)
	}
}

func TestLegacyDuplicateKeys(t *testing.T) {
	dups := LegacyDuplicateKeys("receipts/2024/01/abc.png")
	want := []string{
		"receipts/tmp/abc.png",
		"receipts/tmp/receipts/2024/01/abc.png",
	}
	if len(dups) != len(want) {
		t.Fatalf("expected %d duplicate shapes, got %d: %v", len(want), len(dups), dups)
	}
	for i := range want {
		if dups[i] != want[i] {
			t.Errorf("dups[%d] = %q, want %q", i, dups[i], want[i])
		}
	}
}

func TestLegacyDuplicateKeysDoubleThumbnail(t *testing.T) {
	dups := LegacyDuplicateKeys("receipts/thumbnails/receipts/2024/01/abc.webp")
	found := false
	for _, d := range dups {
		if d == "receipts/thumbnails/2024/01/abc.webp" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected collapsed thumbnail key among duplicates, got %v", dups)
	}
}
