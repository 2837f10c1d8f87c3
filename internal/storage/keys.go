package storage

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// Canonical layout, reproduced exactly for compatibility with data
// written by earlier versions of the system:
//
//	main receipt: receipts/{YYYY}/{MM}/{sha256-hex}{ext}
//	thumbnail:    receipts/thumbnails/{YYYY}/{MM}/{basename-of-main}.webp

const (
	receiptPrefix   = "receipts/"
	thumbnailPrefix = "receipts/thumbnails/"
)

func monthBucket(now time.Time) string {
	return now.Format("2006/01")
}

// ReceiptKey builds the canonical content-addressed key for a receipt.
func ReceiptKey(digest, ext string, now time.Time) string {
	return fmt.Sprintf("%s%s/%s%s", receiptPrefix, monthBucket(now), digest, ext)
}

// ThumbnailKey builds the canonical key for the thumbnail of blobKey.
func ThumbnailKey(blobKey string, now time.Time) string {
	base := strings.TrimSuffix(path.Base(blobKey), path.Ext(blobKey))
	return fmt.Sprintf("%s%s/%s.webp", thumbnailPrefix, monthBucket(now), base)
}

// RepairRule matches one known historical malformation and produces the
// corrected key. Rules are evaluated in order and cumulatively: a key
// fixed by one rule is re-examined by the next.
type RepairRule struct {
	Name  string
	Match func(key string) bool
	Fix   func(key string, now time.Time) string
}

// receiptRepairRules correct keys written by older storage logic that
// staged uploads under a tmp/ prefix before relocating them.
var receiptRepairRules = []RepairRule{
	{
		// receipts/tmp/receipts/... -> receipts/...
		Name:  "strip_tmp_nesting",
		Match: func(key string) bool { return strings.HasPrefix(key, "receipts/tmp/receipts/") },
		Fix: func(key string, _ time.Time) string {
			return strings.Replace(key, "receipts/tmp/", "", 1)
		},
	},
	{
		// Anything still under a tmp/ segment moves to the
		// current-month canonical bucket, keeping its basename.
		Name:  "relocate_tmp_remnant",
		Match: func(key string) bool { return strings.Contains(key, "/tmp/") },
		Fix: func(key string, now time.Time) string {
			return fmt.Sprintf("%s%s/%s", receiptPrefix, monthBucket(now), path.Base(key))
		},
	},
}

// thumbnailRepairRules correct thumbnails saved with a doubled prefix.
var thumbnailRepairRules = []RepairRule{
	{
		// receipts/thumbnails/receipts/... -> receipts/thumbnails/...
		Name:  "collapse_double_prefix",
		Match: func(key string) bool { return strings.HasPrefix(key, "receipts/thumbnails/receipts/") },
		Fix: func(key string, _ time.Time) string {
			return strings.Replace(key, "receipts/thumbnails/receipts/", "receipts/thumbnails/", 1)
		},
	},
}

func applyRepairRules(rules []RepairRule, key string, now time.Time) (string, bool) {
	key = normalizeKey(key)
	changed := false
	for _, rule := range rules {
		if !rule.Match(key) {
			continue
		}
		if fixed := rule.Fix(key, now); fixed != key {
			key = fixed
			changed = true
		}
	}
	return key, changed
}

// RepairedReceiptKey returns the corrected form of a receipt key and
// whether any rule applied. It does not touch storage.
func RepairedReceiptKey(key string, now time.Time) (string, bool) {
	return applyRepairRules(receiptRepairRules, key, now)
}

// RepairedThumbnailKey returns the corrected form of a thumbnail key and
// whether any rule applied.
func RepairedThumbnailKey(key string, now time.Time) (string, bool) {
	return applyRepairRules(thumbnailRepairRules, key, now)
}

// LegacyDuplicateKeys lists the key shapes under which historical bugs
// may have left stray copies of the blob at key. Hard delete sweeps all
// of them.
func LegacyDuplicateKeys(key string) []string {
	key = normalizeKey(key)
	dups := []string{
		"receipts/tmp/" + path.Base(key),
		"receipts/tmp/" + key,
	}
	if strings.HasPrefix(key, "receipts/thumbnails/receipts/") {
		dups = append(dups, strings.Replace(key, "receipts/thumbnails/receipts/", "receipts/thumbnails/", 1))
	}
	return dups
}

// normalizeKey converts Windows-style separators left by old clients.
func normalizeKey(key string) string {
	return strings.ReplaceAll(key, "\\", "/")
}
