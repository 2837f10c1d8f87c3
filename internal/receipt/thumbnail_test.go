package receipt

import (
	"bytes"
	"image"
	"testing"

	"kasa/internal/testutil"
)

func decodeThumb(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to decode thumbnail: %v", err)
	}
	if format != "webp" {
		t.Fatalf("expected webp output, got %s", format)
	}
	return img
}

func TestThumbnail(t *testing.T) {
	t.Run("caps_width_preserves_aspect", func(t *testing.T) {
		data := testutil.PNGBytes(t, 1000, 500)
		out, err := Thumbnail(data, 320)
		testutil.AssertNoError(t, err)

		b := decodeThumb(t, out).Bounds()
		if b.Dx() != 320 || b.Dy() != 160 {
			t.Errorf("expected 320x160, got %dx%d", b.Dx(), b.Dy())
		}
	})

	t.Run("tall_image_unbounded_height", func(t *testing.T) {
		data := testutil.JPEGBytes(t, 400, 1600)
		out, err := Thumbnail(data, 320)
		testutil.AssertNoError(t, err)

		b := decodeThumb(t, out).Bounds()
		if b.Dx() != 320 || b.Dy() != 1280 {
			t.Errorf("expected 320x1280 (no crop), got %dx%d", b.Dx(), b.Dy())
		}
	})

	t.Run("no_upscaling", func(t *testing.T) {
		data := testutil.PNGBytes(t, 100, 50)
		out, err := Thumbnail(data, 320)
		testutil.AssertNoError(t, err)

		b := decodeThumb(t, out).Bounds()
		if b.Dx() != 100 || b.Dy() != 50 {
			t.Errorf("expected 100x50 unchanged, got %dx%d", b.Dx(), b.Dy())
		}
	})

	t.Run("invalid_input", func(t *testing.T) {
		if _, err := Thumbnail([]byte("not an image"), 320); err == nil {
			t.Error("expected error for non-image input")
		}
	})
}
