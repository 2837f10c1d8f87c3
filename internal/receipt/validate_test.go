package receipt

import (
	"testing"

	"kasa/internal/testutil"
)

func TestValidate(t *testing.T) {
	t.Run("valid_png", func(t *testing.T) {
		data := testutil.PNGBytes(t, 40, 40)
		testutil.AssertNoError(t, Validate(data, int64(len(data))))
	})

	t.Run("valid_jpeg", func(t *testing.T) {
		data := testutil.JPEGBytes(t, 40, 40)
		testutil.AssertNoError(t, Validate(data, int64(len(data))))
	})

	t.Run("unknown_declared_size", func(t *testing.T) {
		data := testutil.PNGBytes(t, 40, 40)
		testutil.AssertNoError(t, Validate(data, 0))
	})

	t.Run("declared_size_over_cap", func(t *testing.T) {
		data := testutil.PNGBytes(t, 40, 40)
		err := Validate(data, 15*1024*1024)
		testutil.AssertAppError(t, err, "FILE_TOO_LARGE")
	})

	t.Run("actual_size_over_cap", func(t *testing.T) {
		// Understated declared size must not bypass the cap.
		data := make([]byte, MaxFileSize+1)
		err := Validate(data, 100)
		testutil.AssertAppError(t, err, "FILE_TOO_LARGE")
	})

	t.Run("text_pretending_to_be_jpg", func(t *testing.T) {
		err := Validate([]byte("definitely not an image"), 23)
		testutil.AssertAppError(t, err, "INVALID_FILE")
	})

	t.Run("truncated_jpeg", func(t *testing.T) {
		data := testutil.JPEGBytes(t, 200, 200)
		err := Validate(data[:len(data)/2], int64(len(data)/2))
		testutil.AssertAppError(t, err, "INVALID_FILE")
	})

	t.Run("empty", func(t *testing.T) {
		err := Validate(nil, 0)
		testutil.AssertAppError(t, err, "EMPTY_FILE")
	})
}

func TestHashDeterministic(t *testing.T) {
	data := testutil.PNGBytes(t, 10, 10)
	if Hash(data) != Hash(data) {
		t.Error("same bytes must hash to the same digest")
	}
	if len(Hash(data)) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(Hash(data)))
	}
	if Hash(data) == Hash(append([]byte{0}, data...)) {
		t.Error("different bytes must hash differently")
	}
}
