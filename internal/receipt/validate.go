package receipt

import (
	"bytes"
	"image"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	apperrors "kasa/internal/errors"
)

// MaxFileSize is the upload size cap for receipt images.
const MaxFileSize = 10 * 1024 * 1024 // 10 MiB

var allowedFormats = map[string]bool{
	"jpeg": true,
	"png":  true,
	"webp": true,
}

// Validate checks that data is a structurally valid image in an allowed
// format and within the size cap. declaredSize is the client-declared
// length (0 or negative means unknown); actual bytes are checked too so
// an understated Content-Length cannot bypass the cap. Read-only, no
// side effects.
func Validate(data []byte, declaredSize int64) error {
	if declaredSize > MaxFileSize || int64(len(data)) > MaxFileSize {
		return apperrors.ErrFileTooLarge
	}
	if len(data) == 0 {
		return apperrors.ErrEmptyFile
	}

	// Full decode, not just a header sniff: a truncated or corrupt body
	// must fail here, before anything is written anywhere.
	_, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInvalidFile, err)
	}
	if !allowedFormats[format] {
		return apperrors.WithMessage(apperrors.ErrInvalidFile, "only jpg/png/webp images are allowed")
	}
	return nil
}
