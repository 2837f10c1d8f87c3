package receipt

import (
	"bytes"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	apperrors "kasa/internal/errors"
)

// DefaultThumbnailWidth is the preview width used for receipt thumbnails.
const DefaultThumbnailWidth = 320

const thumbnailQuality = 85

// Thumbnail derives a WEBP preview from validated receipt bytes. EXIF
// orientation is applied before resizing so rotated phone photos end up
// upright. Width is capped at width, height is effectively unbounded
// (aspect ratio preserved, no cropping, no upscaling). Pure function:
// the caller persists the result.
func Thumbnail(data []byte, width int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidFile, err)
	}

	thumb := imaging.Fit(img, width, width*1000, imaging.Lanczos)

	var buf bytes.Buffer
	if err := webp.Encode(&buf, thumb, &webp.Options{Quality: thumbnailQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
