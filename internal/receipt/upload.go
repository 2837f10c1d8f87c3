// Package receipt handles receipt uploads: defensive byte reading,
// content hashing, image validation and thumbnail generation. It never
// talks to storage; committing bytes is the receipt store's job.
package receipt

import (
	"io"
	"mime/multipart"
	"path"
	"strings"

	apperrors "kasa/internal/errors"
)

// UploadCandidate is a receipt upload that has not been stored yet. It
// is a plain value: raw bytes plus the client-declared filename and
// size. Once committed it becomes a blob key on the transaction row and
// the candidate is discarded; stored blobs are never rewritten.
type UploadCandidate struct {
	Name string
	Size int64
	data []byte
}

// NewUploadCandidate builds a candidate from already-read bytes.
func NewUploadCandidate(name string, size int64, data []byte) *UploadCandidate {
	return &UploadCandidate{Name: name, Size: size, data: data}
}

// Bytes returns the raw upload content.
func (u *UploadCandidate) Bytes() []byte { return u.data }

// Ext returns the lowercased extension from the declared filename, or
// ".bin" when the name carries none. The extension is only a storage-key
// suffix; the validator decides what the bytes actually are.
func (u *UploadCandidate) Ext() string {
	ext := strings.ToLower(path.Ext(u.Name))
	if ext == "" {
		ext = ".bin"
	}
	return ext
}

// ReadUpload drains r into an UploadCandidate. Reading is defensive:
// the stream may arrive with its cursor past the start or already
// consumed by an earlier middleware, so an empty first read triggers a
// rewind (when r seeks) and then a reopen (when the caller can provide
// one) before giving up with EMPTY_FILE.
func ReadUpload(r io.Reader, reopen func() (io.ReadCloser, error), name string, size int64) (*UploadCandidate, error) {
	data, err := io.ReadAll(r)
	if (err != nil || len(data) == 0) && r != nil {
		if seeker, ok := r.(io.Seeker); ok {
			if _, serr := seeker.Seek(0, io.SeekStart); serr == nil {
				data, err = io.ReadAll(r)
			}
		}
	}
	if (err != nil || len(data) == 0) && reopen != nil {
		rc, rerr := reopen()
		if rerr == nil {
			data, err = io.ReadAll(rc)
			_ = rc.Close()
		}
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrEmptyFile, err)
	}
	if len(data) == 0 {
		return nil, apperrors.ErrEmptyFile
	}
	return NewUploadCandidate(name, size, data), nil
}

// FromMultipart reads a multipart file header into an UploadCandidate.
func FromMultipart(fh *multipart.FileHeader) (*UploadCandidate, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrEmptyFile, err)
	}
	defer f.Close()

	return ReadUpload(f, func() (io.ReadCloser, error) { return fh.Open() }, fh.Filename, fh.Size)
}
