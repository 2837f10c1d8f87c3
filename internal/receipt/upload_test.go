package receipt

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"kasa/internal/testutil"
)

func TestReadUpload(t *testing.T) {
	t.Run("plain_read", func(t *testing.T) {
		u, err := ReadUpload(strings.NewReader("content"), nil, "a.jpg", 7)
		testutil.AssertNoError(t, err)
		if string(u.Bytes()) != "content" {
			t.Errorf("unexpected bytes: %q", u.Bytes())
		}
		if u.Name != "a.jpg" || u.Size != 7 {
			t.Errorf("unexpected metadata: %q %d", u.Name, u.Size)
		}
	})

	t.Run("consumed_seeker_rewinds", func(t *testing.T) {
		r := bytes.NewReader([]byte("content"))
		if _, err := io.ReadAll(r); err != nil {
			t.Fatal(err)
		}

		u, err := ReadUpload(r, nil, "a.jpg", 7)
		testutil.AssertNoError(t, err)
		if string(u.Bytes()) != "content" {
			t.Errorf("expected rewind to recover content, got %q", u.Bytes())
		}
	})

	t.Run("reopen_recovers", func(t *testing.T) {
		reopen := func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader("content")), nil
		}
		u, err := ReadUpload(emptyUnseekable{}, reopen, "a.jpg", 7)
		testutil.AssertNoError(t, err)
		if string(u.Bytes()) != "content" {
			t.Errorf("expected reopen to recover content, got %q", u.Bytes())
		}
	})

	t.Run("empty_no_recovery", func(t *testing.T) {
		_, err := ReadUpload(emptyUnseekable{}, nil, "a.jpg", 0)
		testutil.AssertAppError(t, err, "EMPTY_FILE")
	})
}

// emptyUnseekable is a reader with nothing to give and no way back.
type emptyUnseekable struct{}

func (emptyUnseekable) Read([]byte) (int, error) { return 0, io.EOF }

func TestUploadCandidateExt(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"receipt.jpg", ".jpg"},
		{"Receipt.JPG", ".jpg"},
		{"scan.webp", ".webp"},
		{"noextension", ".bin"},
		{"", ".bin"},
		{"dir/in/name.png", ".png"},
	}
	for _, tc := range cases {
		u := NewUploadCandidate(tc.name, 0, nil)
		if got := u.Ext(); got != tc.want {
			t.Errorf("Ext(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}
