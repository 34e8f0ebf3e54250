package imagestore

import (
	"bytes"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"school-directory-backend/config"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestPolicy_Check(t *testing.T) {
	policy := Policy{MaxBytes: config.DefaultMaxUploadBytes}

	testCases := []struct {
		name     string
		upload   Upload
		wantErr  error
		wantMime string
	}{
		{
			name:     "declared image",
			upload:   Upload{Data: []byte("anything"), MimeType: "image/jpeg"},
			wantMime: "image/jpeg",
		},
		{
			name:    "declared text is rejected regardless of content",
			upload:  Upload{Data: pngHeader, MimeType: "text/plain"},
			wantErr: ErrNotImage,
		},
		{
			name:    "undeclared type is rejected even for image content",
			upload:  Upload{Data: pngHeader},
			wantErr: ErrNotImage,
		},
		{
			name:    "blank declared type is rejected",
			upload:  Upload{Data: pngHeader, MimeType: "  "},
			wantErr: ErrNotImage,
		},
		{
			name:     "wildcard type is narrowed from content",
			upload:   Upload{Data: pngHeader, MimeType: "image/*"},
			wantMime: "image/png",
		},
		{
			name:     "wildcard type with unknown content",
			upload:   Upload{Data: []byte("just some text"), MimeType: "image/*"},
			wantMime: "image/*",
		},
		{
			name:     "declared type is case-insensitive",
			upload:   Upload{Data: []byte("anything"), MimeType: "Image/PNG"},
			wantMime: "image/png",
		},
		{
			name:    "empty payload",
			upload:  Upload{MimeType: "image/png"},
			wantErr: ErrMissing,
		},
		{
			name:     "exactly at the ceiling",
			upload:   Upload{Data: make([]byte, config.DefaultMaxUploadBytes), MimeType: "image/png"},
			wantMime: "image/png",
		},
		{
			name:    "one byte over the ceiling",
			upload:  Upload{Data: make([]byte, config.DefaultMaxUploadBytes+1), MimeType: "image/png"},
			wantErr: ErrTooLarge,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mime, err := policy.Check(tc.upload)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.True(t, IsMediaError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantMime, mime)
		})
	}
}

func TestObjectName(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	shape := regexp.MustCompile(`^1700000000123-[0-9a-f]{12}-[A-Za-z0-9._-]+$`)

	testCases := []struct {
		filename   string
		wantSuffix string
	}{
		{filename: "campus.jpg", wantSuffix: "-campus.jpg"},
		{filename: "my photo/A.jpg", wantSuffix: "_A.jpg"},
		{filename: "../../etc/passwd", wantSuffix: "-.._.._etc_passwd.png"},
		{filename: "école ñ.webp", wantSuffix: "-_cole__.webp"},
		{filename: "noext", wantSuffix: "-noext.png"},
		{filename: "", wantSuffix: "-image.png"},
		{filename: ".png", wantSuffix: "-image.png"},
		{filename: "a." + strings.Repeat("j", 240), wantSuffix: "-a.png"},
		{filename: "a.0123456789abcde", wantSuffix: "-a.0123456789abcde"},
		{filename: "a.0123456789abcdef", wantSuffix: "-a.png"},
	}

	for _, tc := range testCases {
		t.Run(tc.filename, func(t *testing.T) {
			name := ObjectName(tc.filename, now)
			assert.Regexp(t, shape, name)
			assert.True(t, strings.HasSuffix(name, tc.wantSuffix), "%q should end with %q", name, tc.wantSuffix)
			assert.NotContains(t, name, "/")
		})
	}
}

func TestObjectName_Unique(t *testing.T) {
	now := time.Now()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		name := ObjectName("same.jpg", now)
		assert.False(t, seen[name], "duplicate name %q", name)
		seen[name] = true
	}
}

func TestObjectName_LongBase(t *testing.T) {
	name := ObjectName(strings.Repeat("a", 500)+".gif", time.Now())
	assert.True(t, strings.HasSuffix(name, strings.Repeat("a", maxBaseNameLen)+".gif"))
	assert.Less(t, len(name), 150)
}

func TestNew(t *testing.T) {
	store, err := New(config.StorageConfig{
		Backend:        config.BackendLocal,
		MaxUploadBytes: 10,
		Local:          config.LocalStorageConfig{Dir: t.TempDir(), PublicPath: "/img"},
	})
	require.NoError(t, err)
	local, ok := store.(*Local)
	require.True(t, ok)
	assert.Equal(t, "/img", local.PublicPath())

	store, err = New(config.StorageConfig{
		Backend: config.BackendS3,
		S3:      config.S3StorageConfig{Bucket: "b", Region: "us-east-1"},
	})
	require.NoError(t, err)
	assert.IsType(t, &S3{}, store)

	_, err = New(config.StorageConfig{Backend: "ftp"})
	assert.Error(t, err)
}

func TestIsMediaError(t *testing.T) {
	assert.False(t, IsMediaError(ErrStorage))
	assert.False(t, IsMediaError(errors.New("boom")))
	assert.True(t, IsMediaError(bytesErr()))
}

func bytesErr() error {
	_, err := Policy{MaxBytes: 1}.Check(Upload{Data: bytes.Repeat([]byte{1}, 2), MimeType: "image/png"})
	return err
}
