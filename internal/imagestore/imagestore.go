// Package imagestore persists uploaded school images and returns a reference
// (a site-relative path or an absolute URL) that can be stored on the record.
//
// Backends never overwrite or delete an existing object: every successful
// Save creates exactly one new object, and a rejected upload writes nothing.
package imagestore

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"school-directory-backend/config"
)

var (
	// ErrMissing is returned when no image bytes were supplied.
	ErrMissing = errors.New("image is required")
	// ErrNotImage is returned when the declared type is not an image type.
	ErrNotImage = errors.New("invalid image type")
	// ErrTooLarge is returned when the payload exceeds the size ceiling.
	ErrTooLarge = errors.New("image too large")
	// ErrStorage wraps failures of the underlying backend.
	ErrStorage = errors.New("image storage failed")
)

const (
	defaultExt     = ".png"
	fallbackBase   = "image"
	maxBaseNameLen = 100
	maxExtLen      = 16
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// Upload is one image as received from a client.
type Upload struct {
	Data     []byte
	Filename string
	MimeType string
}

// Store persists images. Implementations must be safe for concurrent use.
type Store interface {
	// Save validates u, writes it under a fresh name and returns its reference.
	Save(ctx context.Context, u Upload) (string, error)
}

// IsMediaError reports whether err is a rejection of the upload itself
// rather than a backend failure.
func IsMediaError(err error) bool {
	return errors.Is(err, ErrMissing) || errors.Is(err, ErrNotImage) || errors.Is(err, ErrTooLarge)
}

// Policy holds the constraints every upload must satisfy.
type Policy struct {
	MaxBytes int64
}

// Check validates u and returns the effective MIME type. An upload must
// declare an image type. A wildcard declaration such as "image/*" is
// narrowed by sniffing the content when the content is a known image.
func (p Policy) Check(u Upload) (string, error) {
	if len(u.Data) == 0 {
		return "", ErrMissing
	}

	mime := strings.ToLower(strings.TrimSpace(u.MimeType))
	if !strings.HasPrefix(mime, "image/") {
		return "", ErrNotImage
	}
	if sub := strings.TrimPrefix(mime, "image/"); sub == "" || sub == "*" {
		mime = "image/*"
		if detected := mimetype.Detect(u.Data); strings.HasPrefix(detected.String(), "image/") {
			mime = detected.String()
		}
	}

	if p.MaxBytes > 0 && int64(len(u.Data)) > p.MaxBytes {
		return "", fmt.Errorf("%w: %d bytes exceeds %d", ErrTooLarge, len(u.Data), p.MaxBytes)
	}
	return mime, nil
}

// ObjectName derives a collision-resistant object name from the client's
// filename: <unix millis>-<random token>-<sanitized base><ext>. Extensions
// longer than maxExtLen are replaced with the default.
func ObjectName(filename string, now time.Time) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	ext = Sanitize(ext)
	if len(ext) <= 1 || len(ext) > maxExtLen {
		ext = defaultExt
	}

	base = Sanitize(base)
	if len(base) > maxBaseNameLen {
		base = base[:maxBaseNameLen]
	}
	if base == "" {
		base = fallbackBase
	}

	token := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("%d-%s-%s%s", now.UnixMilli(), token, base, ext)
}

// Sanitize replaces every character outside [A-Za-z0-9._-] with an underscore.
func Sanitize(name string) string {
	return unsafeChars.ReplaceAllString(name, "_")
}

// New builds the backend selected by cfg.
func New(cfg config.StorageConfig) (Store, error) {
	policy := Policy{MaxBytes: cfg.MaxUploadBytes}

	switch cfg.Backend {
	case config.BackendLocal:
		l, err := NewLocal(cfg.Local.Dir, cfg.Local.PublicPath, policy)
		if err != nil {
			return nil, err
		}
		return l, nil
	case config.BackendS3:
		s, err := NewS3(cfg.S3, policy)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Backend)
	}
}
