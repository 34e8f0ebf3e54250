package imagestore

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// Local stores images in a directory on the local filesystem and returns
// references under a public URL path served by the HTTP layer.
type Local struct {
	root       string
	publicPath string
	policy     Policy
	now        func() time.Time
}

// NewLocal creates a Local backend rooted at root, creating the directory if needed.
func NewLocal(root, publicPath string, policy Policy) (*Local, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create image root %q: %w", root, err)
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve image root: %w", err)
	}
	if !strings.HasPrefix(publicPath, "/") {
		publicPath = "/" + publicPath
	}
	return &Local{
		root:       absRoot,
		publicPath: strings.TrimRight(publicPath, "/"),
		policy:     policy,
		now:        time.Now,
	}, nil
}

// Root returns the absolute directory images are written to.
func (l *Local) Root() string { return l.root }

// PublicPath returns the URL prefix references are built under.
func (l *Local) PublicPath() string { return l.publicPath }

// Save validates u and writes it to a new file under the root.
func (l *Local) Save(ctx context.Context, u Upload) (string, error) {
	if _, err := l.policy.Check(u); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := ObjectName(u.Filename, l.now())
	dest, err := l.abs(name)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrStorage, err)
	}
	if err := l.write(dest, u.Data); err != nil {
		return "", fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return path.Join(l.publicPath, name), nil
}

// abs resolves name under root and rejects anything that would escape it.
func (l *Local) abs(name string) (string, error) {
	joined := filepath.Join(l.root, filepath.Clean(filepath.FromSlash(name)))
	rel, err := filepath.Rel(l.root, joined)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("name %q escapes image root", name)
	}
	return joined, nil
}

// write stores data at dest using a temp file and a rename. An existing
// object at dest is never replaced.
func (l *Local) write(dest string, data []byte) error {
	// The directory may have been removed since startup.
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("mkdir %q: %w", filepath.Dir(dest), err)
	}
	if _, err := os.Lstat(dest); err == nil {
		return fmt.Errorf("object %q already exists", filepath.Base(dest))
	}

	tmp := dest + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("open tmp %q: %w", tmp, err)
	}

	_, werr := f.Write(data)
	cerr := f.Close()
	if werr != nil {
		os.Remove(tmp) //nolint:errcheck
		return fmt.Errorf("write: %w", werr)
	}
	if cerr != nil {
		os.Remove(tmp) //nolint:errcheck
		return fmt.Errorf("flush: %w", cerr)
	}

	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp) //nolint:errcheck
		return fmt.Errorf("rename to %q: %w", dest, err)
	}
	return nil
}
