package mediastore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/alex-berlin-tv/rafo/internal/services"
)

// MediaRoute is the HTTP path prefix under which the API serves a Local store.
const MediaRoute = "/media/"

// Local keeps media files in a directory and serves them through the API.
type Local struct {
	root      string
	publicURL string
}

// NewLocal constructs a local store rooted at dir. publicURL is the external
// base URL of the API server.
func NewLocal(dir, publicURL string) (*Local, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, services.Wrap(services.ErrConfiguration, "mediastore", "init", "storage.local_dir is empty", nil)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &Local{root: dir, publicURL: strings.TrimRight(strings.TrimSpace(publicURL), "/")}, nil
}

// Root returns the directory holding the media files.
func (l *Local) Root() string {
	return l.root
}

// Path resolves key to a file inside the store.
func (l *Local) Path(key string) (string, error) {
	cleaned, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(l.root, filepath.FromSlash(cleaned)), nil
}

// Fetch implements Store.
func (l *Local) Fetch(ctx context.Context, key, dst string) error {
	src, err := l.Path(key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := os.Stat(src); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return services.Wrap(services.ErrNotFound, "mediastore", "fetch", key, nil)
		}
		return fmt.Errorf("stat %s: %w", key, err)
	}
	if err := copyVerified(src, dst); err != nil {
		return fmt.Errorf("fetch %s: %w", key, err)
	}
	return nil
}

// Put implements Store.
func (l *Local) Put(ctx context.Context, key, src string) error {
	dst, err := l.Path(key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create media dir: %w", err)
	}
	if err := copyVerified(src, dst); err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}
	return nil
}

// URL implements Store.
func (l *Local) URL(_ context.Context, key string) (string, error) {
	cleaned, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	if l.publicURL == "" {
		return "", services.Wrap(services.ErrConfiguration, "mediastore", "url", "paths.public_url is required for the local backend", nil)
	}
	escaped := make([]string, 0, 4)
	for _, part := range strings.Split(cleaned, "/") {
		escaped = append(escaped, url.PathEscape(part))
	}
	return l.publicURL + MediaRoute + strings.Join(escaped, "/"), nil
}

// Exists implements Store.
func (l *Local) Exists(_ context.Context, key string) (bool, error) {
	p, err := l.Path(key)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir(), nil
}

// copyVerified streams src into a temporary sibling of dst, verifies size and
// SHA256, then renames it into place so readers never see partial files.
func copyVerified(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	srcHash := sha256.New()
	dstHash := sha256.New()
	written, err := io.Copy(io.MultiWriter(tmp, dstHash), io.TeeReader(in, srcHash))
	if err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if written != info.Size() {
		return fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", info.Size(), written)
	}
	if !bytes.Equal(srcHash.Sum(nil), dstHash.Sum(nil)) {
		return fmt.Errorf("copy hash mismatch")
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, dst)
}
