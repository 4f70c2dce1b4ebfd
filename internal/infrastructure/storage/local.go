package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalBackend writes files below a directory that the HTTP server exposes
// under AttachmentRoute.
type LocalBackend struct {
	dir     string
	baseURL string
}

func NewLocalBackend(dir, baseURL string) (*LocalBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &LocalBackend{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (b *LocalBackend) Dir() string {
	return b.dir
}

func (b *LocalBackend) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) (StoredFile, error) {
	path, err := b.pathFor(key)
	if err != nil {
		return StoredFile{}, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return StoredFile{}, fmt.Errorf("create dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return StoredFile{}, fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, r)
	if err != nil {
		_ = os.Remove(path)
		return StoredFile{}, fmt.Errorf("write file: %w", err)
	}

	return StoredFile{Key: key, ContentType: contentType, Size: n}, nil
}

func (b *LocalBackend) Delete(_ context.Context, key string) error {
	path, err := b.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

func (b *LocalBackend) KeyFromURL(url string) (string, bool) {
	prefix := b.baseURL + AttachmentRoute + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}

// pathFor rejects keys that would escape the storage directory.
func (b *LocalBackend) pathFor(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if clean == "/" {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(b.dir, clean), nil
}
