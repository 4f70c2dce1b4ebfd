// Package storage keeps uploaded images on local disk or an S3-compatible
// object store and builds the public URLs clients use to fetch them.
package storage

import (
	"context"
	"errors"
	"io"
	"strings"
)

var (
	ErrFileTooLarge    = errors.New("file exceeds the maximum upload size")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrEmptyFile       = errors.New("empty file")
)

// StoredFile describes an object after it has been written by a Backend.
type StoredFile struct {
	Key         string
	Path        string
	Location    string
	ContentType string
	Size        int64
}

type Backend interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (StoredFile, error)
	Delete(ctx context.Context, key string) error
	// KeyFromURL maps a URL produced for this backend back to its object key.
	KeyFromURL(url string) (string, bool)
}

// FileURL resolves the URL for a stored file. Absolute http(s) paths are
// returned unchanged, a remote location wins over the local attachment route.
func FileURL(baseURL string, f StoredFile) string {
	if isAbsoluteURL(f.Path) {
		return f.Path
	}
	if f.Location != "" {
		return f.Location
	}
	return strings.TrimRight(baseURL, "/") + AttachmentRoute + "/" + strings.TrimLeft(f.Key, "/")
}

// AttachmentRoute is where locally stored files are served.
const AttachmentRoute = "/attachment"

func isAbsoluteURL(p string) bool {
	return strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://")
}
