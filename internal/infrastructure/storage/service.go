package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"

	"event-ticketing/internal/logger"

	"github.com/segmentio/ksuid"
	"go.uber.org/zap"
)

var imageExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// Service validates uploads and hands them to the configured Backend.
type Service struct {
	backend Backend
	baseURL string
	maxSize int64
}

func NewService(backend Backend, baseURL string, maxSize int64) *Service {
	return &Service{backend: backend, baseURL: baseURL, maxSize: maxSize}
}

// UploadImage stores an image under folder and returns its public URL. The
// content type is sniffed from the data, not taken from the client.
func (s *Service) UploadImage(ctx context.Context, folder string, r io.Reader, size int64) (string, error) {
	if s.maxSize > 0 && size > s.maxSize {
		return "", ErrFileTooLarge
	}

	limit := s.maxSize
	if limit <= 0 {
		limit = size
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	if len(data) == 0 {
		return "", ErrEmptyFile
	}
	if s.maxSize > 0 && int64(len(data)) > s.maxSize {
		return "", ErrFileTooLarge
	}

	contentType := http.DetectContentType(data)
	ext, ok := imageExtensions[contentType]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}

	key := path.Join(folder, ksuid.New().String()+"."+ext)
	stored, err := s.backend.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType)
	if err != nil {
		return "", err
	}

	logger.Debug("File stored",
		zap.String("key", stored.Key),
		zap.String("content_type", contentType),
		zap.Int64("size", stored.Size),
	)

	return FileURL(s.baseURL, stored), nil
}

// Delete removes a previously uploaded file. URLs that do not belong to the
// backend, such as external cover image links, are ignored.
func (s *Service) Delete(ctx context.Context, fileURL string) error {
	key, ok := s.backend.KeyFromURL(fileURL)
	if !ok {
		return nil
	}
	return s.backend.Delete(ctx, key)
}

// IsClientError reports whether err was caused by the uploaded content.
func IsClientError(err error) bool {
	return errors.Is(err, ErrFileTooLarge) || errors.Is(err, ErrUnsupportedType) || errors.Is(err, ErrEmptyFile)
}
