package memory

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	domainEvent "event-ticketing/internal/domain/event"
)

// ImageStore keeps uploaded images in memory under fake urls.
type ImageStore struct {
	mu      sync.Mutex
	files   map[string][]byte
	next    int
	Deleted []string
	// FailAfter makes the upload after that many successful ones fail. Zero disables it.
	FailAfter int
}

func NewImageStore() *ImageStore {
	return &ImageStore{files: make(map[string][]byte)}
}

func (s *ImageStore) UploadImage(_ context.Context, folder string, r io.Reader, _ int64) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailAfter > 0 && s.next >= s.FailAfter {
		return "", fmt.Errorf("upload failed")
	}
	s.next++
	url := fmt.Sprintf("https://cdn.test/%s/%d.png", folder, s.next)
	s.files[url] = data
	return url, nil
}

func (s *ImageStore) Delete(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !strings.HasPrefix(url, "https://cdn.test/") {
		return nil
	}
	delete(s.files, url)
	s.Deleted = append(s.Deleted, url)
	return nil
}

func (s *ImageStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}

// StatusLog records published lifecycle changes.
type StatusLog struct {
	mu      sync.Mutex
	changes []domainEvent.StatusChange
	Err     error
}

func (l *StatusLog) PublishStatusChange(_ context.Context, change domainEvent.StatusChange) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Err != nil {
		return l.Err
	}
	l.changes = append(l.changes, change)
	return nil
}

func (l *StatusLog) Changes() []domainEvent.StatusChange {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domainEvent.StatusChange(nil), l.changes...)
}
