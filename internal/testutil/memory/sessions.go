package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	domainUser "event-ticketing/internal/domain/user"

	"github.com/google/uuid"
)

type SessionStore struct {
	mu       sync.Mutex
	sessions []*domainUser.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{}
}

func cloneSession(s *domainUser.Session) *domainUser.Session {
	c := *s
	return &c
}

func (s *SessionStore) closeOpen(userID uuid.UUID, at time.Time) int64 {
	var closed int64
	for _, sess := range s.sessions {
		if sess.UserID == userID && sess.LoggedOutAt == nil {
			t := at
			sess.LoggedOutAt = &t
			closed++
		}
	}
	return closed
}

func (s *SessionStore) Rotate(_ context.Context, sess *domainUser.Session, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closeOpen(sess.UserID, at)
	s.sessions = append(s.sessions, cloneSession(sess))
	return nil
}

func (s *SessionStore) CloseOpenForUser(_ context.Context, userID uuid.UUID, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeOpen(userID, at), nil
}

func (s *SessionStore) FindActive(_ context.Context, userID uuid.UUID, tokenHash string) (*domainUser.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sess := range s.sessions {
		if sess.UserID == userID && sess.RefreshTokenHash == tokenHash && sess.LoggedOutAt == nil {
			return cloneSession(sess), nil
		}
	}
	return nil, domainUser.ErrSessionNotFound
}

func (s *SessionStore) FindByToken(_ context.Context, userID uuid.UUID, tokenHash string) (*domainUser.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sess := range s.sessions {
		if sess.UserID == userID && sess.RefreshTokenHash == tokenHash {
			return cloneSession(sess), nil
		}
	}
	return nil, domainUser.ErrSessionNotFound
}

func (s *SessionStore) ListForUser(_ context.Context, userID uuid.UUID) ([]*domainUser.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domainUser.Session
	for _, sess := range s.sessions {
		if sess.UserID == userID {
			out = append(out, cloneSession(sess))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *SessionStore) PurgeClosedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.sessions[:0]
	var purged int64
	for _, sess := range s.sessions {
		if sess.LoggedOutAt != nil && sess.LoggedOutAt.Before(cutoff) {
			purged++
			continue
		}
		kept = append(kept, sess)
	}
	s.sessions = kept
	return purged, nil
}

// OpenCount returns how many sessions of userID are open.
func (s *SessionStore) OpenCount(userID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, sess := range s.sessions {
		if sess.UserID == userID && sess.LoggedOutAt == nil {
			n++
		}
	}
	return n
}

func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
