// Package memory holds in-memory repositories for tests.
package memory

import (
	"context"
	"sync"
	"time"

	domainUser "event-ticketing/internal/domain/user"

	"github.com/google/uuid"
)

type UserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domainUser.User
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[uuid.UUID]*domainUser.User)}
}

func cloneUser(u *domainUser.User) *domainUser.User {
	c := *u
	return &c
}

func eq(a *string, b string) bool {
	return a != nil && b != "" && *a == b
}

func (s *UserStore) Create(_ context.Context, u *domainUser.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if u.Email != nil && eq(existing.Email, *u.Email) {
			return domainUser.ErrUserAlreadyExists
		}
		if u.GoogleID != nil && eq(existing.GoogleID, *u.GoogleID) {
			return domainUser.ErrUserAlreadyExists
		}
		if u.FacebookID != nil && eq(existing.FacebookID, *u.FacebookID) {
			return domainUser.ErrUserAlreadyExists
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	s.users[u.ID] = cloneUser(u)
	return nil
}

func (s *UserStore) GetByID(_ context.Context, id uuid.UUID) (*domainUser.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, domainUser.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (s *UserStore) find(match func(*domainUser.User) bool) (*domainUser.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if match(u) {
			return cloneUser(u), nil
		}
	}
	return nil, domainUser.ErrUserNotFound
}

func (s *UserStore) GetByEmail(_ context.Context, email string) (*domainUser.User, error) {
	return s.find(func(u *domainUser.User) bool { return eq(u.Email, email) })
}

func (s *UserStore) GetByEmailOrPhone(_ context.Context, email, phone string) (*domainUser.User, error) {
	return s.find(func(u *domainUser.User) bool { return eq(u.Email, email) || eq(u.PhoneNumber, phone) })
}

func (s *UserStore) GetByProviderIDOrEmail(_ context.Context, provider domainUser.Provider, providerID string, email *string) (*domainUser.User, error) {
	u, err := s.find(func(u *domainUser.User) bool { return eq(u.ProviderID(provider), providerID) })
	if err == nil || email == nil {
		return u, err
	}
	return s.find(func(u *domainUser.User) bool { return eq(u.Email, *email) })
}

func (s *UserStore) Update(_ context.Context, u *domainUser.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[u.ID]; !ok {
		return domainUser.ErrUserNotFound
	}
	u.UpdatedAt = time.Now()
	s.users[u.ID] = cloneUser(u)
	return nil
}

func (s *UserStore) mutate(id uuid.UUID, fn func(*domainUser.User) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return domainUser.ErrUserNotFound
	}
	if err := fn(u); err != nil {
		return err
	}
	u.UpdatedAt = time.Now()
	return nil
}

func (s *UserStore) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	return s.mutate(id, func(u *domainUser.User) error {
		u.PasswordHash = &hash
		u.ResetCodeHash = nil
		return nil
	})
}

func (s *UserStore) SetResetCode(_ context.Context, id uuid.UUID, codeHash string) error {
	return s.mutate(id, func(u *domainUser.User) error {
		u.ResetCodeHash = &codeHash
		return nil
	})
}

func (s *UserStore) LinkProvider(_ context.Context, id uuid.UUID, provider domainUser.Provider, providerID string) error {
	return s.mutate(id, func(u *domainUser.User) error {
		for otherID, other := range s.users {
			if otherID != id && eq(other.ProviderID(provider), providerID) {
				return domainUser.ErrProviderLinked
			}
		}
		u.SetProviderID(provider, providerID)
		u.EmailVerified = true
		return nil
	})
}

// Put stores u as-is, bypassing uniqueness checks.
func (s *UserStore) Put(u *domainUser.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = cloneUser(u)
}

func (s *UserStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}
