package user

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for user repository operations
type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, userID uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// GetByEmailOrPhone matches either identifier; blank identifiers are ignored.
	GetByEmailOrPhone(ctx context.Context, email, phone string) (*User, error)
	// GetByProviderIDOrEmail prefers a provider id match over an email match.
	GetByProviderIDOrEmail(ctx context.Context, provider Provider, providerID string, email *string) (*User, error)
	Update(ctx context.Context, user *User) error
	// UpdatePassword stores a new hash and clears any pending reset code.
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
	SetResetCode(ctx context.Context, userID uuid.UUID, codeHash string) error
	// LinkProvider attaches a provider id and marks the email verified.
	LinkProvider(ctx context.Context, userID uuid.UUID, provider Provider, providerID string) error
}

// SessionRepository defines the interface for session bookkeeping
type SessionRepository interface {
	// Rotate closes every open session of s.UserID at the given time and
	// inserts s, in one transaction.
	Rotate(ctx context.Context, s *Session, at time.Time) error
	CloseOpenForUser(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error)
	FindActive(ctx context.Context, userID uuid.UUID, tokenHash string) (*Session, error)
	FindByToken(ctx context.Context, userID uuid.UUID, tokenHash string) (*Session, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*Session, error)
	PurgeClosedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
