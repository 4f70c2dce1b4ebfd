package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	domainUser "event-ticketing/internal/domain/user"
	"event-ticketing/internal/security"

	"github.com/google/uuid"
)

const maxUserAgentLength = 512

// SessionManager keeps at most one open session per user. Refresh tokens are
// stored as SHA-256 digests.
//
// Closing the old session and inserting the new one run in one transaction,
// but two concurrent logins under READ COMMITTED can still both commit an
// open session. That window is accepted.
type SessionManager struct {
	repo  domainUser.SessionRepository
	clock security.Clock
}

func NewSessionManager(repo domainUser.SessionRepository, clock security.Clock) *SessionManager {
	return &SessionManager{repo: repo, clock: clock}
}

// CreateSession closes the user's open sessions and opens a new one bound
// to refreshToken.
func (m *SessionManager) CreateSession(ctx context.Context, userID uuid.UUID, refreshToken string, rc RequestContext) (*domainUser.Session, error) {
	now := m.clock.Now()
	userAgent := truncateUTF8(rc.UserAgent, maxUserAgentLength)

	session := &domainUser.Session{
		ID:               uuid.New(),
		UserID:           userID,
		RefreshTokenHash: security.HashSecret(refreshToken),
		UserAgent:        userAgent,
		IPAddress:        rc.IPAddress,
		CreatedAt:        now,
	}
	if err := m.repo.Rotate(ctx, session, now); err != nil {
		return nil, fmt.Errorf("failed to rotate session: %w", err)
	}

	return session, nil
}

// FindActiveSession returns the open session bound to refreshToken.
// It returns ErrSessionRevoked when the token belongs to a closed session and
// ErrSessionNotFound when no session ever held it.
func (m *SessionManager) FindActiveSession(ctx context.Context, userID uuid.UUID, refreshToken string) (*domainUser.Session, error) {
	hash := security.HashSecret(refreshToken)

	session, err := m.repo.FindActive(ctx, userID, hash)
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, domainUser.ErrSessionNotFound) {
		return nil, err
	}

	if _, lookupErr := m.repo.FindByToken(ctx, userID, hash); lookupErr == nil {
		return nil, domainUser.ErrSessionRevoked
	}

	return nil, domainUser.ErrSessionNotFound
}

// Revoke closes every open session of the user.
func (m *SessionManager) Revoke(ctx context.Context, userID uuid.UUID) (int64, error) {
	closed, err := m.repo.CloseOpenForUser(ctx, userID, m.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to close sessions: %w", err)
	}
	return closed, nil
}

func (m *SessionManager) List(ctx context.Context, userID uuid.UUID) ([]*domainUser.Session, error) {
	return m.repo.ListForUser(ctx, userID)
}

// truncateUTF8 cuts s to at most limit bytes without splitting a rune.
// Invalid sequences in the input are dropped.
func truncateUTF8(s string, limit int) string {
	s = strings.ToValidUTF8(s, "")
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
