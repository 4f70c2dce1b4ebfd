package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	domainUser "event-ticketing/internal/domain/user"
	"event-ticketing/internal/infrastructure/database/postgres/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SessionRepository implements domain.User.SessionRepository interface
type SessionRepository struct {
	db *DB
}

func NewSessionRepository(db *DB) domainUser.SessionRepository {
	return &SessionRepository{db: db}
}

// Rotate closes the user's open sessions and inserts s in one transaction.
// Two concurrent logins can still both commit; the partial index on open
// sessions is not unique.
func (r *SessionRepository) Rotate(ctx context.Context, s *domainUser.Session, at time.Time) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = at
	}

	return r.db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := closeOpen(tx, s.UserID, at).Error; err != nil {
			return fmt.Errorf("failed to close open sessions: %w", err)
		}
		if err := tx.Create(toSessionModel(s)).Error; err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}
		return nil
	})
}

func (r *SessionRepository) CloseOpenForUser(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error) {
	result := closeOpen(r.db.DB.WithContext(ctx), userID, at)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to close sessions: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *SessionRepository) FindActive(ctx context.Context, userID uuid.UUID, tokenHash string) (*domainUser.Session, error) {
	return r.first(r.db.DB.WithContext(ctx).
		Where("user_id = ? AND refresh_token_hash = ? AND logged_out_at IS NULL", userID, tokenHash))
}

func (r *SessionRepository) FindByToken(ctx context.Context, userID uuid.UUID, tokenHash string) (*domainUser.Session, error) {
	return r.first(r.db.DB.WithContext(ctx).
		Where("user_id = ? AND refresh_token_hash = ?", userID, tokenHash))
}

func (r *SessionRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domainUser.Session, error) {
	var rows []models.SessionModel
	err := r.db.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(50).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	sessions := make([]*domainUser.Session, 0, len(rows))
	for i := range rows {
		sessions = append(sessions, toSessionEntity(&rows[i]))
	}
	return sessions, nil
}

func (r *SessionRepository) PurgeClosedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.DB.WithContext(ctx).
		Where("logged_out_at IS NOT NULL AND logged_out_at < ?", cutoff).
		Delete(&models.SessionModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to purge sessions: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *SessionRepository) first(query *gorm.DB) (*domainUser.Session, error) {
	var dbModel models.SessionModel
	err := query.First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainUser.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return toSessionEntity(&dbModel), nil
}

func closeOpen(tx *gorm.DB, userID uuid.UUID, at time.Time) *gorm.DB {
	return tx.Model(&models.SessionModel{}).
		Where("user_id = ? AND logged_out_at IS NULL", userID).
		Update("logged_out_at", at)
}

func toSessionModel(s *domainUser.Session) *models.SessionModel {
	return &models.SessionModel{
		ID:               s.ID,
		UserID:           s.UserID,
		RefreshTokenHash: s.RefreshTokenHash,
		UserAgent:        s.UserAgent,
		IPAddress:        s.IPAddress,
		CreatedAt:        s.CreatedAt,
		LoggedOutAt:      s.LoggedOutAt,
	}
}

func toSessionEntity(m *models.SessionModel) *domainUser.Session {
	return &domainUser.Session{
		ID:               m.ID,
		UserID:           m.UserID,
		RefreshTokenHash: m.RefreshTokenHash,
		UserAgent:        m.UserAgent,
		IPAddress:        m.IPAddress,
		CreatedAt:        m.CreatedAt,
		LoggedOutAt:      m.LoggedOutAt,
	}
}
