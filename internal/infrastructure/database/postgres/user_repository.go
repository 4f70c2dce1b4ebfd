package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domainUser "event-ticketing/internal/domain/user"
	"event-ticketing/internal/infrastructure/database/postgres/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserRepository implements domain.User.Repository interface
type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) domainUser.Repository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *domainUser.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now

	dbModel := toUserModel(u)
	if err := r.db.DB.WithContext(ctx).Create(dbModel).Error; err != nil {
		if isDuplicateKey(err) {
			return domainUser.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, userID uuid.UUID) (*domainUser.User, error) {
	return r.first(r.db.DB.WithContext(ctx).Where("id = ?", userID))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domainUser.User, error) {
	if email == "" {
		return nil, domainUser.ErrUserNotFound
	}
	return r.first(r.db.DB.WithContext(ctx).Where("email = ?", email))
}

func (r *UserRepository) GetByEmailOrPhone(ctx context.Context, email, phone string) (*domainUser.User, error) {
	switch {
	case email != "" && phone != "":
		return r.first(r.db.DB.WithContext(ctx).Where("email = ? OR phone_number = ?", email, phone))
	case email != "":
		return r.GetByEmail(ctx, email)
	case phone != "":
		return r.first(r.db.DB.WithContext(ctx).Where("phone_number = ?", phone))
	}
	return nil, domainUser.ErrUserNotFound
}

func (r *UserRepository) GetByProviderIDOrEmail(ctx context.Context, provider domainUser.Provider, providerID string, email *string) (*domainUser.User, error) {
	column, err := providerColumn(provider)
	if err != nil {
		return nil, err
	}

	u, err := r.first(r.db.DB.WithContext(ctx).Where(column+" = ?", providerID))
	if err == nil || !errors.Is(err, domainUser.ErrUserNotFound) || email == nil {
		return u, err
	}
	return r.GetByEmail(ctx, *email)
}

func (r *UserRepository) Update(ctx context.Context, u *domainUser.User) error {
	u.UpdatedAt = time.Now()

	result := r.db.DB.WithContext(ctx).
		Model(&models.UserModel{}).
		Where("id = ?", u.ID).
		Updates(map[string]interface{}{
			"first_name":          u.FirstName,
			"last_name":           u.LastName,
			"phone_number":        u.PhoneNumber,
			"bio":                 u.Bio,
			"gender":              u.Gender,
			"date_of_birth":       u.DateOfBirth,
			"profile_picture_url": u.ProfilePictureURL,
			"status":              string(u.Status),
			"updated_at":          u.UpdatedAt,
		})

	if result.Error != nil {
		if isDuplicateKey(result.Error) {
			return domainUser.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to update user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainUser.ErrUserNotFound
	}

	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	return r.updateColumns(ctx, userID, "failed to update password", map[string]interface{}{
		"password_hash":   passwordHash,
		"reset_code_hash": nil,
	})
}

func (r *UserRepository) SetResetCode(ctx context.Context, userID uuid.UUID, codeHash string) error {
	return r.updateColumns(ctx, userID, "failed to store reset code", map[string]interface{}{
		"reset_code_hash": codeHash,
	})
}

func (r *UserRepository) LinkProvider(ctx context.Context, userID uuid.UUID, provider domainUser.Provider, providerID string) error {
	column, err := providerColumn(provider)
	if err != nil {
		return err
	}

	err = r.updateColumns(ctx, userID, "failed to link provider", map[string]interface{}{
		column:           providerID,
		"email_verified": true,
	})
	if errors.Is(err, domainUser.ErrUserAlreadyExists) {
		return domainUser.ErrProviderLinked
	}
	return err
}

func (r *UserRepository) updateColumns(ctx context.Context, userID uuid.UUID, msg string, values map[string]interface{}) error {
	values["updated_at"] = time.Now()

	result := r.db.DB.WithContext(ctx).
		Model(&models.UserModel{}).
		Where("id = ?", userID).
		Updates(values)

	if result.Error != nil {
		if isDuplicateKey(result.Error) {
			return domainUser.ErrUserAlreadyExists
		}
		return fmt.Errorf("%s: %w", msg, result.Error)
	}
	if result.RowsAffected == 0 {
		return domainUser.ErrUserNotFound
	}

	return nil
}

func (r *UserRepository) first(query *gorm.DB) (*domainUser.User, error) {
	var dbModel models.UserModel
	err := query.First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainUser.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return toUserEntity(&dbModel), nil
}

func providerColumn(p domainUser.Provider) (string, error) {
	switch p {
	case domainUser.ProviderGoogle:
		return "google_id", nil
	case domainUser.ProviderFacebook:
		return "facebook_id", nil
	}
	return "", fmt.Errorf("unsupported provider %q", p)
}

func isDuplicateKey(err error) bool {
	return strings.Contains(err.Error(), "duplicate key value") || errors.Is(err, gorm.ErrDuplicatedKey)
}

func toUserModel(u *domainUser.User) *models.UserModel {
	return &models.UserModel{
		ID:                u.ID,
		Email:             u.Email,
		PhoneNumber:       u.PhoneNumber,
		PasswordHash:      u.PasswordHash,
		FirstName:         u.FirstName,
		LastName:          u.LastName,
		Role:              string(u.Role),
		Status:            string(u.Status),
		GoogleID:          u.GoogleID,
		FacebookID:        u.FacebookID,
		ResetCodeHash:     u.ResetCodeHash,
		EmailVerified:     u.EmailVerified,
		PhoneVerified:     u.PhoneVerified,
		Bio:               u.Bio,
		Gender:            u.Gender,
		DateOfBirth:       u.DateOfBirth,
		ProfilePictureURL: u.ProfilePictureURL,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}
}

func toUserEntity(m *models.UserModel) *domainUser.User {
	return &domainUser.User{
		ID:                m.ID,
		Email:             m.Email,
		PhoneNumber:       m.PhoneNumber,
		PasswordHash:      m.PasswordHash,
		FirstName:         m.FirstName,
		LastName:          m.LastName,
		Role:              domainUser.Role(m.Role),
		Status:            domainUser.Status(m.Status),
		GoogleID:          m.GoogleID,
		FacebookID:        m.FacebookID,
		ResetCodeHash:     m.ResetCodeHash,
		EmailVerified:     m.EmailVerified,
		PhoneVerified:     m.PhoneVerified,
		Bio:               m.Bio,
		Gender:            m.Gender,
		DateOfBirth:       m.DateOfBirth,
		ProfilePictureURL: m.ProfilePictureURL,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}
