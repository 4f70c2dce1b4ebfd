package auth

import (
	"time"

	domainUser "event-ticketing/internal/domain/user"

	"github.com/google/uuid"
)

type RegisterRequest struct {
	Email       string  `json:"email" validate:"required,email"`
	FirstName   string  `json:"firstName" validate:"required,min=1,max=100"`
	LastName    string  `json:"lastName" validate:"required,min=1,max=100"`
	PhoneNumber *string `json:"phoneNumber" validate:"omitempty,phone"`
	Password    string  `json:"password" validate:"required,min=8,max=72"`
	Role        string  `json:"role" validate:"omitempty,user_role"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=72,nefield=CurrentPassword"`
}

// ForgotPasswordRequest identifies the account by email or phone number.
type ForgotPasswordRequest struct {
	Email       string `json:"email" validate:"required_without=PhoneNumber,omitempty,email"`
	PhoneNumber string `json:"phoneNumber" validate:"omitempty,phone"`
}

type VerifyResetCodeRequest struct {
	Email       string `json:"email" validate:"required_without=PhoneNumber,omitempty,email"`
	PhoneNumber string `json:"phoneNumber" validate:"omitempty,phone"`
	OTP         string `json:"otp" validate:"required,numeric,min=6,max=8"`
}

// ResetPasswordRequest accepts either the reset code itself or the reset
// token returned by VerifyResetCode.
type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required_without=PhoneNumber,omitempty,email"`
	PhoneNumber string `json:"phoneNumber" validate:"omitempty,phone"`
	NewPassword string `json:"newPassword" validate:"required,min=8,max=72"`
	OTP         string `json:"otp" validate:"required_without=ResetToken,omitempty,numeric,min=6,max=8"`
	ResetToken  string `json:"resetToken"`
}

// RequestContext is the client metadata recorded on a session.
type RequestContext struct {
	UserAgent string
	IPAddress string
}

// ProviderProfile is the identity returned by a federated provider.
type ProviderProfile struct {
	ProviderID string
	Email      *string
	FirstName  string
	LastName   string
	AvatarURL  *string
}

// UserView is the user projection returned to clients. It has no password
// or reset code fields.
type UserView struct {
	ID                uuid.UUID         `json:"id"`
	Email             *string           `json:"email"`
	PhoneNumber       *string           `json:"phoneNumber"`
	FirstName         string            `json:"firstName"`
	LastName          string            `json:"lastName"`
	Role              domainUser.Role   `json:"role"`
	Status            domainUser.Status `json:"status"`
	EmailVerified     bool              `json:"emailVerified"`
	PhoneVerified     bool              `json:"phoneVerified"`
	ProfilePictureURL *string           `json:"profilePictureUrl"`
	CreatedAt         time.Time         `json:"createdAt"`
}

func NewUserView(u *domainUser.User) *UserView {
	if u == nil {
		return nil
	}
	return &UserView{
		ID:                u.ID,
		Email:             u.Email,
		PhoneNumber:       u.PhoneNumber,
		FirstName:         u.FirstName,
		LastName:          u.LastName,
		Role:              u.Role,
		Status:            u.Status,
		EmailVerified:     u.EmailVerified,
		PhoneVerified:     u.PhoneVerified,
		ProfilePictureURL: u.ProfilePictureURL,
		CreatedAt:         u.CreatedAt,
	}
}

type AuthResult struct {
	AccessToken      string    `json:"accessToken"`
	RefreshToken     string    `json:"refreshToken"`
	ExpiresAt        time.Time `json:"expiresAt"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
	User             *UserView `json:"user"`
}

type ResetTokenResult struct {
	ResetToken string    `json:"resetToken"`
	ExpiresAt  time.Time `json:"expiresAt"`
}
