package user

import (
	"time"

	domainUser "event-ticketing/internal/domain/user"

	"github.com/google/uuid"
)

const dateOfBirthLayout = "2006-01-02"

type UpdateProfileRequest struct {
	FirstName   *string `json:"firstName" validate:"omitempty,min=1,max=100"`
	LastName    *string `json:"lastName" validate:"omitempty,min=1,max=100"`
	Bio         *string `json:"bio" validate:"omitempty,max=500"`
	Gender      *string `json:"gender" validate:"omitempty,oneof=MALE FEMALE OTHER PREFER_NOT_TO_SAY"`
	DateOfBirth *string `json:"dateOfBirth" validate:"omitempty,datetime=2006-01-02"`
	PhoneNumber *string `json:"phoneNumber" validate:"omitempty,phone"`
}

type ProfileResponse struct {
	ID                uuid.UUID         `json:"id"`
	Email             *string           `json:"email"`
	PhoneNumber       *string           `json:"phoneNumber"`
	FirstName         string            `json:"firstName"`
	LastName          string            `json:"lastName"`
	Role              domainUser.Role   `json:"role"`
	Status            domainUser.Status `json:"status"`
	Bio               *string           `json:"bio"`
	Gender            *string           `json:"gender"`
	DateOfBirth       *string           `json:"dateOfBirth"`
	ProfilePictureURL *string           `json:"profilePictureUrl"`
	EmailVerified     bool              `json:"emailVerified"`
	PhoneVerified     bool              `json:"phoneVerified"`
	HasPassword       bool              `json:"hasPassword"`
	Counts            ProfileCounts     `json:"_count"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}

type ProfileCounts struct {
	Tickets int64 `json:"tickets"`
}

// SessionResponse is a login session without its token hash.
type SessionResponse struct {
	ID          uuid.UUID  `json:"id"`
	UserAgent   string     `json:"userAgent"`
	IPAddress   string     `json:"ipAddress"`
	Active      bool       `json:"active"`
	CreatedAt   time.Time  `json:"createdAt"`
	LoggedOutAt *time.Time `json:"loggedOutAt,omitempty"`
}

func ToProfileResponse(u *domainUser.User, tickets int64) *ProfileResponse {
	resp := &ProfileResponse{
		ID:                u.ID,
		Email:             u.Email,
		PhoneNumber:       u.PhoneNumber,
		FirstName:         u.FirstName,
		LastName:          u.LastName,
		Role:              u.Role,
		Status:            u.Status,
		Bio:               u.Bio,
		Gender:            u.Gender,
		ProfilePictureURL: u.ProfilePictureURL,
		EmailVerified:     u.EmailVerified,
		PhoneVerified:     u.PhoneVerified,
		HasPassword:       u.HasPassword(),
		Counts:            ProfileCounts{Tickets: tickets},
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}
	if u.DateOfBirth != nil {
		dob := u.DateOfBirth.Format(dateOfBirthLayout)
		resp.DateOfBirth = &dob
	}
	return resp
}

func ToSessionResponse(s *domainUser.Session) SessionResponse {
	return SessionResponse{
		ID:          s.ID,
		UserAgent:   s.UserAgent,
		IPAddress:   s.IPAddress,
		Active:      s.IsActive(),
		CreatedAt:   s.CreatedAt,
		LoggedOutAt: s.LoggedOutAt,
	}
}
