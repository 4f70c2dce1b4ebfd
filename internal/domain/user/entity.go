package user

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAttendee Role = "ATTENDEE"
	RoleHost     Role = "HOST"
)

func (r Role) Valid() bool {
	return r == RoleAttendee || r == RoleHost
}

type Status string

const (
	StatusActive  Status = "ACTIVE"
	StatusBlocked Status = "BLOCKED"
)

// Provider identifies a federated identity provider.
type Provider string

const (
	ProviderGoogle   Provider = "google"
	ProviderFacebook Provider = "facebook"
)

// User represents a user entity in the domain
type User struct {
	ID                uuid.UUID
	Email             *string
	PhoneNumber       *string
	PasswordHash      *string
	FirstName         string
	LastName          string
	Role              Role
	Status            Status
	GoogleID          *string
	FacebookID        *string
	ResetCodeHash     *string
	EmailVerified     bool
	PhoneVerified     bool
	Bio               *string
	Gender            *string
	DateOfBirth       *time.Time
	ProfilePictureURL *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (u *User) IsBlocked() bool {
	return u.Status == StatusBlocked
}

func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

func (u *User) HasPendingReset() bool {
	return u.ResetCodeHash != nil && *u.ResetCodeHash != ""
}

// ProviderID returns the linked id for p, or nil when the account is not linked.
func (u *User) ProviderID(p Provider) *string {
	switch p {
	case ProviderGoogle:
		return u.GoogleID
	case ProviderFacebook:
		return u.FacebookID
	}
	return nil
}

func (u *User) SetProviderID(p Provider, id string) {
	switch p {
	case ProviderGoogle:
		u.GoogleID = &id
	case ProviderFacebook:
		u.FacebookID = &id
	}
}

// Session is one logged-in client. LoggedOutAt is nil while the session is open.
type Session struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	RefreshTokenHash string
	UserAgent        string
	IPAddress        string
	CreatedAt        time.Time
	LoggedOutAt      *time.Time
}

func (s *Session) IsActive() bool {
	return s.LoggedOutAt == nil
}

// Principal is the authenticated caller attached to a request.
type Principal struct {
	UserID uuid.UUID
	Email  *string
	Role   Role
}

func (p Principal) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}
