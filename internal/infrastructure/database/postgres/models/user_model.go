package models

import (
	"time"

	"github.com/google/uuid"
)

// UserModel represents the database model for User
type UserModel struct {
	ID                uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Email             *string    `gorm:"type:varchar(255);uniqueIndex"`
	PhoneNumber       *string    `gorm:"type:varchar(20);index"`
	PasswordHash      *string    `gorm:"type:varchar(255)"`
	FirstName         string     `gorm:"type:varchar(100);not null"`
	LastName          string     `gorm:"type:varchar(100);not null"`
	Role              string     `gorm:"type:varchar(20);not null;default:'ATTENDEE'"`
	Status            string     `gorm:"type:varchar(20);not null;default:'ACTIVE'"`
	GoogleID          *string    `gorm:"type:varchar(255);uniqueIndex"`
	FacebookID        *string    `gorm:"type:varchar(255);uniqueIndex"`
	ResetCodeHash     *string    `gorm:"type:varchar(128)"`
	EmailVerified     bool       `gorm:"not null;default:false"`
	PhoneVerified     bool       `gorm:"not null;default:false"`
	Bio               *string    `gorm:"type:text"`
	Gender            *string    `gorm:"type:varchar(20)"`
	DateOfBirth       *time.Time `gorm:"type:date"`
	ProfilePictureURL *string    `gorm:"type:text"`
	CreatedAt         time.Time  `gorm:"not null"`
	UpdatedAt         time.Time  `gorm:"not null"`
}

func (UserModel) TableName() string {
	return "users"
}

// SessionModel represents one row of user_sessions
type SessionModel struct {
	ID               uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID           uuid.UUID  `gorm:"type:uuid;not null;index"`
	RefreshTokenHash string     `gorm:"type:varchar(128);not null;uniqueIndex"`
	UserAgent        string     `gorm:"type:varchar(512)"`
	IPAddress        string     `gorm:"type:varchar(64)"`
	CreatedAt        time.Time  `gorm:"not null"`
	LoggedOutAt      *time.Time `gorm:"index"`
}

func (SessionModel) TableName() string {
	return "user_sessions"
}
