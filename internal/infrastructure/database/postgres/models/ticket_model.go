package models

import (
	"time"

	"github.com/google/uuid"
)

// TicketModel represents the database model for Ticket
type TicketModel struct {
	ID             uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	EventID        uuid.UUID  `gorm:"type:uuid;not null;index"`
	TicketTierID   uuid.UUID  `gorm:"type:uuid;not null"`
	UserID         uuid.UUID  `gorm:"type:uuid;not null;index"`
	TicketCode     string     `gorm:"type:varchar(64);not null;uniqueIndex"`
	Status         string     `gorm:"type:varchar(20);not null"`
	PricePaidCents int64      `gorm:"not null"`
	Currency       string     `gorm:"type:varchar(3);not null"`
	IssuedAt       time.Time  `gorm:"not null"`
	CheckedInAt    *time.Time
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`

	Event      EventModel      `gorm:"foreignKey:EventID"`
	TicketTier TicketTierModel `gorm:"foreignKey:TicketTierID"`
}

func (TicketModel) TableName() string {
	return "tickets"
}
