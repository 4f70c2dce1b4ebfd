package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// EventModel represents the database model for Event
type EventModel struct {
	ID          uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	HostID      uuid.UUID      `gorm:"type:uuid;not null;index"`
	Title       string         `gorm:"type:varchar(200);not null"`
	Slug        string         `gorm:"type:varchar(255);not null;uniqueIndex"`
	Description string         `gorm:"type:text;not null"`
	CoverImages pq.StringArray `gorm:"type:text[]"`
	Category    string         `gorm:"type:varchar(32);not null"`
	Tags        pq.StringArray `gorm:"type:text[]"`

	StartDateTime time.Time `gorm:"not null"`
	EndDateTime   time.Time `gorm:"not null"`
	Timezone      string    `gorm:"type:varchar(64);not null"`

	IsOnline     bool     `gorm:"not null"`
	StreamingURL *string  `gorm:"type:text"`
	VenueName    string   `gorm:"type:varchar(255)"`
	VenueAddress string   `gorm:"type:text"`
	City         *string  `gorm:"type:varchar(100)"`
	State        *string  `gorm:"type:varchar(100)"`
	Country      string   `gorm:"type:varchar(100)"`
	Latitude     *float64 `gorm:"type:double precision"`
	Longitude    *float64 `gorm:"type:double precision"`

	TotalCapacity       *int
	AccessType          string `gorm:"type:varchar(20);not null"`
	AgeRestriction      *int
	TicketLimitPerOrder int `gorm:"not null"`

	CheckInMethod      string `gorm:"type:varchar(20);not null"`
	QRScanMode         string `gorm:"column:qr_scan_mode;type:varchar(20);not null"`
	CheckInWindowStart *time.Time
	CheckInWindowEnd   *time.Time

	RefundPolicy    *string `gorm:"type:text"`
	RefundableUntil *time.Time

	Status         string `gorm:"type:varchar(20);not null;index"`
	VisibilityDate *time.Time
	IsFeatured     bool `gorm:"not null"`
	ViewCount      int  `gorm:"not null"`
	TicketsSold    int  `gorm:"not null"`
	PublishedAt    *time.Time
	CancelledAt    *time.Time

	TicketTiers []TicketTierModel `gorm:"foreignKey:EventID"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (EventModel) TableName() string {
	return "events"
}

type TicketTierModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	EventID      uuid.UUID `gorm:"type:uuid;not null;index"`
	Name         string    `gorm:"type:varchar(100);not null"`
	Description  *string   `gorm:"type:text"`
	PriceCents   int64     `gorm:"not null"`
	Currency     string    `gorm:"type:varchar(3);not null"`
	Quantity     int       `gorm:"not null"`
	QuantitySold int       `gorm:"not null"`
	IsVisible    bool      `gorm:"not null"`
	SortOrder    int       `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

func (TicketTierModel) TableName() string {
	return "ticket_tiers"
}
