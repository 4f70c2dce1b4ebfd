package event

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusPublished Status = "PUBLISHED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

type AccessType string

const (
	AccessPublic     AccessType = "PUBLIC"
	AccessInviteOnly AccessType = "INVITE_ONLY"
	AccessPrivate    AccessType = "PRIVATE"
)

type Category string

const (
	CategoryMusic         Category = "MUSIC"
	CategorySports        Category = "SPORTS"
	CategoryArts          Category = "ARTS"
	CategoryTechnology    Category = "TECHNOLOGY"
	CategoryBusiness      Category = "BUSINESS"
	CategoryFood          Category = "FOOD"
	CategoryEducation     Category = "EDUCATION"
	CategoryEntertainment Category = "ENTERTAINMENT"
	CategoryHealth        Category = "HEALTH"
	CategoryNightlife     Category = "NIGHTLIFE"
	CategoryOther         Category = "OTHER"
)

type CheckInMethod string

const (
	CheckInQRScan CheckInMethod = "QR_SCAN"
	CheckInManual CheckInMethod = "MANUAL"
	CheckInKiosk  CheckInMethod = "KIOSK"
)

type QRScanMode string

const (
	QRSingleUse QRScanMode = "SINGLE_USE"
	QRMultiUse  QRScanMode = "MULTI_USE"
)

// Event is a hosted event and its ticket tiers.
type Event struct {
	ID          uuid.UUID
	HostID      uuid.UUID
	Title       string
	Slug        string
	Description string
	CoverImages []string
	Category    Category
	Tags        []string

	StartDateTime time.Time
	EndDateTime   time.Time
	Timezone      string

	IsOnline     bool
	StreamingURL *string
	VenueName    string
	VenueAddress string
	City         *string
	State        *string
	Country      string
	Latitude     *float64
	Longitude    *float64

	TotalCapacity       *int
	AccessType          AccessType
	AgeRestriction      *int
	TicketLimitPerOrder int

	CheckInMethod      CheckInMethod
	QRScanMode         QRScanMode
	CheckInWindowStart *time.Time
	CheckInWindowEnd   *time.Time

	RefundPolicy    *string
	RefundableUntil *time.Time

	Status         Status
	VisibilityDate *time.Time
	IsFeatured     bool
	ViewCount      int
	TicketsSold    int
	PublishedAt    *time.Time
	CancelledAt    *time.Time

	TicketTiers []TicketTier

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (e *Event) IsOwnedBy(userID uuid.UUID) bool {
	return e.HostID == userID
}

// IsFinal reports whether the event can no longer be edited.
func (e *Event) IsFinal() bool {
	return e.Status == StatusCompleted || e.Status == StatusCancelled
}

type TicketTier struct {
	ID           uuid.UUID
	EventID      uuid.UUID
	Name         string
	Description  *string
	PriceCents   int64
	Currency     string
	Quantity     int
	QuantitySold int
	IsVisible    bool
	SortOrder    int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (t *TicketTier) Remaining() int {
	return t.Quantity - t.QuantitySold
}

// StatusChange is announced whenever an event moves between lifecycle states.
type StatusChange struct {
	EventID   uuid.UUID `json:"eventId"`
	HostID    uuid.UUID `json:"hostId"`
	Slug      string    `json:"slug"`
	From      Status    `json:"from"`
	To        Status    `json:"to"`
	ChangedAt time.Time `json:"changedAt"`
}
