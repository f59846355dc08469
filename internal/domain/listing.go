package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ListingStatusOpen   = "open"
	ListingStatusClosed = "closed"
)

// Listing is the purchasable unit under a cause, owned by exactly one
// volunteer. OrgID is denormalized from the cause so ownership checks
// resolve without a join.
type Listing struct {
	ListingID   uuid.UUID      `gorm:"column:listing_id;type:uuid;primaryKey" json:"listing_id"`
	CauseID     uuid.UUID      `gorm:"column:cause_id;type:uuid;not null" json:"cause_id"`
	OrgID       uuid.UUID      `gorm:"column:org_id;type:uuid;not null" json:"org_id"`
	VolunteerID uuid.UUID      `gorm:"column:volunteer_id;type:uuid;not null" json:"volunteer_id"`
	Title       string         `gorm:"column:title;not null" json:"title"`
	PriceCents  int64          `gorm:"column:price_cents;not null" json:"price_cents"`
	Currency    string         `gorm:"column:currency;not null;default:'usd'" json:"currency"`
	Status      string         `gorm:"column:status;type:varchar(20);default:'open'" json:"status"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Listing) TableName() string {
	return "Listings"
}

func (l *Listing) BeforeCreate(tx *gorm.DB) error {
	if l.ListingID == uuid.Nil {
		l.ListingID = uuid.New()
	}
	return nil
}
