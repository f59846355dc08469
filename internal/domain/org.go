package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Org is a fundraising organization. AdminID is the exclusive
// administrative owner; creating an org grants that user an org_admin
// membership.
type Org struct {
	OrgID           uuid.UUID      `gorm:"column:org_id;type:uuid;primaryKey" json:"org_id"`
	OrgName         string         `gorm:"column:org_name;not null;uniqueIndex" json:"org_name"`
	AdminID         uuid.UUID      `gorm:"column:admin_id;type:uuid;not null" json:"admin_id"`
	StripeAccountID *string        `gorm:"column:stripe_account_id" json:"stripe_account_id"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Org) TableName() string {
	return "Orgs"
}

func (o *Org) BeforeCreate(tx *gorm.DB) error {
	if o.OrgID == uuid.Nil {
		o.OrgID = uuid.New()
	}
	return nil
}
