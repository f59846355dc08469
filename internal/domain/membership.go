package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Membership binds a user to an organization with an org-scoped role.
// The (user_id, org_id) unique index is the at-most-once arbiter for
// concurrent invitation redemptions.
type Membership struct {
	MembershipID uuid.UUID `gorm:"column:membership_id;type:uuid;primaryKey" json:"membership_id"`
	UserID       uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_memberships_user_org" json:"user_id"`
	OrgID        uuid.UUID `gorm:"column:org_id;type:uuid;not null;uniqueIndex:idx_memberships_user_org" json:"org_id"`
	Role         string    `gorm:"column:role;not null" json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (Membership) TableName() string {
	return "Memberships"
}

func (m *Membership) BeforeCreate(tx *gorm.DB) error {
	if m.MembershipID == uuid.Nil {
		m.MembershipID = uuid.New()
	}
	return nil
}
