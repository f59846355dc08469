package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Invitation statuses. Expiry is computed at read time (EffectiveStatus);
// the stored status only moves off pending via redemption or revocation.
const (
	InviteStatusPending  = "pending"
	InviteStatusAccepted = "accepted"
	InviteStatusExpired  = "expired"
	InviteStatusRevoked  = "revoked"
)

// Invitation is a time-boxed, single-use token onboarding a volunteer
// into an organization.
type Invitation struct {
	InviteID  uuid.UUID      `gorm:"column:invite_id;type:uuid;primaryKey" json:"invite_id"`
	OrgID     uuid.UUID      `gorm:"column:org_id;type:uuid;not null" json:"org_id"`
	Email     string         `gorm:"column:email;not null" json:"email"`
	Token     string         `gorm:"column:token;not null;uniqueIndex" json:"-"`
	Status    string         `gorm:"column:status;not null;default:'pending'" json:"status"`
	InvitedBy uuid.UUID      `gorm:"column:invited_by;type:uuid;not null" json:"invited_by"`
	ExpiresAt time.Time      `gorm:"column:expires_at;not null" json:"expires_at"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Invitation) TableName() string {
	return "Invitations"
}

func (i *Invitation) BeforeCreate(tx *gorm.DB) error {
	if i.InviteID == uuid.Nil {
		i.InviteID = uuid.New()
	}
	return nil
}

// EffectiveStatus downgrades a stored pending invitation to expired once
// past its deadline, without writing. Every read path must use this
// instead of the raw Status column.
func (i *Invitation) EffectiveStatus(now time.Time) string {
	if i.Status == InviteStatusPending && !now.Before(i.ExpiresAt) {
		return InviteStatusExpired
	}
	return i.Status
}
