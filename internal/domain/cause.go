package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Cause is a fundraising campaign belonging to an organization.
type Cause struct {
	CauseID     uuid.UUID      `gorm:"column:cause_id;type:uuid;primaryKey" json:"cause_id"`
	OrgID       uuid.UUID      `gorm:"column:org_id;type:uuid;not null" json:"org_id"`
	Title       string         `gorm:"column:title;not null" json:"title"`
	Description string         `gorm:"column:description" json:"description"`
	GoalCents   int64          `gorm:"column:goal_cents;not null" json:"goal_cents"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Cause) TableName() string {
	return "Causes"
}

func (c *Cause) BeforeCreate(tx *gorm.DB) error {
	if c.CauseID == uuid.Nil {
		c.CauseID = uuid.New()
	}
	return nil
}
