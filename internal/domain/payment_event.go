package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PaymentEvent is the processed-event marker for inbound Stripe
// confirmations. The unique index on stripe_event_id makes duplicate
// webhook deliveries a no-op.
type PaymentEvent struct {
	ID                    uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	StripeEventID         string         `gorm:"column:stripe_event_id;uniqueIndex;not null" json:"stripe_event_id"`
	StripePaymentIntentID string         `gorm:"column:stripe_payment_intent_id;not null" json:"stripe_payment_intent_id"`
	OrderID               uuid.UUID      `gorm:"column:order_id;type:uuid;not null" json:"order_id"`
	AmountCents           int64          `gorm:"column:amount_cents;not null" json:"amount_cents"`
	Currency              string         `gorm:"column:currency;not null" json:"currency"`
	Status                string         `gorm:"column:status;not null" json:"status"`
	RawPayload            datatypes.JSON `gorm:"column:raw_payload;type:jsonb;not null" json:"raw_payload"`
	CreatedAt             time.Time      `json:"createdAt"`
	UpdatedAt             time.Time      `json:"updatedAt"`
}

func (PaymentEvent) TableName() string {
	return "PaymentEvents"
}

func (p *PaymentEvent) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
