package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Order payment statuses. payment_status only leaves pending via the
// payment collaborator's confirmation event, never by client request.
const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

const (
	FulfillmentStatusPending   = "pending"
	FulfillmentStatusFulfilled = "fulfilled"
	FulfillmentStatusCancelled = "cancelled"
)

// Order tracks a listing purchase from checkout through payment
// confirmation to fulfillment. CreatorID captures the listing's
// volunteer at creation time by value, so later reassignment does not
// rewrite historical orders.
type Order struct {
	OrderID               uuid.UUID `gorm:"column:order_id;type:uuid;primaryKey" json:"order_id"`
	ListingID             uuid.UUID `gorm:"column:listing_id;type:uuid;not null" json:"listing_id"`
	BuyerEmail            string    `gorm:"column:buyer_email;not null" json:"buyer_email"`
	CreatorID             uuid.UUID `gorm:"column:creator_id;type:uuid;not null" json:"creator_id"`
	AmountCents           int64     `gorm:"column:amount_cents;not null" json:"amount_cents"`
	Currency              string    `gorm:"column:currency;not null" json:"currency"`
	PaymentStatus         string    `gorm:"column:payment_status;not null;default:'pending'" json:"payment_status"`
	FulfillmentStatus     string    `gorm:"column:fulfillment_status;not null;default:'pending'" json:"fulfillment_status"`
	StripePaymentIntentID *string   `gorm:"column:stripe_payment_intent_id;uniqueIndex" json:"stripe_payment_intent_id"`
	CreatedAt             time.Time `json:"createdAt"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

func (Order) TableName() string {
	return "Orders"
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.OrderID == uuid.Nil {
		o.OrderID = uuid.New()
	}
	return nil
}
