package orders

import (
	"context"
	"errors"
	"strings"

	"causeway-backend/internal/application/access"
	"causeway-backend/internal/domain"
	"causeway-backend/internal/pkg/apperr"
	"causeway-backend/internal/pkg/constants"
	"causeway-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Service runs the order lifecycle. paymentStatus only leaves pending via
// ApplyPaymentConfirmation; fulfillmentStatus only via Fulfill/Cancel.
// Every transition is a conditional update so concurrent attempts on the
// same order resolve to exactly one winner.
type Service struct {
	DB     *gorm.DB
	Access *access.Evaluator
	Stripe StripeCreator
}

type CheckoutInput struct {
	ListingID  uuid.UUID
	BuyerEmail string
	SuccessURL string
	CancelURL  string
}

type CheckoutResult struct {
	Order        *domain.Order `json:"order"`
	ClientSecret string        `json:"client_secret,omitempty"`
	CheckoutURL  string        `json:"checkout_url,omitempty"`
}

// Checkout mints the order before any collaborator call, capturing the
// listing's volunteer by value, then asks Stripe for a PaymentIntent
// (and a hosted checkout URL when redirect URLs were supplied). A Stripe
// failure leaves the minted order pending and reports upstream failure.
func (s *Service) Checkout(ctx context.Context, in CheckoutInput) (*CheckoutResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.BuyerEmail))
	if !validation.IsValidEmail(email) {
		return nil, apperr.ErrInvalidInput
	}

	var listing domain.Listing
	if err := s.DB.WithContext(ctx).Where("listing_id = ?", in.ListingID).First(&listing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	if listing.Status != domain.ListingStatusOpen {
		return nil, apperr.ErrConflict
	}

	order := &domain.Order{
		ListingID:         listing.ListingID,
		BuyerEmail:        email,
		CreatorID:         listing.VolunteerID,
		AmountCents:       listing.PriceCents,
		Currency:          listing.Currency,
		PaymentStatus:     domain.PaymentStatusPending,
		FulfillmentStatus: domain.FulfillmentStatusPending,
	}
	if err := s.DB.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}

	if s.Stripe == nil {
		return nil, apperr.ErrUpstreamUnavailable
	}

	meta := map[string]string{
		"order_id":   order.OrderID.String(),
		"listing_id": listing.ListingID.String(),
	}

	result := &CheckoutResult{Order: order}
	if in.SuccessURL != "" && in.CancelURL != "" {
		sess, err := s.Stripe.CreateCheckoutSession(CheckoutSessionInput{
			AmountCents: listing.PriceCents,
			Currency:    listing.Currency,
			ItemName:    listing.Title,
			SuccessURL:  in.SuccessURL,
			CancelURL:   in.CancelURL,
			Metadata:    meta,
		})
		if err != nil {
			log.Warn().Err(err).Str("order_id", order.OrderID.String()).Msg("Stripe checkout session creation failed; order stays pending")
			return nil, apperr.ErrUpstreamUnavailable
		}
		result.CheckoutURL = sess.URL
		return result, nil
	}

	pi, err := s.Stripe.CreatePaymentIntent(listing.PriceCents, listing.Currency, meta)
	if err != nil {
		log.Warn().Err(err).Str("order_id", order.OrderID.String()).Msg("Stripe payment intent creation failed; order stays pending")
		return nil, apperr.ErrUpstreamUnavailable
	}
	if err := s.DB.WithContext(ctx).Model(order).Update("stripe_payment_intent_id", pi.ID).Error; err != nil {
		return nil, err
	}
	intentID := pi.ID
	order.StripePaymentIntentID = &intentID
	result.ClientSecret = pi.ClientSecret
	return result, nil
}

// ConfirmationEvent is the inbound payment confirmation signal, keyed by
// the external event and intent ids.
type ConfirmationEvent struct {
	EventID     string
	IntentID    string
	OrderID     string // from intent metadata; used when the intent id was never stored
	Succeeded   bool
	AmountCents int64
	Currency    string
	Status      string
	RawPayload  []byte
}

// ApplyPaymentConfirmation applies an external confirmation idempotently:
// the PaymentEvent unique index swallows duplicate deliveries and the
// pending-only conditional update makes a repeat confirmation for an
// already-paid order a no-op rather than a double credit.
func (s *Service) ApplyPaymentConfirmation(ctx context.Context, ev ConfirmationEvent) error {
	if ev.EventID == "" || ev.IntentID == "" {
		return apperr.ErrInvalidInput
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order domain.Order
		err := tx.Where("stripe_payment_intent_id = ?", ev.IntentID).First(&order).Error
		if errors.Is(err, gorm.ErrRecordNotFound) && ev.OrderID != "" {
			if oid, perr := uuid.Parse(ev.OrderID); perr == nil {
				err = tx.Where("order_id = ?", oid).First(&order).Error
			}
		}
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Unknown intent: not ours, skip silently.
				return nil
			}
			return err
		}

		marker := domain.PaymentEvent{
			StripeEventID:         ev.EventID,
			StripePaymentIntentID: ev.IntentID,
			OrderID:               order.OrderID,
			AmountCents:           ev.AmountCents,
			Currency:              ev.Currency,
			Status:                ev.Status,
			RawPayload:            ev.RawPayload,
		}
		if err := tx.Create(&marker).Error; err != nil {
			if isUniqueViolation(err) {
				return nil // duplicate delivery, already processed
			}
			return err
		}

		target := domain.PaymentStatusPaid
		if !ev.Succeeded {
			target = domain.PaymentStatusFailed
		}
		updates := map[string]interface{}{
			"payment_status":           target,
			"stripe_payment_intent_id": ev.IntentID,
		}
		res := tx.Model(&domain.Order{}).
			Where("order_id = ? AND payment_status = ?", order.OrderID, domain.PaymentStatusPending).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		// Zero rows means the order already left pending; nothing to do.
		return nil
	})
}

// Fulfill marks a paid, pending order fulfilled. The acting principal
// must own the order's listing, or hold org_admin in its organization.
// Preconditions are enforced by one conditional update; re-reading after
// zero rows distinguishes the failure for the caller.
func (s *Service) Fulfill(ctx context.Context, orderID uuid.UUID, p *access.Principal) (*domain.Order, error) {
	order, listing, err := s.loadOrderWithListing(ctx, orderID)
	if err != nil {
		return nil, err
	}

	decision := s.Access.Evaluate(ctx, p, constants.FulfillOrder, access.Resource{
		OrgID:   listing.OrgID,
		OwnerID: listing.VolunteerID,
	})
	if err := decision.Err(); err != nil {
		return nil, err
	}

	res := s.DB.WithContext(ctx).Model(&domain.Order{}).
		Where("order_id = ? AND payment_status = ? AND fulfillment_status = ?",
			order.OrderID, domain.PaymentStatusPaid, domain.FulfillmentStatusPending).
		Update("fulfillment_status", domain.FulfillmentStatusFulfilled)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, s.fulfillFailure(ctx, order.OrderID)
	}

	order.FulfillmentStatus = domain.FulfillmentStatusFulfilled
	return order, nil
}

// Cancel marks a pending order cancelled, same authorization as Fulfill.
func (s *Service) Cancel(ctx context.Context, orderID uuid.UUID, p *access.Principal) (*domain.Order, error) {
	order, listing, err := s.loadOrderWithListing(ctx, orderID)
	if err != nil {
		return nil, err
	}

	decision := s.Access.Evaluate(ctx, p, constants.CancelOrder, access.Resource{
		OrgID:   listing.OrgID,
		OwnerID: listing.VolunteerID,
	})
	if err := decision.Err(); err != nil {
		return nil, err
	}

	res := s.DB.WithContext(ctx).Model(&domain.Order{}).
		Where("order_id = ? AND fulfillment_status = ?", order.OrderID, domain.FulfillmentStatusPending).
		Update("fulfillment_status", domain.FulfillmentStatusCancelled)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, apperr.ErrAlreadyFulfilled
	}

	order.FulfillmentStatus = domain.FulfillmentStatusCancelled
	return order, nil
}

type ListInput struct {
	OrgID     uuid.UUID
	Principal *access.Principal
}

// ListForOrg returns the org's orders. Org admins (and super admins) see
// every order; volunteers see only orders captured against them.
func (s *Service) ListForOrg(ctx context.Context, in ListInput) ([]domain.Order, error) {
	if err := s.Access.Evaluate(ctx, in.Principal, constants.ViewOrgOrders, access.Resource{OrgID: in.OrgID}).Err(); err != nil {
		return nil, err
	}

	q := s.DB.WithContext(ctx).
		Joins("JOIN \"Listings\" ON \"Listings\".listing_id = \"Orders\".listing_id").
		Where("\"Listings\".org_id = ?", in.OrgID)

	if in.Principal.GlobalRole != constants.SuperAdmin {
		role, ok, err := s.Access.OrgRole(ctx, in.Principal.ID, in.OrgID)
		if err != nil {
			return nil, err
		}
		if ok && role != constants.OrgRoleAdmin {
			q = q.Where("\"Orders\".creator_id = ?", in.Principal.ID)
		}
	}

	var out []domain.Order
	if err := q.Order("\"Orders\".created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) loadOrderWithListing(ctx context.Context, orderID uuid.UUID) (*domain.Order, *domain.Listing, error) {
	var order domain.Order
	if err := s.DB.WithContext(ctx).Where("order_id = ?", orderID).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.ErrNotFound
		}
		return nil, nil, err
	}
	var listing domain.Listing
	if err := s.DB.WithContext(ctx).Where("listing_id = ?", order.ListingID).First(&listing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.ErrNotFound
		}
		return nil, nil, err
	}
	return &order, &listing, nil
}

// fulfillFailure re-reads a fulfillment loser to name which precondition
// failed. Both outcomes are Conflict-class.
func (s *Service) fulfillFailure(ctx context.Context, orderID uuid.UUID) error {
	var order domain.Order
	if err := s.DB.WithContext(ctx).Where("order_id = ?", orderID).First(&order).Error; err != nil {
		return apperr.ErrNotFound
	}
	if order.FulfillmentStatus != domain.FulfillmentStatusPending {
		return apperr.ErrAlreadyFulfilled
	}
	if order.PaymentStatus != domain.PaymentStatusPaid {
		return apperr.ErrPaymentNotConfirmed
	}
	return apperr.ErrConflict
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint")
}
