package orders

import (
	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/paymentintent"
)

// StripeCreator abstracts payment-intent and checkout-session creation
// for testability.
type StripeCreator interface {
	CreatePaymentIntent(amountCents int64, currency string, metadata map[string]string) (*PaymentIntentResult, error)
	CreateCheckoutSession(in CheckoutSessionInput) (*CheckoutSessionResult, error)
}

type PaymentIntentResult struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

type CheckoutSessionInput struct {
	AmountCents int64
	Currency    string
	ItemName    string
	SuccessURL  string
	CancelURL   string
	Metadata    map[string]string
}

type CheckoutSessionResult struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// RealStripeCreator uses the Stripe Go SDK.
type RealStripeCreator struct {
	SecretKey string
}

func (r *RealStripeCreator) CreatePaymentIntent(amountCents int64, currency string, metadata map[string]string) (*PaymentIntentResult, error) {
	if r.SecretKey == "" {
		return nil, fiber.NewError(501, "Stripe integration pending")
	}
	stripe.Key = r.SecretKey
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(currency),
		Metadata: metadata,
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, err
	}
	return &PaymentIntentResult{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

func (r *RealStripeCreator) CreateCheckoutSession(in CheckoutSessionInput) (*CheckoutSessionResult, error) {
	if r.SecretKey == "" {
		return nil, fiber.NewError(501, "Stripe integration pending")
	}
	stripe.Key = r.SecretKey
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(in.SuccessURL),
		CancelURL:  stripe.String(in.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(in.Currency),
					UnitAmount: stripe.Int64(in.AmountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(in.ItemName),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: in.Metadata,
		},
	}
	sess, err := session.New(params)
	if err != nil {
		return nil, err
	}
	return &CheckoutSessionResult{ID: sess.ID, URL: sess.URL}, nil
}
