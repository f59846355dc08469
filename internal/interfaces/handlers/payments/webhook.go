package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	ordersvc "causeway-backend/internal/application/orders"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// WebhookHandler receives Stripe payment events. Mounted before the
// session middleware so the raw body stays untouched for signature
// verification.
type WebhookHandler struct {
	Orders        *ordersvc.Service
	WebhookSecret string
}

type stripeEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

type paymentIntentObject struct {
	ID             string            `json:"id"`
	AmountReceived int64             `json:"amount_received"`
	Amount         int64             `json:"amount"`
	Currency       string            `json:"currency"`
	Status         string            `json:"status"`
	Metadata       map[string]string `json:"metadata"`
}

// HandleWebhook POST /api/v1/stripe/webhook — raw body, signature
// verification, then apply the confirmation. Domain-level problems still
// return 200 so Stripe does not retry a delivery we have already
// durably recorded or deliberately skipped.
func (wh *WebhookHandler) HandleWebhook(c *fiber.Ctx) error {
	rawBody := c.BodyRaw()
	sig := c.Get("Stripe-Signature")

	if len(rawBody) == 0 {
		log.Warn().Msg("Stripe webhook received empty body (ensure no global body parser consumes the webhook body)")
		return c.Status(400).SendString("Webhook Error: empty body")
	}

	if err := verifyStripeSignature(rawBody, sig, wh.WebhookSecret); err != nil {
		log.Warn().Err(err).Bool("has_sig", sig != "").Bool("has_secret", wh.WebhookSecret != "").Msg("Stripe webhook signature verification failed")
		return c.Status(400).SendString(fmt.Sprintf("Webhook Error: %s", err.Error()))
	}

	var event stripeEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		log.Warn().Err(err).Msg("Stripe webhook JSON parse failed")
		return c.Status(400).SendString(fmt.Sprintf("Webhook Error: %s", err.Error()))
	}

	switch event.Type {
	case "payment_intent.succeeded", "payment_intent.payment_failed":
		if wh.Orders == nil {
			log.Warn().Str("event_id", event.ID).Msg("Stripe webhook received but order service is not configured")
			return c.Status(200).SendString("ok")
		}
		var pi paymentIntentObject
		if err := json.Unmarshal(event.Data.Object, &pi); err != nil {
			return c.Status(200).SendString("ok")
		}
		amount := pi.AmountReceived
		if amount == 0 {
			amount = pi.Amount
		}
		err := wh.Orders.ApplyPaymentConfirmation(c.Context(), ordersvc.ConfirmationEvent{
			EventID:     event.ID,
			IntentID:    pi.ID,
			OrderID:     pi.Metadata["order_id"],
			Succeeded:   event.Type == "payment_intent.succeeded",
			AmountCents: amount,
			Currency:    pi.Currency,
			Status:      pi.Status,
			RawPayload:  rawBody,
		})
		if err != nil {
			log.Warn().Err(err).Str("event_id", event.ID).Str("intent_id", pi.ID).Msg("Payment confirmation not applied")
			return c.Status(200).SendString("ok")
		}
	}

	return c.Status(200).SendString("ok")
}

// verifyStripeSignature verifies the Stripe-Signature header using the
// webhook secret (t= timestamp, v1= HMAC-SHA256, 5 minute tolerance).
func verifyStripeSignature(payload []byte, sigHeader, secret string) error {
	if sigHeader == "" || secret == "" {
		return errors.New("missing signature or secret")
	}

	var timestamp string
	var signatures []string

	parts := strings.Split(sigHeader, ",")
	for _, part := range parts {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			timestamp = kv[1]
		case "v1":
			signatures = append(signatures, kv[1])
		}
	}

	if timestamp == "" || len(signatures) == 0 {
		return errors.New("invalid signature format")
	}

	signedPayload := timestamp + "." + string(payload)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(signedPayload))
	expectedSig := hex.EncodeToString(mac.Sum(nil))

	for _, sig := range signatures {
		if hmac.Equal([]byte(sig), []byte(expectedSig)) {
			ts, err := strconv.ParseInt(timestamp, 10, 64)
			if err != nil {
				return errors.New("invalid timestamp")
			}
			diff := time.Now().Unix() - ts
			if diff < 0 {
				diff = -diff
			}
			if diff > 300 {
				return errors.New("timestamp too old")
			}
			return nil
		}
	}

	return errors.New("signature mismatch")
}
