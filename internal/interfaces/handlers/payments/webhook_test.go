package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"causeway-backend/internal/application/access"
	ordersvc "causeway-backend/internal/application/orders"
	"causeway-backend/internal/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "whsec_test_secret"

func setupWebhookTest(t *testing.T) (*fiber.App, *gorm.DB, *domain.Order) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.Membership{}, &domain.Cause{}, &domain.Listing{},
		&domain.Order{}, &domain.PaymentEvent{},
	))

	intentID := "pi_test_123"
	order := &domain.Order{
		ListingID:             uuid.New(),
		BuyerEmail:            "buyer@example.test",
		CreatorID:             uuid.New(),
		AmountCents:           2500,
		Currency:              "usd",
		PaymentStatus:         domain.PaymentStatusPending,
		FulfillmentStatus:     domain.FulfillmentStatusPending,
		StripePaymentIntentID: &intentID,
	}
	require.NoError(t, db.Create(order).Error)

	wh := &WebhookHandler{
		Orders:        &ordersvc.Service{DB: db, Access: &access.Evaluator{DB: db}},
		WebhookSecret: testSecret,
	}
	app := fiber.New()
	app.Post("/webhook", wh.HandleWebhook)
	return app, db, order
}

func signPayload(payload []byte, secret string, ts int64) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d.%s", ts, payload)))
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func intentEvent(eventID, eventType, intentID string) string {
	return fmt.Sprintf(`{
		"id": %q,
		"type": %q,
		"data": {"object": {
			"id": %q,
			"amount_received": 2500,
			"currency": "usd",
			"status": "succeeded",
			"metadata": {}
		}}
	}`, eventID, eventType, intentID)
}

func postWebhook(t *testing.T, app *fiber.App, payload, sig string) int {
	t.Helper()
	req := httptest.NewRequest("POST", "/webhook", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if sig != "" {
		req.Header.Set("Stripe-Signature", sig)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestWebhook_ValidSignatureMarksPaid(t *testing.T) {
	app, db, order := setupWebhookTest(t)

	payload := intentEvent("evt_1", "payment_intent.succeeded", *order.StripePaymentIntentID)
	code := postWebhook(t, app, payload, signPayload([]byte(payload), testSecret, time.Now().Unix()))
	assert.Equal(t, 200, code)

	var reloaded domain.Order
	require.NoError(t, db.Where("order_id = ?", order.OrderID).First(&reloaded).Error)
	assert.Equal(t, domain.PaymentStatusPaid, reloaded.PaymentStatus)
}

func TestWebhook_MissingSignatureRejected(t *testing.T) {
	app, db, order := setupWebhookTest(t)

	payload := intentEvent("evt_1", "payment_intent.succeeded", *order.StripePaymentIntentID)
	code := postWebhook(t, app, payload, "")
	assert.Equal(t, 400, code)

	var reloaded domain.Order
	require.NoError(t, db.Where("order_id = ?", order.OrderID).First(&reloaded).Error)
	assert.Equal(t, domain.PaymentStatusPending, reloaded.PaymentStatus)
}

func TestWebhook_BadSignatureRejected(t *testing.T) {
	app, _, order := setupWebhookTest(t)

	payload := intentEvent("evt_1", "payment_intent.succeeded", *order.StripePaymentIntentID)
	code := postWebhook(t, app, payload, signPayload([]byte(payload), "whsec_wrong", time.Now().Unix()))
	assert.Equal(t, 400, code)
}

func TestWebhook_StaleTimestampRejected(t *testing.T) {
	app, _, order := setupWebhookTest(t)

	payload := intentEvent("evt_1", "payment_intent.succeeded", *order.StripePaymentIntentID)
	stale := time.Now().Add(-10 * time.Minute).Unix()
	code := postWebhook(t, app, payload, signPayload([]byte(payload), testSecret, stale))
	assert.Equal(t, 400, code)
}

func TestWebhook_DuplicateDeliveryReturns200Once(t *testing.T) {
	app, db, order := setupWebhookTest(t)

	payload := intentEvent("evt_dup", "payment_intent.succeeded", *order.StripePaymentIntentID)
	for i := 0; i < 2; i++ {
		code := postWebhook(t, app, payload, signPayload([]byte(payload), testSecret, time.Now().Unix()))
		assert.Equal(t, 200, code)
	}

	var markers int64
	require.NoError(t, db.Model(&domain.PaymentEvent{}).Count(&markers).Error)
	assert.Equal(t, int64(1), markers)
}

func TestWebhook_UnknownIntentStill200(t *testing.T) {
	app, db, _ := setupWebhookTest(t)

	payload := intentEvent("evt_x", "payment_intent.succeeded", "pi_unrelated")
	code := postWebhook(t, app, payload, signPayload([]byte(payload), testSecret, time.Now().Unix()))
	assert.Equal(t, 200, code)

	var markers int64
	require.NoError(t, db.Model(&domain.PaymentEvent{}).Count(&markers).Error)
	assert.Zero(t, markers)
}

func TestWebhook_PaymentFailedMarksFailed(t *testing.T) {
	app, db, order := setupWebhookTest(t)

	payload := intentEvent("evt_f", "payment_intent.payment_failed", *order.StripePaymentIntentID)
	code := postWebhook(t, app, payload, signPayload([]byte(payload), testSecret, time.Now().Unix()))
	assert.Equal(t, 200, code)

	var reloaded domain.Order
	require.NoError(t, db.Where("order_id = ?", order.OrderID).First(&reloaded).Error)
	assert.Equal(t, domain.PaymentStatusFailed, reloaded.PaymentStatus)
}

func TestWebhook_UnhandledEventTypeIgnored(t *testing.T) {
	app, db, order := setupWebhookTest(t)

	payload := intentEvent("evt_o", "charge.refund.updated", *order.StripePaymentIntentID)
	code := postWebhook(t, app, payload, signPayload([]byte(payload), testSecret, time.Now().Unix()))
	assert.Equal(t, 200, code)

	var markers int64
	require.NoError(t, db.Model(&domain.PaymentEvent{}).Count(&markers).Error)
	assert.Zero(t, markers)
}
