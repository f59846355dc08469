package orders

import (
	"errors"

	ordersvc "causeway-backend/internal/application/orders"
	"causeway-backend/internal/middleware"
	"causeway-backend/internal/pkg/apperr"
	"causeway-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handlers holds dependencies for order endpoints.
type Handlers struct {
	Service *ordersvc.Service
}

// CheckoutRequest body. success_url and cancel_url together request a
// hosted checkout session; without them the caller gets a client secret.
type CheckoutRequest struct {
	ListingID  string `json:"listing_id"`
	BuyerEmail string `json:"buyer_email"`
	SuccessURL string `json:"success_url"`
	CancelURL  string `json:"cancel_url"`
}

// Checkout POST /api/v1/checkout — public. Mints the order first; a
// payment-provider failure leaves it pending and reports 502.
func (h *Handlers) Checkout(c *fiber.Ctx) error {
	var req CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	listingID, err := uuid.Parse(req.ListingID)
	if err != nil {
		return response.Error(c, "Invalid listing_id", fiber.StatusBadRequest, nil)
	}

	result, svcErr := h.Service.Checkout(c.Context(), ordersvc.CheckoutInput{
		ListingID:  listingID,
		BuyerEmail: req.BuyerEmail,
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
	})
	if svcErr != nil {
		return orderError(c, svcErr)
	}
	return response.SuccessCreated(c, "Order created successfully", result, nil)
}

// Fulfill POST /api/v1/orders/:order_id/fulfill — the owning volunteer
// or an org_admin of the listing's organization; payment must be
// confirmed first.
func (h *Handlers) Fulfill(c *fiber.Ctx) error {
	orderID, err := uuid.Parse(c.Params("order_id"))
	if err != nil {
		return response.NotFoundOpaque(c)
	}
	order, svcErr := h.Service.Fulfill(c.Context(), orderID, middleware.GetPrincipal(c))
	if svcErr != nil {
		return manageOrderError(c, svcErr)
	}
	return response.Success(c, "Order fulfilled successfully", fiber.Map{"order": order}, nil)
}

// Cancel POST /api/v1/orders/:order_id/cancel — same authorization as
// Fulfill; any still-pending order may be cancelled.
func (h *Handlers) Cancel(c *fiber.Ctx) error {
	orderID, err := uuid.Parse(c.Params("order_id"))
	if err != nil {
		return response.NotFoundOpaque(c)
	}
	order, svcErr := h.Service.Cancel(c.Context(), orderID, middleware.GetPrincipal(c))
	if svcErr != nil {
		return manageOrderError(c, svcErr)
	}
	return response.Success(c, "Order cancelled successfully", fiber.Map{"order": order}, nil)
}

// ListOrgOrders GET /org/:org_id/orders — org admins see every order;
// volunteers only orders captured against them.
func (h *Handlers) ListOrgOrders(c *fiber.Ctx) error {
	orgID, err := uuid.Parse(c.Params("org_id"))
	if err != nil {
		return response.NotFoundOpaque(c)
	}
	list, svcErr := h.Service.ListForOrg(c.Context(), ordersvc.ListInput{
		OrgID:     orgID,
		Principal: middleware.GetPrincipal(c),
	})
	if svcErr != nil {
		return orderError(c, svcErr)
	}
	return response.Success(c, "Orders retrieved", fiber.Map{"orders": list}, nil)
}

func orderError(c *fiber.Ctx, err error) error {
	if apperr.IsTaxonomy(err) {
		return response.Error(c, err.Error(), apperr.StatusCode(err), nil)
	}
	return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
}

// manageOrderError is the fulfill/cancel variant: order ids circulate
// with buyers, so existence is not sensitive here and a denied caller
// gets a plain 403 instead of the opaque 404 shape.
func manageOrderError(c *fiber.Ctx, err error) error {
	if errors.Is(err, apperr.ErrNotAuthorized) {
		return response.Error(c, "You are not allowed to manage this order", fiber.StatusForbidden, nil)
	}
	return orderError(c, err)
}
