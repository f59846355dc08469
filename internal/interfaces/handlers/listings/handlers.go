package listings

import (
	listsvc "causeway-backend/internal/application/listings"
	"causeway-backend/internal/middleware"
	"causeway-backend/internal/pkg/apperr"
	"causeway-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handlers holds dependencies for listing endpoints.
type Handlers struct {
	Service *listsvc.Service
}

// CreateListingRequest body.
type CreateListingRequest struct {
	CauseID    string `json:"cause_id"`
	Title      string `json:"title"`
	PriceCents int64  `json:"price_cents"`
	Currency   string `json:"currency"`
}

// CreateListing POST /api/v1/listings — members of the cause's org.
// The acting principal becomes the listing's owner.
func (h *Handlers) CreateListing(c *fiber.Ctx) error {
	var req CreateListingRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	causeID, err := uuid.Parse(req.CauseID)
	if err != nil {
		return response.Error(c, "Invalid cause_id", fiber.StatusBadRequest, nil)
	}
	if req.Title == "" || req.PriceCents <= 0 {
		return response.Error(c, "title and a positive price_cents are required", fiber.StatusBadRequest, nil)
	}

	listing, svcErr := h.Service.CreateListing(c.Context(), listsvc.CreateListingInput{
		CauseID:    causeID,
		Title:      req.Title,
		PriceCents: req.PriceCents,
		Currency:   req.Currency,
		Principal:  middleware.GetPrincipal(c),
	})
	if svcErr != nil {
		return listingError(c, svcErr)
	}
	return response.SuccessCreated(c, "Listing created successfully", fiber.Map{"listing": listing}, nil)
}

// EditListingRequest body. Absent fields are left untouched.
type EditListingRequest struct {
	Title      *string `json:"title"`
	PriceCents *int64  `json:"price_cents"`
	Status     *string `json:"status"`
}

// EditListing PATCH /api/v1/listings/:listing_id — the owning volunteer
// or an org_admin of the listing's organization.
func (h *Handlers) EditListing(c *fiber.Ctx) error {
	listingID, err := uuid.Parse(c.Params("listing_id"))
	if err != nil {
		return response.NotFoundOpaque(c)
	}
	var req EditListingRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}

	listing, svcErr := h.Service.EditListing(c.Context(), listsvc.EditListingInput{
		ListingID:  listingID,
		Title:      req.Title,
		PriceCents: req.PriceCents,
		Status:     req.Status,
		Principal:  middleware.GetPrincipal(c),
	})
	if svcErr != nil {
		return listingError(c, svcErr)
	}
	return response.Success(c, "Listing updated successfully", fiber.Map{"listing": listing}, nil)
}

// GetListing GET /api/v1/listings/:listing_id — public.
func (h *Handlers) GetListing(c *fiber.Ctx) error {
	listingID, err := uuid.Parse(c.Params("listing_id"))
	if err != nil {
		return response.Error(c, "Invalid listing_id", fiber.StatusBadRequest, nil)
	}
	listing, svcErr := h.Service.GetListing(c.Context(), listingID)
	if svcErr != nil {
		return listingError(c, svcErr)
	}
	return response.Success(c, "Listing retrieved", fiber.Map{"listing": listing}, nil)
}

// ListForCause GET /api/v1/causes/:cause_id/listings — public, open only.
func (h *Handlers) ListForCause(c *fiber.Ctx) error {
	causeID, err := uuid.Parse(c.Params("cause_id"))
	if err != nil {
		return response.Error(c, "Invalid cause_id", fiber.StatusBadRequest, nil)
	}
	list, svcErr := h.Service.ListForCause(c.Context(), causeID)
	if svcErr != nil {
		return listingError(c, svcErr)
	}
	return response.Success(c, "Listings retrieved", fiber.Map{"listings": list}, nil)
}

// ListMine GET /volunteer-dashboard/listings — the acting volunteer's
// own listings.
func (h *Handlers) ListMine(c *fiber.Ctx) error {
	p := middleware.GetPrincipal(c)
	if p == nil {
		return response.Unauthorized(c, "Not authenticated")
	}
	list, svcErr := h.Service.ListForVolunteer(c.Context(), p.ID)
	if svcErr != nil {
		return listingError(c, svcErr)
	}
	return response.Success(c, "Listings retrieved", fiber.Map{"listings": list}, nil)
}

func listingError(c *fiber.Ctx, err error) error {
	if apperr.IsTaxonomy(err) {
		return response.Error(c, err.Error(), apperr.StatusCode(err), nil)
	}
	return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
}
