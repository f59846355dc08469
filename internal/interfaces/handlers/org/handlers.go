package org

import (
	orgsvc "causeway-backend/internal/application/org"
	"causeway-backend/internal/middleware"
	"causeway-backend/internal/pkg/apperr"
	"causeway-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handlers holds dependencies for organization endpoints.
type Handlers struct {
	Service *orgsvc.Service
}

// CreateOrgRequest body for provisioning an organization.
type CreateOrgRequest struct {
	OrgName         string  `json:"org_name"`
	AdminID         string  `json:"admin_id"`
	StripeAccountID *string `json:"stripe_account_id"`
}

// CreateOrg POST /admin/super/orgs — provision an organization and its
// owning admin membership.
func (h *Handlers) CreateOrg(c *fiber.Ctx) error {
	var req CreateOrgRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	if req.OrgName == "" || req.AdminID == "" {
		return response.Error(c, "org_name and admin_id are required", fiber.StatusBadRequest, nil)
	}
	adminID, err := uuid.Parse(req.AdminID)
	if err != nil {
		return response.Error(c, "Invalid admin_id", fiber.StatusBadRequest, nil)
	}

	o, svcErr := h.Service.CreateOrg(c.Context(), orgsvc.CreateOrgInput{
		OrgName:         req.OrgName,
		AdminID:         adminID,
		StripeAccountID: req.StripeAccountID,
		Principal:       middleware.GetPrincipal(c),
	})
	if svcErr != nil {
		return orgError(c, svcErr)
	}
	return response.SuccessCreated(c, "Organization created successfully", fiber.Map{"org": o}, nil)
}

// ViewOrg GET /api/v1/orgs/:org_id — members and super admins only.
func (h *Handlers) ViewOrg(c *fiber.Ctx) error {
	orgID, err := uuid.Parse(c.Params("org_id"))
	if err != nil {
		return response.NotFoundOpaque(c)
	}
	o, svcErr := h.Service.ViewOrg(c.Context(), orgID, middleware.GetPrincipal(c))
	if svcErr != nil {
		return orgError(c, svcErr)
	}
	return response.Success(c, "Organization retrieved", fiber.Map{"org": o}, nil)
}

// UpdateOrgRequest body. Absent fields are left untouched.
type UpdateOrgRequest struct {
	OrgName         *string `json:"org_name"`
	StripeAccountID *string `json:"stripe_account_id"`
}

// UpdateOrg PATCH /org/:org_id — org_admin only.
func (h *Handlers) UpdateOrg(c *fiber.Ctx) error {
	orgID, err := uuid.Parse(c.Params("org_id"))
	if err != nil {
		return response.NotFoundOpaque(c)
	}
	var req UpdateOrgRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}

	o, svcErr := h.Service.UpdateOrg(c.Context(), orgsvc.UpdateOrgInput{
		OrgID:           orgID,
		OrgName:         req.OrgName,
		StripeAccountID: req.StripeAccountID,
		Principal:       middleware.GetPrincipal(c),
	})
	if svcErr != nil {
		return orgError(c, svcErr)
	}
	return response.Success(c, "Organization updated successfully", fiber.Map{"org": o}, nil)
}

// RemoveMember DELETE /org/:org_id/members/:user_id — org_admin only,
// no self-removal.
func (h *Handlers) RemoveMember(c *fiber.Ctx) error {
	orgID, err := uuid.Parse(c.Params("org_id"))
	if err != nil {
		return response.NotFoundOpaque(c)
	}
	targetID, err := uuid.Parse(c.Params("user_id"))
	if err != nil {
		return response.Error(c, "Invalid user_id", fiber.StatusBadRequest, nil)
	}

	if svcErr := h.Service.RemoveMember(c.Context(), orgID, targetID, middleware.GetPrincipal(c)); svcErr != nil {
		return orgError(c, svcErr)
	}
	return response.Success(c, "Member removed successfully", nil, nil)
}

func orgError(c *fiber.Ctx, err error) error {
	if err == orgsvc.ErrOrgNameTaken {
		return response.Error(c, err.Error(), fiber.StatusConflict, nil)
	}
	if err == orgsvc.ErrCannotRemoveSelf {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	if apperr.IsTaxonomy(err) {
		return response.Error(c, err.Error(), apperr.StatusCode(err), nil)
	}
	return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
}
