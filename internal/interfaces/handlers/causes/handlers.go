package causes

import (
	causesvc "causeway-backend/internal/application/causes"
	"causeway-backend/internal/middleware"
	"causeway-backend/internal/pkg/apperr"
	"causeway-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handlers holds dependencies for cause (campaign) endpoints.
type Handlers struct {
	Service *causesvc.Service
}

// CreateCauseRequest body.
type CreateCauseRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	GoalCents   int64  `json:"goal_cents"`
}

// CreateCause POST /org/:org_id/causes — org_admin only.
func (h *Handlers) CreateCause(c *fiber.Ctx) error {
	orgID, err := uuid.Parse(c.Params("org_id"))
	if err != nil {
		return response.NotFoundOpaque(c)
	}
	var req CreateCauseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	if req.Title == "" {
		return response.Error(c, "title is required", fiber.StatusBadRequest, nil)
	}

	cause, svcErr := h.Service.CreateCause(c.Context(), causesvc.CreateCauseInput{
		OrgID:       orgID,
		Title:       req.Title,
		Description: req.Description,
		GoalCents:   req.GoalCents,
		Principal:   middleware.GetPrincipal(c),
	})
	if svcErr != nil {
		return causeError(c, svcErr)
	}
	return response.SuccessCreated(c, "Cause created successfully", fiber.Map{"cause": cause}, nil)
}

// EditCauseRequest body. Absent fields are left untouched.
type EditCauseRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	GoalCents   *int64  `json:"goal_cents"`
}

// EditCause PATCH /org/:org_id/causes/:cause_id — org_admin only.
func (h *Handlers) EditCause(c *fiber.Ctx) error {
	causeID, err := uuid.Parse(c.Params("cause_id"))
	if err != nil {
		return response.NotFoundOpaque(c)
	}
	var req EditCauseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}

	cause, svcErr := h.Service.EditCause(c.Context(), causesvc.EditCauseInput{
		CauseID:     causeID,
		Title:       req.Title,
		Description: req.Description,
		GoalCents:   req.GoalCents,
		Principal:   middleware.GetPrincipal(c),
	})
	if svcErr != nil {
		return causeError(c, svcErr)
	}
	return response.Success(c, "Cause updated successfully", fiber.Map{"cause": cause}, nil)
}

// ListCauses GET /api/v1/orgs/:org_id/causes — public.
func (h *Handlers) ListCauses(c *fiber.Ctx) error {
	orgID, err := uuid.Parse(c.Params("org_id"))
	if err != nil {
		return response.Error(c, "Invalid org_id", fiber.StatusBadRequest, nil)
	}
	causes, svcErr := h.Service.ListForOrg(c.Context(), orgID)
	if svcErr != nil {
		return causeError(c, svcErr)
	}
	return response.Success(c, "Causes retrieved", fiber.Map{"causes": causes}, nil)
}

func causeError(c *fiber.Ctx, err error) error {
	if apperr.IsTaxonomy(err) {
		return response.Error(c, err.Error(), apperr.StatusCode(err), nil)
	}
	return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
}
