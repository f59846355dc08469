package user

import (
	usersvc "causeway-backend/internal/application/user"
	"causeway-backend/internal/middleware"
	"causeway-backend/internal/pkg/apperr"
	"causeway-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handlers holds dependencies for user endpoints.
type Handlers struct {
	Service *usersvc.Service
	Config  middleware.SessionConfig
}

// CreateUser POST /api/v1/users/create-user — public registration.
func (h *Handlers) CreateUser(c *fiber.Ctx) error {
	var req usersvc.CreateUserInput
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}

	u, err := h.Service.CreateUser(c.Context(), req)
	if err != nil {
		if apperr.IsTaxonomy(err) {
			return response.Error(c, err.Error(), apperr.StatusCode(err), nil)
		}
		// Validation errors from the service carry user-facing messages.
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}

	return response.SuccessCreated(c, "User created successfully", fiber.Map{
		"user": fiber.Map{
			"user_id":     u.UserID.String(),
			"fullname":    u.Fullname,
			"email":       u.Email,
			"global_role": u.GlobalRole,
		},
	}, nil)
}

// ViewUser GET /api/v1/users/view-user — the authenticated user's profile.
func (h *Handlers) ViewUser(c *fiber.Ctx) error {
	su := middleware.GetSessionUser(c)
	if su == nil {
		return response.Unauthorized(c, "Not authenticated")
	}
	userID, err := uuid.Parse(su.UserID)
	if err != nil {
		return response.Unauthorized(c, "Not authenticated")
	}

	u, svcErr := h.Service.ViewUser(c.Context(), userID)
	if svcErr != nil {
		if apperr.IsTaxonomy(svcErr) {
			return response.Error(c, svcErr.Error(), apperr.StatusCode(svcErr), nil)
		}
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "User retrieved", fiber.Map{"user": u}, nil)
}

// UpdateUser PUT /api/v1/users/update-user — own profile only. A password
// change drops every other session for the account.
func (h *Handlers) UpdateUser(c *fiber.Ctx) error {
	su := middleware.GetSessionUser(c)
	if su == nil {
		return response.Unauthorized(c, "Not authenticated")
	}
	userID, err := uuid.Parse(su.UserID)
	if err != nil {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req usersvc.UpdateUserInput
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}

	u, svcErr := h.Service.UpdateUser(c.Context(), userID, req, middleware.GetSessionID(c))
	if svcErr != nil {
		if apperr.IsTaxonomy(svcErr) {
			return response.Error(c, svcErr.Error(), apperr.StatusCode(svcErr), nil)
		}
		return response.Error(c, svcErr.Error(), fiber.StatusBadRequest, nil)
	}

	// Keep the session copy of the name current.
	middleware.SetSessionUser(c, middleware.SessionUser{
		UserID:     u.UserID.String(),
		Fullname:   u.Fullname,
		Email:      u.Email,
		GlobalRole: u.GlobalRole,
	})

	return response.Success(c, "User updated successfully", fiber.Map{"user": u}, nil)
}
