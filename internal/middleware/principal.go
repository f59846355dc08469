package middleware

import (
	"causeway-backend/internal/application/access"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// GetPrincipal builds the explicit principal handed to services from the
// session user. Returns nil when unauthenticated or malformed.
func GetPrincipal(c *fiber.Ctx) *access.Principal {
	su := GetSessionUser(c)
	if su == nil {
		return nil
	}
	id, err := uuid.Parse(su.UserID)
	if err != nil {
		return nil
	}
	return &access.Principal{
		ID:         id,
		Email:      su.Email,
		GlobalRole: su.GlobalRole,
	}
}
