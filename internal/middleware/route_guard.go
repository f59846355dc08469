package middleware

import (
	"causeway-backend/internal/application/access"
	"causeway-backend/internal/pkg/constants"
	"causeway-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// RouteGuard classifies each request path by prefix and enforces the
// matching policy class before any handler runs. Denials on the admin
// surfaces return the uniform 404-shape so callers cannot tell denial
// from absence; a volunteer on a volunteer-excluded route is redirected
// to their own dashboard instead of denied.
func RouteGuard(ev *access.Evaluator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		class := constants.ClassifyRoute(c.Path())
		if class == constants.RouteClassNone {
			return c.Next()
		}

		su := GetSessionUser(c)
		if su == nil {
			return response.Unauthorized(c, "Unauthorized")
		}
		if su.GlobalRole == constants.SuperAdmin {
			return c.Next()
		}

		switch class {
		case constants.RouteClassSuperAdminOnly:
			return response.NotFoundOpaque(c)

		case constants.RouteClassOrgAdminOnly:
			userID, err := uuid.Parse(su.UserID)
			if err != nil {
				return response.NotFoundOpaque(c)
			}
			if orgID := guardOrgID(c); orgID != uuid.Nil {
				role, ok, err := ev.OrgRole(c.Context(), userID, orgID)
				if err != nil || !ok || role != constants.OrgRoleAdmin {
					return response.NotFoundOpaque(c)
				}
				return c.Next()
			}
			ok, err := ev.HasOrgAdminMembership(c.Context(), userID)
			if err != nil || !ok {
				return response.NotFoundOpaque(c)
			}
			return c.Next()

		case constants.RouteClassVolunteerOnly:
			if su.GlobalRole != constants.Volunteer {
				return response.NotFoundOpaque(c)
			}
			return c.Next()

		case constants.RouteClassVolunteerExcluded:
			if su.GlobalRole == constants.Volunteer {
				// Routing policy, not a hard deny.
				return c.Redirect("/volunteer-dashboard", fiber.StatusTemporaryRedirect)
			}
			return c.Next()
		}
		return c.Next()
	}
}

// guardOrgID extracts the target org from the :org_id param or org_id
// query, if the route carries one.
func guardOrgID(c *fiber.Ctx) uuid.UUID {
	raw := c.Params("org_id")
	if raw == "" {
		raw = c.Query("org_id")
	}
	if raw == "" {
		return uuid.Nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil
	}
	return id
}
