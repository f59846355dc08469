package dashboard

import (
	"causeway-backend/internal/middleware"
	"causeway-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers serves the role-scoped dashboard surfaces. Access is enforced
// upstream by the route guard; handlers only shape the payload.
type Handlers struct{}

// SuperOverview GET /admin/super/overview.
func (h *Handlers) SuperOverview(c *fiber.Ctx) error {
	su := middleware.GetSessionUser(c)
	return response.Success(c, "Platform overview", fiber.Map{
		"surface": "super_admin",
		"user":    su,
	}, nil)
}

// OrgOverview GET /org/:org_id/overview.
func (h *Handlers) OrgOverview(c *fiber.Ctx) error {
	su := middleware.GetSessionUser(c)
	return response.Success(c, "Organization overview", fiber.Map{
		"surface": "org_admin",
		"org_id":  c.Params("org_id"),
		"user":    su,
	}, nil)
}

// VolunteerHome GET /volunteer-dashboard/home.
func (h *Handlers) VolunteerHome(c *fiber.Ctx) error {
	su := middleware.GetSessionUser(c)
	return response.Success(c, "Volunteer dashboard", fiber.Map{
		"surface": "volunteer",
		"user":    su,
	}, nil)
}

// AdminHome GET /dashboard/home — volunteers are redirected to their own
// dashboard before this handler runs.
func (h *Handlers) AdminHome(c *fiber.Ctx) error {
	su := middleware.GetSessionUser(c)
	return response.Success(c, "Admin dashboard", fiber.Map{
		"surface": "admin",
		"user":    su,
	}, nil)
}
