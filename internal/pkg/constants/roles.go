package constants

// Global roles (Users.global_role). The platform-wide tag: super_admin
// bypasses every check; the other two only matter for routing defaults.
const (
	SuperAdmin = "super_admin"
	OrgAdmin   = "org_admin"
	Volunteer  = "volunteer"
)

// Org-scoped roles (Memberships.role). Resolved per organization and
// independent of the global role.
const (
	OrgRoleAdmin     = "org_admin"
	OrgRoleVolunteer = "volunteer"
)

// ValidGlobalRoles is the set of allowed enum values for Users.global_role.
var ValidGlobalRoles = []string{SuperAdmin, OrgAdmin, Volunteer}

// ValidOrgRoles is the set of allowed enum values for Memberships.role.
var ValidOrgRoles = []string{OrgRoleAdmin, OrgRoleVolunteer}

func IsValidGlobalRole(role string) bool {
	for _, r := range ValidGlobalRoles {
		if r == role {
			return true
		}
	}
	return false
}

func IsValidOrgRole(role string) bool {
	for _, r := range ValidOrgRoles {
		if r == role {
			return true
		}
	}
	return false
}
