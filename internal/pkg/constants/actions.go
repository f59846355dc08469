package constants

// Actions gated by the access evaluator.
const (
	InviteUser    = "invite_user"
	RevokeInvite  = "revoke_invite"
	ViewInvites   = "view_invites"
	CreateCause   = "create_cause"
	EditCause     = "edit_cause"
	CreateListing = "create_listing"
	EditListing   = "edit_listing"
	FulfillOrder  = "fulfill_order"
	CancelOrder   = "cancel_order"
	ViewOrgOrders = "view_org_orders"
	UpdateOrg     = "update_org"
	CreateOrg     = "create_org"
)

// ActionOrgRoles maps each org-scoped action to the membership roles
// allowed to perform it. Super admins bypass this table entirely.
// CreateOrg deliberately has no entry: no membership role grants it, so
// only the super-admin bypass allows it.
var ActionOrgRoles = map[string][]string{
	InviteUser:    {OrgRoleAdmin},
	RevokeInvite:  {OrgRoleAdmin},
	ViewInvites:   {OrgRoleAdmin},
	CreateCause:   {OrgRoleAdmin},
	EditCause:     {OrgRoleAdmin},
	CreateListing: {OrgRoleAdmin, OrgRoleVolunteer},
	EditListing:   {OrgRoleAdmin, OrgRoleVolunteer},
	FulfillOrder:  {OrgRoleAdmin, OrgRoleVolunteer},
	CancelOrder:   {OrgRoleAdmin, OrgRoleVolunteer},
	ViewOrgOrders: {OrgRoleAdmin, OrgRoleVolunteer},
	UpdateOrg:     {OrgRoleAdmin},
}

// OwnedActions are actions that additionally require the principal to
// own the target resource, unless their membership role is org_admin.
var OwnedActions = map[string]bool{
	EditListing:  true,
	FulfillOrder: true,
	CancelOrder:  true,
}

// AllowedOrgRole reports whether role may perform action within an org.
func AllowedOrgRole(action, role string) bool {
	roles, ok := ActionOrgRoles[action]
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
