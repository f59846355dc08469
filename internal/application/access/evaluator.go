package access

import (
	"context"
	"errors"

	"causeway-backend/internal/domain"
	"causeway-backend/internal/pkg/apperr"
	"causeway-backend/internal/pkg/constants"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Principal is the authenticated identity making a request. There is no
// ambient session state below the handlers; every service call takes an
// explicit principal.
type Principal struct {
	ID         uuid.UUID
	Email      string
	GlobalRole string
}

// Resource names the target of an action. OwnerID is uuid.Nil when the
// action has no ownership dimension.
type Resource struct {
	OrgID   uuid.UUID
	OwnerID uuid.UUID
}

// Reason distinguishes deny causes for tests and logs. It must never be
// surfaced to callers; Decision.Err merges everything but
// NotAuthenticated into one opaque error.
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonNotAuthenticated Reason = "not_authenticated"
	ReasonNotMember        Reason = "not_member"
	ReasonWrongRole        Reason = "wrong_role"
	ReasonNotOwner         Reason = "not_owner"
)

// Decision is the evaluator verdict.
type Decision struct {
	Allowed bool
	Reason  Reason
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(r Reason) Decision {
	return Decision{Reason: r}
}

// Err maps a decision to the boundary error taxonomy. All authorization
// denials collapse to apperr.ErrNotAuthorized so callers cannot probe
// which check failed.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	if d.Reason == ReasonNotAuthenticated {
		return apperr.ErrNotAuthenticated
	}
	return apperr.ErrNotAuthorized
}

// Evaluator decides allow/deny for org-scoped and owned actions as a
// pure function of (global role, org-scoped membership role, ownership).
type Evaluator struct {
	DB *gorm.DB
}

// Evaluate applies the rule table in order: super-admin bypass first
// and total, then membership presence, then membership role, then
// ownership (org_admin membership overrides ownership).
func (e *Evaluator) Evaluate(ctx context.Context, p *Principal, action string, res Resource) Decision {
	if p == nil || p.ID == uuid.Nil {
		return deny(ReasonNotAuthenticated)
	}
	if p.GlobalRole == constants.SuperAdmin {
		return allow()
	}

	role, ok, err := e.OrgRole(ctx, p.ID, res.OrgID)
	if err != nil || !ok {
		return deny(ReasonNotMember)
	}
	if !constants.AllowedOrgRole(action, role) {
		return deny(ReasonWrongRole)
	}
	if constants.OwnedActions[action] && role != constants.OrgRoleAdmin && res.OwnerID != p.ID {
		return deny(ReasonNotOwner)
	}
	return allow()
}

// OrgRole resolves the principal's membership role within one
// organization. The second return is false when no membership exists.
func (e *Evaluator) OrgRole(ctx context.Context, userID, orgID uuid.UUID) (string, bool, error) {
	var m domain.Membership
	err := e.DB.WithContext(ctx).Where("user_id = ? AND org_id = ?", userID, orgID).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return m.Role, true, nil
}

// HasOrgAdminMembership reports whether the user is org_admin of any
// organization. Used by the route guard when a request carries no
// explicit org target.
func (e *Evaluator) HasOrgAdminMembership(ctx context.Context, userID uuid.UUID) (bool, error) {
	var count int64
	err := e.DB.WithContext(ctx).Model(&domain.Membership{}).
		Where("user_id = ? AND role = ?", userID, constants.OrgRoleAdmin).
		Count(&count).Error
	return count > 0, err
}
