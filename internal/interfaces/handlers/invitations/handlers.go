package invitations

import (
	"errors"

	invsvc "causeway-backend/internal/application/invitations"
	"causeway-backend/internal/middleware"
	"causeway-backend/internal/pkg/apperr"
	"causeway-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handlers holds dependencies for invitation endpoints.
type Handlers struct {
	Service *invsvc.Service
}

// CheckToken GET /api/v1/invitations/token/:token — public resolution of
// an invitation link. Details are returned only while the invitation is
// effectively pending; expired, revoked, accepted, and unknown tokens
// all answer with the same 404 shape.
func (h *Handlers) CheckToken(c *fiber.Ctx) error {
	token := c.Params("token")
	res, err := h.Service.ResolveDetails(c.Context(), token)
	if err != nil {
		if errors.Is(err, apperr.ErrExpired) {
			return response.Error(c, apperr.ErrExpired.Error(), fiber.StatusNotFound, nil)
		}
		return inviteError(c, err)
	}
	inv := res.Invitation
	return response.Success(c, "Invitation retrieved", fiber.Map{
		"invitation": fiber.Map{
			"org_id":     inv.OrgID.String(),
			"org_name":   res.OrgName,
			"email":      inv.Email,
			"invited_by": res.InviterName,
			"status":     inv.Status,
			"expires_at": inv.ExpiresAt,
		},
	}, nil)
}

// RedeemRequest body for accepting an invitation.
type RedeemRequest struct {
	Password string `json:"password"`
	Fullname string `json:"fullname"`
}

// Redeem POST /api/v1/invitations/token/:token/redeem — public. Consumes
// the invitation once, creating or reusing the account and granting the
// volunteer membership.
func (h *Handlers) Redeem(c *fiber.Ctx) error {
	var req RedeemRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}

	u, err := h.Service.Redeem(c.Context(), invsvc.RedeemInput{
		Token:    c.Params("token"),
		Password: req.Password,
		Fullname: req.Fullname,
	})
	if err != nil {
		return inviteError(c, err)
	}
	return response.Success(c, "Invitation accepted", fiber.Map{
		"user": fiber.Map{
			"user_id":     u.UserID.String(),
			"fullname":    u.Fullname,
			"email":       u.Email,
			"global_role": u.GlobalRole,
		},
	}, nil)
}

// CreateInviteRequest body for issuing an invitation.
type CreateInviteRequest struct {
	Email string `json:"email"`
}

// CreateInvite POST /org/:org_id/invitations — org_admin only. The email
// goes out after the invitation is durable; delivery failure is reported
// as degraded success.
func (h *Handlers) CreateInvite(c *fiber.Ctx) error {
	orgID, err := uuid.Parse(c.Params("org_id"))
	if err != nil {
		return response.NotFoundOpaque(c)
	}
	var req CreateInviteRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	if req.Email == "" {
		return response.Error(c, "email is required", fiber.StatusBadRequest, nil)
	}

	result, svcErr := h.Service.Issue(c.Context(), invsvc.IssueInput{
		OrgID:     orgID,
		Email:     req.Email,
		Principal: middleware.GetPrincipal(c),
	})
	if svcErr != nil {
		return inviteError(c, svcErr)
	}

	msg := "Invitation sent successfully"
	if !result.EmailSent {
		msg = "Invitation created, but the email could not be delivered"
	}
	return response.SuccessCreated(c, msg, fiber.Map{
		"invitation": fiber.Map{
			"invite_id":  result.Invitation.InviteID.String(),
			"org_id":     result.Invitation.OrgID.String(),
			"email":      result.Invitation.Email,
			"status":     result.Invitation.Status,
			"expires_at": result.Invitation.ExpiresAt,
		},
		"email_sent": result.EmailSent,
	}, nil)
}

// ListInvites GET /org/:org_id/invitations?status= — org_admin only.
func (h *Handlers) ListInvites(c *fiber.Ctx) error {
	orgID, err := uuid.Parse(c.Params("org_id"))
	if err != nil {
		return response.NotFoundOpaque(c)
	}
	invites, svcErr := h.Service.ListForOrg(c.Context(), invsvc.ListInput{
		OrgID:     orgID,
		Status:    c.Query("status"),
		Principal: middleware.GetPrincipal(c),
	})
	if svcErr != nil {
		return inviteError(c, svcErr)
	}
	return response.Success(c, "Invitations retrieved", fiber.Map{"invitations": invites}, nil)
}

// RevokeInvite PATCH /org/:org_id/invitations/:invite_id/revoke —
// org_admin or the original inviter.
func (h *Handlers) RevokeInvite(c *fiber.Ctx) error {
	inviteID, err := uuid.Parse(c.Params("invite_id"))
	if err != nil {
		return response.NotFoundOpaque(c)
	}
	inv, svcErr := h.Service.Revoke(c.Context(), invsvc.RevokeInput{
		InviteID:  inviteID,
		Principal: middleware.GetPrincipal(c),
	})
	if svcErr != nil {
		return inviteError(c, svcErr)
	}
	return response.Success(c, "Invitation revoked successfully", fiber.Map{
		"invitation": fiber.Map{
			"invite_id": inv.InviteID.String(),
			"status":    inv.Status,
		},
	}, nil)
}

// ResendRequest body.
type ResendRequest struct {
	Email string `json:"email"`
}

// ResendInvite POST /org/:org_id/invitations/resend — org_admin only,
// once per day per pending invitation.
func (h *Handlers) ResendInvite(c *fiber.Ctx) error {
	orgID, err := uuid.Parse(c.Params("org_id"))
	if err != nil {
		return response.NotFoundOpaque(c)
	}
	var req ResendRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	if req.Email == "" {
		return response.Error(c, "email is required", fiber.StatusBadRequest, nil)
	}

	result, svcErr := h.Service.Resend(c.Context(), invsvc.ResendInput{
		OrgID:     orgID,
		Email:     req.Email,
		Principal: middleware.GetPrincipal(c),
	})
	if svcErr != nil {
		return inviteError(c, svcErr)
	}

	msg := "Invitation resent successfully"
	if !result.EmailSent {
		msg = "Invitation refreshed, but the email could not be delivered"
	}
	return response.Success(c, msg, fiber.Map{
		"invitation": fiber.Map{
			"invite_id":  result.Invitation.InviteID.String(),
			"status":     result.Invitation.Status,
			"expires_at": result.Invitation.ExpiresAt,
		},
		"email_sent": result.EmailSent,
	}, nil)
}

func inviteError(c *fiber.Ctx, err error) error {
	switch err {
	case invsvc.ErrCannotInviteSelf, invsvc.ErrAlreadyMember:
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	case invsvc.ErrResendCooldown:
		return response.Error(c, err.Error(), fiber.StatusTooManyRequests, nil)
	}
	if apperr.IsTaxonomy(err) {
		return response.Error(c, err.Error(), apperr.StatusCode(err), nil)
	}
	return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
}
