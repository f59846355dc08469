package invitations

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"causeway-backend/internal/application/access"
	"causeway-backend/internal/application/emails"
	"causeway-backend/internal/domain"
	"causeway-backend/internal/pkg/apperr"
	"causeway-backend/internal/pkg/constants"
	"causeway-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const defaultInviteTTL = 7 * 24 * time.Hour
const resendCooldown = 24 * time.Hour

// Validation errors surfaced as 400s by the handlers.
var (
	ErrCannotInviteSelf = errors.New("You cannot invite yourself")
	ErrAlreadyMember    = errors.New("User already belongs to this organization")
	ErrResendCooldown   = errors.New("Invite can only be resent once per day")
)

// Service manages the invitation lifecycle: issue, resolve, redeem,
// revoke, resend. Token, (email, org) supersession, and the membership
// unique index are the arbiters for every race.
type Service struct {
	DB            *gorm.DB
	Access        *access.Evaluator
	EmailSender   emails.Sender
	InviteBaseURL string
	TTL           time.Duration
}

func (s *Service) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return defaultInviteTTL
}

type IssueInput struct {
	OrgID     uuid.UUID
	Email     string
	Principal *access.Principal
	TTL       time.Duration // 0 = service default
}

type IssueResult struct {
	Invitation *domain.Invitation
	EmailSent  bool
}

// Issue creates a pending invitation, superseding any prior pending one
// for the same (email, org), then sends the onboarding email. The email
// happens strictly after commit: delivery failure is reported as
// degraded success, never rolled back, since the invitation can be
// resent.
func (s *Service) Issue(ctx context.Context, in IssueInput) (*IssueResult, error) {
	if err := s.Access.Evaluate(ctx, in.Principal, constants.InviteUser, access.Resource{OrgID: in.OrgID}).Err(); err != nil {
		return nil, err
	}

	normalized := strings.ToLower(strings.TrimSpace(in.Email))
	if normalized == "" {
		return nil, apperr.ErrInvalidInput
	}
	if in.Principal != nil && normalized == strings.ToLower(in.Principal.Email) {
		return nil, ErrCannotInviteSelf
	}

	var existingUser domain.User
	if err := s.DB.WithContext(ctx).Where("email = ?", normalized).First(&existingUser).Error; err == nil {
		var m domain.Membership
		if err := s.DB.WithContext(ctx).Where("user_id = ? AND org_id = ?", existingUser.UserID, in.OrgID).First(&m).Error; err == nil {
			return nil, ErrAlreadyMember
		}
	}

	ttl := in.TTL
	if ttl <= 0 {
		ttl = s.ttl()
	}

	inv := &domain.Invitation{
		OrgID:     in.OrgID,
		Email:     normalized,
		Token:     randomHex(32),
		Status:    domain.InviteStatusPending,
		InvitedBy: in.Principal.ID,
		ExpiresAt: time.Now().Add(ttl),
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Supersede: at most one meaningful pending per (email, org).
		if err := tx.Model(&domain.Invitation{}).
			Where("org_id = ? AND email = ? AND status = ?", in.OrgID, normalized, domain.InviteStatusPending).
			Update("status", domain.InviteStatusRevoked).Error; err != nil {
			return err
		}
		return tx.Create(inv).Error
	})
	if err != nil {
		// The pending (org, email) unique index fires when a concurrent
		// issuer committed between our supersession update and insert.
		if isUniqueViolation(err) {
			return nil, apperr.ErrConflict
		}
		return nil, err
	}

	emailSent := s.notify(ctx, inv, "You have been invited to join a fundraising team")
	return &IssueResult{Invitation: inv, EmailSent: emailSent}, nil
}

// notify sends the invitation email best-effort after the invitation is
// durable. Returns false on failure (logged, never fatal).
func (s *Service) notify(ctx context.Context, inv *domain.Invitation, subject string) bool {
	if s.EmailSender == nil {
		return false
	}
	orgName := ""
	var org domain.Org
	if err := s.DB.WithContext(ctx).Where("org_id = ?", inv.OrgID).First(&org).Error; err == nil {
		orgName = org.OrgName
	}
	link := s.InviteBaseURL + "/invitations/token/" + inv.Token
	if err := s.EmailSender.SendInvite(ctx, inv.Email, link, orgName, subject); err != nil {
		log.Warn().Err(err).Str("invite_id", inv.InviteID.String()).Msg("Invitation email delivery failed; invitation remains valid")
		return false
	}
	return true
}

// Resolve looks up an invitation by token and reports its effective
// status at read time. A stored pending row past its deadline resolves
// as expired without any write.
func (s *Service) Resolve(ctx context.Context, token string) (*domain.Invitation, error) {
	if token == "" {
		return nil, apperr.ErrInvalidInput
	}
	var inv domain.Invitation
	if err := s.DB.WithContext(ctx).Where("token = ?", token).First(&inv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	inv.Status = inv.EffectiveStatus(time.Now())
	return &inv, nil
}

// ResolveResult carries what the public invitation page may show for a
// still-pending token.
type ResolveResult struct {
	Invitation  *domain.Invitation
	OrgName     string
	InviterName string
}

// ResolveDetails resolves a token for the public invitation link. Only
// an effectively pending invitation returns details; expired, revoked,
// accepted, and never-issued tokens all come back as ErrExpired so the
// link page cannot distinguish them.
func (s *Service) ResolveDetails(ctx context.Context, token string) (*ResolveResult, error) {
	inv, err := s.Resolve(ctx, token)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) || errors.Is(err, apperr.ErrInvalidInput) {
			return nil, apperr.ErrExpired
		}
		return nil, err
	}
	if inv.Status != domain.InviteStatusPending {
		return nil, apperr.ErrExpired
	}

	out := &ResolveResult{Invitation: inv}
	var org domain.Org
	if err := s.DB.WithContext(ctx).Where("org_id = ?", inv.OrgID).First(&org).Error; err == nil {
		out.OrgName = org.OrgName
	}
	var inviter domain.User
	if err := s.DB.WithContext(ctx).Where("user_id = ?", inv.InvitedBy).First(&inviter).Error; err == nil {
		out.InviterName = inviter.Fullname
	}
	return out, nil
}

type RedeemInput struct {
	Token    string
	Password string
	Fullname string
}

// Redeem consumes a pending invitation exactly once: creates or reuses
// the user by email, creates the volunteer membership, and marks the
// invitation accepted, all in one transaction. Concurrent redeemers are
// arbitrated by the conditional status update and the membership unique
// index; the loser gets ErrAlreadyRedeemed.
func (s *Service) Redeem(ctx context.Context, in RedeemInput) (*domain.User, error) {
	if in.Token == "" {
		return nil, apperr.ErrInvalidInput
	}

	var user *domain.User
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inv domain.Invitation
		if err := tx.Where("token = ?", in.Token).First(&inv).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.ErrNotFound
			}
			return err
		}

		switch inv.EffectiveStatus(time.Now()) {
		case domain.InviteStatusPending:
			// usable
		case domain.InviteStatusAccepted:
			return apperr.ErrAlreadyRedeemed
		default:
			return apperr.ErrExpired
		}

		// Single-use: exactly one concurrent redeemer flips pending->accepted.
		res := tx.Model(&domain.Invitation{}).
			Where("invite_id = ? AND status = ?", inv.InviteID, domain.InviteStatusPending).
			Update("status", domain.InviteStatusAccepted)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.ErrAlreadyRedeemed
		}

		u, err := findOrCreateUser(tx, inv.Email, in.Password, in.Fullname)
		if err != nil {
			return err
		}

		m := &domain.Membership{
			UserID: u.UserID,
			OrgID:  inv.OrgID,
			Role:   constants.OrgRoleVolunteer,
		}
		if err := tx.Create(m).Error; err != nil {
			if isUniqueViolation(err) {
				return apperr.ErrAlreadyRedeemed
			}
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

type RevokeInput struct {
	InviteID  uuid.UUID
	Principal *access.Principal
}

// Revoke marks a pending invitation revoked. Allowed for an org_admin
// of the invitation's organization or the original inviter.
func (s *Service) Revoke(ctx context.Context, in RevokeInput) (*domain.Invitation, error) {
	var inv domain.Invitation
	if err := s.DB.WithContext(ctx).Where("invite_id = ?", in.InviteID).First(&inv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotAuthorized
		}
		return nil, err
	}

	decision := s.Access.Evaluate(ctx, in.Principal, constants.RevokeInvite, access.Resource{OrgID: inv.OrgID})
	inviter := in.Principal != nil && in.Principal.ID == inv.InvitedBy
	if !decision.Allowed && !inviter {
		return nil, decision.Err()
	}

	res := s.DB.WithContext(ctx).Model(&domain.Invitation{}).
		Where("invite_id = ? AND status = ?", inv.InviteID, domain.InviteStatusPending).
		Update("status", domain.InviteStatusRevoked)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, apperr.ErrConflict
	}
	inv.Status = domain.InviteStatusRevoked
	return &inv, nil
}

type ResendInput struct {
	OrgID     uuid.UUID
	Email     string
	Principal *access.Principal
}

// Resend refreshes a still-pending invitation with a new token and
// expiry and re-sends the email, at most once per day.
func (s *Service) Resend(ctx context.Context, in ResendInput) (*IssueResult, error) {
	if err := s.Access.Evaluate(ctx, in.Principal, constants.InviteUser, access.Resource{OrgID: in.OrgID}).Err(); err != nil {
		return nil, err
	}

	normalized := strings.ToLower(strings.TrimSpace(in.Email))
	var inv domain.Invitation
	if err := s.DB.WithContext(ctx).
		Where("email = ? AND org_id = ? AND status = ?", normalized, in.OrgID, domain.InviteStatusPending).
		First(&inv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}

	if time.Since(inv.UpdatedAt) < resendCooldown {
		return nil, ErrResendCooldown
	}

	inv.Token = randomHex(32)
	inv.ExpiresAt = time.Now().Add(s.ttl())
	if err := s.DB.WithContext(ctx).Save(&inv).Error; err != nil {
		return nil, err
	}

	emailSent := s.notify(ctx, &inv, "Reminder: your fundraising team invitation")
	return &IssueResult{Invitation: &inv, EmailSent: emailSent}, nil
}

type ListInput struct {
	OrgID     uuid.UUID
	Status    string
	Principal *access.Principal
}

// ListForOrg returns the org's invitations with statuses effective at
// read time, newest first.
func (s *Service) ListForOrg(ctx context.Context, in ListInput) ([]domain.Invitation, error) {
	if err := s.Access.Evaluate(ctx, in.Principal, constants.ViewInvites, access.Resource{OrgID: in.OrgID}).Err(); err != nil {
		return nil, err
	}
	q := s.DB.WithContext(ctx).Where("org_id = ?", in.OrgID)
	var invitations []domain.Invitation
	if err := q.Order("created_at DESC").Find(&invitations).Error; err != nil {
		return nil, err
	}
	now := time.Now()
	filtered := invitations[:0]
	for i := range invitations {
		invitations[i].Status = invitations[i].EffectiveStatus(now)
		if in.Status == "" || invitations[i].Status == in.Status {
			filtered = append(filtered, invitations[i])
		}
	}
	return filtered, nil
}

// findOrCreateUser reuses an existing account by email (keeping its
// password) or provisions a new volunteer account with the chosen one.
func findOrCreateUser(tx *gorm.DB, email, password, fullname string) (*domain.User, error) {
	var u domain.User
	err := tx.Where("email = ?", email).First(&u).Error
	if err == nil {
		return &u, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	hash, err := hashPassword(password, fullname)
	if err != nil {
		return nil, err
	}
	u = domain.User{
		Email:        email,
		Fullname:     fullname,
		PasswordHash: hash,
		GlobalRole:   constants.Volunteer,
	}
	if err := tx.Create(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func hashPassword(password, fullname string) (string, error) {
	if !validation.IsValidPassword(password) {
		return "", apperr.ErrInvalidInput
	}
	if !validation.IsValidFullname(strings.TrimSpace(fullname)) {
		return "", apperr.ErrInvalidInput
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// isUniqueViolation detects constraint-violation writes, the expected
// signal that a concurrent attempt already completed.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint")
}

func randomHex(n int) string {
	b := make([]byte, n)
	rand.Read(b)
	return hex.EncodeToString(b)
}
