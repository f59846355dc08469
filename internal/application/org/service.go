package org

import (
	"context"
	"errors"
	"strings"

	"causeway-backend/internal/application/access"
	"causeway-backend/internal/domain"
	"causeway-backend/internal/pkg/apperr"
	"causeway-backend/internal/pkg/constants"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrOrgNameTaken     = errors.New("Organization name already exists")
	ErrCannotRemoveSelf = errors.New("You cannot remove yourself from the organization")
)

type Service struct {
	DB     *gorm.DB
	Access *access.Evaluator
}

type CreateOrgInput struct {
	OrgName         string
	AdminID         uuid.UUID
	StripeAccountID *string
	Principal       *access.Principal
}

// CreateOrg provisions an organization (super admin only) and grants the
// owning admin an org_admin membership in the same transaction.
func (s *Service) CreateOrg(ctx context.Context, in CreateOrgInput) (*domain.Org, error) {
	if err := s.Access.Evaluate(ctx, in.Principal, constants.CreateOrg, access.Resource{}).Err(); err != nil {
		return nil, err
	}
	if in.OrgName == "" || in.AdminID == uuid.Nil {
		return nil, apperr.ErrInvalidInput
	}

	var admin domain.User
	if err := s.DB.WithContext(ctx).Where("user_id = ?", in.AdminID).First(&admin).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}

	o := &domain.Org{
		OrgName:         in.OrgName,
		AdminID:         in.AdminID,
		StripeAccountID: in.StripeAccountID,
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(o).Error; err != nil {
			return err
		}
		return tx.Create(&domain.Membership{
			UserID: in.AdminID,
			OrgID:  o.OrgID,
			Role:   constants.OrgRoleAdmin,
		}).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrOrgNameTaken
		}
		return nil, err
	}
	return o, nil
}

// ViewOrg returns an org visible to its members (any role) and super admins.
func (s *Service) ViewOrg(ctx context.Context, orgID uuid.UUID, p *access.Principal) (*domain.Org, error) {
	if p == nil || p.ID == uuid.Nil {
		return nil, apperr.ErrNotAuthenticated
	}
	if p.GlobalRole != constants.SuperAdmin {
		if _, ok, err := s.Access.OrgRole(ctx, p.ID, orgID); err != nil || !ok {
			return nil, apperr.ErrNotAuthorized
		}
	}
	var o domain.Org
	if err := s.DB.WithContext(ctx).Where("org_id = ?", orgID).First(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotAuthorized
		}
		return nil, err
	}
	return &o, nil
}

type UpdateOrgInput struct {
	OrgID           uuid.UUID
	OrgName         *string
	StripeAccountID *string
	Principal       *access.Principal
}

// UpdateOrg mutates org metadata, org_admin membership required.
func (s *Service) UpdateOrg(ctx context.Context, in UpdateOrgInput) (*domain.Org, error) {
	if err := s.Access.Evaluate(ctx, in.Principal, constants.UpdateOrg, access.Resource{OrgID: in.OrgID}).Err(); err != nil {
		return nil, err
	}

	var o domain.Org
	if err := s.DB.WithContext(ctx).Where("org_id = ?", in.OrgID).First(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotAuthorized
		}
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.OrgName != nil && *in.OrgName != "" {
		updates["org_name"] = *in.OrgName
	}
	if in.StripeAccountID != nil {
		updates["stripe_account_id"] = *in.StripeAccountID
	}
	if len(updates) == 0 {
		return nil, apperr.ErrInvalidInput
	}
	if err := s.DB.WithContext(ctx).Model(&o).Updates(updates).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrOrgNameTaken
		}
		return nil, err
	}
	return &o, nil
}

// RemoveMember deletes a membership (org admin only; self-removal blocked).
func (s *Service) RemoveMember(ctx context.Context, orgID, targetUserID uuid.UUID, p *access.Principal) error {
	if err := s.Access.Evaluate(ctx, p, constants.UpdateOrg, access.Resource{OrgID: orgID}).Err(); err != nil {
		return err
	}
	if p != nil && p.ID == targetUserID {
		return ErrCannotRemoveSelf
	}
	res := s.DB.WithContext(ctx).
		Where("user_id = ? AND org_id = ?", targetUserID, orgID).
		Delete(&domain.Membership{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

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
