package causes

import (
	"context"
	"errors"

	"causeway-backend/internal/application/access"
	"causeway-backend/internal/domain"
	"causeway-backend/internal/pkg/apperr"
	"causeway-backend/internal/pkg/constants"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Service struct {
	DB     *gorm.DB
	Access *access.Evaluator
}

type CreateCauseInput struct {
	OrgID       uuid.UUID
	Title       string
	Description string
	GoalCents   int64
	Principal   *access.Principal
}

// CreateCause adds a campaign under an organization, org_admin only.
func (s *Service) CreateCause(ctx context.Context, in CreateCauseInput) (*domain.Cause, error) {
	if err := s.Access.Evaluate(ctx, in.Principal, constants.CreateCause, access.Resource{OrgID: in.OrgID}).Err(); err != nil {
		return nil, err
	}
	if in.Title == "" || in.GoalCents <= 0 {
		return nil, apperr.ErrInvalidInput
	}
	c := &domain.Cause{
		OrgID:       in.OrgID,
		Title:       in.Title,
		Description: in.Description,
		GoalCents:   in.GoalCents,
	}
	if err := s.DB.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

type EditCauseInput struct {
	CauseID     uuid.UUID
	Title       *string
	Description *string
	GoalCents   *int64
	Principal   *access.Principal
}

// EditCause mutates a campaign, org_admin only.
func (s *Service) EditCause(ctx context.Context, in EditCauseInput) (*domain.Cause, error) {
	var c domain.Cause
	if err := s.DB.WithContext(ctx).Where("cause_id = ?", in.CauseID).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotAuthorized
		}
		return nil, err
	}
	if err := s.Access.Evaluate(ctx, in.Principal, constants.EditCause, access.Resource{OrgID: c.OrgID}).Err(); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Title != nil && *in.Title != "" {
		updates["title"] = *in.Title
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.GoalCents != nil && *in.GoalCents > 0 {
		updates["goal_cents"] = *in.GoalCents
	}
	if len(updates) == 0 {
		return nil, apperr.ErrInvalidInput
	}
	if err := s.DB.WithContext(ctx).Model(&c).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// ListForOrg returns the org's campaigns, newest first. Public read.
func (s *Service) ListForOrg(ctx context.Context, orgID uuid.UUID) ([]domain.Cause, error) {
	var out []domain.Cause
	if err := s.DB.WithContext(ctx).Where("org_id = ?", orgID).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
