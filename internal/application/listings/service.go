package listings

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

type Service struct {
	DB     *gorm.DB
	Access *access.Evaluator
}

type CreateListingInput struct {
	CauseID    uuid.UUID
	Title      string
	PriceCents int64
	Currency   string
	Principal  *access.Principal
}

// CreateListing creates an open listing under a cause, owned by the
// acting volunteer. Org admins may also create listings; ownership then
// rests with them.
func (s *Service) CreateListing(ctx context.Context, in CreateListingInput) (*domain.Listing, error) {
	var cause domain.Cause
	if err := s.DB.WithContext(ctx).Where("cause_id = ?", in.CauseID).First(&cause).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}

	if err := s.Access.Evaluate(ctx, in.Principal, constants.CreateListing, access.Resource{OrgID: cause.OrgID}).Err(); err != nil {
		return nil, err
	}
	if in.Title == "" || in.PriceCents <= 0 {
		return nil, apperr.ErrInvalidInput
	}

	currency := strings.ToLower(in.Currency)
	if currency == "" {
		currency = "usd"
	}

	l := &domain.Listing{
		CauseID:     cause.CauseID,
		OrgID:       cause.OrgID,
		VolunteerID: in.Principal.ID,
		Title:       in.Title,
		PriceCents:  in.PriceCents,
		Currency:    currency,
		Status:      domain.ListingStatusOpen,
	}
	if err := s.DB.WithContext(ctx).Create(l).Error; err != nil {
		return nil, err
	}
	return l, nil
}

type EditListingInput struct {
	ListingID  uuid.UUID
	Title      *string
	PriceCents *int64
	Status     *string
	Principal  *access.Principal
}

// EditListing mutates a listing. Owned action: the owning volunteer or
// an org_admin of the listing's organization.
func (s *Service) EditListing(ctx context.Context, in EditListingInput) (*domain.Listing, error) {
	var l domain.Listing
	if err := s.DB.WithContext(ctx).Where("listing_id = ?", in.ListingID).First(&l).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotAuthorized
		}
		return nil, err
	}

	decision := s.Access.Evaluate(ctx, in.Principal, constants.EditListing, access.Resource{
		OrgID:   l.OrgID,
		OwnerID: l.VolunteerID,
	})
	if err := decision.Err(); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Title != nil && *in.Title != "" {
		updates["title"] = *in.Title
	}
	if in.PriceCents != nil && *in.PriceCents > 0 {
		updates["price_cents"] = *in.PriceCents
	}
	if in.Status != nil {
		if *in.Status != domain.ListingStatusOpen && *in.Status != domain.ListingStatusClosed {
			return nil, apperr.ErrInvalidInput
		}
		updates["status"] = *in.Status
	}
	if len(updates) == 0 {
		return nil, apperr.ErrInvalidInput
	}
	if err := s.DB.WithContext(ctx).Model(&l).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

// GetListing returns a listing by id. Public read (buyers browse these).
func (s *Service) GetListing(ctx context.Context, listingID uuid.UUID) (*domain.Listing, error) {
	var l domain.Listing
	if err := s.DB.WithContext(ctx).Where("listing_id = ?", listingID).First(&l).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

// ListForCause returns a cause's open listings, newest first.
func (s *Service) ListForCause(ctx context.Context, causeID uuid.UUID) ([]domain.Listing, error) {
	var out []domain.Listing
	err := s.DB.WithContext(ctx).
		Where("cause_id = ? AND status = ?", causeID, domain.ListingStatusOpen).
		Order("created_at DESC").Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListForVolunteer returns the listings a volunteer owns across orgs.
func (s *Service) ListForVolunteer(ctx context.Context, volunteerID uuid.UUID) ([]domain.Listing, error) {
	var out []domain.Listing
	if err := s.DB.WithContext(ctx).Where("volunteer_id = ?", volunteerID).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
