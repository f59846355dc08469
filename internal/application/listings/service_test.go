package listings

import (
	"context"
	"testing"

	"causeway-backend/internal/application/access"
	"causeway-backend/internal/domain"
	"causeway-backend/internal/pkg/apperr"
	"causeway-backend/internal/pkg/constants"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupListingsTest(t *testing.T) (*Service, *gorm.DB, uuid.UUID, uuid.UUID) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Membership{}, &domain.Cause{}, &domain.Listing{}))

	orgID := uuid.New()
	cause := domain.Cause{OrgID: orgID, Title: "School Trip", GoalCents: 500000}
	require.NoError(t, db.Create(&cause).Error)
	return &Service{DB: db, Access: &access.Evaluator{DB: db}}, db, orgID, cause.CauseID
}

func volunteerIn(t *testing.T, db *gorm.DB, orgID uuid.UUID) *access.Principal {
	t.Helper()
	userID := uuid.New()
	require.NoError(t, db.Create(&domain.Membership{
		UserID: userID, OrgID: orgID, Role: constants.OrgRoleVolunteer,
	}).Error)
	return &access.Principal{ID: userID, GlobalRole: constants.Volunteer}
}

func TestCreateListing_OwnedByActingVolunteer(t *testing.T) {
	svc, db, orgID, causeID := setupListingsTest(t)
	vol := volunteerIn(t, db, orgID)

	l, err := svc.CreateListing(context.Background(), CreateListingInput{
		CauseID: causeID, Title: "Car Wash Voucher", PriceCents: 2500, Principal: vol,
	})
	require.NoError(t, err)
	assert.Equal(t, vol.ID, l.VolunteerID)
	assert.Equal(t, orgID, l.OrgID)
	assert.Equal(t, domain.ListingStatusOpen, l.Status)
	assert.Equal(t, "usd", l.Currency)
}

func TestCreateListing_NonMemberDenied(t *testing.T) {
	svc, _, _, causeID := setupListingsTest(t)

	_, err := svc.CreateListing(context.Background(), CreateListingInput{
		CauseID: causeID, Title: "Car Wash Voucher", PriceCents: 2500,
		Principal: &access.Principal{ID: uuid.New(), GlobalRole: constants.Volunteer},
	})
	assert.ErrorIs(t, err, apperr.ErrNotAuthorized)
}

func TestEditListing_OwnerOnlyAmongVolunteers(t *testing.T) {
	svc, db, orgID, causeID := setupListingsTest(t)
	owner := volunteerIn(t, db, orgID)
	other := volunteerIn(t, db, orgID)

	l, err := svc.CreateListing(context.Background(), CreateListingInput{
		CauseID: causeID, Title: "Car Wash Voucher", PriceCents: 2500, Principal: owner,
	})
	require.NoError(t, err)

	newTitle := "Deluxe Car Wash"
	_, err = svc.EditListing(context.Background(), EditListingInput{
		ListingID: l.ListingID, Title: &newTitle, Principal: other,
	})
	assert.ErrorIs(t, err, apperr.ErrNotAuthorized)

	updated, err := svc.EditListing(context.Background(), EditListingInput{
		ListingID: l.ListingID, Title: &newTitle, Principal: owner,
	})
	require.NoError(t, err)
	assert.Equal(t, newTitle, updated.Title)
}

func TestListForCause_OpenOnly(t *testing.T) {
	svc, db, orgID, causeID := setupListingsTest(t)
	vol := volunteerIn(t, db, orgID)

	open, err := svc.CreateListing(context.Background(), CreateListingInput{
		CauseID: causeID, Title: "Open Item", PriceCents: 1000, Principal: vol,
	})
	require.NoError(t, err)
	closed, err := svc.CreateListing(context.Background(), CreateListingInput{
		CauseID: causeID, Title: "Closed Item", PriceCents: 1000, Principal: vol,
	})
	require.NoError(t, err)
	require.NoError(t, db.Model(&domain.Listing{}).
		Where("listing_id = ?", closed.ListingID).
		Update("status", domain.ListingStatusClosed).Error)

	list, err := svc.ListForCause(context.Background(), causeID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, open.ListingID, list[0].ListingID)
}

func TestListForVolunteer(t *testing.T) {
	svc, db, orgID, causeID := setupListingsTest(t)
	mine := volunteerIn(t, db, orgID)
	other := volunteerIn(t, db, orgID)

	_, err := svc.CreateListing(context.Background(), CreateListingInput{
		CauseID: causeID, Title: "Mine", PriceCents: 1000, Principal: mine,
	})
	require.NoError(t, err)
	_, err = svc.CreateListing(context.Background(), CreateListingInput{
		CauseID: causeID, Title: "Theirs", PriceCents: 1000, Principal: other,
	})
	require.NoError(t, err)

	list, err := svc.ListForVolunteer(context.Background(), mine.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Mine", list[0].Title)
}
