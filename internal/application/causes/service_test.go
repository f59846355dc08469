package causes

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

func setupCausesTest(t *testing.T) (*Service, *gorm.DB, uuid.UUID, *access.Principal) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Membership{}, &domain.Cause{}))

	orgID := uuid.New()
	adminID := uuid.New()
	require.NoError(t, db.Create(&domain.Membership{
		UserID: adminID, OrgID: orgID, Role: constants.OrgRoleAdmin,
	}).Error)
	return &Service{DB: db, Access: &access.Evaluator{DB: db}}, db,
		orgID, &access.Principal{ID: adminID, GlobalRole: constants.OrgAdmin}
}

func TestCreateCause_AdminOnly(t *testing.T) {
	svc, db, orgID, admin := setupCausesTest(t)

	c, err := svc.CreateCause(context.Background(), CreateCauseInput{
		OrgID: orgID, Title: "School Trip", GoalCents: 500000, Principal: admin,
	})
	require.NoError(t, err)
	assert.Equal(t, orgID, c.OrgID)

	volID := uuid.New()
	require.NoError(t, db.Create(&domain.Membership{
		UserID: volID, OrgID: orgID, Role: constants.OrgRoleVolunteer,
	}).Error)
	_, err = svc.CreateCause(context.Background(), CreateCauseInput{
		OrgID: orgID, Title: "Another", GoalCents: 1000,
		Principal: &access.Principal{ID: volID, GlobalRole: constants.Volunteer},
	})
	assert.ErrorIs(t, err, apperr.ErrNotAuthorized)
}

func TestEditCause(t *testing.T) {
	svc, _, orgID, admin := setupCausesTest(t)

	c, err := svc.CreateCause(context.Background(), CreateCauseInput{
		OrgID: orgID, Title: "School Trip", GoalCents: 500000, Principal: admin,
	})
	require.NoError(t, err)

	title := "Spring School Trip"
	goal := int64(750000)
	updated, err := svc.EditCause(context.Background(), EditCauseInput{
		CauseID: c.CauseID, Title: &title, GoalCents: &goal, Principal: admin,
	})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, goal, updated.GoalCents)
}

func TestEditCause_MissingIsOpaque(t *testing.T) {
	svc, _, _, admin := setupCausesTest(t)

	title := "x"
	_, err := svc.EditCause(context.Background(), EditCauseInput{
		CauseID: uuid.New(), Title: &title, Principal: admin,
	})
	assert.ErrorIs(t, err, apperr.ErrNotAuthorized)
}

func TestListForOrg_Public(t *testing.T) {
	svc, _, orgID, admin := setupCausesTest(t)

	_, err := svc.CreateCause(context.Background(), CreateCauseInput{
		OrgID: orgID, Title: "School Trip", GoalCents: 500000, Principal: admin,
	})
	require.NoError(t, err)

	list, err := svc.ListForOrg(context.Background(), orgID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
