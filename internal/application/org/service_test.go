package org

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

func setupOrgTest(t *testing.T) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.User{}, &domain.Org{}, &domain.Membership{}))
	return &Service{DB: db, Access: &access.Evaluator{DB: db}}, db
}

func superAdmin() *access.Principal {
	return &access.Principal{ID: uuid.New(), GlobalRole: constants.SuperAdmin}
}

func seedAdmin(t *testing.T, db *gorm.DB) *domain.User {
	t.Helper()
	u := &domain.User{Email: "admin@example.test", Fullname: "Org Admin", PasswordHash: "x", GlobalRole: constants.OrgAdmin}
	require.NoError(t, db.Create(u).Error)
	return u
}

func TestCreateOrg_GrantsAdminMembership(t *testing.T) {
	svc, db := setupOrgTest(t)
	admin := seedAdmin(t, db)

	o, err := svc.CreateOrg(context.Background(), CreateOrgInput{
		OrgName: "Helping Hands", AdminID: admin.UserID, Principal: superAdmin(),
	})
	require.NoError(t, err)
	assert.Equal(t, admin.UserID, o.AdminID)

	var m domain.Membership
	require.NoError(t, db.Where("user_id = ? AND org_id = ?", admin.UserID, o.OrgID).First(&m).Error)
	assert.Equal(t, constants.OrgRoleAdmin, m.Role)
}

func TestCreateOrg_SuperAdminOnly(t *testing.T) {
	svc, db := setupOrgTest(t)
	admin := seedAdmin(t, db)

	_, err := svc.CreateOrg(context.Background(), CreateOrgInput{
		OrgName: "Helping Hands",
		AdminID: admin.UserID,
		Principal: &access.Principal{
			ID: admin.UserID, GlobalRole: constants.OrgAdmin,
		},
	})
	assert.ErrorIs(t, err, apperr.ErrNotAuthorized)

	// Holding an org_admin membership somewhere grants nothing here; no
	// membership role maps to the create-org action.
	require.NoError(t, db.Create(&domain.Membership{
		UserID: admin.UserID, OrgID: uuid.New(), Role: constants.OrgRoleAdmin,
	}).Error)
	_, err = svc.CreateOrg(context.Background(), CreateOrgInput{
		OrgName: "Helping Hands",
		AdminID: admin.UserID,
		Principal: &access.Principal{
			ID: admin.UserID, GlobalRole: constants.OrgAdmin,
		},
	})
	assert.ErrorIs(t, err, apperr.ErrNotAuthorized)

	_, err = svc.CreateOrg(context.Background(), CreateOrgInput{
		OrgName: "Helping Hands", AdminID: admin.UserID,
	})
	assert.ErrorIs(t, err, apperr.ErrNotAuthenticated)
}

func TestCreateOrg_DuplicateName(t *testing.T) {
	svc, db := setupOrgTest(t)
	admin := seedAdmin(t, db)

	in := CreateOrgInput{OrgName: "Helping Hands", AdminID: admin.UserID, Principal: superAdmin()}
	_, err := svc.CreateOrg(context.Background(), in)
	require.NoError(t, err)

	_, err = svc.CreateOrg(context.Background(), in)
	assert.ErrorIs(t, err, ErrOrgNameTaken)
}

func TestViewOrg_MemberAndStranger(t *testing.T) {
	svc, db := setupOrgTest(t)
	admin := seedAdmin(t, db)

	o, err := svc.CreateOrg(context.Background(), CreateOrgInput{
		OrgName: "Helping Hands", AdminID: admin.UserID, Principal: superAdmin(),
	})
	require.NoError(t, err)

	_, err = svc.ViewOrg(context.Background(), o.OrgID, &access.Principal{
		ID: admin.UserID, GlobalRole: constants.OrgAdmin,
	})
	assert.NoError(t, err)

	// A non-member gets the same opaque error as a missing org.
	_, err = svc.ViewOrg(context.Background(), o.OrgID, &access.Principal{
		ID: uuid.New(), GlobalRole: constants.Volunteer,
	})
	assert.ErrorIs(t, err, apperr.ErrNotAuthorized)

	_, err = svc.ViewOrg(context.Background(), uuid.New(), superAdmin())
	assert.ErrorIs(t, err, apperr.ErrNotAuthorized)
}

func TestRemoveMember(t *testing.T) {
	svc, db := setupOrgTest(t)
	admin := seedAdmin(t, db)

	o, err := svc.CreateOrg(context.Background(), CreateOrgInput{
		OrgName: "Helping Hands", AdminID: admin.UserID, Principal: superAdmin(),
	})
	require.NoError(t, err)

	volID := uuid.New()
	require.NoError(t, db.Create(&domain.Membership{
		UserID: volID, OrgID: o.OrgID, Role: constants.OrgRoleVolunteer,
	}).Error)

	p := &access.Principal{ID: admin.UserID, GlobalRole: constants.OrgAdmin}

	// Self-removal is blocked.
	err = svc.RemoveMember(context.Background(), o.OrgID, admin.UserID, p)
	assert.ErrorIs(t, err, ErrCannotRemoveSelf)

	require.NoError(t, svc.RemoveMember(context.Background(), o.OrgID, volID, p))

	var count int64
	require.NoError(t, db.Model(&domain.Membership{}).
		Where("user_id = ? AND org_id = ?", volID, o.OrgID).Count(&count).Error)
	assert.Zero(t, count)

	// Removing again reports not found.
	err = svc.RemoveMember(context.Background(), o.OrgID, volID, p)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
