package invitations

import (
	"context"
	"errors"
	"testing"
	"time"

	"causeway-backend/internal/application/access"
	"causeway-backend/internal/domain"
	"causeway-backend/internal/infrastructure/database"
	"causeway-backend/internal/pkg/apperr"
	"causeway-backend/internal/pkg/constants"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeSender struct {
	sent []string
	fail bool
}

func (f *fakeSender) SendInvite(ctx context.Context, toEmail, inviteLink, orgName, subject string) error {
	if f.fail {
		return errors.New("brevo unavailable")
	}
	f.sent = append(f.sent, toEmail)
	return nil
}

func (f *fakeSender) SendWelcome(ctx context.Context, toEmail, firstName string) error {
	return nil
}

func setupInvitationsTest(t *testing.T) (*Service, *gorm.DB, *fakeSender) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.User{}, &domain.Org{}, &domain.Membership{}, &domain.Invitation{},
	))
	sender := &fakeSender{}
	svc := &Service{
		DB:            db,
		Access:        &access.Evaluator{DB: db},
		EmailSender:   sender,
		InviteBaseURL: "https://app.example.test",
	}
	return svc, db, sender
}

func seedOrgAdmin(t *testing.T, db *gorm.DB) (uuid.UUID, *access.Principal) {
	t.Helper()
	admin := domain.User{Email: "admin@org.test", Fullname: "Org Admin", PasswordHash: "x", GlobalRole: constants.OrgAdmin}
	require.NoError(t, db.Create(&admin).Error)
	org := domain.Org{OrgName: "Helping Hands " + uuid.NewString()[:8], AdminID: admin.UserID}
	require.NoError(t, db.Create(&org).Error)
	require.NoError(t, db.Create(&domain.Membership{
		UserID: admin.UserID, OrgID: org.OrgID, Role: constants.OrgRoleAdmin,
	}).Error)
	return org.OrgID, &access.Principal{ID: admin.UserID, Email: admin.Email, GlobalRole: admin.GlobalRole}
}

func TestIssue_CreatesPendingInvitation(t *testing.T) {
	svc, db, sender := setupInvitationsTest(t)
	orgID, admin := seedOrgAdmin(t, db)

	result, err := svc.Issue(context.Background(), IssueInput{
		OrgID: orgID, Email: "Vol@Example.Test", Principal: admin,
	})
	require.NoError(t, err)
	assert.True(t, result.EmailSent)
	assert.Equal(t, []string{"vol@example.test"}, sender.sent)

	inv := result.Invitation
	assert.Equal(t, domain.InviteStatusPending, inv.Status)
	assert.Equal(t, "vol@example.test", inv.Email)
	assert.Len(t, inv.Token, 64)
	assert.Equal(t, admin.ID, inv.InvitedBy)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), inv.ExpiresAt, time.Minute)
}

func TestIssue_DeniedForVolunteerMember(t *testing.T) {
	svc, db, _ := setupInvitationsTest(t)
	orgID, _ := seedOrgAdmin(t, db)

	volID := uuid.New()
	require.NoError(t, db.Create(&domain.Membership{
		UserID: volID, OrgID: orgID, Role: constants.OrgRoleVolunteer,
	}).Error)

	_, err := svc.Issue(context.Background(), IssueInput{
		OrgID:     orgID,
		Email:     "someone@example.test",
		Principal: &access.Principal{ID: volID, GlobalRole: constants.Volunteer},
	})
	assert.ErrorIs(t, err, apperr.ErrNotAuthorized)
}

func TestIssue_SelfInviteRejected(t *testing.T) {
	svc, db, _ := setupInvitationsTest(t)
	orgID, admin := seedOrgAdmin(t, db)

	_, err := svc.Issue(context.Background(), IssueInput{
		OrgID: orgID, Email: admin.Email, Principal: admin,
	})
	assert.ErrorIs(t, err, ErrCannotInviteSelf)
}

func TestIssue_ExistingMemberRejected(t *testing.T) {
	svc, db, _ := setupInvitationsTest(t)
	orgID, admin := seedOrgAdmin(t, db)

	existing := domain.User{Email: "vol@org.test", Fullname: "Existing Vol", PasswordHash: "x", GlobalRole: constants.Volunteer}
	require.NoError(t, db.Create(&existing).Error)
	require.NoError(t, db.Create(&domain.Membership{
		UserID: existing.UserID, OrgID: orgID, Role: constants.OrgRoleVolunteer,
	}).Error)

	_, err := svc.Issue(context.Background(), IssueInput{
		OrgID: orgID, Email: "vol@org.test", Principal: admin,
	})
	assert.ErrorIs(t, err, ErrAlreadyMember)
}

func TestIssue_SupersedesPriorPending(t *testing.T) {
	svc, db, _ := setupInvitationsTest(t)
	orgID, admin := seedOrgAdmin(t, db)

	first, err := svc.Issue(context.Background(), IssueInput{
		OrgID: orgID, Email: "vol@example.test", Principal: admin,
	})
	require.NoError(t, err)
	second, err := svc.Issue(context.Background(), IssueInput{
		OrgID: orgID, Email: "vol@example.test", Principal: admin,
	})
	require.NoError(t, err)

	var reloaded domain.Invitation
	require.NoError(t, db.Where("invite_id = ?", first.Invitation.InviteID).First(&reloaded).Error)
	assert.Equal(t, domain.InviteStatusRevoked, reloaded.Status)

	// The superseded token no longer redeems.
	_, err = svc.Redeem(context.Background(), RedeemInput{
		Token: first.Invitation.Token, Password: "Volpass1!", Fullname: "New Vol",
	})
	assert.ErrorIs(t, err, apperr.ErrExpired)

	_, err = svc.Redeem(context.Background(), RedeemInput{
		Token: second.Invitation.Token, Password: "Volpass1!", Fullname: "New Vol",
	})
	assert.NoError(t, err)
}

func TestIssue_EmailFailureIsDegradedSuccess(t *testing.T) {
	svc, db, sender := setupInvitationsTest(t)
	orgID, admin := seedOrgAdmin(t, db)
	sender.fail = true

	result, err := svc.Issue(context.Background(), IssueInput{
		OrgID: orgID, Email: "vol@example.test", Principal: admin,
	})
	require.NoError(t, err)
	assert.False(t, result.EmailSent)

	// The invitation is durable and redeemable regardless.
	_, err = svc.Redeem(context.Background(), RedeemInput{
		Token: result.Invitation.Token, Password: "Volpass1!", Fullname: "New Vol",
	})
	assert.NoError(t, err)
}

func TestResolve_LazyExpiry(t *testing.T) {
	svc, db, _ := setupInvitationsTest(t)
	orgID, admin := seedOrgAdmin(t, db)

	result, err := svc.Issue(context.Background(), IssueInput{
		OrgID: orgID, Email: "vol@example.test", Principal: admin, TTL: 24 * time.Hour,
	})
	require.NoError(t, err)

	inv, err := svc.Resolve(context.Background(), result.Invitation.Token)
	require.NoError(t, err)
	assert.Equal(t, domain.InviteStatusPending, inv.Status)

	// Push the deadline into the past; no sweeper runs, the read decides.
	require.NoError(t, db.Model(&domain.Invitation{}).
		Where("invite_id = ?", result.Invitation.InviteID).
		Update("expires_at", time.Now().Add(-time.Hour)).Error)

	inv, err = svc.Resolve(context.Background(), result.Invitation.Token)
	require.NoError(t, err)
	assert.Equal(t, domain.InviteStatusExpired, inv.Status)

	// Stored status is untouched.
	var stored domain.Invitation
	require.NoError(t, db.Where("invite_id = ?", result.Invitation.InviteID).First(&stored).Error)
	assert.Equal(t, domain.InviteStatusPending, stored.Status)
}

func TestResolve_UnknownToken(t *testing.T) {
	svc, _, _ := setupInvitationsTest(t)
	_, err := svc.Resolve(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRedeem_CreatesUserAndMembership(t *testing.T) {
	svc, db, _ := setupInvitationsTest(t)
	orgID, admin := seedOrgAdmin(t, db)

	result, err := svc.Issue(context.Background(), IssueInput{
		OrgID: orgID, Email: "vol@example.test", Principal: admin,
	})
	require.NoError(t, err)

	u, err := svc.Redeem(context.Background(), RedeemInput{
		Token: result.Invitation.Token, Password: "Volpass1!", Fullname: "New Vol",
	})
	require.NoError(t, err)
	assert.Equal(t, "vol@example.test", u.Email)
	assert.Equal(t, constants.Volunteer, u.GlobalRole)

	var m domain.Membership
	require.NoError(t, db.Where("user_id = ? AND org_id = ?", u.UserID, orgID).First(&m).Error)
	assert.Equal(t, constants.OrgRoleVolunteer, m.Role)

	var stored domain.Invitation
	require.NoError(t, db.Where("invite_id = ?", result.Invitation.InviteID).First(&stored).Error)
	assert.Equal(t, domain.InviteStatusAccepted, stored.Status)
}

func TestRedeem_SecondAttemptLoses(t *testing.T) {
	svc, db, _ := setupInvitationsTest(t)
	orgID, admin := seedOrgAdmin(t, db)

	result, err := svc.Issue(context.Background(), IssueInput{
		OrgID: orgID, Email: "vol@example.test", Principal: admin,
	})
	require.NoError(t, err)

	_, err = svc.Redeem(context.Background(), RedeemInput{
		Token: result.Invitation.Token, Password: "Volpass1!", Fullname: "New Vol",
	})
	require.NoError(t, err)

	_, err = svc.Redeem(context.Background(), RedeemInput{
		Token: result.Invitation.Token, Password: "Volpass1!", Fullname: "New Vol",
	})
	assert.ErrorIs(t, err, apperr.ErrAlreadyRedeemed)

	// Exactly one membership row.
	var count int64
	require.NoError(t, db.Model(&domain.Membership{}).
		Where("org_id = ? AND role = ?", orgID, constants.OrgRoleVolunteer).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRedeem_ExpiredToken(t *testing.T) {
	svc, db, _ := setupInvitationsTest(t)
	orgID, admin := seedOrgAdmin(t, db)

	result, err := svc.Issue(context.Background(), IssueInput{
		OrgID: orgID, Email: "vol@example.test", Principal: admin,
	})
	require.NoError(t, err)

	require.NoError(t, db.Model(&domain.Invitation{}).
		Where("invite_id = ?", result.Invitation.InviteID).
		Update("expires_at", time.Now().Add(-time.Minute)).Error)

	_, err = svc.Redeem(context.Background(), RedeemInput{
		Token: result.Invitation.Token, Password: "Volpass1!", Fullname: "New Vol",
	})
	assert.ErrorIs(t, err, apperr.ErrExpired)
}

func TestRedeem_ExistingUserKeepsPassword(t *testing.T) {
	svc, db, _ := setupInvitationsTest(t)
	orgID, admin := seedOrgAdmin(t, db)

	existing := domain.User{Email: "vol@example.test", Fullname: "Existing Vol", PasswordHash: "keep-me", GlobalRole: constants.Volunteer}
	require.NoError(t, db.Create(&existing).Error)

	result, err := svc.Issue(context.Background(), IssueInput{
		OrgID: orgID, Email: "vol@example.test", Principal: admin,
	})
	require.NoError(t, err)

	u, err := svc.Redeem(context.Background(), RedeemInput{
		Token: result.Invitation.Token, Password: "Different1!", Fullname: "Someone Else",
	})
	require.NoError(t, err)
	assert.Equal(t, existing.UserID, u.UserID)

	var reloaded domain.User
	require.NoError(t, db.Where("user_id = ?", existing.UserID).First(&reloaded).Error)
	assert.Equal(t, "keep-me", reloaded.PasswordHash)
	assert.Equal(t, "Existing Vol", reloaded.Fullname)
}

func TestRedeem_WeakPasswordRejectedAndNothingPersists(t *testing.T) {
	svc, db, _ := setupInvitationsTest(t)
	orgID, admin := seedOrgAdmin(t, db)

	result, err := svc.Issue(context.Background(), IssueInput{
		OrgID: orgID, Email: "vol@example.test", Principal: admin,
	})
	require.NoError(t, err)

	_, err = svc.Redeem(context.Background(), RedeemInput{
		Token: result.Invitation.Token, Password: "weak", Fullname: "New Vol",
	})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	// The transaction rolled back: invitation still pending, no user row.
	var stored domain.Invitation
	require.NoError(t, db.Where("invite_id = ?", result.Invitation.InviteID).First(&stored).Error)
	assert.Equal(t, domain.InviteStatusPending, stored.Status)

	var users int64
	require.NoError(t, db.Model(&domain.User{}).Where("email = ?", "vol@example.test").Count(&users).Error)
	assert.Zero(t, users)
}

func TestRevoke_ByAdminAndByInviter(t *testing.T) {
	svc, db, _ := setupInvitationsTest(t)
	orgID, admin := seedOrgAdmin(t, db)

	result, err := svc.Issue(context.Background(), IssueInput{
		OrgID: orgID, Email: "vol@example.test", Principal: admin,
	})
	require.NoError(t, err)

	inv, err := svc.Revoke(context.Background(), RevokeInput{
		InviteID: result.Invitation.InviteID, Principal: admin,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.InviteStatusRevoked, inv.Status)

	// Revoked tokens do not redeem.
	_, err = svc.Redeem(context.Background(), RedeemInput{
		Token: result.Invitation.Token, Password: "Volpass1!", Fullname: "New Vol",
	})
	assert.ErrorIs(t, err, apperr.ErrExpired)

	// Revoking again conflicts.
	_, err = svc.Revoke(context.Background(), RevokeInput{
		InviteID: result.Invitation.InviteID, Principal: admin,
	})
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestRevoke_StrangerGetsOpaqueDenial(t *testing.T) {
	svc, db, _ := setupInvitationsTest(t)
	orgID, admin := seedOrgAdmin(t, db)

	result, err := svc.Issue(context.Background(), IssueInput{
		OrgID: orgID, Email: "vol@example.test", Principal: admin,
	})
	require.NoError(t, err)

	_, err = svc.Revoke(context.Background(), RevokeInput{
		InviteID:  result.Invitation.InviteID,
		Principal: &access.Principal{ID: uuid.New(), GlobalRole: constants.Volunteer},
	})
	assert.ErrorIs(t, err, apperr.ErrNotAuthorized)
}

func TestResend_RefreshesTokenAfterCooldown(t *testing.T) {
	svc, db, sender := setupInvitationsTest(t)
	orgID, admin := seedOrgAdmin(t, db)

	result, err := svc.Issue(context.Background(), IssueInput{
		OrgID: orgID, Email: "vol@example.test", Principal: admin,
	})
	require.NoError(t, err)

	// Too soon.
	_, err = svc.Resend(context.Background(), ResendInput{
		OrgID: orgID, Email: "vol@example.test", Principal: admin,
	})
	assert.ErrorIs(t, err, ErrResendCooldown)

	// Age the row past the cooldown.
	require.NoError(t, db.Model(&domain.Invitation{}).
		Where("invite_id = ?", result.Invitation.InviteID).
		Update("updated_at", time.Now().Add(-25*time.Hour)).Error)

	resent, err := svc.Resend(context.Background(), ResendInput{
		OrgID: orgID, Email: "vol@example.test", Principal: admin,
	})
	require.NoError(t, err)
	assert.NotEqual(t, result.Invitation.Token, resent.Invitation.Token)
	assert.Len(t, sender.sent, 2)
}

func TestListForOrg_EffectiveStatusesAndFilter(t *testing.T) {
	svc, db, _ := setupInvitationsTest(t)
	orgID, admin := seedOrgAdmin(t, db)

	fresh, err := svc.Issue(context.Background(), IssueInput{
		OrgID: orgID, Email: "fresh@example.test", Principal: admin,
	})
	require.NoError(t, err)
	stale, err := svc.Issue(context.Background(), IssueInput{
		OrgID: orgID, Email: "stale@example.test", Principal: admin,
	})
	require.NoError(t, err)
	require.NoError(t, db.Model(&domain.Invitation{}).
		Where("invite_id = ?", stale.Invitation.InviteID).
		Update("expires_at", time.Now().Add(-time.Hour)).Error)

	all, err := svc.ListForOrg(context.Background(), ListInput{OrgID: orgID, Principal: admin})
	require.NoError(t, err)
	require.Len(t, all, 2)

	statuses := map[string]string{}
	for _, inv := range all {
		statuses[inv.Email] = inv.Status
	}
	assert.Equal(t, domain.InviteStatusPending, statuses["fresh@example.test"])
	assert.Equal(t, domain.InviteStatusExpired, statuses["stale@example.test"])

	pending, err := svc.ListForOrg(context.Background(), ListInput{
		OrgID: orgID, Status: domain.InviteStatusPending, Principal: admin,
	})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, fresh.Invitation.InviteID, pending[0].InviteID)
}

// The migration installs a partial unique index on pending (org, email),
// so two concurrent issuers racing past the supersession update cannot
// both commit a pending row.
func TestIssue_PendingUniquePerOrgEmail(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	svc := &Service{DB: db, Access: &access.Evaluator{DB: db}}
	orgID, admin := seedOrgAdmin(t, db)

	_, err = svc.Issue(context.Background(), IssueInput{
		OrgID: orgID, Email: "vol@example.test", Principal: admin,
	})
	require.NoError(t, err)

	// Sequential reissue still supersedes cleanly under the index.
	_, err = svc.Issue(context.Background(), IssueInput{
		OrgID: orgID, Email: "vol@example.test", Principal: admin,
	})
	require.NoError(t, err)

	var pending int64
	require.NoError(t, db.Model(&domain.Invitation{}).
		Where("org_id = ? AND email = ? AND status = ?", orgID, "vol@example.test", domain.InviteStatusPending).
		Count(&pending).Error)
	assert.EqualValues(t, 1, pending)

	// A second pending row for the pair cannot be committed.
	err = db.Create(&domain.Invitation{
		OrgID: orgID, Email: "vol@example.test", Token: randomHex(32),
		Status: domain.InviteStatusPending, InvitedBy: admin.ID,
		ExpiresAt: time.Now().Add(time.Hour),
	}).Error
	require.Error(t, err)
	assert.True(t, isUniqueViolation(err))

	// Superseded history is unconstrained.
	require.NoError(t, db.Create(&domain.Invitation{
		OrgID: orgID, Email: "vol@example.test", Token: randomHex(32),
		Status: domain.InviteStatusRevoked, InvitedBy: admin.ID,
		ExpiresAt: time.Now().Add(time.Hour),
	}).Error)
}
