package services

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/investorportal/internal/database/testutil"
	"github.com/charlesng35/investorportal/internal/models"
)

func newReferralService(t *testing.T, f fixture, mailer *recordingMailer) *ReferralService {
	t.Helper()
	var svc *ReferralService
	var err error
	if mailer != nil {
		svc, err = NewReferralService(f.db, newAuditService(t, f.db), mailer, ReferralConfig{BaseURL: "https://portal.example.com/"})
	} else {
		svc, err = NewReferralService(f.db, newAuditService(t, f.db), nil, ReferralConfig{})
	}
	require.NoError(t, err)
	svc.dispatch = func(fn func()) { fn() }
	return svc
}

func TestReferralCreateSuccessSendsInvitation(t *testing.T) {
	f := newFixture(t)
	mailer := &recordingMailer{}
	svc := newReferralService(t, f, mailer)
	user := testutil.MustCreateUser(t, f.db, "testuser", f.ai)

	id, err := svc.Create(f.ctx, ReferralInput{
		User:        user.ID,
		InviteName:  "John Doe",
		InviteEmail: "johndoe@example.com",
	})
	require.NoError(t, err)
	require.NotZero(t, id)

	var referral models.Referral
	require.NoError(t, f.db.First(&referral, id).Error)
	require.Equal(t, user.ID, referral.UserID)
	require.Equal(t, "John Doe", referral.InviteName)
	require.Equal(t, "johndoe@example.com", referral.InviteEmail)

	sent := mailer.messages()
	require.Len(t, sent, 1)
	require.Equal(t, []string{"johndoe@example.com"}, sent[0].To)
	require.Equal(t, user.Email, sent[0].ReplyTo)
	require.Contains(t, sent[0].Body, "https://portal.example.com/signup")
	require.Contains(t, sent[0].Subject, "testuser")
}

func TestReferralMailFailureDoesNotFailIntake(t *testing.T) {
	f := newFixture(t)
	mailer := &recordingMailer{err: errors.New("smtp down")}
	svc := newReferralService(t, f, mailer)
	user := testutil.MustCreateUser(t, f.db, "testuser", f.ai)

	id, err := svc.Create(f.ctx, ReferralInput{User: user.ID, InviteName: "Jane", InviteEmail: "jane@example.com"})
	require.NoError(t, err)
	require.NotZero(t, id)
	require.Len(t, mailer.messages(), 1)
}

func TestReferralCreateUserDoesNotExist(t *testing.T) {
	f := newFixture(t)
	svc := newReferralService(t, f, nil)

	id, err := svc.Create(f.ctx, ReferralInput{User: 999, InviteName: "John Doe", InviteEmail: "johndoe@example.com"})
	require.ErrorIs(t, err, ErrReferenceNotFound)
	require.Zero(t, id)

	var count int64
	require.NoError(t, f.db.Model(&models.Referral{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestReferralCreateValidatesInvite(t *testing.T) {
	f := newFixture(t)
	svc := newReferralService(t, f, nil)
	user := testutil.MustCreateUser(t, f.db, "testuser", f.ai)

	cases := []struct {
		name  string
		input ReferralInput
		want  error
	}{
		{"missing name", ReferralInput{User: user.ID, InviteEmail: "a@example.com"}, ErrInvalidInvite},
		{"blank name", ReferralInput{User: user.ID, InviteName: "   ", InviteEmail: "a@example.com"}, ErrInvalidInvite},
		{"missing email", ReferralInput{User: user.ID, InviteName: "A"}, ErrInvalidInvite},
		{"malformed email", ReferralInput{User: user.ID, InviteName: "A", InviteEmail: "not-an-email"}, ErrInvalidInvite},
		{"display name address", ReferralInput{User: user.ID, InviteName: "A", InviteEmail: "Jane <jane@example.com>"}, ErrInvalidInvite},
		{"name too long", ReferralInput{User: user.ID, InviteName: strings.Repeat("n", 151), InviteEmail: "a@example.com"}, ErrInvalidInvite},
		{"malformed user", ReferralInput{User: "x", InviteName: "A", InviteEmail: "a@example.com"}, ErrMalformedReference},
		{"boolean user", ReferralInput{User: true, InviteName: "A", InviteEmail: "a@example.com"}, ErrMalformedReference},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(f.ctx, tc.input)
			require.ErrorIs(t, err, tc.want)
		})
	}

	id, err := svc.Create(f.ctx, ReferralInput{User: user.ID, InviteName: " Jane ", InviteEmail: " jane@example.com "})
	require.NoError(t, err)
	var stored models.Referral
	require.NoError(t, f.db.First(&stored, id).Error)
	require.Equal(t, "Jane", stored.InviteName)
	require.Equal(t, "jane@example.com", stored.InviteEmail)
}

func TestReferralListForUser(t *testing.T) {
	f := newFixture(t)
	svc := newReferralService(t, f, nil)
	user := testutil.MustCreateUser(t, f.db, "testuser", f.ai)

	first, err := svc.Create(f.ctx, ReferralInput{User: user.ID, InviteName: "A", InviteEmail: "a@example.com"})
	require.NoError(t, err)
	second, err := svc.Create(f.ctx, ReferralInput{User: user.ID, InviteName: "B", InviteEmail: "b@example.com"})
	require.NoError(t, err)

	referrals, err := svc.ListForUser(f.ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, referrals, 2)
	require.ElementsMatch(t, []uint{first, second}, []uint{referrals[0].ID, referrals[1].ID})
}
