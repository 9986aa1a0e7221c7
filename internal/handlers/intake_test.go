package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	dbtestutil "github.com/charlesng35/investorportal/internal/database/testutil"
	"github.com/charlesng35/investorportal/internal/handlers/testutil"
	"github.com/charlesng35/investorportal/internal/models"
)

func TestCreateRequestAllocation(t *testing.T) {
	env := testutil.NewEnv(t)
	ai := dbtestutil.MustInvestorType(t, env.DB, models.InvestorTypeAccredited)
	user := env.CreateUser("alice", "Sup3r-Secret!", models.InvestorTypeAccredited)
	offering := dbtestutil.MustCreateOffering(t, env.DB, "Test Offering", []models.InvestorType{ai})

	w := env.PostJSON("/create-request-allocation", map[string]any{
		"user":     user.ID,
		"offering": offering.ID,
		"amount":   "5000.00",
	})
	require.Equal(t, http.StatusOK, w.Code)
	resp := testutil.DecodeIntake(t, w)
	require.Equal(t, "success", resp.Status, resp.Message)
	require.NotZero(t, resp.Data.ID)

	var stored models.RequestAllocation
	require.NoError(t, env.DB.First(&stored, resp.Data.ID).Error)
	require.Equal(t, user.ID, stored.UserID)
	require.Equal(t, offering.ID, stored.OfferingID)
	require.Equal(t, "5000.00", stored.Amount.StringFixed(2))
	require.False(t, stored.RequestDate.IsZero())
}

func TestCreateRequestAllocationAcceptsStringIDs(t *testing.T) {
	env := testutil.NewEnv(t)
	ai := dbtestutil.MustInvestorType(t, env.DB, models.InvestorTypeAccredited)
	user := env.CreateUser("alice", "Sup3r-Secret!", models.InvestorTypeAccredited)
	offering := dbtestutil.MustCreateOffering(t, env.DB, "Test Offering", []models.InvestorType{ai})

	w := env.PostJSON("/create-request-allocation", map[string]any{
		"user":     jsonID(user.ID),
		"offering": jsonID(offering.ID),
		"amount":   1250.5,
	})
	resp := testutil.DecodeIntake(t, w)
	require.Equal(t, "success", resp.Status, resp.Message)
}

func TestCreateRequestAllocationRejectsBadInput(t *testing.T) {
	env := testutil.NewEnv(t)
	ai := dbtestutil.MustInvestorType(t, env.DB, models.InvestorTypeAccredited)
	user := env.CreateUser("alice", "Sup3r-Secret!", models.InvestorTypeAccredited)
	offering := dbtestutil.MustCreateOffering(t, env.DB, "Test Offering", []models.InvestorType{ai})

	cases := []struct {
		name    string
		body    any
		message string
	}{
		{
			name:    "missing offering",
			body:    map[string]any{"user": user.ID, "offering": 9999, "amount": "5000.00"},
			message: "Offering not found",
		},
		{
			name:    "missing user",
			body:    map[string]any{"user": 9999, "offering": offering.ID, "amount": "5000.00"},
			message: "User not found",
		},
		{
			name:    "malformed amount",
			body:    map[string]any{"user": user.ID, "offering": offering.ID, "amount": "lots"},
			message: "Amount must be a positive number",
		},
		{
			name:    "negative amount",
			body:    map[string]any{"user": user.ID, "offering": offering.ID, "amount": "-10"},
			message: "Amount must be a positive number",
		},
		{
			name:    "malformed id",
			body:    map[string]any{"user": "abc", "offering": offering.ID, "amount": "10"},
			message: "Identifiers must be positive integers",
		},
		{
			name:    "boolean user",
			body:    map[string]any{"user": true, "offering": offering.ID, "amount": "10"},
			message: "Identifiers must be positive integers",
		},
		{
			name:    "sub-cent amount",
			body:    map[string]any{"user": user.ID, "offering": offering.ID, "amount": "0.001"},
			message: "Amount must be a positive number",
		},
		{
			name:    "invalid json",
			body:    `{"user": 1, "offering":`,
			message: "Invalid JSON payload",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := env.PostJSON("/create-request-allocation", tc.body)
			require.Equal(t, http.StatusOK, w.Code)
			resp := testutil.DecodeIntake(t, w)
			require.Equal(t, "error", resp.Status)
			require.Equal(t, tc.message, resp.Message)
		})
	}

	var count int64
	require.NoError(t, env.DB.Model(&models.RequestAllocation{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestCreateRequestAllocationRequiresCSRF(t *testing.T) {
	env := testutil.NewEnv(t)

	req := httptestPostForm("/create-request-allocation", nil)
	req.Header.Set("Content-Type", "application/json")
	w := serve(env, req)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreateReferral(t *testing.T) {
	env := testutil.NewEnv(t)
	user := env.CreateUser("alice", "Sup3r-Secret!", models.InvestorTypeAccredited)

	w := env.PostJSON("/create-referral", map[string]any{
		"user":         user.ID,
		"invite_name":  "Bob Investor",
		"invite_email": "bob@example.com",
	})
	require.Equal(t, http.StatusOK, w.Code)
	resp := testutil.DecodeIntake(t, w)
	require.Equal(t, "success", resp.Status, resp.Message)

	var referral models.Referral
	require.NoError(t, env.DB.First(&referral, resp.Data.ID).Error)
	require.Equal(t, user.ID, referral.UserID)
	require.Equal(t, "Bob Investor", referral.InviteName)
	require.Equal(t, "bob@example.com", referral.InviteEmail)
}

func TestCreateReferralRejectsBadInput(t *testing.T) {
	env := testutil.NewEnv(t)
	user := env.CreateUser("alice", "Sup3r-Secret!", models.InvestorTypeAccredited)

	cases := []struct {
		name    string
		body    any
		message string
	}{
		{
			name:    "unknown user",
			body:    map[string]any{"user": 999, "invite_name": "Bob", "invite_email": "bob@example.com"},
			message: "User not found",
		},
		{
			name:    "bad email",
			body:    map[string]any{"user": user.ID, "invite_name": "Bob", "invite_email": "bob"},
			message: "Invite name and a valid invite email are required",
		},
		{
			name:    "missing name",
			body:    map[string]any{"user": user.ID, "invite_email": "bob@example.com"},
			message: "Invite name and a valid invite email are required",
		},
		{
			name:    "invalid json",
			body:    "not json",
			message: "Invalid JSON payload",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := env.PostJSON("/create-referral", tc.body)
			require.Equal(t, http.StatusOK, w.Code)
			resp := testutil.DecodeIntake(t, w)
			require.Equal(t, "error", resp.Status)
			require.Equal(t, tc.message, resp.Message)
		})
	}

	var count int64
	require.NoError(t, env.DB.Model(&models.Referral{}).Count(&count).Error)
	require.Zero(t, count)
}
