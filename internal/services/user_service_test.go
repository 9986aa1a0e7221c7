package services

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/investorportal/internal/models"
	"github.com/charlesng35/investorportal/pkg/crypto"
)

func validSignup(f fixture) SignupInput {
	return SignupInput{
		Username:           "newuser",
		Email:              "newuser@example.com",
		PhoneNumber:        "1234567890",
		CountryOfResidence: "USA",
		InvestorTypes:      []uint{f.ai.ID},
		Password1:          "complexpassword123",
		Password2:          "complexpassword123",
	}
}

func TestRegisterCreatesUser(t *testing.T) {
	f := newFixture(t)
	svc := newUserService(t, f.db)

	user, err := svc.Register(f.ctx, validSignup(f))
	require.NoError(t, err)
	require.NotZero(t, user.ID)

	loaded, err := svc.GetByID(f.ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, "newuser", loaded.Username)
	require.Equal(t, []uint{f.ai.ID}, loaded.InvestorTypeIDs())
	require.True(t, crypto.VerifyPassword(loaded.Password, "complexpassword123"))
}

func TestRegisterRejectsInvalidForms(t *testing.T) {
	f := newFixture(t)
	svc := newUserService(t, f.db)

	cases := []struct {
		name   string
		mutate func(*SignupInput)
		field  string
	}{
		{"password mismatch", func(in *SignupInput) { in.Password2 = "differentpassword" }, "password2"},
		{"short password", func(in *SignupInput) { in.Password1, in.Password2 = "short", "short" }, "password1"},
		{"bad email", func(in *SignupInput) { in.Email = "nope" }, "email"},
		{"missing username", func(in *SignupInput) { in.Username = "  " }, "username"},
		{"bad username", func(in *SignupInput) { in.Username = "has space" }, "username"},
		{"missing country", func(in *SignupInput) { in.CountryOfResidence = "" }, "country_of_residence"},
		{"no investor types", func(in *SignupInput) { in.InvestorTypes = nil }, "investor_types"},
		{"unknown investor type", func(in *SignupInput) { in.InvestorTypes = []uint{999} }, "investor_types"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validSignup(f)
			tc.mutate(&input)

			_, err := svc.Register(f.ctx, input)
			var formErr *FormError
			require.ErrorAs(t, err, &formErr)
			require.Contains(t, formErr.Fields, tc.field)
		})
	}

	var count int64
	require.NoError(t, f.db.Model(&models.User{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	f := newFixture(t)
	svc := newUserService(t, f.db)

	_, err := svc.Register(f.ctx, validSignup(f))
	require.NoError(t, err)

	dupUsername := validSignup(f)
	dupUsername.Username = "NewUser"
	dupUsername.Email = "other@example.com"
	_, err = svc.Register(f.ctx, dupUsername)
	var formErr *FormError
	require.ErrorAs(t, err, &formErr)
	require.Contains(t, formErr.Fields, "username")

	dupEmail := validSignup(f)
	dupEmail.Username = "someoneelse"
	dupEmail.Email = "NEWUSER@example.com"
	_, err = svc.Register(f.ctx, dupEmail)
	require.ErrorAs(t, err, &formErr)
	require.Contains(t, formErr.Fields, "email")
}

func TestGetByIDNotFound(t *testing.T) {
	f := newFixture(t)
	svc := newUserService(t, f.db)

	_, err := svc.GetByID(f.ctx, 42)
	require.ErrorIs(t, err, ErrUserNotFound)
}
