package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
)

type testPayload struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Age      int    `json:"age" validate:"gte=18"`
}

type signupForm struct {
	Username  string `form:"username" validate:"required,username"`
	Password1 string `form:"password1" validate:"required,min=8"`
	Password2 string `form:"password2" validate:"required,eqfield=Password1"`
}

func TestValidateStructSuccess(t *testing.T) {
	payload := testPayload{
		Username: "alice",
		Email:    "alice@example.com",
		Age:      20,
	}

	require.NoError(t, ValidateStruct(payload))
}

func TestValidateStructFailures(t *testing.T) {
	payload := testPayload{
		Username: "",
		Email:    "invalid",
		Age:      10,
	}

	err := ValidateStruct(payload)
	require.Error(t, err)

	vErrs, ok := err.(ValidationErrors)
	require.True(t, ok, "expected ValidationErrors, got %T", err)
	require.Len(t, vErrs, 3)

	messages := vErrs.FieldMessages()
	require.Contains(t, messages, "email")
	require.Equal(t, "username is required", messages["username"])
}

func TestFormTagNamesAndPasswordMismatch(t *testing.T) {
	err := ValidateStruct(signupForm{
		Username:  "newuser",
		Password1: "testpassword123",
		Password2: "wrongpassword",
	})
	require.Error(t, err)

	vErrs := err.(ValidationErrors)
	require.Len(t, vErrs, 1)
	require.Equal(t, "password2", vErrs[0].Field)
	require.Equal(t, "the two password fields didn't match", vErrs[0].Message())
}

func TestUsernameRule(t *testing.T) {
	err := ValidateStruct(signupForm{
		Username:  "bad name!",
		Password1: "testpassword123",
		Password2: "testpassword123",
	})
	require.Error(t, err)
	require.Equal(t, "username", err.(ValidationErrors)[0].Field)

	require.NoError(t, ValidateStruct(signupForm{
		Username:  "john.doe+1@example",
		Password1: "testpassword123",
		Password2: "testpassword123",
	}))
}

func TestRegisterValidation(t *testing.T) {
	err := RegisterValidation("portal", func(fl validator.FieldLevel) bool {
		return fl.Field().String() == "portal"
	})
	require.NoError(t, err)

	type custom struct {
		Value string `validate:"portal"`
	}

	require.NoError(t, ValidateStruct(custom{Value: "portal"}))
	require.Error(t, ValidateStruct(custom{Value: "other"}))
}
