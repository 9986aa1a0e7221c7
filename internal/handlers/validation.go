package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/investorportal/internal/services"
	appValidator "github.com/charlesng35/investorportal/pkg/validator"
)

const formErrorKey = "form"

// bindForm binds a form or JSON body into dest and runs struct validation.
// It returns per-field messages keyed by form field name; nil means valid.
func bindForm[T any](c *gin.Context, dest *T) map[string]string {
	if err := c.ShouldBind(dest); err != nil {
		return map[string]string{formErrorKey: "the submitted form could not be read"}
	}

	if err := appValidator.ValidateStruct(dest); err != nil {
		var failures appValidator.ValidationErrors
		if errors.As(err, &failures) && len(failures) > 0 {
			return failures.FieldMessages()
		}
		return map[string]string{formErrorKey: "invalid submission"}
	}
	return nil
}

// formErrors extracts field messages from a service error; ok is false when err is not a form rejection.
func formErrors(err error) (map[string]string, bool) {
	var formErr *services.FormError
	if !errors.As(err, &formErr) {
		return nil, false
	}
	if len(formErr.Fields) == 0 {
		return map[string]string{formErrorKey: "invalid submission"}, true
	}
	return formErr.Fields, true
}
