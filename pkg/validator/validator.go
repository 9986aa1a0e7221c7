package validator

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	validate *validator.Validate
)

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
	Param string `json:"param"`
}

// Message renders the failure as a sentence suitable for a form.
func (e ValidationError) Message() string {
	field := strings.ReplaceAll(e.Field, "_", " ")
	switch e.Tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, e.Param)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, e.Param)
	case "eqfield":
		return "the two password fields didn't match"
	case "alphanumunicode", "username":
		return fmt.Sprintf("%s may contain only letters, numbers and @/./+/-/_", field)
	default:
		if e.Param != "" {
			return fmt.Sprintf("%s failed validation: %s=%s", field, e.Tag, e.Param)
		}
		return fmt.Sprintf("%s failed validation: %s", field, e.Tag)
	}
}

// ValidationErrors collects multiple validation failures.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}

	parts := make([]string, len(v))
	for i, err := range v {
		if err.Param != "" {
			parts[i] = err.Field + " failed on " + err.Tag + "=" + err.Param
		} else {
			parts[i] = err.Field + " failed on " + err.Tag
		}
	}
	return strings.Join(parts, "; ")
}

// FieldMessages maps each failing field to its first human readable message.
func (v ValidationErrors) FieldMessages() map[string]string {
	out := make(map[string]string, len(v))
	for _, failure := range v {
		if _, exists := out[failure.Field]; exists {
			continue
		}
		out[failure.Field] = failure.Message()
	}
	return out
}

// ValidateStruct validates a struct using registered rules.
func ValidateStruct(s interface{}) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	if ve, ok := err.(validator.ValidationErrors); ok {
		failures := make(ValidationErrors, 0, len(ve))
		for _, fe := range ve {
			failures = append(failures, ValidationError{
				Field: fe.Field(),
				Tag:   fe.Tag(),
				Param: fe.Param(),
			})
		}
		return failures
	}

	return err
}

// RegisterValidation exposes underlying validator custom rules.
func RegisterValidation(tag string, fn validator.Func) error {
	return getValidator().RegisterValidation(tag, fn)
}

func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(fieldName)
		_ = validate.RegisterValidation("username", validUsername)
	})
	return validate
}

// fieldName prefers the form tag, then the json tag, then the Go field name.
func fieldName(fld reflect.StructField) string {
	for _, key := range []string{"form", "json"} {
		name := fld.Tag.Get(key)
		if comma := strings.Index(name, ","); comma != -1 {
			name = name[:comma]
		}
		if name != "" && name != "-" {
			return name
		}
	}
	return fld.Name
}

// validUsername accepts letters, digits and @/./+/-/_ like most account systems.
func validUsername(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case strings.ContainsRune("@.+-_", r):
		default:
			return false
		}
	}
	return true
}
