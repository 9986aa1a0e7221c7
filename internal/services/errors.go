package services

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	apperrors "github.com/charlesng35/investorportal/pkg/errors"
)

var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = apperrors.New("USER_NOT_FOUND", "User not found", http.StatusNotFound)
	// ErrOfferingNotFound indicates the offering does not exist or is no longer active.
	ErrOfferingNotFound = apperrors.New("OFFERING_NOT_FOUND", "Offering not found", http.StatusNotFound)
	// ErrOfferingExists indicates another offering already uses the slug.
	ErrOfferingExists = apperrors.New("OFFERING_EXISTS", "An offering with this slug already exists", http.StatusConflict)
	// ErrOfferingForbidden indicates the user's investor types do not qualify for the offering.
	ErrOfferingForbidden = apperrors.New("OFFERING_FORBIDDEN", "Offering is not available for your investor type", http.StatusForbidden)

	// ErrReferenceNotFound is the intake error for a payload naming a missing user or offering.
	ErrReferenceNotFound = apperrors.New("REFERENCE_NOT_FOUND", "User or offering not found", http.StatusNotFound)
	// ErrMalformedAmount is the intake error for a non-numeric or non-positive amount.
	ErrMalformedAmount = apperrors.New("MALFORMED_AMOUNT", "Amount must be a positive number", http.StatusBadRequest)
	// ErrMalformedReference is the intake error for an id that is not a positive integer.
	ErrMalformedReference = apperrors.New("MALFORMED_REFERENCE", "Identifiers must be positive integers", http.StatusBadRequest)
	// ErrInvalidInvite is the intake error for a referral missing the invitee name or a valid email.
	ErrInvalidInvite = apperrors.New("INVALID_INVITE", "Invite name and a valid invite email are required", http.StatusBadRequest)
)

// FormError carries per-field messages for a rejected form submission.
type FormError struct {
	Fields map[string]string
}

func (e *FormError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "form: invalid submission"
	}
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return "form: " + strings.Join(parts, "; ")
}

// isUniqueConstraintError detects database uniqueness constraint violations across vendors.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr != nil && pgErr.Code == "23505" {
		return true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr != nil && myErr.Number == 1062 {
		return true
	}

	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "unique") ||
		strings.Contains(lower, "duplicate")
}
