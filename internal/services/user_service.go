package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/charlesng35/investorportal/internal/auth/providers"
	"github.com/charlesng35/investorportal/internal/models"
	"github.com/charlesng35/investorportal/pkg/metrics"
	"github.com/charlesng35/investorportal/pkg/validator"
)

// SignupInput mirrors the signup form.
type SignupInput struct {
	Username           string `form:"username" json:"username" validate:"required,max=150,username"`
	Email              string `form:"email" json:"email" validate:"required,email,max=254"`
	PhoneNumber        string `form:"phone_number" json:"phone_number" validate:"omitempty,max=20"`
	CountryOfResidence string `form:"country_of_residence" json:"country_of_residence" validate:"required,max=100"`
	InvestorTypes      []uint `form:"investor_types" json:"investor_types"`
	Password1          string `form:"password1" json:"password1" validate:"required,min=8"`
	Password2          string `form:"password2" json:"password2" validate:"required,eqfield=Password1"`

	IPAddress string `form:"-" json:"-"`
	UserAgent string `form:"-" json:"-"`
}

// UserService manages investor accounts.
type UserService struct {
	db       *gorm.DB
	provider *providers.LocalProvider
	audit    *AuditService
}

// NewUserService constructs a UserService instance.
func NewUserService(db *gorm.DB, provider *providers.LocalProvider, audit *AuditService) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	if provider == nil {
		return nil, errors.New("user service: local provider is required")
	}
	return &UserService{db: db, provider: provider, audit: audit}, nil
}

// Register validates the signup form and creates the account. Rejected
// submissions return a *FormError.
func (s *UserService) Register(ctx context.Context, input SignupInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)

	fields := map[string]string{}
	if err := validator.ValidateStruct(&input); err != nil {
		var failures validator.ValidationErrors
		if !errors.As(err, &failures) {
			return nil, fmt.Errorf("user service: validate signup: %w", err)
		}
		fields = failures.FieldMessages()
	}
	if len(uniqueUints(input.InvestorTypes)) == 0 {
		fields["investor_types"] = "select at least one investor type"
	}

	if _, taken := fields["username"]; !taken && input.Username != "" {
		exists, err := s.exists(ctx, "LOWER(username) = LOWER(?)", input.Username)
		if err != nil {
			return nil, err
		}
		if exists {
			fields["username"] = "a user with that username already exists"
		}
	}
	if _, taken := fields["email"]; !taken && input.Email != "" {
		exists, err := s.exists(ctx, "LOWER(email) = LOWER(?)", input.Email)
		if err != nil {
			return nil, err
		}
		if exists {
			fields["email"] = "a user with that email already exists"
		}
	}

	if len(fields) > 0 {
		metrics.Signups.WithLabelValues("invalid").Inc()
		return nil, &FormError{Fields: fields}
	}

	user, err := s.provider.Register(ctx, providers.RegisterInput{
		Username:           input.Username,
		Email:              input.Email,
		Password:           input.Password1,
		PhoneNumber:        input.PhoneNumber,
		CountryOfResidence: input.CountryOfResidence,
		InvestorTypeIDs:    uniqueUints(input.InvestorTypes),
	})
	switch {
	case errors.Is(err, providers.ErrUnknownInvestorType):
		metrics.Signups.WithLabelValues("invalid").Inc()
		return nil, &FormError{Fields: map[string]string{"investor_types": "select a valid investor type"}}
	case err != nil && isUniqueConstraintError(err):
		metrics.Signups.WithLabelValues("invalid").Inc()
		return nil, &FormError{Fields: map[string]string{"username": "a user with that username or email already exists"}}
	case err != nil:
		return nil, fmt.Errorf("user service: register: %w", err)
	}

	metrics.Signups.WithLabelValues("success").Inc()
	recordAudit(s.audit, ctx, AuditEntry{
		UserID:    uintPtr(user.ID),
		Username:  user.Username,
		Action:    "user.signup",
		Resource:  fmt.Sprintf("user:%d", user.ID),
		Result:    AuditResultSuccess,
		IPAddress: input.IPAddress,
		UserAgent: input.UserAgent,
		Metadata: map[string]any{
			"investor_types": user.InvestorTypeIDs(),
		},
	})

	return user, nil
}

// GetByID loads a user including investor types.
func (s *UserService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).
		Preload("InvestorTypes").
		Take(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user service: get user: %w", err)
	}
	return &user, nil
}

func (s *UserService) exists(ctx context.Context, query string, value string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where(query, value).Count(&count).Error; err != nil {
		return false, fmt.Errorf("user service: check uniqueness: %w", err)
	}
	return count > 0, nil
}
