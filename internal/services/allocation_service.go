package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/investorportal/internal/models"
	"github.com/charlesng35/investorportal/pkg/logger"
	"github.com/charlesng35/investorportal/pkg/metrics"
)

// AllocationRequestInput is the loosely typed intake payload. User and Offering
// accept numbers or numeric strings; Amount accepts a decimal string or number.
type AllocationRequestInput struct {
	User      any
	Offering  any
	Amount    any
	IPAddress string
	UserAgent string
}

// AllocationService records allocation requests.
type AllocationService struct {
	db    *gorm.DB
	audit *AuditService
	now   func() time.Time
	log   *zap.Logger
}

// NewAllocationService constructs an AllocationService.
func NewAllocationService(db *gorm.DB, audit *AuditService) (*AllocationService, error) {
	if db == nil {
		return nil, errors.New("allocation service: db is required")
	}
	return &AllocationService{
		db:    db,
		audit: audit,
		now:   time.Now,
		log:   logger.WithModule("allocations"),
	}, nil
}

// Create validates the payload and stores an immutable allocation request, returning its id.
func (s *AllocationService) Create(ctx context.Context, input AllocationRequestInput) (uint, error) {
	ctx = ensureContext(ctx)

	id, err := s.create(ctx, input)
	result := "success"
	if err != nil {
		result = intakeResult(err)
	}
	metrics.AllocationRequests.WithLabelValues(result).Inc()
	return id, err
}

func (s *AllocationService) create(ctx context.Context, input AllocationRequestInput) (uint, error) {
	userID, ok := coerceID(input.User)
	if !ok {
		return 0, ErrMalformedReference
	}
	offeringID, ok := coerceID(input.Offering)
	if !ok {
		return 0, ErrMalformedReference
	}
	amount, err := parseAmount(input.Amount)
	if err != nil {
		return 0, err
	}

	record := models.RequestAllocation{
		UserID:      userID,
		OfferingID:  offeringID,
		Amount:      amount,
		RequestDate: s.now().UTC(),
	}

	var username string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Select("id", "username").Take(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrReferenceNotFound.WithMessage("User not found")
			}
			return fmt.Errorf("load user: %w", err)
		}
		username = user.Username

		var offering models.Offering
		if err := tx.Select("id").Take(&offering, "id = ?", offeringID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrReferenceNotFound.WithMessage("Offering not found")
			}
			return fmt.Errorf("load offering: %w", err)
		}

		return tx.Create(&record).Error
	})
	if err != nil {
		if errors.Is(err, ErrReferenceNotFound) {
			return 0, err
		}
		return 0, fmt.Errorf("allocation service: create request: %w", err)
	}

	s.log.Info("allocation requested",
		zap.Uint("id", record.ID),
		zap.Uint("user_id", userID),
		zap.Uint("offering_id", offeringID),
		zap.String("amount", amount.StringFixed(2)),
	)
	recordAudit(s.audit, ctx, AuditEntry{
		UserID:    uintPtr(userID),
		Username:  username,
		Action:    "allocation.request",
		Resource:  fmt.Sprintf("offering:%d", offeringID),
		Result:    AuditResultSuccess,
		IPAddress: input.IPAddress,
		UserAgent: input.UserAgent,
		Metadata: map[string]any{
			"request_id": record.ID,
			"amount":     amount.StringFixed(2),
		},
	})

	return record.ID, nil
}

// ListForUser returns the user's allocation requests newest first, offering preloaded.
func (s *AllocationService) ListForUser(ctx context.Context, userID uint) ([]models.RequestAllocation, error) {
	ctx = ensureContext(ctx)

	records := []models.RequestAllocation{}
	err := s.db.WithContext(ctx).
		Preload("Offering").
		Where("user_id = ?", userID).
		Order("request_date DESC").
		Order("id DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("allocation service: list requests: %w", err)
	}
	return records, nil
}

// maxAmount is the first value that overflows the decimal(15,2) amount column.
var maxAmount = decimal.New(1, 13)

// parseAmount accepts "5000.00", 5000 or 5000.5, rounded to cents, and rejects
// anything non-positive or too large for the amount column.
func parseAmount(value any) (decimal.Decimal, error) {
	var (
		amount decimal.Decimal
		err    error
	)
	switch v := value.(type) {
	case nil:
		return decimal.Zero, ErrMalformedAmount
	case decimal.Decimal:
		amount = v
	case string:
		amount, err = decimal.NewFromString(strings.TrimSpace(v))
	case float64:
		amount = decimal.NewFromFloat(v)
	case float32:
		amount = decimal.NewFromFloat32(v)
	default:
		var s string
		s, err = cast.ToStringE(v)
		if err == nil {
			amount, err = decimal.NewFromString(s)
		}
	}
	if err != nil {
		return decimal.Zero, ErrMalformedAmount
	}
	// checked after rounding so sub-cent inputs cannot store 0.00
	amount = amount.Round(2)
	if !amount.IsPositive() || amount.GreaterThanOrEqual(maxAmount) {
		return decimal.Zero, ErrMalformedAmount
	}
	return amount, nil
}

func intakeResult(err error) string {
	switch {
	case errors.Is(err, ErrReferenceNotFound):
		return "not_found"
	case errors.Is(err, ErrMalformedAmount), errors.Is(err, ErrMalformedReference), errors.Is(err, ErrInvalidInvite):
		return "invalid"
	default:
		return "error"
	}
}
