package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/investorportal/internal/models"
	apperrors "github.com/charlesng35/investorportal/pkg/errors"
	"github.com/charlesng35/investorportal/pkg/logger"
	"github.com/charlesng35/investorportal/pkg/metrics"
)

// CreateOfferingInput describes a new offering.
type CreateOfferingInput struct {
	Title           string
	Slug            string
	StartDate       time.Time
	EndDate         time.Time
	MediaURL        string
	IsActive        *bool
	IRR             float64
	MOIC            float64
	Summary         string
	Minimum         int64
	Tags            []string
	InvestorTypeIDs []uint
}

// OfferingService answers which offerings a user may see.
type OfferingService struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewOfferingService constructs an OfferingService.
func NewOfferingService(db *gorm.DB) (*OfferingService, error) {
	if db == nil {
		return nil, errors.New("offering service: db is required")
	}
	return &OfferingService{db: db, log: logger.WithModule("offerings")}, nil
}

// ListVisible returns active offerings sharing at least one investor type with the user,
// newest start date first.
func (s *OfferingService) ListVisible(ctx context.Context, userID uint) ([]models.Offering, error) {
	return s.listMatching(ctx, userID, true, "start_date DESC")
}

// ListPast returns inactive offerings sharing an investor type with the user,
// most recently ended first.
func (s *OfferingService) ListPast(ctx context.Context, userID uint) ([]models.Offering, error) {
	return s.listMatching(ctx, userID, false, "end_date DESC")
}

func (s *OfferingService) listMatching(ctx context.Context, userID uint, active bool, order string) ([]models.Offering, error) {
	ctx = ensureContext(ctx)
	db := s.db.WithContext(ctx)

	typeIDs, err := userInvestorTypeIDs(db, userID)
	if err != nil {
		return nil, err
	}
	offerings := []models.Offering{}
	if len(typeIDs) == 0 {
		return offerings, nil
	}

	eligible := db.Table("offering_investor_types").
		Select("offering_id").
		Where("investor_type_id IN ?", typeIDs)

	err = db.
		Where("is_active = ?", active).
		Where("id IN (?)", eligible).
		Preload("Tags", func(tx *gorm.DB) *gorm.DB { return tx.Order("name") }).
		Preload("InvestorTypes").
		Order(order).
		Order("id DESC").
		Find(&offerings).Error
	if err != nil {
		return nil, fmt.Errorf("offering service: list offerings: %w", err)
	}
	return offerings, nil
}

// GetForUser loads an active offering by slug, enforcing investor type eligibility.
func (s *OfferingService) GetForUser(ctx context.Context, userID uint, slug string) (*models.Offering, error) {
	ctx = ensureContext(ctx)
	db := s.db.WithContext(ctx)

	slug = strings.TrimSpace(slug)
	if slug == "" {
		metrics.OfferingAccess.WithLabelValues("not_found").Inc()
		return nil, ErrOfferingNotFound
	}

	var offering models.Offering
	err := db.
		Preload("Tags", func(tx *gorm.DB) *gorm.DB { return tx.Order("name") }).
		Preload("InvestorTypes").
		Where("slug = ? AND is_active = ?", slug, true).
		Take(&offering).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		metrics.OfferingAccess.WithLabelValues("not_found").Inc()
		return nil, ErrOfferingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("offering service: get offering: %w", err)
	}

	typeIDs, err := userInvestorTypeIDs(db, userID)
	if err != nil {
		return nil, err
	}
	if !offering.EligibleFor(typeIDs) {
		metrics.OfferingAccess.WithLabelValues("deny").Inc()
		s.log.Debug("offering access denied",
			zap.Uint("user_id", userID),
			zap.String("slug", slug),
		)
		return nil, ErrOfferingForbidden
	}

	metrics.OfferingAccess.WithLabelValues("allow").Inc()
	return &offering, nil
}

// Create persists an offering, creating missing tags by name.
func (s *OfferingService) Create(ctx context.Context, input CreateOfferingInput) (*models.Offering, error) {
	ctx = ensureContext(ctx)

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewBadRequest("title is required")
	}
	if !input.EndDate.IsZero() && input.EndDate.Before(input.StartDate) {
		return nil, apperrors.NewBadRequest("end date must not precede start date")
	}

	offering := &models.Offering{
		Title:     title,
		Slug:      strings.TrimSpace(input.Slug),
		StartDate: input.StartDate,
		EndDate:   input.EndDate,
		IsActive:  true,
		IRR:       input.IRR,
		MOIC:      input.MOIC,
		Summary:   strings.TrimSpace(input.Summary),
		Minimum:   input.Minimum,
	}
	if media := strings.TrimSpace(input.MediaURL); media != "" {
		offering.MediaURL = &media
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		typeIDs := uniqueUints(input.InvestorTypeIDs)
		if len(typeIDs) > 0 {
			var types []models.InvestorType
			if err := tx.Where("id IN ?", typeIDs).Find(&types).Error; err != nil {
				return fmt.Errorf("load investor types: %w", err)
			}
			if len(types) != len(typeIDs) {
				return apperrors.NewBadRequest("unknown investor type")
			}
			offering.InvestorTypes = types
			applyInvestorTypeFlags(offering)
		}

		tags, err := ensureTags(tx, input.Tags)
		if err != nil {
			return err
		}
		offering.Tags = tags

		if err := tx.Create(offering).Error; err != nil {
			return err
		}
		if input.IsActive != nil && !*input.IsActive {
			if err := tx.Model(offering).Update("is_active", false).Error; err != nil {
				return err
			}
			offering.IsActive = false
		}
		return nil
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		if isUniqueConstraintError(err) {
			return nil, ErrOfferingExists
		}
		return nil, fmt.Errorf("offering service: create offering: %w", err)
	}

	return offering, nil
}

// ExpireEnded deactivates active offerings whose end date is before now.
func (s *OfferingService) ExpireEnded(ctx context.Context, now time.Time) (int64, error) {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).
		Model(&models.Offering{}).
		Where("is_active = ? AND end_date < ?", true, now.UTC()).
		Update("is_active", false)
	if result.Error != nil {
		return 0, fmt.Errorf("offering service: expire offerings: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		metrics.ExpiredOfferings.Add(float64(result.RowsAffected))
	}
	return result.RowsAffected, nil
}

// ListInvestorTypes returns every investor type ordered by id.
func (s *OfferingService) ListInvestorTypes(ctx context.Context) ([]models.InvestorType, error) {
	ctx = ensureContext(ctx)

	var types []models.InvestorType
	if err := s.db.WithContext(ctx).Order("id").Find(&types).Error; err != nil {
		return nil, fmt.Errorf("offering service: list investor types: %w", err)
	}
	return types, nil
}

func userInvestorTypeIDs(db *gorm.DB, userID uint) ([]uint, error) {
	if userID == 0 {
		return nil, ErrUserNotFound
	}

	var user models.User
	err := db.Preload("InvestorTypes").Select("id").Take(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("offering service: load user investor types: %w", err)
	}
	return user.InvestorTypeIDs(), nil
}

func ensureTags(tx *gorm.DB, names []string) ([]models.OfferingTag, error) {
	names = normaliseNames(names)
	tags := make([]models.OfferingTag, 0, len(names))
	for _, name := range names {
		tag := models.OfferingTag{Name: name}
		if err := tx.Where(models.OfferingTag{Name: name}).FirstOrCreate(&tag).Error; err != nil {
			return nil, fmt.Errorf("ensure tag %q: %w", name, err)
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

func applyInvestorTypeFlags(offering *models.Offering) {
	for _, it := range offering.InvestorTypes {
		switch it.Name {
		case models.InvestorTypeAccredited:
			offering.IsAI = true
		case models.InvestorTypeQC:
			offering.IsQC = true
		case models.InvestorTypeQP:
			offering.IsQP = true
		}
	}
}
