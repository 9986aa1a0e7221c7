package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/investorportal/pkg/slug"
)

// Offering is an investment opportunity shown to eligible investors.
type Offering struct {
	BaseModel

	Title     string    `gorm:"size:255;not null" json:"title"`
	Slug      string    `gorm:"uniqueIndex;size:255;not null" json:"slug"`
	StartDate time.Time `gorm:"index" json:"start_date"`
	EndDate   time.Time `gorm:"index" json:"end_date"`
	MediaURL  *string   `gorm:"size:500" json:"media_url"`
	IsActive  bool      `gorm:"default:true;index" json:"is_active"`

	IRR     float64 `json:"irr"`
	MOIC    float64 `json:"moic"`
	Summary string  `gorm:"type:text" json:"summary"`
	Minimum int64   `json:"minimum"`

	IsAI bool `gorm:"default:false" json:"is_ai"`
	IsQC bool `gorm:"default:false" json:"is_qc"`
	IsQP bool `gorm:"default:false" json:"is_qp"`

	Tags          []OfferingTag  `gorm:"many2many:offering_tags;" json:"tags,omitempty"`
	InvestorTypes []InvestorType `gorm:"many2many:offering_investor_types;" json:"investor_types,omitempty"`
}

// BeforeCreate derives a unique slug from the title when none is set.
func (o *Offering) BeforeCreate(tx *gorm.DB) error {
	o.Slug = strings.TrimSpace(o.Slug)
	if o.Slug != "" {
		return nil
	}

	base := slug.Make(o.Title)
	if base == "" {
		base = "offering"
	}

	candidate := base
	for i := 2; ; i++ {
		taken, err := slugTaken(tx, candidate, o.ID)
		if err != nil {
			return err
		}
		if !taken {
			break
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	o.Slug = candidate
	return nil
}

func slugTaken(tx *gorm.DB, candidate string, selfID uint) (bool, error) {
	if tx == nil {
		return false, nil
	}
	var existing Offering
	err := tx.Session(&gorm.Session{NewDB: true}).
		Select("id").
		Where("slug = ?", candidate).
		Take(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("check slug %q: %w", candidate, err)
	}
	return existing.ID != selfID, nil
}

// EligibleFor reports whether any of the given investor type ids is eligible.
func (o *Offering) EligibleFor(investorTypeIDs []uint) bool {
	for _, eligible := range o.InvestorTypes {
		for _, id := range investorTypeIDs {
			if eligible.ID == id {
				return true
			}
		}
	}
	return false
}
