package models

import (
	"time"

	"gorm.io/gorm"
)

// User is a portal account. Offering visibility is derived from InvestorTypes.
type User struct {
	BaseModel

	Username string `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Email    string `gorm:"uniqueIndex;size:254;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`

	FirstName          string  `gorm:"size:150" json:"first_name"`
	LastName           string  `gorm:"size:150" json:"last_name"`
	PhoneNumber        *string `gorm:"size:20" json:"phone_number"`
	CountryOfResidence string  `gorm:"size:100" json:"country_of_residence"`

	InvestorTypes []InvestorType `gorm:"many2many:user_investor_types;" json:"investor_types,omitempty"`

	IsActive bool `gorm:"default:true" json:"is_active"`

	LastLoginAt *time.Time `json:"last_login_at"`
	LastLoginIP string     `json:"-"`

	FailedAttempts int        `gorm:"default:0" json:"-"`
	LockedUntil    *time.Time `json:"-"`

	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// InvestorTypeIDs returns the ids of the loaded investor types.
func (u *User) InvestorTypeIDs() []uint {
	ids := make([]uint, 0, len(u.InvestorTypes))
	for _, it := range u.InvestorTypes {
		ids = append(ids, it.ID)
	}
	return ids
}

// IsLocked reports whether the account is locked at the given instant.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}
