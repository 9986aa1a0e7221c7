package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrRequestDateImmutable is returned when an update tries to move request_date.
var ErrRequestDateImmutable = errors.New("request allocation: request_date cannot be changed")

// RequestAllocation records a user's request to invest in an offering.
type RequestAllocation struct {
	ID          uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      uint            `gorm:"not null;index" json:"user_id"`
	User        *User           `gorm:"constraint:OnDelete:CASCADE" json:"user,omitempty"`
	OfferingID  uint            `gorm:"not null;index" json:"offering_id"`
	Offering    *Offering       `gorm:"constraint:OnDelete:CASCADE" json:"offering,omitempty"`
	Amount      decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	RequestDate time.Time       `gorm:"not null;index" json:"request_date"`
}

// BeforeCreate stamps request_date when the caller left it empty.
func (r *RequestAllocation) BeforeCreate(tx *gorm.DB) error {
	if r.RequestDate.IsZero() {
		r.RequestDate = time.Now().UTC()
	}
	return nil
}

// BeforeUpdate rejects any change to request_date.
func (r *RequestAllocation) BeforeUpdate(tx *gorm.DB) error {
	if tx == nil || r.ID == 0 {
		return nil
	}
	if tx.Statement.Changed("RequestDate") {
		return ErrRequestDateImmutable
	}

	var stored RequestAllocation
	if err := tx.Session(&gorm.Session{NewDB: true}).
		Select("request_date").
		Where("id = ?", r.ID).
		Take(&stored).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if !r.RequestDate.IsZero() && !sameInstant(stored.RequestDate, r.RequestDate) {
		return ErrRequestDateImmutable
	}
	return nil
}

// drivers store timestamps with differing sub-millisecond precision
func sameInstant(a, b time.Time) bool {
	return a.Truncate(time.Millisecond).Equal(b.Truncate(time.Millisecond))
}

// Referral records an invitation a user sent to a prospective investor.
type Referral struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	User        *User     `gorm:"constraint:OnDelete:CASCADE" json:"user,omitempty"`
	InviteName  string    `gorm:"size:255;not null" json:"invite_name"`
	InviteEmail string    `gorm:"size:254;not null" json:"invite_email"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}
