package models

import "time"

// RateCounter is a fixed-window request counter shared by every server instance.
type RateCounter struct {
	Bucket    string    `gorm:"primaryKey;size:255"`
	Count     int64     `gorm:"not null"`
	ExpiresAt time.Time `gorm:"index;not null"`
	UpdatedAt time.Time
}
