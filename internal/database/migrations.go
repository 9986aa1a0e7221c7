package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/charlesng35/investorportal/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.InvestorType{},
		&models.OfferingTag{},
		&models.User{},
		&models.Offering{},
		&models.RequestAllocation{},
		&models.Referral{},
		&models.AuditLog{},
		&models.RateCounter{},
	)
}

// SeedData inserts the built-in investor types. It is idempotent.
func SeedData(db *gorm.DB) error {
	for _, name := range models.DefaultInvestorTypes {
		record := models.InvestorType{Name: name}
		if err := db.Where(models.InvestorType{Name: name}).FirstOrCreate(&record).Error; err != nil {
			return fmt.Errorf("seed investor type %q: %w", name, err)
		}
	}
	return nil
}
