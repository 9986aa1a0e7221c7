package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/investorportal/internal/database"
	"github.com/charlesng35/investorportal/internal/models"
)

// TestDBOption customises the behaviour of MustOpenTestDB.
type TestDBOption func(*testDBConfig)

type testDBConfig struct {
	autoMigrate bool
	seedData    bool
}

// WithAutoMigrate enables automatic schema migration after opening the test database.
func WithAutoMigrate() TestDBOption {
	return func(cfg *testDBConfig) {
		cfg.autoMigrate = true
	}
}

// WithSeedData ensures migrations are applied and default investor types inserted.
func WithSeedData() TestDBOption {
	return func(cfg *testDBConfig) {
		cfg.autoMigrate = true
		cfg.seedData = true
	}
}

// MustOpenTestDB opens an isolated in-memory SQLite database for tests, applying optional migrations/seed data.
// The returned connection is automatically closed via t.Cleanup.
func MustOpenTestDB(t *testing.T, opts ...TestDBOption) *gorm.DB {
	t.Helper()

	cfg := testDBConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := database.Open(database.Config{Driver: "sqlite"})
	require.NoError(t, err)

	if cfg.seedData {
		require.NoError(t, database.AutoMigrateAndSeed(db))
	} else if cfg.autoMigrate {
		require.NoError(t, database.AutoMigrate(db))
	}

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}

// MustInvestorType loads a seeded investor type by name.
func MustInvestorType(t *testing.T, db *gorm.DB, name string) models.InvestorType {
	t.Helper()

	var it models.InvestorType
	require.NoError(t, db.Where("name = ?", name).Take(&it).Error)
	return it
}

// MustCreateUser persists a user attached to the given investor types.
// The stored password is a placeholder; use the user service when a real hash is needed.
func MustCreateUser(t *testing.T, db *gorm.DB, username string, types ...models.InvestorType) *models.User {
	t.Helper()

	user := &models.User{
		Username:           username,
		Email:              username + "@example.com",
		Password:           "unusable",
		CountryOfResidence: "USA",
		IsActive:           true,
		InvestorTypes:      types,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// OfferingOption customises offerings created by MustCreateOffering.
type OfferingOption func(*models.Offering)

// Inactive marks the offering as not active.
func Inactive() OfferingOption {
	return func(o *models.Offering) { o.IsActive = false }
}

// StartingAt sets the offering start date.
func StartingAt(ts time.Time) OfferingOption {
	return func(o *models.Offering) { o.StartDate = ts }
}

// EndingAt sets the offering end date.
func EndingAt(ts time.Time) OfferingOption {
	return func(o *models.Offering) { o.EndDate = ts }
}

// WithTags attaches tags, creating them when needed.
func WithTags(tags ...models.OfferingTag) OfferingOption {
	return func(o *models.Offering) { o.Tags = append(o.Tags, tags...) }
}

// MustCreateOffering persists an active offering eligible for the given investor types.
func MustCreateOffering(t *testing.T, db *gorm.DB, title string, types []models.InvestorType, opts ...OfferingOption) *models.Offering {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Second)
	offering := &models.Offering{
		Title:         title,
		StartDate:     now,
		EndDate:       now.Add(30 * 24 * time.Hour),
		IsActive:      true,
		IRR:           15.0,
		MOIC:          2.0,
		Summary:       "Test summary",
		Minimum:       1000,
		InvestorTypes: types,
	}
	for _, opt := range opts {
		opt(offering)
	}

	active := offering.IsActive
	require.NoError(t, db.Create(offering).Error)
	if !active {
		// gorm skips zero values that carry a column default
		require.NoError(t, db.Model(offering).Update("is_active", false).Error)
		offering.IsActive = false
	}
	return offering
}
