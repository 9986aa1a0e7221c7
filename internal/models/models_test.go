package models_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/investorportal/internal/database/testutil"
	"github.com/charlesng35/investorportal/internal/models"
)

func TestOfferingSlugDerivedFromTitle(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	ai := testutil.MustInvestorType(t, db, models.InvestorTypeAccredited)

	first := testutil.MustCreateOffering(t, db, "Growth Fund II", []models.InvestorType{ai})
	second := testutil.MustCreateOffering(t, db, "Growth Fund II", []models.InvestorType{ai})
	third := testutil.MustCreateOffering(t, db, "Growth  Fund   II!", []models.InvestorType{ai})

	require.Equal(t, "growth-fund-ii", first.Slug)
	require.Equal(t, "growth-fund-ii-2", second.Slug)
	require.Equal(t, "growth-fund-ii-3", third.Slug)
}

func TestOfferingExplicitSlugKeptAcrossUpdates(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())

	offering := &models.Offering{Title: "Anything", Slug: "custom-slug", StartDate: time.Now(), EndDate: time.Now()}
	require.NoError(t, db.Create(offering).Error)

	offering.Title = "Renamed"
	require.NoError(t, db.Save(offering).Error)

	var stored models.Offering
	require.NoError(t, db.First(&stored, offering.ID).Error)
	require.Equal(t, "custom-slug", stored.Slug)
	require.Equal(t, "Renamed", stored.Title)
}

func TestOfferingEligibleFor(t *testing.T) {
	offering := models.Offering{InvestorTypes: []models.InvestorType{
		{BaseModel: models.BaseModel{ID: 1}},
		{BaseModel: models.BaseModel{ID: 3}},
	}}

	require.True(t, offering.EligibleFor([]uint{3}))
	require.True(t, offering.EligibleFor([]uint{2, 1}))
	require.False(t, offering.EligibleFor([]uint{2}))
	require.False(t, offering.EligibleFor(nil))
}

func TestUserHelpers(t *testing.T) {
	user := models.User{InvestorTypes: []models.InvestorType{
		{BaseModel: models.BaseModel{ID: 2}},
		{BaseModel: models.BaseModel{ID: 5}},
	}}
	require.Equal(t, []uint{2, 5}, user.InvestorTypeIDs())

	now := time.Now()
	require.False(t, user.IsLocked(now))
	until := now.Add(time.Minute)
	user.LockedUntil = &until
	require.True(t, user.IsLocked(now))
	require.False(t, user.IsLocked(until.Add(time.Second)))
}

func TestRequestAllocationDateIsImmutable(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	ai := testutil.MustInvestorType(t, db, models.InvestorTypeAccredited)
	user := testutil.MustCreateUser(t, db, "investor", ai)
	offering := testutil.MustCreateOffering(t, db, "Allocation Test", []models.InvestorType{ai})

	record := &models.RequestAllocation{
		UserID:     user.ID,
		OfferingID: offering.ID,
		Amount:     decimal.RequireFromString("5000.00"),
	}
	require.NoError(t, db.Create(record).Error)
	require.False(t, record.RequestDate.IsZero())

	err := db.Model(record).Update("request_date", record.RequestDate.Add(-24*time.Hour)).Error
	require.ErrorIs(t, err, models.ErrRequestDateImmutable)

	record.RequestDate = record.RequestDate.Add(time.Hour)
	require.ErrorIs(t, db.Save(record).Error, models.ErrRequestDateImmutable)

	var stored models.RequestAllocation
	require.NoError(t, db.First(&stored, record.ID).Error)
	require.True(t, stored.Amount.Equal(decimal.RequireFromString("5000")))
	require.Equal(t, "5000.00", stored.Amount.StringFixed(2))
}

func TestRequestAllocationAmountMayChangeWithoutMovingDate(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	ai := testutil.MustInvestorType(t, db, models.InvestorTypeAccredited)
	user := testutil.MustCreateUser(t, db, "investor", ai)
	offering := testutil.MustCreateOffering(t, db, "Amount Test", []models.InvestorType{ai})

	record := &models.RequestAllocation{UserID: user.ID, OfferingID: offering.ID, Amount: decimal.NewFromInt(100)}
	require.NoError(t, db.Create(record).Error)

	require.NoError(t, db.Model(record).Update("amount", decimal.NewFromInt(250)).Error)
}
