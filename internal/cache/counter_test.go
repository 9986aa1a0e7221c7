package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	testutil "github.com/charlesng35/investorportal/internal/database/testutil"
	"github.com/charlesng35/investorportal/internal/models"
)

func TestCounterStoreIncrementWithinWindow(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	store := NewCounterStore(db)

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	count, ttl, err := store.IncrementWithTTL(context.Background(), "10.0.0.1|/login", time.Minute)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
	require.Equal(t, time.Minute, ttl)

	now = now.Add(20 * time.Second)
	count, ttl, err = store.IncrementWithTTL(context.Background(), "10.0.0.1|/login", time.Minute)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)
	require.Equal(t, 40*time.Second, ttl)

	count, _, err = store.IncrementWithTTL(context.Background(), "10.0.0.2|/login", time.Minute)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
}

func TestCounterStoreRestartsExpiredWindow(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	store := NewCounterStore(db)

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		_, _, err := store.IncrementWithTTL(context.Background(), "k", time.Minute)
		require.NoError(t, err)
	}

	now = now.Add(time.Minute)
	count, ttl, err := store.IncrementWithTTL(context.Background(), "k", time.Minute)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
	require.Equal(t, time.Minute, ttl)
}

func TestCounterStorePurgeExpired(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	store := NewCounterStore(db)

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	_, _, err := store.IncrementWithTTL(context.Background(), "old", time.Minute)
	require.NoError(t, err)
	_, _, err = store.IncrementWithTTL(context.Background(), "fresh", time.Hour)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	removed, err := store.PurgeExpired(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	var remaining []models.RateCounter
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	require.Equal(t, "fresh", remaining[0].Bucket)
}

func TestNilCounterStore(t *testing.T) {
	require.Nil(t, NewCounterStore(nil))

	var store *CounterStore
	_, _, err := store.IncrementWithTTL(context.Background(), "k", time.Minute)
	require.Error(t, err)
	_, err = store.PurgeExpired(context.Background())
	require.Error(t, err)
}
