package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/charlesng35/investorportal/internal/models"
)

// CounterStore keeps fixed-window counters in the primary SQL database so
// several portal instances can share rate limits.
type CounterStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewCounterStore constructs a database-backed CounterStore.
func NewCounterStore(db *gorm.DB) *CounterStore {
	if db == nil {
		return nil
	}
	return &CounterStore{db: db, now: time.Now}
}

// IncrementWithTTL atomically increments the counter for key and returns the
// new count and the time left in the current window. An expired window restarts at 1.
func (s *CounterStore) IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if s == nil {
		return 0, 0, errors.New("cache: counter store not initialised")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if window <= 0 {
		window = time.Minute
	}

	now := s.now().UTC()
	var entry models.RateCounter

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Acquire row-level lock
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Take(&entry, "bucket = ?", key).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			entry = models.RateCounter{Bucket: key, Count: 1, ExpiresAt: now.Add(window)}
			return tx.Create(&entry).Error
		}
		if err != nil {
			return err
		}

		if !entry.ExpiresAt.After(now) {
			entry.Count = 1
			entry.ExpiresAt = now.Add(window)
		} else {
			entry.Count++
		}
		return tx.Save(&entry).Error
	})
	if err != nil {
		return 0, 0, fmt.Errorf("cache: increment %q: %w", key, err)
	}

	return entry.Count, entry.ExpiresAt.Sub(now), nil
}

// PurgeExpired deletes counters whose window has closed.
func (s *CounterStore) PurgeExpired(ctx context.Context) (int64, error) {
	if s == nil {
		return 0, errors.New("cache: counter store not initialised")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	result := s.db.WithContext(ctx).
		Where("expires_at <= ?", s.now().UTC()).
		Delete(&models.RateCounter{})
	if result.Error != nil {
		return 0, fmt.Errorf("cache: purge expired counters: %w", result.Error)
	}
	return result.RowsAffected, nil
}
