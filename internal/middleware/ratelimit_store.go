package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/charlesng35/investorportal/internal/cache"
)

// RateStore coordinates rate limiting counters for a specific key.
type RateStore interface {
	Increment(ctx context.Context, key string, window time.Duration) (count int, ttl time.Duration, err error)
}

// MemoryRateStore provides process-local rate limiting. It is concurrency-safe.
type MemoryRateStore struct {
	mu    sync.Mutex
	data  map[string]*memoryCounter
	clock func() time.Time
	stop  chan struct{}
	once  sync.Once
}

type memoryCounter struct {
	count     int
	windowEnd time.Time
}

// NewMemoryRateStore constructs an in-memory rate store that sweeps expired counters every sweep interval.
func NewMemoryRateStore(sweep time.Duration) *MemoryRateStore {
	if sweep <= 0 {
		sweep = time.Minute
	}
	store := &MemoryRateStore{
		data:  make(map[string]*memoryCounter),
		clock: time.Now,
		stop:  make(chan struct{}),
	}

	go store.cleanupLoop(sweep)
	return store
}

// Close stops the background sweeper.
func (s *MemoryRateStore) Close() {
	s.once.Do(func() { close(s.stop) })
}

func (s *MemoryRateStore) cleanupLoop(sweep time.Duration) {
	tick := time.NewTicker(sweep)
	defer tick.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-tick.C:
			s.sweep()
		}
	}
}

func (s *MemoryRateStore) sweep() {
	now := s.clock()
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, counter := range s.data {
		if now.After(counter.windowEnd) {
			delete(s.data, key)
		}
	}
}

func (s *MemoryRateStore) Increment(_ context.Context, key string, window time.Duration) (int, time.Duration, error) {
	if window <= 0 {
		window = time.Minute
	}

	now := s.clock()

	s.mu.Lock()
	defer s.mu.Unlock()

	counter, ok := s.data[key]
	if !ok || now.After(counter.windowEnd) {
		counter = &memoryCounter{windowEnd: now.Add(window)}
		s.data[key] = counter
	}

	counter.count++

	return counter.count, counter.windowEnd.Sub(now), nil
}

// DatabaseRateStore shares counters between instances through the primary database.
type DatabaseRateStore struct {
	store *cache.CounterStore
}

// NewDatabaseRateStore wraps a CounterStore. A nil store returns nil.
func NewDatabaseRateStore(store *cache.CounterStore) *DatabaseRateStore {
	if store == nil {
		return nil
	}
	return &DatabaseRateStore{store: store}
}

// Increment implements RateStore.
func (s *DatabaseRateStore) Increment(ctx context.Context, key string, window time.Duration) (int, time.Duration, error) {
	count, ttl, err := s.store.IncrementWithTTL(ctx, key, window)
	if err != nil {
		return 0, 0, err
	}
	return int(count), ttl, nil
}
