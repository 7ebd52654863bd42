package cache

import (
	"context"
	"sync"
	"time"

	"github.com/lhajoosten/ExpenseAI/internal/domain/shared"
)

const defaultSweepInterval = 5 * time.Minute

// InMemoryReservationStore implements shared.ReservationStore in process memory.
// Reservations are not shared between instances.
type InMemoryReservationStore struct {
	mu        sync.Mutex
	expiry    map[string]time.Time
	now       func() time.Time
	stop      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// InMemoryOption configures an InMemoryReservationStore
type InMemoryOption func(*InMemoryReservationStore)

// WithClock replaces time.Now
func WithClock(now func() time.Time) InMemoryOption {
	return func(s *InMemoryReservationStore) { s.now = now }
}

// NewInMemoryReservationStore creates a store and starts its expiry sweeper
func NewInMemoryReservationStore(opts ...InMemoryOption) *InMemoryReservationStore {
	s := &InMemoryReservationStore{
		expiry: make(map[string]time.Time),
		now:    time.Now,
		stop:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.wg.Add(1)
	go s.sweepLoop(defaultSweepInterval)
	return s
}

// Reserve claims key for ttl unless an unexpired claim exists
func (s *InMemoryReservationStore) Reserve(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if exp, ok := s.expiry[key]; ok && now.Before(exp) {
		return false, nil
	}
	s.expiry[key] = now.Add(ttl)
	return true, nil
}

// IsReserved reports whether key holds an unexpired claim
func (s *InMemoryReservationStore) IsReserved(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	exp, ok := s.expiry[key]
	return ok && s.now().Before(exp), nil
}

// Release drops the claim on key
func (s *InMemoryReservationStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.expiry, key)
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored claims, expired ones included until swept
func (s *InMemoryReservationStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.expiry)
}

// Close stops the sweeper. Safe to call more than once.
func (s *InMemoryReservationStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stop)
		s.wg.Wait()
	})
	return nil
}

func (s *InMemoryReservationStore) sweepLoop(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *InMemoryReservationStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, exp := range s.expiry {
		if !now.Before(exp) {
			delete(s.expiry, key)
		}
	}
}

var _ shared.ReservationStore = (*InMemoryReservationStore)(nil)
