// Package testutils provides fixtures and test doubles shared by the
// project's test suites. These components are intended for internal use
// only and are not part of the public API.
package testutils

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ahrav/go-brine/internal/domain"
	"github.com/ahrav/go-brine/internal/ports"
)

var _ ports.OysterStore = (*MemoryStore)(nil)

// MemoryStore is an in-memory ports.OysterStore with failure injection.
// Oysters and reviews are copied on the way in and out so tests cannot
// alias stored state.
type MemoryStore struct {
	mu      sync.Mutex
	oysters map[uuid.UUID]domain.Oyster
	reviews map[uuid.UUID][]domain.Review

	// ListErr, when set, is returned by ListOysterIDs.
	ListErr error
	// GetErr, ReviewsErr and SaveErr inject per-oyster failures.
	GetErr     map[uuid.UUID]error
	ReviewsErr map[uuid.UUID]error
	SaveErr    map[uuid.UUID]error

	// SaveDelay makes each SaveAggregates call sleep, widening race windows.
	SaveDelay time.Duration

	saves       atomic.Int64
	active      map[uuid.UUID]int
	maxActive   int
	maxParallel int
	inFlight    int
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		oysters:    make(map[uuid.UUID]domain.Oyster),
		reviews:    make(map[uuid.UUID][]domain.Review),
		GetErr:     make(map[uuid.UUID]error),
		ReviewsErr: make(map[uuid.UUID]error),
		SaveErr:    make(map[uuid.UUID]error),
		active:     make(map[uuid.UUID]int),
	}
}

// PutOyster inserts or replaces an oyster.
func (m *MemoryStore) PutOyster(o domain.Oyster) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.oysters[o.ID] = o
}

// PutReviews replaces the reviews of oysterID.
func (m *MemoryStore) PutReviews(oysterID uuid.UUID, reviews ...domain.Review) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]domain.Review, len(reviews))
	for i, r := range reviews {
		r.OysterID = oysterID
		cp[i] = r
	}
	m.reviews[oysterID] = cp
}

// AddReview appends one review to oysterID.
func (m *MemoryStore) AddReview(oysterID uuid.UUID, r domain.Review) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.OysterID = oysterID
	m.reviews[oysterID] = append(m.reviews[oysterID], r)
}

// Oyster returns a copy of the stored oyster.
func (m *MemoryStore) Oyster(id uuid.UUID) (domain.Oyster, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.oysters[id]
	return o, ok
}

// Saves returns the number of successful SaveAggregates calls.
func (m *MemoryStore) Saves() int { return int(m.saves.Load()) }

// MaxConcurrentSavesPerOyster returns the highest number of overlapping
// SaveAggregates calls observed for any single oyster.
func (m *MemoryStore) MaxConcurrentSavesPerOyster() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxActive
}

// MaxConcurrentSaves returns the highest number of overlapping
// SaveAggregates calls observed across all oysters.
func (m *MemoryStore) MaxConcurrentSaves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxParallel
}

// ListOysterIDs implements ports.OysterStore. IDs are returned in map
// order, which is deliberately unstable.
func (m *MemoryStore) ListOysterIDs(ctx context.Context) ([]uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	ids := make([]uuid.UUID, 0, len(m.oysters))
	for id := range m.oysters {
		ids = append(ids, id)
	}
	return ids, nil
}

// GetOyster implements ports.OysterStore.
func (m *MemoryStore) GetOyster(ctx context.Context, id uuid.UUID) (*domain.Oyster, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.GetErr[id]; err != nil {
		return nil, err
	}
	o, ok := m.oysters[id]
	if !ok {
		return nil, domain.NewNotFoundError("oyster", id.String())
	}
	return &o, nil
}

// ListReviews implements ports.OysterStore.
func (m *MemoryStore) ListReviews(ctx context.Context, oysterID uuid.UUID) ([]domain.Review, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ReviewsErr[oysterID]; err != nil {
		return nil, err
	}
	src := m.reviews[oysterID]
	out := make([]domain.Review, len(src))
	copy(out, src)
	return out, nil
}

// SaveAggregates implements ports.OysterStore.
func (m *MemoryStore) SaveAggregates(ctx context.Context, oysterID uuid.UUID, result domain.AggregateResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	if err := m.SaveErr[oysterID]; err != nil {
		m.mu.Unlock()
		return err
	}
	if _, ok := m.oysters[oysterID]; !ok {
		m.mu.Unlock()
		return ports.NewStoreError("oyster", oysterID.String(), "SaveAggregates", domain.ErrNotFound)
	}
	m.active[oysterID]++
	m.inFlight++
	m.maxActive = max(m.maxActive, m.active[oysterID])
	m.maxParallel = max(m.maxParallel, m.inFlight)
	delay := m.SaveDelay
	m.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.active[oysterID]--
	m.inFlight--
	o := m.oysters[oysterID]
	o.Aggregates = result
	m.oysters[oysterID] = o
	m.saves.Add(1)
	return nil
}
