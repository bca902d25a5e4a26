package application

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ahrav/go-brine/internal/domain"
	"github.com/ahrav/go-brine/internal/ports"
	"github.com/ahrav/go-brine/internal/testutils"
)

// TestRecomputeAll_PartialFailure runs a batch over three oysters where the
// second has a stored review with an unknown verdict. The other two are
// updated, the failure is logged with the oyster's ID and the batch
// completes without error.
func TestRecomputeAll_PartialFailure(t *testing.T) {
	ctx := context.Background()
	store := testutils.NewMemoryStore()
	core, logs := observer.New(zapcore.InfoLevel)
	metrics := newSpyMetrics()
	svc := newService(t, store, ServiceConfig{Concurrency: 1}, WithLogger(zap.New(core)), WithMetrics(metrics))

	first := testutils.NewOyster("Pickering Pass", 5)
	second := testutils.NewOyster("Glidden Point", 5)
	third := testutils.NewOyster("Pemaquid", 5)
	for _, o := range []domain.Oyster{first, second, third} {
		store.PutOyster(o)
	}
	store.PutReviews(first.ID, testutils.NewReview(domain.RatingLoveIt, 9))
	store.PutReviews(second.ID, testutils.NewReview("AMAZING", 8))
	store.PutReviews(third.ID, testutils.NewReview(domain.RatingMeh, 4))

	report, err := svc.RecomputeAll(ctx)
	require.NoError(t, err)

	wantUpdated := []uuid.UUID{first.ID, third.ID}
	slices.SortFunc(wantUpdated, compareUUID)
	assert.Equal(t, wantUpdated, report.Updated)

	require.Len(t, report.Failed, 1)
	assert.Equal(t, second.ID, report.Failed[0].OysterID)
	assert.ErrorIs(t, report.Failed[0].Err, domain.ErrUnknownRating)
	assert.Contains(t, report.Failed[0].Error, "AMAZING")
	assert.Equal(t, 3, report.Total())

	assert.False(t, report.Failed[0].Retryable)

	for _, tc := range []struct {
		oyster domain.Oyster
		score  float64
	}{
		{first, 9.0},
		{third, 4.95},
	} {
		saved, _ := store.Oyster(tc.oyster.ID)
		assert.Equal(t, 1, saved.Aggregates.TotalReviews, "oyster %s", tc.oyster.Name)
		assert.Equal(t, tc.score, saved.Aggregates.AvgRating, "oyster %s", tc.oyster.Name)
		assert.Equal(t, tc.score, saved.Aggregates.OverallScore, "oyster %s", tc.oyster.Name)
	}
	untouched, _ := store.Oyster(second.ID)
	assert.Equal(t, domain.AggregateResult{}, untouched.Aggregates)

	failures := logs.FilterMessage("oyster recompute failed").All()
	require.Len(t, failures, 1)
	assert.Equal(t, zapcore.ErrorLevel, failures[0].Level)
	assert.Equal(t, second.ID.String(), failures[0].ContextMap()["oyster_id"])

	assert.Equal(t, 2.0, metrics.gauges[ports.MetricBatchUpdated])
	assert.Equal(t, 1.0, metrics.gauges[ports.MetricBatchFailed])
}

func TestRecomputeAll_ListFailure(t *testing.T) {
	store := testutils.NewMemoryStore()
	store.ListErr = ports.NewStoreError("oyster", "", "ListOysterIDs", ports.ErrStoreUnavailable)
	svc := newService(t, store, ServiceConfig{Concurrency: 1})

	report, err := svc.RecomputeAll(context.Background())
	assert.Nil(t, report)
	assert.ErrorIs(t, err, ports.ErrStoreUnavailable)
}

func TestRecomputeAll_Empty(t *testing.T) {
	svc := newService(t, testutils.NewMemoryStore(), ServiceConfig{Concurrency: 1})

	report, err := svc.RecomputeAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Updated)
	assert.Empty(t, report.Failed)
	assert.NotNil(t, report.Updated)
}

// TestRecomputeAll_ConcurrentMatchesSequential checks that parallelism
// changes neither the outcome nor the published numbers.
func TestRecomputeAll_ConcurrentMatchesSequential(t *testing.T) {
	ctx := context.Background()
	catalog := testutils.GenerateCatalog(40, 12, 7)

	run := func(concurrency int) (*BatchReport, *testutils.MemoryStore) {
		store := testutils.NewMemoryStore()
		catalog.Load(store)
		store.SaveDelay = time.Millisecond
		svc := newService(t, store, ServiceConfig{Concurrency: concurrency})
		report, err := svc.RecomputeAll(ctx)
		require.NoError(t, err)
		return report, store
	}

	seqReport, seqStore := run(1)
	parReport, parStore := run(8)

	assert.Equal(t, seqReport.Updated, parReport.Updated)
	assert.Empty(t, parReport.Failed)
	assert.Len(t, parReport.Updated, 40)
	assert.Equal(t, 1, seqStore.MaxConcurrentSaves())
	assert.LessOrEqual(t, parStore.MaxConcurrentSaves(), 8)

	for _, o := range catalog.Oysters {
		a, _ := seqStore.Oyster(o.ID)
		b, _ := parStore.Oyster(o.ID)
		assert.Equal(t, a.Aggregates, b.Aggregates, "oyster %s", o.Name)
		assert.GreaterOrEqual(t, b.Aggregates.OverallScore, 0.0)
		assert.LessOrEqual(t, b.Aggregates.OverallScore, 10.0)
	}
}

func TestRecomputeAll_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := testutils.NewMemoryStore()
	testutils.GenerateCatalog(10, 6, 99).Load(store)
	svc := newService(t, store, ServiceConfig{Concurrency: 4})

	_, err := svc.RecomputeAll(ctx)
	require.NoError(t, err)
	ids, err := store.ListOysterIDs(ctx)
	require.NoError(t, err)

	before := make(map[uuid.UUID]domain.AggregateResult, len(ids))
	for _, id := range ids {
		o, _ := store.Oyster(id)
		before[id] = o.Aggregates
	}

	_, err = svc.RecomputeAll(ctx)
	require.NoError(t, err)
	for _, id := range ids {
		o, _ := store.Oyster(id)
		assert.Equal(t, before[id], o.Aggregates)
	}
}

func TestRecomputeAll_Cancelled(t *testing.T) {
	store := testutils.NewMemoryStore()
	testutils.GenerateCatalog(50, 3, 1).Load(store)
	store.SaveDelay = 5 * time.Millisecond
	svc := newService(t, store, ServiceConfig{Concurrency: 2})

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	report, err := svc.RecomputeAll(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Less(t, report.Total(), 50)
	assert.Empty(t, report.Failed, "cancellation must not be reported as item failures")
}

// countingRecomputer wraps the service to observe decorator wiring.
type countingRecomputer struct {
	mu    sync.Mutex
	next  ports.Recomputer
	calls []uuid.UUID
}

func (c *countingRecomputer) RecomputeOyster(ctx context.Context, id uuid.UUID) (domain.AggregateResult, error) {
	c.mu.Lock()
	c.calls = append(c.calls, id)
	c.mu.Unlock()
	return c.next.RecomputeOyster(ctx, id)
}

func TestRecomputeAll_UsesDecorator(t *testing.T) {
	store := testutils.NewMemoryStore()
	testutils.GenerateCatalog(5, 2, 3).Load(store)

	spy := &countingRecomputer{}
	svc := newService(t, store, ServiceConfig{Concurrency: 1}, WithRecomputeDecorator(func(next ports.Recomputer) ports.Recomputer {
		spy.next = next
		return spy
	}))

	report, err := svc.RecomputeAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, spy.calls, 5)
	assert.Equal(t, report.Updated, spy.calls, "sequential batches visit oysters in sorted order")
}

func TestRecomputeAll_StoreErrorsAreItemFailures(t *testing.T) {
	store := testutils.NewMemoryStore()
	a := testutils.NewOyster("A", 5)
	b := testutils.NewOyster("B", 5)
	store.PutOyster(a)
	store.PutOyster(b)
	store.GetErr[a.ID] = errors.New("row locked")

	svc := newService(t, store, ServiceConfig{Concurrency: 2})
	report, err := svc.RecomputeAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []uuid.UUID{b.ID}, report.Updated)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, a.ID, report.Failed[0].OysterID)
	assert.False(t, report.Failed[0].Retryable)
}

func TestRecomputeAll_RetryableStoreFailures(t *testing.T) {
	store := testutils.NewMemoryStore()
	slow := testutils.NewOyster("Slow", 5)
	down := testutils.NewOyster("Down", 5)
	corrupt := testutils.NewOyster("Corrupt", 5)
	for _, o := range []domain.Oyster{slow, down, corrupt} {
		store.PutOyster(o)
	}
	store.ReviewsErr[slow.ID] = ports.NewStoreError("review", slow.ID.String(), "ListReviews", ports.ErrTimeout)
	store.SaveErr[down.ID] = ports.NewStoreError("oyster", down.ID.String(), "SaveAggregates", ports.ErrStoreUnavailable)
	store.GetErr[corrupt.ID] = ports.NewStoreError("oyster", corrupt.ID.String(), "GetOyster", ports.ErrCorruptRecord)

	svc := newService(t, store, ServiceConfig{Concurrency: 1})
	report, err := svc.RecomputeAll(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Failed, 3)

	retryable := make(map[uuid.UUID]bool, len(report.Failed))
	for _, f := range report.Failed {
		retryable[f.OysterID] = f.Retryable
	}
	assert.True(t, retryable[slow.ID])
	assert.True(t, retryable[down.ID])
	assert.False(t, retryable[corrupt.ID])
}

// cancellingStore cancels the batch from inside one oyster's load and then
// fails that load with an unrelated store error.
type cancellingStore struct {
	*testutils.MemoryStore
	cancel context.CancelFunc
	failID uuid.UUID
}

func (s *cancellingStore) GetOyster(ctx context.Context, id uuid.UUID) (*domain.Oyster, error) {
	if id == s.failID {
		s.cancel()
		return nil, ports.NewStoreError("oyster", id.String(), "GetOyster", ports.ErrCorruptRecord)
	}
	return s.MemoryStore.GetOyster(ctx, id)
}

func TestRecomputeAll_FailureDuringCancellationIsReported(t *testing.T) {
	mem := testutils.NewMemoryStore()
	o := testutils.NewOyster("Hama Hama", 5)
	mem.PutOyster(o)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := &cancellingStore{MemoryStore: mem, cancel: cancel, failID: o.ID}
	svc := newService(t, store, ServiceConfig{Concurrency: 1})

	report, err := svc.RecomputeAll(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, o.ID, report.Failed[0].OysterID)
	assert.ErrorIs(t, report.Failed[0].Err, ports.ErrCorruptRecord)
}
