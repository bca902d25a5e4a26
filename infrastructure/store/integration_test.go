package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-brine/infrastructure/scoring"
	"github.com/ahrav/go-brine/internal/application"
	"github.com/ahrav/go-brine/internal/domain"
	"github.com/ahrav/go-brine/internal/ports"
	"github.com/ahrav/go-brine/internal/testutils"
)

// TestRecomputeAll_AgainstSQLite runs a full batch through the GORM store:
// two healthy oysters are published, the one with a malformed stored
// verdict is reported and left untouched.
func TestRecomputeAll_AgainstSQLite(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	engine, err := scoring.NewEngine(scoring.DefaultConfig())
	require.NoError(t, err)
	svc, err := application.NewRecomputeService(s, engine, application.ServiceConfig{Concurrency: 2})
	require.NoError(t, err)

	oysters := []domain.Oyster{
		testutils.NewOyster("Barron Point", 5),
		testutils.NewOyster("Eld Inlet", 5),
		testutils.NewOyster("Skookum", 5),
	}
	verdicts := []domain.Rating{domain.RatingLoveIt, "AMAZING", domain.RatingLikeIt}
	for i := range oysters {
		require.NoError(t, s.CreateOyster(ctx, &oysters[i]))
		for range 5 {
			r := testutils.NewReview(verdicts[i], 8)
			r.OysterID = oysters[i].ID
			require.NoError(t, s.CreateReview(ctx, &r))
		}
	}

	report, err := svc.RecomputeAll(ctx)
	require.NoError(t, err)
	assert.Len(t, report.Updated, 2)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, oysters[1].ID, report.Failed[0].OysterID)

	first, err := s.GetOyster(ctx, oysters[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 5, first.Aggregates.TotalReviews)
	assert.Equal(t, 9.0, first.Aggregates.OverallScore)
	// Five reviews saturate the ramp: 0.3*5 + 0.7*8.
	assert.InDelta(t, 7.1, first.Aggregates.AvgSize, 1e-9)

	broken, err := s.GetOyster(ctx, oysters[1].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AggregateResult{}, broken.Aggregates)

	third, err := s.GetOyster(ctx, oysters[2].ID)
	require.NoError(t, err)
	assert.Equal(t, 7.0, third.Aggregates.OverallScore)
}

func TestHandleReviewChange_AgainstSQLite(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	engine, err := scoring.NewEngine(scoring.DefaultConfig())
	require.NoError(t, err)
	svc, err := application.NewRecomputeService(s, engine, application.ServiceConfig{Concurrency: 1})
	require.NoError(t, err)

	o := testutils.NewOyster("Wiley Point", 5)
	require.NoError(t, s.CreateOyster(ctx, &o))

	r := testutils.NewReview(domain.RatingWhatever, 2)
	r.OysterID = o.ID
	require.NoError(t, s.CreateReview(ctx, &r))
	_, err = svc.HandleReviewChange(ctx, application.ReviewChange{OysterID: o.ID, Kind: application.ReviewCreated})
	require.NoError(t, err)

	got, err := s.GetOyster(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, 2.5, got.Aggregates.OverallScore)

	oysterID, err := s.DeleteReview(ctx, r.ID)
	require.NoError(t, err)
	_, err = svc.HandleReviewChange(ctx, application.ReviewChange{OysterID: oysterID, Kind: application.ReviewDeleted})
	require.NoError(t, err)

	got, err = s.GetOyster(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Aggregates.TotalReviews)
	assert.Equal(t, 5.0, got.Aggregates.OverallScore)

	_, err = svc.HandleReviewChange(ctx, application.ReviewChange{OysterID: uuid.New(), Kind: application.ReviewUpdated})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecomputeAll_CorruptRowIsNotRetryable(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	engine, err := scoring.NewEngine(scoring.DefaultConfig())
	require.NoError(t, err)
	svc, err := application.NewRecomputeService(s, engine, application.ServiceConfig{Concurrency: 1})
	require.NoError(t, err)

	o := testutils.NewOyster("Sea Cow", 5)
	require.NoError(t, s.CreateOyster(ctx, &o))
	require.NoError(t, s.db.Create(&reviewRow{ID: uuid.New(), OysterID: o.ID, ReviewerID: uuid.New()}).Error)

	report, err := svc.RecomputeAll(ctx)
	require.NoError(t, err)
	require.Len(t, report.Failed, 1)
	assert.ErrorIs(t, report.Failed[0].Err, ports.ErrCorruptRecord)
	assert.False(t, report.Failed[0].Retryable)
}
