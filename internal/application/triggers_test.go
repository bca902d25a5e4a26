package application

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-brine/internal/domain"
	"github.com/ahrav/go-brine/internal/testutils"
)

func TestHandleReviewChange(t *testing.T) {
	ctx := context.Background()
	store := testutils.NewMemoryStore()
	svc := newService(t, store, ServiceConfig{Concurrency: 1})

	o := testutils.NewOyster("Naked Cowboy", 5)
	store.PutOyster(o)

	first := testutils.NewReview(domain.RatingLoveIt, 9)
	store.AddReview(o.ID, first)
	result, err := svc.HandleReviewChange(ctx, ReviewChange{OysterID: o.ID, Kind: ReviewCreated})
	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalReviews)
	assert.Equal(t, 9.0, result.OverallScore)

	second := testutils.NewReview(domain.RatingWhatever, 2)
	store.AddReview(o.ID, second)
	result, err = svc.HandleReviewChange(ctx, ReviewChange{OysterID: o.ID, Kind: ReviewCreated})
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalReviews)
	assert.Equal(t, 5.75, result.OverallScore)

	// A downvote halves the second review's influence.
	second.QualityWeight = testutils.Float(0.5)
	store.PutReviews(o.ID, first, second)
	result, err = svc.HandleReviewChange(ctx, ReviewChange{OysterID: o.ID, Kind: ReviewVoteChanged})
	require.NoError(t, err)
	assert.InDelta(t, (9.0+2.5*0.5)/1.5, result.AvgRating, 1e-9)

	store.PutReviews(o.ID)
	result, err = svc.HandleReviewChange(ctx, ReviewChange{OysterID: o.ID, Kind: ReviewDeleted})
	require.NoError(t, err)
	assert.Equal(t, 0, result.TotalReviews)
	assert.Equal(t, 5.0, result.OverallScore)

	saved, _ := store.Oyster(o.ID)
	assert.Equal(t, result, saved.Aggregates)
}

func TestHandleReviewChange_Rejects(t *testing.T) {
	store := testutils.NewMemoryStore()
	svc := newService(t, store, ServiceConfig{Concurrency: 1})

	tests := []struct {
		name   string
		change ReviewChange
		want   string
	}{
		{name: "unknown kind", change: ReviewChange{OysterID: uuid.New(), Kind: "review_starred"}, want: "unknown change kind"},
		{name: "empty kind", change: ReviewChange{OysterID: uuid.New()}, want: "unknown change kind"},
		{name: "nil oyster", change: ReviewChange{Kind: ReviewUpdated}, want: "oyster id is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.HandleReviewChange(context.Background(), tt.change)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
	assert.Equal(t, 0, store.Saves())
}

func TestHandleReviewChange_MissingOyster(t *testing.T) {
	svc := newService(t, testutils.NewMemoryStore(), ServiceConfig{Concurrency: 1})

	_, err := svc.HandleReviewChange(context.Background(), ReviewChange{OysterID: uuid.New(), Kind: ReviewUpdated})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestChangeKinds(t *testing.T) {
	for _, k := range ChangeKinds() {
		assert.True(t, k.Valid(), "%s", k)
	}
	assert.False(t, ChangeKind("REVIEW_CREATED").Valid())
}
