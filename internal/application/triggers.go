package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ahrav/go-brine/internal/domain"
)

// ChangeKind names an event that invalidates an oyster's aggregates.
type ChangeKind string

// Review lifecycle events that require recomputation.
const (
	ReviewCreated     ChangeKind = "review_created"
	ReviewUpdated     ChangeKind = "review_updated"
	ReviewDeleted     ChangeKind = "review_deleted"
	ReviewVoteChanged ChangeKind = "review_vote_changed"
)

// ChangeKinds returns every recognised change kind.
func ChangeKinds() []ChangeKind {
	return []ChangeKind{ReviewCreated, ReviewUpdated, ReviewDeleted, ReviewVoteChanged}
}

// Valid reports whether k is a recognised change kind.
func (k ChangeKind) Valid() bool {
	switch k {
	case ReviewCreated, ReviewUpdated, ReviewDeleted, ReviewVoteChanged:
		return true
	default:
		return false
	}
}

// ReviewChange describes one review event affecting OysterID.
// A vote change alters the review's quality weight, so it triggers the same
// full recomputation as an edit.
type ReviewChange struct {
	OysterID uuid.UUID  `json:"oyster_id" yaml:"oyster_id"`
	Kind     ChangeKind `json:"kind" yaml:"kind"`
}

// HandleReviewChange recomputes the affected oyster. The caller has
// already committed the review change, so the recomputation observes it.
// Unknown kinds and nil oyster IDs are rejected with a
// *domain.ValidationError before any I/O.
func (s *RecomputeService) HandleReviewChange(ctx context.Context, change ReviewChange) (domain.AggregateResult, error) {
	verr := domain.NewValidationError("review change")
	if !change.Kind.Valid() {
		verr.AddError(fmt.Sprintf("unknown change kind %q", change.Kind))
	}
	if change.OysterID == uuid.Nil {
		verr.AddError("oyster id is required")
	}
	if verr.HasErrors() {
		return domain.AggregateResult{}, verr
	}

	result, err := s.recomputer.RecomputeOyster(ctx, change.OysterID)
	if err != nil {
		s.log.Warn("recompute after review change failed",
			zap.String("oyster_id", change.OysterID.String()),
			zap.String("kind", string(change.Kind)),
			zap.Error(err),
		)
		return domain.AggregateResult{}, err
	}
	return result, nil
}
