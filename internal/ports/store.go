// Package ports defines the interfaces that form the contract between the
// application layer and infrastructure.
// These interfaces keep the aggregation service independent of any
// particular database or metrics backend.
package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/ahrav/go-brine/internal/domain"
)

// OysterStore is the persistence boundary the recompute service works
// through. Implementations own the mapping between stored rows and domain
// values, including joining each review with its author's credibility.
type OysterStore interface {
	// ListOysterIDs returns the identifiers of every catalogued oyster.
	// Order is unspecified; callers that need determinism sort the result.
	ListOysterIDs(ctx context.Context) ([]uuid.UUID, error)

	// GetOyster loads one oyster with its seed values and currently
	// published aggregates. A missing oyster yields an error matching
	// domain.ErrNotFound.
	GetOyster(ctx context.Context, id uuid.UUID) (*domain.Oyster, error)

	// ListReviews returns every review of the oyster with
	// ReviewerCredibility populated. Reviews whose author has no
	// credibility record carry a credibility of 1.0.
	ListReviews(ctx context.Context, oysterID uuid.UUID) ([]domain.Review, error)

	// SaveAggregates overwrites the oyster's eight aggregate fields as a
	// single atomic write. Seed values and descriptive fields are untouched.
	SaveAggregates(ctx context.Context, oysterID uuid.UUID, result domain.AggregateResult) error
}

// Recomputer recalculates and persists the aggregates of a single oyster.
// It is implemented by the application service and decorated by
// observability middleware.
type Recomputer interface {
	// RecomputeOyster loads the oyster and its reviews, computes fresh
	// aggregates, persists them and returns what was written.
	RecomputeOyster(ctx context.Context, oysterID uuid.UUID) (domain.AggregateResult, error)
}
