package middleware

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/go-brine/internal/domain"
	"github.com/ahrav/go-brine/internal/ports"
)

// TracerName identifies spans emitted by this package.
const TracerName = "github.com/ahrav/go-brine/recompute"

var _ ports.Recomputer = (*TracingRecomputer)(nil)

// TracingRecomputer wraps a Recomputer with an OpenTelemetry span per
// oyster. The span records the oyster ID, the published aggregates on
// success and the failure class on error.
type TracingRecomputer struct {
	next   ports.Recomputer
	tracer trace.Tracer
}

// NewTracingRecomputer wraps next. A nil tracer uses the global provider.
func NewTracingRecomputer(next ports.Recomputer, tracer trace.Tracer) *TracingRecomputer {
	if tracer == nil {
		tracer = otel.Tracer(TracerName)
	}
	return &TracingRecomputer{next: next, tracer: tracer}
}

// RecomputeOyster implements ports.Recomputer.
func (t *TracingRecomputer) RecomputeOyster(ctx context.Context, oysterID uuid.UUID) (domain.AggregateResult, error) {
	ctx, span := t.tracer.Start(ctx, "Recompute.Oyster",
		trace.WithAttributes(attribute.String("oyster.id", oysterID.String())),
	)
	defer span.End()

	result, err := t.next.RecomputeOyster(ctx, oysterID)
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("recompute.failure", failureClass(err)))
		span.SetStatus(codes.Error, err.Error())
		return result, err
	}

	span.SetAttributes(
		attribute.Int("oyster.total_reviews", result.TotalReviews),
		attribute.Float64("oyster.avg_rating", result.AvgRating),
		attribute.Float64("oyster.overall_score", result.OverallScore),
	)
	span.SetStatus(codes.Ok, "")
	return result, nil
}

func failureClass(err error) string {
	var (
		nf   *domain.NotFoundError
		verr *domain.ValidationError
		serr *ports.StoreError
	)
	switch {
	case errors.As(err, &nf):
		return "not_found"
	case errors.As(err, &verr):
		return "validation"
	case errors.As(err, &serr):
		return "store"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "other"
	}
}
