package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ahrav/go-brine/internal/domain"
	"github.com/ahrav/go-brine/internal/ports"
)

var _ ports.Recomputer = (*RecomputeService)(nil)

// RecomputeService keeps published oyster aggregates in step with their
// reviews. It loads an oyster and its reviews through the store, runs the
// aggregator and writes the eight aggregate fields back in one statement.
//
// Recomputations of the same oyster are serialized so a slow writer can
// never overwrite a result computed from newer reviews; different oysters
// are recomputed independently.
type RecomputeService struct {
	store      ports.OysterStore
	aggregator domain.Aggregator
	cfg        ServiceConfig

	log     *zap.Logger
	metrics ports.MetricsCollector
	limiter *rate.Limiter
	locks   *keyedMutex

	// recomputer is the entry point used by triggers and batches. It is the
	// service itself unless decorated with WithRecomputeDecorator.
	recomputer ports.Recomputer
}

// ServiceOption customizes a RecomputeService.
type ServiceOption func(*RecomputeService)

// WithLogger sets the service logger. A nil logger is ignored.
func WithLogger(log *zap.Logger) ServiceOption {
	return func(s *RecomputeService) {
		if log != nil {
			s.log = log
		}
	}
}

// WithMetrics sets the collector that receives recompute metrics.
func WithMetrics(m ports.MetricsCollector) ServiceOption {
	return func(s *RecomputeService) { s.metrics = m }
}

// WithRecomputeDecorator wraps the per-oyster entry point used by
// HandleReviewChange and RecomputeAll, e.g. with tracing.
func WithRecomputeDecorator(wrap func(ports.Recomputer) ports.Recomputer) ServiceOption {
	return func(s *RecomputeService) {
		if wrap != nil {
			s.recomputer = wrap(s.recomputer)
		}
	}
}

// NewRecomputeService creates a service over store and aggregator.
// NewRecomputeService returns an error if a dependency is missing or cfg
// is out of range.
func NewRecomputeService(
	store ports.OysterStore,
	aggregator domain.Aggregator,
	cfg ServiceConfig,
	opts ...ServiceOption,
) (*RecomputeService, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if aggregator == nil {
		return nil, fmt.Errorf("aggregator is required")
	}
	if cfg.Concurrency < 1 {
		return nil, fmt.Errorf("concurrency must be at least 1, got %d", cfg.Concurrency)
	}
	if cfg.MaxWritesPerSecond < 0 {
		return nil, fmt.Errorf("max writes per second must not be negative, got %v", cfg.MaxWritesPerSecond)
	}

	s := &RecomputeService{
		store:      store,
		aggregator: aggregator,
		cfg:        cfg,
		log:        zap.NewNop(),
		locks:      newKeyedMutex(),
	}
	if cfg.MaxWritesPerSecond > 0 {
		burst := max(cfg.Burst, 1)
		s.limiter = rate.NewLimiter(rate.Limit(cfg.MaxWritesPerSecond), burst)
	}
	s.recomputer = s

	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(zap.String("component", "recompute_service"))

	return s, nil
}

// RecomputeOyster implements ports.Recomputer.
//
// A missing oyster yields an error matching domain.ErrNotFound. Malformed
// review data yields a *domain.ValidationError; nothing is written in
// either case.
func (s *RecomputeService) RecomputeOyster(ctx context.Context, oysterID uuid.UUID) (domain.AggregateResult, error) {
	start := time.Now()

	result, err := s.recompute(ctx, oysterID)

	status := "ok"
	if err != nil {
		status = "error"
	}
	s.record(time.Since(start), status, result, err == nil)

	return result, err
}

func (s *RecomputeService) recompute(ctx context.Context, oysterID uuid.UUID) (domain.AggregateResult, error) {
	unlock := s.locks.Lock(oysterID)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return domain.AggregateResult{}, err
	}

	oyster, err := s.store.GetOyster(ctx, oysterID)
	if err != nil {
		return domain.AggregateResult{}, fmt.Errorf("load oyster %s: %w", oysterID, err)
	}

	reviews, err := s.store.ListReviews(ctx, oysterID)
	if err != nil {
		return domain.AggregateResult{}, fmt.Errorf("load reviews for oyster %s: %w", oysterID, err)
	}

	result, err := s.aggregator.Recompute(oyster, reviews)
	if err != nil {
		return domain.AggregateResult{}, fmt.Errorf("recompute oyster %s: %w", oysterID, err)
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			if cerr := ctx.Err(); cerr != nil {
				err = cerr
			}
			return domain.AggregateResult{}, fmt.Errorf("write throttle for oyster %s: %w", oysterID, err)
		}
	}

	if err := s.store.SaveAggregates(ctx, oysterID, result); err != nil {
		return domain.AggregateResult{}, fmt.Errorf("save aggregates for oyster %s: %w", oysterID, err)
	}

	s.log.Debug("aggregates recomputed",
		zap.String("oyster_id", oysterID.String()),
		zap.Int("total_reviews", result.TotalReviews),
		zap.Float64("overall_score", result.OverallScore),
	)
	return result, nil
}

func (s *RecomputeService) record(d time.Duration, status string, result domain.AggregateResult, ok bool) {
	if s.metrics == nil {
		return
	}
	labels := map[string]string{"status": status}
	s.metrics.RecordLatency(ports.OperationRecompute, d, labels)
	s.metrics.RecordCounter(ports.MetricRecomputations, 1, labels)
	if ok {
		s.metrics.RecordHistogram(ports.MetricOverallScore, result.OverallScore, nil)
	}
}
