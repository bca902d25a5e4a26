package application

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ahrav/go-brine/internal/ports"
)

// ItemFailure records why one oyster could not be recomputed.
// Retryable is set for transient store failures such as timeouts; a rerun
// of the batch may succeed for these oysters.
type ItemFailure struct {
	OysterID  uuid.UUID `json:"oyster_id"`
	Error     string    `json:"error"`
	Retryable bool      `json:"retryable"`
	Err       error     `json:"-"`
}

// BatchReport summarises a RecomputeAll run. Both lists are sorted by
// oyster ID so reports are reproducible.
type BatchReport struct {
	Updated  []uuid.UUID   `json:"updated"`
	Failed   []ItemFailure `json:"failed"`
	Duration time.Duration `json:"duration"`
}

// Total returns the number of oysters the batch attempted.
func (r *BatchReport) Total() int { return len(r.Updated) + len(r.Failed) }

// RecomputeAll recomputes every oyster in the store. A failing oyster is
// logged with its ID, recorded in the report and does not stop the batch.
//
// The returned error is non-nil only when the oyster list cannot be loaded
// or ctx is cancelled; in the latter case the partial report is returned
// alongside ctx's error.
func (s *RecomputeService) RecomputeAll(ctx context.Context) (*BatchReport, error) {
	start := time.Now()

	ids, err := s.store.ListOysterIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list oysters: %w", err)
	}
	slices.SortFunc(ids, compareUUID)

	s.log.Info("batch recompute started",
		zap.Int("oysters", len(ids)),
		zap.Int("concurrency", s.cfg.Concurrency),
	)

	var (
		mu     sync.Mutex
		report = &BatchReport{Updated: []uuid.UUID{}, Failed: []ItemFailure{}}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)

	for _, id := range ids {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			_, err := s.recomputer.RecomputeOyster(gctx, id)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if isCancellation(gctx, err) {
					return nil
				}
				retryable := isRetryable(err)
				s.log.Error("oyster recompute failed",
					zap.String("oyster_id", id.String()),
					zap.Bool("retryable", retryable),
					zap.Error(err),
				)
				report.Failed = append(report.Failed, ItemFailure{
					OysterID:  id,
					Error:     err.Error(),
					Retryable: retryable,
					Err:       err,
				})
				return nil
			}
			report.Updated = append(report.Updated, id)
			return nil
		})
	}

	// Item errors never reach the group; only cancellation does.
	waitErr := g.Wait()

	slices.SortFunc(report.Updated, compareUUID)
	slices.SortFunc(report.Failed, func(a, b ItemFailure) int { return compareUUID(a.OysterID, b.OysterID) })
	report.Duration = time.Since(start)

	s.recordBatch(report)

	if err := ctx.Err(); err != nil {
		s.log.Warn("batch recompute cancelled",
			zap.Int("updated", len(report.Updated)),
			zap.Int("failed", len(report.Failed)),
			zap.Int("skipped", len(ids)-report.Total()),
		)
		return report, err
	}
	if waitErr != nil {
		return report, waitErr
	}

	s.log.Info("batch recompute finished",
		zap.Int("updated", len(report.Updated)),
		zap.Int("failed", len(report.Failed)),
		zap.Duration("duration", report.Duration),
	)
	return report, nil
}

func (s *RecomputeService) recordBatch(report *BatchReport) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordGauge(ports.MetricBatchUpdated, float64(len(report.Updated)), nil)
	s.metrics.RecordGauge(ports.MetricBatchFailed, float64(len(report.Failed)), nil)
}

// isCancellation reports whether an item stopped because the batch was
// cancelled. Such items are neither updated nor failed; they are skipped.
// Genuine failures that happen to land after cancellation are still failures.
func isCancellation(ctx context.Context, err error) bool {
	if ctx.Err() == nil {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func isRetryable(err error) bool {
	var serr *ports.StoreError
	return errors.As(err, &serr) && serr.IsRetryable()
}

func compareUUID(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) }
