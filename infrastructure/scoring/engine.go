package scoring

import (
	"fmt"
	"math"

	"github.com/ahrav/go-brine/internal/domain"
)

// Published score bounds and the neutral score shown for unreviewed oysters.
const (
	MinOverallScore     = 0.0
	MaxOverallScore     = 10.0
	NeutralOverallScore = 5.0
)

var _ domain.Aggregator = (*Engine)(nil)

// Engine computes published oyster statistics from seed values and reviews.
//
// Algorithm per recomputation:
//  1. Each review's influence is qualityWeight × reviewerCredibility.
//  2. The trust ramp turns the total review count into a community share.
//  3. Each attribute blends its seed with the influence-weighted mean of the
//     reviews that scored it; attributes nobody scored keep the seed.
//  4. avgRating is the influence-weighted mean of verdict scores (no seed).
//  5. overallScore is 5.0 with no reviews, else avgRating rounded to two
//     decimals and clamped to [0, 10].
//
// Concurrency: Engine is stateless beyond its immutable configuration and is
// safe for concurrent use.
type Engine struct {
	scale *RatingScale
	ramp  TrustRamp
}

// NewEngine validates cfg and builds an Engine from it.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	scale, err := NewRatingScale(cfg.Scale)
	if err != nil {
		return nil, fmt.Errorf("build rating scale: %w", err)
	}

	return &Engine{scale: scale, ramp: cfg.Ramp}, nil
}

// Scale returns the engine's rating scale.
func (e *Engine) Scale() *RatingScale { return e.scale }

// Ramp returns the engine's trust ramp.
func (e *Engine) Ramp() TrustRamp { return e.ramp }

// Recompute implements domain.Aggregator. It never reads previously
// published aggregates on the oyster and never modifies its arguments.
func (e *Engine) Recompute(oyster *domain.Oyster, reviews []domain.Review) (domain.AggregateResult, error) {
	if oyster == nil {
		return domain.AggregateResult{}, domain.NewNotFoundError("oyster", "")
	}
	if err := validateSeeds(oyster); err != nil {
		return domain.AggregateResult{}, err
	}

	verdicts := make([]Sample, len(reviews))
	influences := make([]float64, len(reviews))
	for i := range reviews {
		r := &reviews[i]
		if err := validateReview(r); err != nil {
			return domain.AggregateResult{}, err
		}

		score, err := e.scale.ScoreOf(r.Rating)
		if err != nil {
			return domain.AggregateResult{}, fmt.Errorf("review %s: %w", r.ID, err)
		}

		influences[i] = Influence(r)
		verdicts[i] = Sample{Value: score, Influence: influences[i]}
	}

	count := len(reviews)
	userWeight := e.ramp.Weight(count)

	result := domain.AggregateResult{TotalReviews: count}
	for _, attr := range domain.Attributes() {
		samples := make([]Sample, 0, count)
		for i := range reviews {
			if v := reviews[i].Value(attr); v != nil {
				samples = append(samples, Sample{Value: *v, Influence: influences[i]})
			}
		}
		result.SetAverage(attr, Blend(oyster.Seed(attr), samples, userWeight))
	}

	if avg, ok := WeightedMean(verdicts); ok {
		result.AvgRating = avg
	}
	if err := validateResult(oyster, result); err != nil {
		return domain.AggregateResult{}, err
	}
	result.OverallScore = PublishOverall(count, result.AvgRating)

	return result, nil
}

// validateResult rejects averages whose weighted sums overflowed even though
// every individual input was finite.
func validateResult(o *domain.Oyster, r domain.AggregateResult) error {
	verr := domain.NewValidationError(fmt.Sprintf("oyster %s", o.ID))
	verr.Err = domain.ErrNonFiniteValue
	if !isFinite(r.AvgRating) {
		verr.AddError(fmt.Sprintf("rating average is %v", r.AvgRating))
	}
	for _, attr := range domain.Attributes() {
		if v := r.Average(attr); !isFinite(v) {
			verr.AddError(fmt.Sprintf("%s average is %v", attr, v))
		}
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}

// PublishOverall converts the verdict average into the headline score.
func PublishOverall(reviewCount int, avgRating float64) float64 {
	if reviewCount == 0 {
		return NeutralOverallScore
	}
	return clamp(round2(avgRating), MinOverallScore, MaxOverallScore)
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

// clamp bounds v to [lo, hi]; NaN maps to lo.
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

func validateSeeds(o *domain.Oyster) error {
	verr := domain.NewValidationError(fmt.Sprintf("oyster %s", o.ID))
	verr.Err = domain.ErrNonFiniteValue
	for _, attr := range domain.Attributes() {
		if v := o.Seed(attr); !isFinite(v) {
			verr.AddError(fmt.Sprintf("seed %s is %v", attr, v))
		}
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}

func validateReview(r *domain.Review) error {
	verr := domain.NewValidationError(fmt.Sprintf("review %s", r.ID))
	verr.Err = domain.ErrNonFiniteValue
	for _, attr := range domain.Attributes() {
		if v := r.Value(attr); v != nil && !isFinite(*v) {
			verr.AddError(fmt.Sprintf("%s is %v", attr, *v))
		}
	}
	if w := r.EffectiveQualityWeight(); !isFinite(w) {
		verr.AddError(fmt.Sprintf("quality weight is %v", w))
	}
	if !isFinite(r.ReviewerCredibility) {
		verr.AddError(fmt.Sprintf("reviewer credibility is %v", r.ReviewerCredibility))
	}
	if !verr.HasErrors() {
		if inf := Influence(r); !isFinite(inf) {
			verr.AddError(fmt.Sprintf("influence overflows: quality weight %v x credibility %v", r.EffectiveQualityWeight(), r.ReviewerCredibility))
		}
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
