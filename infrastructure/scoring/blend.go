package scoring

import (
	"github.com/ahrav/go-brine/internal/domain"
)

// Sample is one review's contribution to an average: a value and the
// influence it carries.
type Sample struct {
	Value     float64
	Influence float64
}

// Influence combines a review's community quality weight with its author's
// credibility. Out-of-range inputs are used as given; callers own their data.
func Influence(r *domain.Review) float64 {
	return r.EffectiveQualityWeight() * r.ReviewerCredibility
}

// WeightedMean returns Σ(value·influence) / Σ(influence). The boolean is
// false when there are no samples or the total influence is zero, in which
// case the mean is undefined and callers supply their own fallback.
func WeightedMean(samples []Sample) (float64, bool) {
	var num, den float64
	for _, s := range samples {
		num += s.Value * s.Influence
		den += s.Influence
	}
	if len(samples) == 0 || den == 0 {
		return 0, false
	}
	return num / den, true
}

// Blend mixes a curator seed with the community mean of samples:
// (1-userWeight)·seed + userWeight·mean. With no samples, or with zero total
// influence, the seed is returned unchanged.
func Blend(seed float64, samples []Sample, userWeight float64) float64 {
	userAvg, ok := WeightedMean(samples)
	if !ok {
		return seed
	}
	return (1-userWeight)*seed + userWeight*userAvg
}
