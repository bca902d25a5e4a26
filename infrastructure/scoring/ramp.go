package scoring

// TrustRamp maps a review count to the share of an attribute average that
// comes from community data rather than the curator seed.
//
// The ramp is zero with no reviews, rises linearly with the count, and
// saturates at Ceiling once Threshold reviews exist. It is continuous and
// monotonically non-decreasing in the review count.
type TrustRamp struct {
	// Ceiling is the maximum community share, reached at Threshold reviews.
	Ceiling float64 `yaml:"ceiling" json:"ceiling" validate:"min=0,max=1"`

	// Threshold is the review count at which the ramp saturates.
	Threshold int `yaml:"threshold" json:"threshold" validate:"min=1"`
}

// DefaultTrustRamp returns the production ramp {ceiling: 0.7, threshold: 5}.
func DefaultTrustRamp() TrustRamp {
	return TrustRamp{Ceiling: 0.7, Threshold: 5}
}

// Weight returns the community share for the given review count.
func (tr TrustRamp) Weight(reviewCount int) float64 {
	switch {
	case reviewCount <= 0:
		return 0
	case reviewCount >= tr.Threshold:
		return tr.Ceiling
	default:
		return float64(reviewCount) / float64(tr.Threshold) * tr.Ceiling
	}
}
