package domain

// AggregateResult holds the published statistics for one oyster. Every field
// is a pure function of the oyster's seed values and its current review set.
type AggregateResult struct {
	// TotalReviews is the number of reviews the result was computed from.
	TotalReviews int `json:"total_reviews" yaml:"total_reviews"`

	// AvgRating is the influence-weighted verdict score on the 0-10 scale.
	AvgRating float64 `json:"avg_rating" yaml:"avg_rating"`

	// Seed-blended attribute averages on the 1-10 scale.
	AvgSize           float64 `json:"avg_size" yaml:"avg_size"`
	AvgBody           float64 `json:"avg_body" yaml:"avg_body"`
	AvgSweetBrininess float64 `json:"avg_sweet_brininess" yaml:"avg_sweet_brininess"`
	AvgFlavorfulness  float64 `json:"avg_flavorfulness" yaml:"avg_flavorfulness"`
	AvgCreaminess     float64 `json:"avg_creaminess" yaml:"avg_creaminess"`

	// OverallScore is the headline score, rounded to two decimals and
	// clamped to [0, 10].
	OverallScore float64 `json:"overall_score" yaml:"overall_score"`
}

// Average returns the blended average for the given attribute.
// Unknown attributes return zero.
func (r AggregateResult) Average(a Attribute) float64 {
	switch a {
	case AttributeSize:
		return r.AvgSize
	case AttributeBody:
		return r.AvgBody
	case AttributeSweetBrininess:
		return r.AvgSweetBrininess
	case AttributeFlavorfulness:
		return r.AvgFlavorfulness
	case AttributeCreaminess:
		return r.AvgCreaminess
	default:
		return 0
	}
}

// SetAverage stores the blended average for the given attribute.
// Unknown attributes are ignored.
func (r *AggregateResult) SetAverage(a Attribute, v float64) {
	switch a {
	case AttributeSize:
		r.AvgSize = v
	case AttributeBody:
		r.AvgBody = v
	case AttributeSweetBrininess:
		r.AvgSweetBrininess = v
	case AttributeFlavorfulness:
		r.AvgFlavorfulness = v
	case AttributeCreaminess:
		r.AvgCreaminess = v
	}
}

// Aggregator defines the interface for turning an oyster's seed values and
// review set into published statistics.
type Aggregator interface {
	// Recompute derives a fresh AggregateResult from scratch. It must be
	// pure: the same oyster and reviews always yield an identical result,
	// and neither argument is modified.
	//
	// A nil oyster fails with a *NotFoundError. A review whose rating is not
	// part of the configured scale, or whose numeric inputs are not finite,
	// fails with a *ValidationError.
	//
	// Example:
	//
	//	result, err := aggregator.Recompute(oyster, reviews)
	//	if err != nil {
	//	    return fmt.Errorf("recompute %s: %w", oyster.ID, err)
	//	}
	Recompute(oyster *Oyster, reviews []Review) (AggregateResult, error)
}
