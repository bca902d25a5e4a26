package domain

import (
	"github.com/google/uuid"
)

// DefaultQualityWeight is the community quality multiplier applied when a
// review has no vote-derived weight.
const DefaultQualityWeight = 1.0

// Review is a single user's assessment of an oyster, joined with the
// credibility of its author. Reviews are immutable inputs to aggregation.
type Review struct {
	// ID uniquely identifies the review.
	ID uuid.UUID `json:"id" yaml:"id"`

	// OysterID identifies the reviewed oyster.
	OysterID uuid.UUID `json:"oyster_id" yaml:"oyster_id"`

	// ReviewerID identifies the author of the review.
	ReviewerID uuid.UUID `json:"reviewer_id" yaml:"reviewer_id"`

	// Rating is the reviewer's categorical verdict.
	Rating Rating `json:"rating" yaml:"rating"`

	// Attribute scores on the 1-10 scale. A nil value means the reviewer did
	// not score that attribute and the review is excluded from its average.
	Size           *float64 `json:"size,omitempty" yaml:"size,omitempty"`
	Body           *float64 `json:"body,omitempty" yaml:"body,omitempty"`
	SweetBrininess *float64 `json:"sweet_brininess,omitempty" yaml:"sweet_brininess,omitempty"`
	Flavorfulness  *float64 `json:"flavorfulness,omitempty" yaml:"flavorfulness,omitempty"`
	Creaminess     *float64 `json:"creaminess,omitempty" yaml:"creaminess,omitempty"`

	// Notes is free text and does not influence aggregation.
	Notes string `json:"notes,omitempty" yaml:"notes,omitempty"`

	// QualityWeight is the community-vote-derived multiplier, documented
	// range [0.4, 1.5]. Nil means no votes have been cast.
	QualityWeight *float64 `json:"quality_weight,omitempty" yaml:"quality_weight,omitempty"`

	// ReviewerCredibility is the author's credibility, documented range
	// [0.5, 1.5]. It is supplied by the caller and never computed here.
	ReviewerCredibility float64 `json:"reviewer_credibility" yaml:"reviewer_credibility"`
}

// Value returns the review's score for the given attribute, or nil when the
// attribute was not scored.
func (r *Review) Value(a Attribute) *float64 {
	switch a {
	case AttributeSize:
		return r.Size
	case AttributeBody:
		return r.Body
	case AttributeSweetBrininess:
		return r.SweetBrininess
	case AttributeFlavorfulness:
		return r.Flavorfulness
	case AttributeCreaminess:
		return r.Creaminess
	default:
		return nil
	}
}

// EffectiveQualityWeight returns the quality weight, falling back to
// DefaultQualityWeight when none is set.
func (r *Review) EffectiveQualityWeight() float64 {
	if r.QualityWeight == nil {
		return DefaultQualityWeight
	}
	return *r.QualityWeight
}
