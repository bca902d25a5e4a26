// Package domain contains pure, dependency-light domain models and types
// for the oyster rating aggregation engine.
package domain

// Rating is the coarse categorical verdict a reviewer selects for an oyster.
// Ratings form a fixed ordered set from most to least positive; the numeric
// value of each level is owned by the scoring configuration, not by the
// label itself.
type Rating string

// The four verdict levels, ordered from most to least positive.
const (
	RatingLoveIt   Rating = "LOVE_IT"
	RatingLikeIt   Rating = "LIKE_IT"
	RatingMeh      Rating = "MEH"
	RatingWhatever Rating = "WHATEVER"
)

// Ratings returns the verdict levels in order from most to least positive.
func Ratings() []Rating {
	return []Rating{RatingLoveIt, RatingLikeIt, RatingMeh, RatingWhatever}
}

// String returns the label of the rating.
func (r Rating) String() string { return string(r) }

// Attribute identifies one of the five fine-grained taste dimensions that
// reviewers score on a 1-10 scale and curators seed.
type Attribute string

// Taste attributes in their canonical order.
const (
	AttributeSize           Attribute = "size"
	AttributeBody           Attribute = "body"
	AttributeSweetBrininess Attribute = "sweet_brininess"
	AttributeFlavorfulness  Attribute = "flavorfulness"
	AttributeCreaminess     Attribute = "creaminess"
)

// Attributes returns all taste attributes in canonical order.
func Attributes() []Attribute {
	return []Attribute{
		AttributeSize,
		AttributeBody,
		AttributeSweetBrininess,
		AttributeFlavorfulness,
		AttributeCreaminess,
	}
}

// String returns the attribute name.
func (a Attribute) String() string { return string(a) }
