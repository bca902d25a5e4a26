package domain

import (
	"github.com/google/uuid"
)

// Oyster is a catalog item whose published scores are derived from its
// curator seed values and the reviews left for it.
//
// The seed fields are read-only inputs to aggregation. Aggregates holds the
// most recently persisted result and is overwritten wholesale on every
// recomputation; it never carries state of its own.
type Oyster struct {
	// ID uniquely identifies the oyster.
	ID uuid.UUID `json:"id" yaml:"id"`

	// Name, Species and Origin describe the oyster and are never written by
	// the aggregation engine.
	Name    string `json:"name" yaml:"name"`
	Species string `json:"species,omitempty" yaml:"species,omitempty"`
	Origin  string `json:"origin,omitempty" yaml:"origin,omitempty"`

	// Curator baseline values on the 1-10 scale.
	SeedSize           float64 `json:"seed_size" yaml:"seed_size"`
	SeedBody           float64 `json:"seed_body" yaml:"seed_body"`
	SeedSweetBrininess float64 `json:"seed_sweet_brininess" yaml:"seed_sweet_brininess"`
	SeedFlavorfulness  float64 `json:"seed_flavorfulness" yaml:"seed_flavorfulness"`
	SeedCreaminess     float64 `json:"seed_creaminess" yaml:"seed_creaminess"`

	// Aggregates holds the published statistics for the oyster.
	Aggregates AggregateResult `json:"aggregates" yaml:"aggregates"`
}

// Seed returns the curator seed value for the given attribute.
// Unknown attributes return zero.
func (o *Oyster) Seed(a Attribute) float64 {
	switch a {
	case AttributeSize:
		return o.SeedSize
	case AttributeBody:
		return o.SeedBody
	case AttributeSweetBrininess:
		return o.SeedSweetBrininess
	case AttributeFlavorfulness:
		return o.SeedFlavorfulness
	case AttributeCreaminess:
		return o.SeedCreaminess
	default:
		return 0
	}
}
