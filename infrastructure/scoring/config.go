package scoring

import (
	"fmt"

	"github.com/ahrav/go-brine/internal/domain"
)

// Config is the injectable configuration of the aggregation engine: the
// verdict scale and the trust ramp. Configuration is immutable once an
// Engine has been built from it.
type Config struct {
	// Scale lists the verdict levels from most to least positive. It must
	// contain exactly the four verdict labels in order.
	Scale []LevelConfig `yaml:"scale" json:"scale" validate:"required,len=4,dive"`

	// Ramp controls how much community data outweighs curator seeds as
	// reviews accumulate.
	Ramp TrustRamp `yaml:"trust_ramp" json:"trust_ramp"`
}

// LevelConfig configures one verdict level of the rating scale.
type LevelConfig struct {
	// Rating is the verdict label this level describes.
	Rating domain.Rating `yaml:"rating" json:"rating" validate:"required,ratinglabel"`

	// Score is the representative point used when aggregating reviews with
	// this verdict.
	Score float64 `yaml:"score" json:"score" validate:"min=0,max=10"`

	// Min is the inclusive lower bound of this level's band when mapping a
	// published score back to a verdict. The band extends up to the next
	// higher level's Min (exclusive), or to 10 for the top level.
	Min float64 `yaml:"min" json:"min" validate:"min=0,max=10"`

	// Emoji and Meaning are display metadata returned by reverse lookup.
	Emoji   string `yaml:"emoji" json:"emoji" validate:"max=16"`
	Meaning string `yaml:"meaning" json:"meaning" validate:"max=200"`
}

// DefaultConfig returns the production scale and ramp: representative
// scores 9.0 / 7.0 / 4.95 / 2.5 and a ramp reaching a 0.7 ceiling at five
// reviews.
func DefaultConfig() Config {
	return Config{
		Scale: []LevelConfig{
			{Rating: domain.RatingLoveIt, Score: 9.0, Min: 8.0, Emoji: "🤩", Meaning: "Outstanding, would seek it out again"},
			{Rating: domain.RatingLikeIt, Score: 7.0, Min: 6.0, Emoji: "😋", Meaning: "Good oyster, happy to order again"},
			{Rating: domain.RatingMeh, Score: 4.95, Min: 3.9, Emoji: "😐", Meaning: "Fine but forgettable"},
			{Rating: domain.RatingWhatever, Score: 2.5, Min: 0.0, Emoji: "🤢", Meaning: "Would not order again"},
		},
		Ramp: DefaultTrustRamp(),
	}
}

// Validate checks struct constraints and the ordering rules of the scale.
// It returns a *domain.ValidationError wrapping
// domain.ErrInvalidConfiguration on failure.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		verr := domain.NewValidationError("scoring config")
		verr.Err = domain.ErrInvalidConfiguration
		verr.AddError(err.Error())
		return verr
	}
	return validateLevels(c.Scale)
}

// validateLevels enforces that levels carry the verdict labels in order,
// that scores and band minimums strictly decrease and that every
// representative score lies inside its own band.
func validateLevels(levels []LevelConfig) error {
	verr := domain.NewValidationError("rating scale")
	verr.Err = domain.ErrInvalidConfiguration

	ratings := domain.Ratings()
	if len(levels) != len(ratings) {
		verr.AddError(fmt.Sprintf("%v: want %d levels, got %d", ErrScaleLabels, len(ratings), len(levels)))
		return verr
	}

	for i, l := range levels {
		if l.Rating != ratings[i] {
			verr.AddError(fmt.Sprintf("%v: level %d is %q, want %q", ErrScaleLabels, i, l.Rating, ratings[i]))
		}
		if l.Score < l.Min {
			verr.AddError(fmt.Sprintf("%v: %s score %.2f below band minimum %.2f", ErrScoreOutsideBand, l.Rating, l.Score, l.Min))
		}
		if i == 0 {
			continue
		}
		prev := levels[i-1]
		if l.Score >= prev.Score {
			verr.AddError(fmt.Sprintf("%v: %s score %.2f not below %s score %.2f", ErrScaleOrder, l.Rating, l.Score, prev.Rating, prev.Score))
		}
		if l.Min >= prev.Min {
			verr.AddError(fmt.Sprintf("%v: %s minimum %.2f not below %s minimum %.2f", ErrScaleOrder, l.Rating, l.Min, prev.Rating, prev.Min))
		}
		if l.Score >= prev.Min {
			verr.AddError(fmt.Sprintf("%v: %s score %.2f reaches into %s band starting at %.2f", ErrScoreOutsideBand, l.Rating, l.Score, prev.Rating, prev.Min))
		}
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}
