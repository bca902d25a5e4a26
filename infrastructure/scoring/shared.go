// Package scoring provides the rating aggregation engine: the verdict to
// score mapping, per-review influence, the seed-versus-community trust ramp,
// the weighted attribute blend and publication of the overall score.
//
// Everything in this package is pure. An Engine holds only immutable
// configuration and is safe for concurrent use by multiple goroutines.
package scoring

import (
	"errors"
	"fmt"
	"slices"

	"github.com/go-playground/validator/v10"

	"github.com/ahrav/go-brine/internal/domain"
)

// Common errors returned while building a rating scale or engine.
var (
	// ErrScaleOrder is returned when scale levels are not strictly
	// decreasing in score and band minimum.
	ErrScaleOrder = errors.New("rating scale levels out of order")

	// ErrScoreOutsideBand is returned when a level's representative score
	// does not fall inside its own band.
	ErrScoreOutsideBand = errors.New("rating score outside its band")

	// ErrScaleLabels is returned when scale labels do not match the fixed
	// verdict levels in order.
	ErrScaleLabels = errors.New("rating scale labels do not match verdict levels")
)

// Package-level validator instance for configuration validation.
// Uses go-playground/validator v10 for struct tag-based validation.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := RegisterValidators(v); err != nil {
		panic(fmt.Sprintf("scoring: register validators: %v", err))
	}
	return v
}

// RegisterValidators registers the custom struct tags used by scoring
// configuration on v. Callers validating a configuration tree that embeds
// Config with their own validator must call this first.
//
// Registered tags:
//   - ratinglabel: the field is one of the fixed verdict labels
func RegisterValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("ratinglabel", validateRatingLabel); err != nil {
		return fmt.Errorf("failed to register ratinglabel validator: %w", err)
	}
	return nil
}

func validateRatingLabel(fl validator.FieldLevel) bool {
	return slices.Contains(domain.Ratings(), domain.Rating(fl.Field().String()))
}
