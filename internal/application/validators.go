package application

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/ahrav/go-brine/infrastructure/scoring"
)

// registerCustomValidators registers domain-specific validation functions
// with the validator instance: semantic versions and the engine's rating
// label rules.
// registerCustomValidators returns an error if any validator registration fails.
func registerCustomValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("semver", validateSemver); err != nil {
		return fmt.Errorf("failed to register semver validator: %w", err)
	}

	if err := scoring.RegisterValidators(v); err != nil {
		return fmt.Errorf("failed to register scoring validators: %w", err)
	}

	return nil
}

// validateSemver validates that a string follows semantic versioning
// format (X.Y.Z where X, Y, Z are non-negative integers).
func validateSemver(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	var major, minor, patch int
	n, err := fmt.Sscanf(value, "%d.%d.%d", &major, &minor, &patch)
	if err != nil || n != 3 || major < 0 || minor < 0 || patch < 0 {
		return false
	}
	return fmt.Sprintf("%d.%d.%d", major, minor, patch) == value
}

// validateSemantics performs checks that cannot be expressed through struct
// tags. The engine section is delegated to the scoring package so the
// loader and the engine constructor agree on what a valid scale is.
func validateSemantics(cfg *Config) error {
	if err := cfg.Engine.Validate(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	if cfg.Service.MaxWritesPerSecond > 0 && cfg.Service.Burst == 0 {
		return fmt.Errorf("service: burst must be at least 1 when max_writes_per_second is set")
	}
	return nil
}
