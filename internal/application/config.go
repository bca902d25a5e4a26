// Package application orchestrates oyster aggregate recomputation: it loads
// configuration, reads oysters and reviews through the store port, runs the
// aggregation engine and persists the results.
package application

import (
	"github.com/ahrav/go-brine/infrastructure/scoring"
)

// Config is the complete runtime configuration for the recompute service
// and the tools built on it.
// Use DefaultConfig as the base and overlay user YAML on top of it so that
// omitted sections keep production defaults.
type Config struct {
	// Version specifies the configuration schema version using semantic
	// versioning to ensure compatibility across releases.
	Version string `yaml:"version" validate:"required,semver"`
	// Engine configures the rating scale and trust ramp used by the
	// aggregation engine.
	Engine scoring.Config `yaml:"engine"`
	// Service controls how recomputations are scheduled and throttled.
	Service ServiceConfig `yaml:"service"`
	// Store selects and addresses the persistence backend.
	Store StoreConfig `yaml:"store"`
	// Telemetry configures logging, metrics and tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServiceConfig controls batch recomputation and write pacing.
type ServiceConfig struct {
	// Concurrency bounds how many oysters a batch recomputes at once.
	// One means strictly sequential processing.
	Concurrency int `yaml:"concurrency" validate:"min=1,max=64"`
	// MaxWritesPerSecond throttles aggregate writes to the store.
	// Zero disables throttling.
	MaxWritesPerSecond float64 `yaml:"max_writes_per_second" validate:"min=0,max=100000"`
	// Burst is the number of writes allowed to exceed the steady rate.
	// It is only consulted when MaxWritesPerSecond is positive.
	Burst int `yaml:"burst" validate:"min=0,max=10000"`
}

// StoreConfig addresses the persistence backend.
type StoreConfig struct {
	// Driver names the database driver. Only sqlite is supported.
	Driver string `yaml:"driver" validate:"required,oneof=sqlite"`
	// DSN is the driver-specific data source name, e.g. a file path or
	// "file::memory:?cache=shared".
	DSN string `yaml:"dsn" validate:"required,max=4096"`
	// AutoMigrate creates or updates the schema on open.
	AutoMigrate bool `yaml:"auto_migrate"`
}

// TelemetryConfig configures observability output.
type TelemetryConfig struct {
	// LogMode selects the log encoder: "dev" for console output, "prod"
	// for JSON.
	LogMode string `yaml:"log_mode" validate:"omitempty,oneof=dev development prod production"`
	// LogLevel is the minimum level that is emitted.
	LogLevel string `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
	// MetricsNamespace prefixes every exported Prometheus metric.
	MetricsNamespace string `yaml:"metrics_namespace" validate:"omitempty,max=64"`
	// Tracing enables OpenTelemetry spans around recomputation.
	Tracing bool `yaml:"tracing"`
}

// CurrentConfigVersion is the schema version written by DefaultConfig.
const CurrentConfigVersion = "1.0.0"

// DefaultConfig returns the production configuration: the standard rating
// scale and trust ramp, sequential batches without throttling and a local
// SQLite database.
func DefaultConfig() Config {
	return Config{
		Version: CurrentConfigVersion,
		Engine:  scoring.DefaultConfig(),
		Service: ServiceConfig{
			Concurrency: 1,
		},
		Store: StoreConfig{
			Driver:      "sqlite",
			DSN:         "brine.db",
			AutoMigrate: true,
		},
		Telemetry: TelemetryConfig{
			LogMode:          "dev",
			LogLevel:         "info",
			MetricsNamespace: "brine",
		},
	}
}
