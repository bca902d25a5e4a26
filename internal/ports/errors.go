package ports

import (
	"context"
	"errors"
	"fmt"
)

// Common infrastructure errors that can occur while loading or persisting
// oyster data.
var (
	// ErrStoreUnavailable indicates that the backing store could not be reached.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrTimeout indicates that a store operation timed out.
	ErrTimeout = errors.New("operation timed out")

	// ErrCorruptRecord indicates that a stored row could not be mapped back
	// into a domain value.
	ErrCorruptRecord = errors.New("corrupt record")

	// ErrConfigNotFound indicates that required configuration is missing.
	ErrConfigNotFound = errors.New("configuration not found")
)

// StoreError represents a failed persistence operation.
// It includes the entity and operation that failed so batch reports can
// point at the offending row.
type StoreError struct {
	// Entity is the kind of record involved, e.g. "oyster" or "review".
	Entity string

	// ID identifies the record, when one is known.
	ID string

	// Operation is the name of the store operation that failed.
	Operation string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("store error: operation=%s, entity=%s, err=%v", e.Operation, e.Entity, e.Err)
	}
	return fmt.Sprintf("store error: operation=%s, entity=%s, id=%s, err=%v", e.Operation, e.Entity, e.ID, e.Err)
}

// Unwrap returns the underlying error.
func (e *StoreError) Unwrap() error { return e.Err }

// IsRetryable reports whether the failure is transient. Corrupt records and
// missing rows are never retryable.
func (e *StoreError) IsRetryable() bool {
	return errors.Is(e.Err, ErrStoreUnavailable) ||
		errors.Is(e.Err, ErrTimeout) ||
		errors.Is(e.Err, context.DeadlineExceeded)
}

// NewStoreError creates a new StoreError with the given details.
func NewStoreError(entity, id, operation string, err error) *StoreError {
	return &StoreError{
		Entity:    entity,
		ID:        id,
		Operation: operation,
		Err:       err,
	}
}

// MetricsError represents an error from metrics collection operations.
type MetricsError struct {
	// Metric is the name of the metric that was being collected when the
	// error occurred.
	Metric string

	// Operation is the name of the metrics operation that failed.
	Operation string

	// Err is the underlying error that caused the metrics operation to fail.
	Err error
}

// Error implements the error interface for MetricsError.
func (e *MetricsError) Error() string {
	return fmt.Sprintf("metrics error: operation=%s, metric=%s, err=%v", e.Operation, e.Metric, e.Err)
}

// Unwrap returns the underlying error.
func (e *MetricsError) Unwrap() error { return e.Err }

// NewMetricsError creates a new MetricsError with the given details.
func NewMetricsError(metric, operation string, err error) *MetricsError {
	return &MetricsError{
		Metric:    metric,
		Operation: operation,
		Err:       err,
	}
}

// ConfigError represents an error from configuration operations.
type ConfigError struct {
	// ConfigKey is the configuration key or source that was involved in
	// the failed operation.
	ConfigKey string

	// Err is the underlying error that caused the configuration operation
	// to fail.
	Err error
}

// Error implements the error interface for ConfigError.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: key=%s, err=%v", e.ConfigKey, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfigError creates a new ConfigError with the given details.
func NewConfigError(key string, err error) *ConfigError {
	return &ConfigError{
		ConfigKey: key,
		Err:       err,
	}
}
