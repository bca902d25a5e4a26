package application

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-brine/infrastructure/scoring"
	"github.com/ahrav/go-brine/internal/domain"
	"github.com/ahrav/go-brine/internal/ports"
)

// Runtime is a validated configuration together with the engine compiled
// from it.
// WARNING: Runtimes returned by ConfigLoader are shared cache entries.
// Callers MUST NOT mutate Config.
type Runtime struct {
	// Config is the effective configuration after defaults were applied.
	Config Config
	// Engine is the aggregation engine built from Config.Engine.
	Engine *scoring.Engine
	// Hash is the SHA256 of the normalized configuration, useful for
	// logging which configuration a process is running.
	Hash string
}

// ConfigLoader parses, validates and caches service configuration.
// Identical configurations, regardless of formatting, compile once; the
// cache is keyed by the SHA256 of the normalized YAML.
type ConfigLoader struct {
	// validator performs struct tag validation, including the custom tags
	// registered by registerCustomValidators.
	validator *validator.Validate
	// cache stores compiled runtimes indexed by configuration hash.
	cache   map[string]*Runtime
	cacheMu sync.RWMutex
	// sf prevents duplicate compilation when multiple goroutines request
	// the same configuration simultaneously.
	sf singleflight.Group
}

// NewConfigLoader creates a loader with an empty cache.
// NewConfigLoader returns an error if validator registration fails.
func NewConfigLoader() (*ConfigLoader, error) {
	v := validator.New()
	if err := registerCustomValidators(v); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	return &ConfigLoader{
		validator: v,
		cache:     make(map[string]*Runtime),
	}, nil
}

// LoadFromFile loads configuration from a YAML file.
// LoadFromFile returns a *ports.ConfigError naming the path if the file
// cannot be read, and a wrapped validation error if its contents are
// invalid.
func (cl *ConfigLoader) LoadFromFile(ctx context.Context, path string) (*Runtime, error) {
	cleanPath := filepath.Clean(path)

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ports.NewConfigError(cleanPath, ports.ErrConfigNotFound)
		}
		return nil, ports.NewConfigError(cleanPath, err)
	}

	return cl.load(ctx, data)
}

// LoadFromReader loads configuration from r. An empty document yields the
// defaults.
func (cl *ConfigLoader) LoadFromReader(ctx context.Context, r io.Reader) (*Runtime, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}

	return cl.load(ctx, data)
}

// LoadDefault returns the runtime for DefaultConfig.
func (cl *ConfigLoader) LoadDefault(ctx context.Context) (*Runtime, error) {
	return cl.load(ctx, nil)
}

func (cl *ConfigLoader) load(ctx context.Context, data []byte) (*Runtime, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg, err := cl.parseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	hash, err := calculateConfigHash(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate hash: %w", err)
	}

	v, err, _ := cl.sf.Do(hash, func() (any, error) {
		if rt, ok := cl.getCached(hash); ok {
			return rt, nil
		}

		if err := cl.validateConfig(cfg); err != nil {
			return nil, fmt.Errorf("validation failed: %w", err)
		}

		engine, err := scoring.NewEngine(cfg.Engine)
		if err != nil {
			return nil, fmt.Errorf("failed to build engine: %w", err)
		}

		rt := &Runtime{Config: *cfg, Engine: engine, Hash: hash}
		cl.store(hash, rt)
		return rt, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*Runtime), nil
}

// parseYAML decodes data on top of DefaultConfig. Decoding is strict so
// misspelled keys are reported instead of silently ignored.
func (cl *ConfigLoader) parseYAML(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if len(bytes.TrimSpace(data)) == 0 {
		return &cfg, nil
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("YAML decode failed: %w", err)
	}
	return &cfg, nil
}

// validateConfig runs struct tag validation followed by semantic checks.
// Failures are reported as a *domain.ValidationError wrapping
// domain.ErrInvalidConfiguration.
func (cl *ConfigLoader) validateConfig(cfg *Config) error {
	if err := cl.validator.Struct(cfg); err != nil {
		verr := domain.NewValidationError("config")
		verr.Err = domain.ErrInvalidConfiguration

		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				verr.AddError(fmt.Sprintf("%s failed on %q", fe.Namespace(), fe.Tag()))
			}
		} else {
			verr.AddError(err.Error())
		}
		return verr
	}

	if err := validateSemantics(cfg); err != nil {
		verr := domain.NewValidationError("config")
		verr.Err = domain.ErrInvalidConfiguration
		verr.AddError(err.Error())
		return verr
	}

	return nil
}

// calculateConfigHash computes the SHA256 of cfg re-encoded with consistent
// formatting, so semantically identical files share a cache entry.
func calculateConfigHash(cfg *Config) (string, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)

	if err := encoder.Encode(cfg); err != nil {
		return "", fmt.Errorf("failed to encode config for hashing: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return "", fmt.Errorf("failed to encode config for hashing: %w", err)
	}

	hash := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(hash[:]), nil
}

func (cl *ConfigLoader) getCached(hash string) (*Runtime, bool) {
	cl.cacheMu.RLock()
	defer cl.cacheMu.RUnlock()

	rt, ok := cl.cache[hash]
	return rt, ok
}

func (cl *ConfigLoader) store(hash string, rt *Runtime) {
	cl.cacheMu.Lock()
	defer cl.cacheMu.Unlock()

	cl.cache[hash] = rt
}

// ClearCache drops every cached runtime, forcing subsequent loads to
// recompile.
func (cl *ConfigLoader) ClearCache() {
	cl.cacheMu.Lock()
	defer cl.cacheMu.Unlock()

	cl.cache = make(map[string]*Runtime)
}

// CacheSize reports the number of cached runtimes.
func (cl *ConfigLoader) CacheSize() int {
	cl.cacheMu.RLock()
	defer cl.cacheMu.RUnlock()

	return len(cl.cache)
}
