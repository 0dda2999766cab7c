// Package settings stores mutable cluster settings in Redis and serves the
// feature gate consulted by the highlighting pipeline.
package settings

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/spotlight/internal/domain"
)

const enabledFactoriesField = "enabled_system_generated_factories"

// Wildcard enables every system-generated factory.
const Wildcard = "*"

// store is the consumer interface for the settings repository (ISP).
type store interface {
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HSet(ctx context.Context, key string, fields map[string]string) error
	HDel(ctx context.Context, key string, fields ...string) error
}

// Repository reads and writes cluster settings. Settings live in a single
// Redis hash; a missing field falls back to the configured defaults.
type Repository struct {
	store    store
	defaults []string
	logger   *zap.Logger
}

// New creates a settings repository. defaults is the factory list used when
// the setting has never been written.
func New(s store, defaults []string, logger *zap.Logger) *Repository {
	return &Repository{
		store:    s,
		defaults: defaults,
		logger:   logger,
	}
}

func settingsKey() string {
	return domain.KeyPrefix + "settings:cluster"
}

// FactoryEnabled reports whether the named system-generated factory is
// enabled. The stored list supports the "*" wildcard.
func (r *Repository) FactoryEnabled(ctx context.Context, name string) (bool, error) {
	factories, err := r.EnabledFactories(ctx)
	if err != nil {
		return false, err
	}
	for _, f := range factories {
		if f == Wildcard || f == name {
			return true, nil
		}
	}
	return false, nil
}

// EnabledFactories returns the current factory list, falling back to defaults
// when the setting is absent.
func (r *Repository) EnabledFactories(ctx context.Context) ([]string, error) {
	fields, err := r.store.HGetAll(ctx, settingsKey())
	if err != nil {
		return nil, fmt.Errorf("read cluster settings: %w", err)
	}

	raw, ok := fields[enabledFactoriesField]
	if !ok || raw == "" {
		return r.defaults, nil
	}

	var factories []string
	if err := json.Unmarshal([]byte(raw), &factories); err != nil {
		r.logger.Warn("Malformed enabled factories setting, using defaults",
			zap.String("raw", raw), zap.Error(err))
		return r.defaults, nil
	}
	return factories, nil
}

// SetEnabledFactories replaces the factory list.
func (r *Repository) SetEnabledFactories(ctx context.Context, factories []string) error {
	data, err := json.Marshal(factories)
	if err != nil {
		return fmt.Errorf("marshal factories: %w", err)
	}
	if err := r.store.HSet(ctx, settingsKey(), map[string]string{
		enabledFactoriesField: string(data),
	}); err != nil {
		return fmt.Errorf("write cluster settings: %w", err)
	}
	return nil
}

// ResetEnabledFactories clears the stored factory list; subsequent reads fall
// back to the configured defaults.
func (r *Repository) ResetEnabledFactories(ctx context.Context) error {
	if err := r.store.HDel(ctx, settingsKey(), enabledFactoriesField); err != nil {
		return fmt.Errorf("reset cluster settings: %w", err)
	}
	return nil
}
