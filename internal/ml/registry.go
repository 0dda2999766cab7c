package ml

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// DefaultRegistrySize is the default model-info cache capacity.
const DefaultRegistrySize = 256

// Registry is a caching decorator over an InfoProvider. Model metadata is
// immutable for a deployed model id, so entries are never invalidated.
type Registry struct {
	provider InfoProvider
	cache    *lru.Cache[string, ModelInfo]
	logger   *zap.Logger
}

// NewRegistry creates a model registry with an LRU cache of the given size.
func NewRegistry(provider InfoProvider, size int, logger *zap.Logger) (*Registry, error) {
	if size <= 0 {
		size = DefaultRegistrySize
	}
	cache, err := lru.New[string, ModelInfo](size)
	if err != nil {
		return nil, fmt.Errorf("create model info cache: %w", err)
	}
	return &Registry{provider: provider, cache: cache, logger: logger}, nil
}

// ModelInfo returns cached model metadata, consulting the provider on miss.
func (r *Registry) ModelInfo(ctx context.Context, modelID string) (ModelInfo, error) {
	if info, ok := r.cache.Get(modelID); ok {
		return info, nil
	}

	info, err := r.provider.ModelInfo(ctx, modelID)
	if err != nil {
		return ModelInfo{}, fmt.Errorf("resolve model %q: %w", modelID, err)
	}

	r.cache.Add(modelID, info)
	r.logger.Debug("Cached model info",
		zap.String("model_id", modelID),
		zap.String("model_type", string(info.Type)),
	)
	return info, nil
}
