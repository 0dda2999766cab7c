// Package usage persists per-model inference usage counters in Redis.
// Counters are keyed by model and UTC day, so operators can see how many
// documents each model highlighted without scraping metrics history.
package usage

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/spotlight/internal/domain"
)

// retention bounds how long a day's counter lives after its first write.
const retention = 30 * 24 * time.Hour

// store is the consumer interface for the usage repository (ISP).
type store interface {
	IncrBy(ctx context.Context, key string, val int64) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// Repository accumulates per-model daily inference document counts.
type Repository struct {
	store  store
	logger *zap.Logger
}

// New creates a usage repository.
func New(s store, logger *zap.Logger) *Repository {
	return &Repository{store: s, logger: logger}
}

func counterKey(modelID string, day time.Time) string {
	return domain.KeyPrefix + "usage:inference:" + modelID + ":" + day.UTC().Format("2006-01-02")
}

// RecordInference adds docs to the model's counter for the current UTC day.
// The retention TTL is attached only on the day's first write (EXPIRE NX), so
// later increments never push the expiry out.
func (r *Repository) RecordInference(ctx context.Context, modelID string, docs int64) error {
	key := counterKey(modelID, time.Now())

	if err := r.store.IncrBy(ctx, key, docs); err != nil {
		return fmt.Errorf("increment inference counter: %w", err)
	}
	if err := r.store.Expire(ctx, key, retention, true); err != nil {
		return fmt.Errorf("set inference counter retention: %w", err)
	}
	return nil
}
