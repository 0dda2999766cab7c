package highlight

import (
	"fmt"

	"github.com/kailas-cloud/spotlight/internal/domain/search"
)

// Validate checks an extracted Config against the response it is meant to
// highlight. Pure: returns the config unchanged when valid, or with the
// validation error set. An already-invalid config passes through untouched.
func Validate(cfg Config, resp *search.Response) Config {
	if !cfg.IsValid() {
		return cfg
	}
	if cfg.FieldName() == "" {
		return cfg.WithValidationError("No semantic highlight field found")
	}
	if cfg.ModelID() == "" {
		return cfg.WithValidationError("Model ID is required for semantic highlighting")
	}
	if cfg.QueryText() == "" {
		return cfg.WithValidationError("Query text is required for semantic highlighting")
	}
	if resp == nil || len(resp.Hits) == 0 {
		return cfg.WithValidationError("No search hits to highlight")
	}
	if cfg.BatchInference() {
		if cfg.MaxBatchSize() <= 0 {
			return cfg.WithValidationError(fmt.Sprintf("Invalid max batch size: %d", cfg.MaxBatchSize()))
		}
		if cfg.MaxBatchSize() > AbsoluteMaxBatchSize {
			return cfg.WithValidationError(fmt.Sprintf(
				"Max batch size exceeds limit: %d (max %d)", cfg.MaxBatchSize(), AbsoluteMaxBatchSize,
			))
		}
	}
	return cfg
}
