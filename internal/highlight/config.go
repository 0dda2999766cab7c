// Package highlight implements the semantic highlighting pipeline: config
// extraction, validation, context building, offset application, and the
// single/batch orchestration strategies.
package highlight

import "github.com/kailas-cloud/spotlight/internal/ml"

// Highlighter identity and option keys, as they appear in the request DSL.
const (
	// HighlighterType is the per-field highlighter type that selects this
	// pipeline.
	HighlighterType = "semantic"
	// FactoryName is the system-generated processor factory name checked
	// against the enabled-factories cluster setting.
	FactoryName = "semantic-highlighter"

	OptionModelID        = "model_id"
	OptionBatchInference = "batch_inference"
	OptionMaxBatchSize   = "max_inference_batch_size"
	OptionPreTag         = "pre_tag"
	OptionPostTag        = "post_tag"
)

// Tag and batch-size defaults.
const (
	DefaultPreTag  = "<em>"
	DefaultPostTag = "</em>"
	// DefaultMaxBatchSize is used when the request does not set
	// max_inference_batch_size.
	DefaultMaxBatchSize = 100
	// AbsoluteMaxBatchSize caps the per-call payload regardless of request
	// options.
	AbsoluteMaxBatchSize = 1000
)

// Model response keys.
const (
	highlightsKey = "highlights"
	startKey      = "start"
	endKey        = "end"
)

// Config is the immutable per-request highlight configuration. A Config is
// created by extraction (possibly already invalid), may transition to invalid
// through validation, never back, and is consumed once by context building.
type Config struct {
	fieldName       string
	modelID         string
	queryText       string
	preTag          string
	postTag         string
	batchInference  bool
	maxBatchSize    int
	modelType       ml.ModelType
	validationError string
}

// NewConfig creates an extracted configuration. Fields may be empty; the
// validator decides what that means.
func NewConfig(fieldName, modelID, queryText, preTag, postTag string, batchInference bool, maxBatchSize int) Config {
	return Config{
		fieldName:      fieldName,
		modelID:        modelID,
		queryText:      queryText,
		preTag:         preTag,
		postTag:        postTag,
		batchInference: batchInference,
		maxBatchSize:   maxBatchSize,
	}
}

// Invalid creates a configuration that already failed extraction.
func Invalid(validationError string) Config {
	return Config{validationError: validationError}
}

// FieldName returns the semantic highlight field.
func (c Config) FieldName() string { return c.fieldName }

// ModelID returns the highlighting model id.
func (c Config) ModelID() string { return c.modelID }

// QueryText returns the extracted query text.
func (c Config) QueryText() string { return c.queryText }

// PreTag returns the opening highlight tag.
func (c Config) PreTag() string { return c.preTag }

// PostTag returns the closing highlight tag.
func (c Config) PostTag() string { return c.postTag }

// BatchInference reports whether batch mode was requested.
func (c Config) BatchInference() bool { return c.batchInference }

// MaxBatchSize returns the requested per-call batch cap.
func (c Config) MaxBatchSize() int { return c.maxBatchSize }

// ModelType returns the enriched model type ("" until enrichment).
func (c Config) ModelType() ml.ModelType { return c.modelType }

// ValidationError returns the validation error, "" when valid.
func (c Config) ValidationError() string { return c.validationError }

// IsValid reports whether the configuration carries no validation error.
func (c Config) IsValid() bool { return c.validationError == "" }

// WithModelType derives a config enriched with the resolved model type.
func (c Config) WithModelType(t ml.ModelType) Config {
	c.modelType = t
	return c
}

// WithValidationError derives an invalid config. An existing error is kept:
// a config never transitions invalid to valid.
func (c Config) WithValidationError(msg string) Config {
	if c.validationError == "" {
		c.validationError = msg
	}
	return c
}
