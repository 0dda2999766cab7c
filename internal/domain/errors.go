package domain

import "errors"

var (
	// ErrInvalidConfig signals an unusable highlight configuration.
	ErrInvalidConfig = errors.New("invalid highlight configuration")
	// ErrModelContract signals a malformed model response (bad offsets,
	// unsorted spans, missing positions). Never retried.
	ErrModelContract = errors.New("model contract violation")
	// ErrInferenceProvider signals an inference transport failure.
	ErrInferenceProvider = errors.New("inference provider error")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrBatchNotPermitted signals batch inference requested without the
	// feature gate or against a model that cannot serve it.
	ErrBatchNotPermitted = errors.New("batch inference not permitted")
	// ErrModelNotFound signals an unknown model id.
	ErrModelNotFound = errors.New("model not found")
	// ErrRateLimited signals a rate limit hit at the provider.
	ErrRateLimited = errors.New("rate limited")
)
