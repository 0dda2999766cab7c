// Package ml defines the contract with the inference backend. The pipeline
// only depends on these interfaces; transports implement them.
package ml

import "context"

// ModelType is the deployment flavor of a highlighting model.
type ModelType string

// Model types.
const (
	// Remote is a connector-backed model served outside the cluster. The
	// only type that can serve batch sentence highlighting.
	Remote ModelType = "remote"
	// QuestionAnswering is a locally deployed QA highlighting model.
	QuestionAnswering ModelType = "question_answering"
)

// IsValid checks if the model type is one of the supported values.
func (t ModelType) IsValid() bool {
	return t == Remote || t == QuestionAnswering
}

// SupportsBatch reports whether the model type can serve batch inference.
func (t ModelType) SupportsBatch() bool { return t == Remote }

// SentenceHighlightingRequest is one document's highlighting inference input.
type SentenceHighlightingRequest struct {
	ModelID  string
	Question string
	Context  string
}

// Client is the sentence-highlighting inference contract.
//
// Single-mode responses are a list of result maps, each optionally carrying a
// "highlights" key with a list of {start, end} offset maps. Batch-mode
// responses carry one such list per submitted request, index-aligned.
type Client interface {
	InferenceSentenceHighlighting(ctx context.Context, req SentenceHighlightingRequest) ([]map[string]any, error)

	BatchInferenceSentenceHighlighting(
		ctx context.Context, modelID string,
		requests []SentenceHighlightingRequest, modelType ModelType,
	) ([][]map[string]any, error)
}

// ModelInfo describes a registered model's capabilities.
type ModelInfo struct {
	ID        string
	Type      ModelType
	MaxTokens int
}

// InfoProvider resolves model metadata by id.
type InfoProvider interface {
	ModelInfo(ctx context.Context, modelID string) (ModelInfo, error)
}
