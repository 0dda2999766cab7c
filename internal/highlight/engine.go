package highlight

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/spotlight/internal/domain"
	"github.com/kailas-cloud/spotlight/internal/domain/query"
	"github.com/kailas-cloud/spotlight/internal/highlight/extractor"
	"github.com/kailas-cloud/spotlight/internal/ml"
)

// Engine turns model highlight spans into tagged document fragments.
type Engine struct {
	client   ml.Client
	registry *extractor.Registry
	logger   *zap.Logger
}

// NewEngine creates a highlighting engine.
func NewEngine(client ml.Client, registry *extractor.Registry, logger *zap.Logger) *Engine {
	return &Engine{client: client, registry: registry, logger: logger}
}

// ExtractOriginalQuery extracts the query text relevant to the field from the
// query tree.
func (e *Engine) ExtractOriginalQuery(node query.Node, fieldName string) (string, error) {
	if fieldName == "" {
		e.logger.Warn("Field name is empty, extraction may be less accurate")
	}
	return e.registry.ExtractQueryText(node, fieldName)
}

// GetHighlightedSentences runs a single-document inference and applies the
// first result onto text. ok=false means the model returned nothing to apply,
// which is distinct from a fragment equal to the unmodified text.
func (e *Engine) GetHighlightedSentences(
	ctx context.Context, modelID, question, text, preTag, postTag string,
) (string, bool, error) {
	results, err := e.client.InferenceSentenceHighlighting(ctx, ml.SentenceHighlightingRequest{
		ModelID:  modelID,
		Question: question,
		Context:  text,
	})
	if err != nil {
		e.logger.Error("Sentence highlighting inference failed",
			zap.String("model_id", modelID),
			zap.Error(err),
		)
		return "", false, fmt.Errorf("sentence highlighting inference from model %q: %w: %w",
			modelID, domain.ErrInferenceProvider, err)
	}
	if len(results) == 0 {
		return "", false, nil
	}
	return e.ApplyHighlighting(text, results[0], preTag, postTag)
}

// ApplyHighlighting applies one model result map onto text. ok=false means
// the result carried no recognized highlights list ("nothing to apply"); an
// empty list returns text unchanged. Offset violations and unsorted spans are
// model contract errors, never repaired locally.
func (e *Engine) ApplyHighlighting(text string, result map[string]any, preTag, postTag string) (string, bool, error) {
	spans, ok, err := parseSpans(result)
	if err != nil {
		return "", true, err
	}
	if !ok {
		e.logger.Debug("No highlights list in model inference result")
		return "", false, nil
	}
	if len(spans) == 0 {
		return text, true, nil
	}

	if err := validateSpans(spans, len([]rune(text))); err != nil {
		return "", true, err
	}
	return renderSpans(text, spans, preTag, postTag), true, nil
}
