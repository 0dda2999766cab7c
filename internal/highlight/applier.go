package highlight

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/spotlight/internal/domain"
	"github.com/kailas-cloud/spotlight/internal/domain/search"
)

// ResultApplier writes model highlight results back onto search hits.
type ResultApplier struct {
	preTag  string
	postTag string
	logger  *zap.Logger
}

// NewResultApplier creates an applier with pipeline-level default tags.
func NewResultApplier(preTag, postTag string, logger *zap.Logger) *ResultApplier {
	return &ResultApplier{preTag: preTag, postTag: postTag, logger: logger}
}

// ApplyBatchResults applies one result list per hit. The batch response must
// be index-aligned with the hits; a size mismatch is a model contract
// violation.
func (a *ResultApplier) ApplyBatchResults(
	hits []*search.Hit, batchResults [][]map[string]any, fieldName, preTag, postTag string,
) error {
	if len(batchResults) != len(hits) {
		a.logger.Error("Batch results size mismatch",
			zap.Int("results", len(batchResults)),
			zap.Int("hits", len(hits)),
		)
		return fmt.Errorf("batch results size %d doesn't match valid hits size %d: %w",
			len(batchResults), len(hits), domain.ErrModelContract)
	}

	for i, hit := range hits {
		if err := a.applyToHit(hit, batchResults[i], fieldName, preTag, postTag); err != nil {
			return fmt.Errorf("hit %d: %w", i, err)
		}
	}
	return nil
}

// ApplyBatchResultsWithIndices applies a chunk's results onto
// allHits[fromIndex:toIndex), leaving hits outside the range untouched.
func (a *ResultApplier) ApplyBatchResultsWithIndices(
	allHits []*search.Hit, batchResults [][]map[string]any,
	fromIndex, toIndex int, fieldName, preTag, postTag string,
) error {
	expected := toIndex - fromIndex
	if len(batchResults) != expected {
		a.logger.Error("Batch results size mismatch for chunk",
			zap.Int("results", len(batchResults)),
			zap.Int("expected", expected),
			zap.Int("from", fromIndex),
			zap.Int("to", toIndex),
		)
		return fmt.Errorf("batch results size %d doesn't match chunk size %d for [%d, %d): %w",
			len(batchResults), expected, fromIndex, toIndex, domain.ErrModelContract)
	}

	for i := fromIndex; i < toIndex; i++ {
		if err := a.applyToHit(allHits[i], batchResults[i-fromIndex], fieldName, preTag, postTag); err != nil {
			return fmt.Errorf("hit %d: %w", i, err)
		}
	}
	return nil
}

// ApplySingleResult applies a single-mode inference result onto one hit.
// Spans are held to the same ordering contract as everywhere else: unsorted
// spans are an error, not something to repair here.
func (a *ResultApplier) ApplySingleResult(
	hit *search.Hit, results []map[string]any, fieldName, preTag, postTag string,
) error {
	return a.applyToHit(hit, results, fieldName, preTag, postTag)
}

// applyToHit builds a fragment from the first result's spans and attaches it
// to the hit. Empty result lists, results without a highlights list, and hits
// without usable field text all leave the hit untouched.
func (a *ResultApplier) applyToHit(
	hit *search.Hit, results []map[string]any, fieldName, preTag, postTag string,
) error {
	if hit == nil || len(results) == 0 {
		return nil
	}

	text, ok := fieldText(hit.Source, fieldName)
	if !ok {
		return nil
	}

	spans, ok, err := parseSpans(results[0])
	if err != nil {
		return err
	}
	if !ok {
		a.logger.Debug("Model response missing highlights for hit", zap.String("hit_id", hit.ID))
		return nil
	}
	if err := validateSpans(spans, len([]rune(text))); err != nil {
		return err
	}

	hit.SetHighlight(fieldName, renderSpans(text, spans, preTag, postTag))
	return nil
}

// ApplyFragment attaches an already-rendered fragment to the hit.
func (a *ResultApplier) ApplyFragment(hit *search.Hit, fieldName, fragment string) {
	if hit == nil {
		return
	}
	hit.SetHighlight(fieldName, fragment)
}

// PreTag returns the pipeline-level default opening tag.
func (a *ResultApplier) PreTag() string { return a.preTag }

// PostTag returns the pipeline-level default closing tag.
func (a *ResultApplier) PostTag() string { return a.postTag }
