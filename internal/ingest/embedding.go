// Package ingest enriches documents with embeddings before they reach the
// search index.
package ingest

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/spotlight/internal/domain"
)

// FieldMap maps a source text field to the target embedding field written
// into the document.
type FieldMap map[string]string

// EmbeddingProcessor fills embedding fields for ingested documents. A target
// field that already holds a value is left untouched, so re-ingesting a
// document does not re-embed unchanged content.
type EmbeddingProcessor struct {
	embedder *domain.AsymmetricEmbedder
	fields   FieldMap
	logger   *zap.Logger
}

// NewEmbeddingProcessor creates an ingest processor for the given field mapping.
func NewEmbeddingProcessor(embedder *domain.AsymmetricEmbedder, fields FieldMap, logger *zap.Logger) *EmbeddingProcessor {
	return &EmbeddingProcessor{
		embedder: embedder,
		fields:   fields,
		logger:   logger,
	}
}

// slot locates one pending embedding write.
type slot struct {
	doc    int
	target string
}

// ProcessDocuments embeds the mapped source fields of each document in one
// batch call and writes the vectors in place. Documents missing a source
// field, or already carrying the target field, are skipped.
func (p *EmbeddingProcessor) ProcessDocuments(ctx context.Context, docs []map[string]any) error {
	var texts []string
	var slots []slot

	for i, doc := range docs {
		if doc == nil {
			continue
		}
		for source, target := range p.fields {
			if _, exists := doc[target]; exists {
				continue
			}
			text, ok := doc[source].(string)
			if !ok || text == "" {
				continue
			}
			texts = append(texts, text)
			slots = append(slots, slot{doc: i, target: target})
		}
	}

	if len(texts) == 0 {
		return nil
	}

	result, err := p.embedder.BatchEmbedAs(ctx, texts, domain.ContentPassage)
	if err != nil {
		return fmt.Errorf("embed ingest fields: %w", err)
	}
	if len(result.Embeddings) != len(texts) {
		return fmt.Errorf("embedder returned %d vectors for %d fields", len(result.Embeddings), len(texts))
	}

	for j, s := range slots {
		docs[s.doc][s.target] = result.Embeddings[j]
	}
	domain.UsageFromContext(ctx).AddTokens(result.TotalTokens)

	p.logger.Debug("Embedded ingest fields",
		zap.Int("documents", len(docs)),
		zap.Int("fields", len(texts)),
		zap.Int("tokens", result.TotalTokens))
	return nil
}
