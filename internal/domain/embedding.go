package domain

import (
	"context"
	"fmt"
)

// ContentType distinguishes the two inputs of an asymmetric embedding model.
type ContentType string

// Content types for asymmetric embedding.
const (
	ContentQuery   ContentType = "query"
	ContentPassage ContentType = "passage"
)

// IsValid checks if the content type is one of the supported values.
func (c ContentType) IsValid() bool {
	return c == ContentQuery || c == ContentPassage
}

// Embedder is the shared text vectorization contract between layers.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// BatchEmbedder vectorizes multiple texts in a single API call.
type BatchEmbedder interface {
	BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token usage through the
// decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// BatchEmbeddingResult carries multiple embedding vectors and aggregate token usage.
type BatchEmbeddingResult struct {
	Embeddings   [][]float32
	PromptTokens int
	TotalTokens  int
}

// BatchFallback calls Embed once per text. Safety net for providers without
// native batch support.
func BatchFallback(ctx context.Context, e Embedder, texts []string) (BatchEmbeddingResult, error) {
	embeddings := make([][]float32, len(texts))
	var totalPrompt, totalTokens int

	for i, text := range texts {
		res, err := e.Embed(ctx, text)
		if err != nil {
			return BatchEmbeddingResult{}, fmt.Errorf("fallback embed [%d]: %w", i, err)
		}
		embeddings[i] = res.Embedding
		totalPrompt += res.PromptTokens
		totalTokens += res.TotalTokens
	}

	return BatchEmbeddingResult{
		Embeddings:   embeddings,
		PromptTokens: totalPrompt,
		TotalTokens:  totalTokens,
	}, nil
}

// CacheInvalidator removes cached embeddings for exact input texts.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, texts []string) (int, error)
}

// AsymmetricEmbedder prepends the content-type instruction prefix an
// asymmetric model was trained with before embedding. A symmetric model is
// configured with empty prefixes, which makes this a pass-through.
type AsymmetricEmbedder struct {
	inner         Embedder
	queryPrefix   string
	passagePrefix string
}

// NewAsymmetricEmbedder creates a decorator that prepends per-content-type prefixes.
func NewAsymmetricEmbedder(inner Embedder, queryPrefix, passagePrefix string) *AsymmetricEmbedder {
	return &AsymmetricEmbedder{inner: inner, queryPrefix: queryPrefix, passagePrefix: passagePrefix}
}

func (e *AsymmetricEmbedder) prefix(ct ContentType) string {
	if ct == ContentQuery {
		return e.queryPrefix
	}
	return e.passagePrefix
}

// EmbedAs embeds text as the given content type.
func (e *AsymmetricEmbedder) EmbedAs(ctx context.Context, text string, ct ContentType) (EmbeddingResult, error) {
	if !ct.IsValid() {
		return EmbeddingResult{}, fmt.Errorf("invalid content type %q", ct)
	}
	result, err := e.inner.Embed(ctx, e.prefix(ct)+text)
	if err != nil {
		return EmbeddingResult{}, fmt.Errorf("asymmetric embed: %w", err)
	}
	return result, nil
}

// BatchEmbedAs embeds multiple texts as the given content type. Falls back to
// per-text Embed when the inner embedder has no native batch support.
func (e *AsymmetricEmbedder) BatchEmbedAs(ctx context.Context, texts []string, ct ContentType) (BatchEmbeddingResult, error) {
	if !ct.IsValid() {
		return BatchEmbeddingResult{}, fmt.Errorf("invalid content type %q", ct)
	}
	prefixed := make([]string, len(texts))
	for i, t := range texts {
		prefixed[i] = e.prefix(ct) + t
	}

	if be, ok := e.inner.(BatchEmbedder); ok {
		res, err := be.BatchEmbed(ctx, prefixed)
		if err != nil {
			return BatchEmbeddingResult{}, fmt.Errorf("asymmetric batch embed: %w", err)
		}
		return res, nil
	}

	res, err := BatchFallback(ctx, e.inner, prefixed)
	if err != nil {
		return BatchEmbeddingResult{}, fmt.Errorf("asymmetric batch embed fallback: %w", err)
	}
	return res, nil
}

// InvalidateCachedAs drops cached embeddings for texts as they would be
// embedded under the content type. ok=false means the inner embedder keeps no
// cache, which is distinct from zero entries removed.
func (e *AsymmetricEmbedder) InvalidateCachedAs(
	ctx context.Context, texts []string, ct ContentType,
) (int, bool, error) {
	inv, ok := e.inner.(CacheInvalidator)
	if !ok {
		return 0, false, nil
	}
	if !ct.IsValid() {
		return 0, true, fmt.Errorf("invalid content type %q", ct)
	}

	prefixed := make([]string, len(texts))
	for i, t := range texts {
		prefixed[i] = e.prefix(ct) + t
	}
	removed, err := inv.Invalidate(ctx, prefixed)
	if err != nil {
		return removed, true, fmt.Errorf("invalidate cached embeddings: %w", err)
	}
	return removed, true, nil
}
