package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/spotlight/internal/domain"
)

type mockEmbedder struct {
	batchCalls [][]string
	err        error
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: []float32{float32(len(text))}}, nil
}

func (m *mockEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.batchCalls = append(m.batchCalls, texts)
	if m.err != nil {
		return domain.BatchEmbeddingResult{}, m.err
	}
	embeddings := make([][]float32, len(texts))
	for i, t := range texts {
		embeddings[i] = []float32{float32(len(t))}
	}
	return domain.BatchEmbeddingResult{Embeddings: embeddings, TotalTokens: len(texts)}, nil
}

func newTestProcessor(inner *mockEmbedder, fields FieldMap) *EmbeddingProcessor {
	asym := domain.NewAsymmetricEmbedder(inner, "query: ", "passage: ")
	return NewEmbeddingProcessor(asym, fields, zap.NewNop())
}

func TestProcessDocuments_EmbedsMappedFields(t *testing.T) {
	inner := &mockEmbedder{}
	p := newTestProcessor(inner, FieldMap{"body": "body_embedding"})

	docs := []map[string]any{
		{"body": "first document"},
		{"body": "second document"},
	}

	if err := p.ProcessDocuments(context.Background(), docs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, doc := range docs {
		if _, ok := doc["body_embedding"].([]float32); !ok {
			t.Errorf("doc %d missing embedding: %v", i, doc)
		}
	}
	if len(inner.batchCalls) != 1 {
		t.Fatalf("expected 1 batch call, got %d", len(inner.batchCalls))
	}
}

func TestProcessDocuments_PassagePrefix(t *testing.T) {
	inner := &mockEmbedder{}
	p := newTestProcessor(inner, FieldMap{"body": "body_embedding"})

	docs := []map[string]any{{"body": "text"}}
	if err := p.ProcessDocuments(context.Background(), docs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := inner.batchCalls[0][0]; !strings.HasPrefix(got, "passage: ") {
		t.Errorf("expected passage prefix, got %q", got)
	}
}

func TestProcessDocuments_SkipsExistingEmbeddings(t *testing.T) {
	inner := &mockEmbedder{}
	p := newTestProcessor(inner, FieldMap{"body": "body_embedding"})

	existing := []float32{9.9}
	docs := []map[string]any{
		{"body": "already embedded", "body_embedding": existing},
	}

	if err := p.ProcessDocuments(context.Background(), docs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(inner.batchCalls) != 0 {
		t.Errorf("expected no batch calls, got %d", len(inner.batchCalls))
	}
	if got := docs[0]["body_embedding"].([]float32); got[0] != 9.9 {
		t.Errorf("existing embedding overwritten: %v", got)
	}
}

func TestProcessDocuments_SkipsMissingAndNonStringFields(t *testing.T) {
	inner := &mockEmbedder{}
	p := newTestProcessor(inner, FieldMap{"body": "body_embedding"})

	docs := []map[string]any{
		{"title": "no body field"},
		{"body": 42},
		{"body": ""},
		nil,
		{"body": "real text"},
	}

	if err := p.ProcessDocuments(context.Background(), docs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(inner.batchCalls) != 1 || len(inner.batchCalls[0]) != 1 {
		t.Fatalf("expected exactly one embedded text, got %v", inner.batchCalls)
	}
	if _, ok := docs[4]["body_embedding"]; !ok {
		t.Error("expected embedding on the last doc")
	}
	for i := 0; i < 3; i++ {
		if _, ok := docs[i]["body_embedding"]; ok {
			t.Errorf("doc %d unexpectedly embedded", i)
		}
	}
}

func TestProcessDocuments_EmbedderError(t *testing.T) {
	inner := &mockEmbedder{err: errors.New("provider down")}
	p := newTestProcessor(inner, FieldMap{"body": "body_embedding"})

	docs := []map[string]any{{"body": "text"}}
	if err := p.ProcessDocuments(context.Background(), docs); err == nil {
		t.Fatal("expected error")
	}
}

func TestProcessDocuments_Empty(t *testing.T) {
	inner := &mockEmbedder{}
	p := newTestProcessor(inner, FieldMap{"body": "body_embedding"})

	if err := p.ProcessDocuments(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(inner.batchCalls) != 0 {
		t.Errorf("expected no calls, got %d", len(inner.batchCalls))
	}
}

func TestProcessDocuments_RecordsTokenUsage(t *testing.T) {
	inner := &mockEmbedder{}
	p := newTestProcessor(inner, FieldMap{"body": "body_embedding"})

	ctx, usage := domain.NewContextWithUsage(context.Background())
	docs := []map[string]any{{"body": "first"}, {"body": "second"}}

	if err := p.ProcessDocuments(ctx, docs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !usage.Used {
		t.Fatal("expected usage to be recorded")
	}
	if usage.TotalTokens != 2 {
		t.Errorf("TotalTokens = %d, want 2", usage.TotalTokens)
	}
}
