package ml

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

type stubInferenceClient struct {
	err error
}

func (s *stubInferenceClient) InferenceSentenceHighlighting(
	_ context.Context, _ SentenceHighlightingRequest,
) ([]map[string]any, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []map[string]any{{"highlights": []any{}}}, nil
}

func (s *stubInferenceClient) BatchInferenceSentenceHighlighting(
	_ context.Context, _ string, requests []SentenceHighlightingRequest, _ ModelType,
) ([][]map[string]any, error) {
	if s.err != nil {
		return nil, s.err
	}
	return make([][]map[string]any, len(requests)), nil
}

type recordingStub struct {
	modelID string
	docs    int64
	calls   int
	err     error
}

func (r *recordingStub) RecordInference(_ context.Context, modelID string, docs int64) error {
	r.calls++
	r.modelID = modelID
	r.docs = docs
	return r.err
}

func TestAccounting_SingleRecordsOneDocument(t *testing.T) {
	rec := &recordingStub{}
	c := NewAccountingClient(&stubInferenceClient{}, rec, zap.NewNop())

	_, err := c.InferenceSentenceHighlighting(context.Background(), SentenceHighlightingRequest{
		ModelID: "model-1", Question: "q", Context: "c",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.calls != 1 || rec.modelID != "model-1" || rec.docs != 1 {
		t.Errorf("recorded %d call(s) for %q docs=%d, want 1 call for model-1 docs=1",
			rec.calls, rec.modelID, rec.docs)
	}
}

func TestAccounting_BatchRecordsDocumentCount(t *testing.T) {
	rec := &recordingStub{}
	c := NewAccountingClient(&stubInferenceClient{}, rec, zap.NewNop())

	requests := []SentenceHighlightingRequest{
		{ModelID: "model-1", Question: "q", Context: "a"},
		{ModelID: "model-1", Question: "q", Context: "b"},
		{ModelID: "model-1", Question: "q", Context: "c"},
	}
	_, err := c.BatchInferenceSentenceHighlighting(context.Background(), "model-1", requests, Remote)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.docs != 3 {
		t.Errorf("recorded %d docs, want 3", rec.docs)
	}
}

func TestAccounting_FailedInferenceNotRecorded(t *testing.T) {
	rec := &recordingStub{}
	c := NewAccountingClient(&stubInferenceClient{err: errors.New("model down")}, rec, zap.NewNop())

	if _, err := c.InferenceSentenceHighlighting(context.Background(), SentenceHighlightingRequest{
		ModelID: "model-1",
	}); err == nil {
		t.Fatal("expected error")
	}
	if rec.calls != 0 {
		t.Errorf("failed inference must not be counted, got %d call(s)", rec.calls)
	}
}

func TestAccounting_RecorderFailureIsSwallowed(t *testing.T) {
	rec := &recordingStub{err: errors.New("counter store down")}
	c := NewAccountingClient(&stubInferenceClient{}, rec, zap.NewNop())

	results, err := c.InferenceSentenceHighlighting(context.Background(), SentenceHighlightingRequest{
		ModelID: "model-1",
	})
	if err != nil {
		t.Fatalf("recorder failure must not fail the inference: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("expected the inner result through, got %d", len(results))
	}
}
