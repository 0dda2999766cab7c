package ml

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

type countingProvider struct {
	calls int
	info  ModelInfo
	err   error
}

func (p *countingProvider) ModelInfo(_ context.Context, _ string) (ModelInfo, error) {
	p.calls++
	if p.err != nil {
		return ModelInfo{}, p.err
	}
	return p.info, nil
}

func TestRegistry_CachesModelInfo(t *testing.T) {
	provider := &countingProvider{info: ModelInfo{ID: "model-1", Type: Remote}}
	reg, err := NewRegistry(provider, 8, zap.NewNop())
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	ctx := context.Background()
	for range 3 {
		info, err := reg.ModelInfo(ctx, "model-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if info.Type != Remote {
			t.Errorf("got type %q, want %q", info.Type, Remote)
		}
	}
	if provider.calls != 1 {
		t.Errorf("provider called %d times, want 1", provider.calls)
	}
}

func TestRegistry_ErrorsAreNotCached(t *testing.T) {
	wantErr := errors.New("backend unavailable")
	provider := &countingProvider{err: wantErr}
	reg, err := NewRegistry(provider, 8, zap.NewNop())
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	ctx := context.Background()
	for range 2 {
		if _, err := reg.ModelInfo(ctx, "model-1"); !errors.Is(err, wantErr) {
			t.Fatalf("expected wrapped provider error, got %v", err)
		}
	}
	if provider.calls != 2 {
		t.Errorf("provider called %d times, want 2 (errors must not cache)", provider.calls)
	}
}

func TestRegistry_DistinctModels(t *testing.T) {
	provider := &countingProvider{info: ModelInfo{Type: QuestionAnswering}}
	reg, err := NewRegistry(provider, 8, zap.NewNop())
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	ctx := context.Background()
	if _, err := reg.ModelInfo(ctx, "model-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := reg.ModelInfo(ctx, "model-2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.calls != 2 {
		t.Errorf("provider called %d times, want 2", provider.calls)
	}
}

func TestNewRegistry_DefaultSize(t *testing.T) {
	reg, err := NewRegistry(&countingProvider{}, 0, zap.NewNop())
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	if reg == nil {
		t.Fatal("expected a registry")
	}
}

func TestModelType_SupportsBatch(t *testing.T) {
	if !Remote.SupportsBatch() {
		t.Error("remote models must support batch inference")
	}
	if QuestionAnswering.SupportsBatch() {
		t.Error("question answering models must not support batch inference")
	}
	if ModelType("bogus").IsValid() {
		t.Error("unknown model type must be invalid")
	}
}
