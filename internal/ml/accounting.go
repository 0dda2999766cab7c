package ml

import (
	"context"

	"go.uber.org/zap"
)

// UsageRecorder persists inference usage counts.
type UsageRecorder interface {
	RecordInference(ctx context.Context, modelID string, docs int64) error
}

// AccountingClient decorates a Client with per-model usage recording. Only
// successful inference calls are counted. Recording is fail-open: a recorder
// failure is logged and never fails the inference.
type AccountingClient struct {
	inner    Client
	recorder UsageRecorder
	logger   *zap.Logger
}

// NewAccountingClient creates a usage-recording inference decorator.
func NewAccountingClient(inner Client, recorder UsageRecorder, logger *zap.Logger) *AccountingClient {
	return &AccountingClient{inner: inner, recorder: recorder, logger: logger}
}

var _ Client = (*AccountingClient)(nil)

// InferenceSentenceHighlighting delegates to the inner client and records one
// highlighted document on success.
func (c *AccountingClient) InferenceSentenceHighlighting(
	ctx context.Context, req SentenceHighlightingRequest,
) ([]map[string]any, error) {
	results, err := c.inner.InferenceSentenceHighlighting(ctx, req)
	if err != nil {
		return nil, err
	}
	c.record(ctx, req.ModelID, 1)
	return results, nil
}

// BatchInferenceSentenceHighlighting delegates to the inner client and records
// the batch's document count on success.
func (c *AccountingClient) BatchInferenceSentenceHighlighting(
	ctx context.Context, modelID string,
	requests []SentenceHighlightingRequest, modelType ModelType,
) ([][]map[string]any, error) {
	results, err := c.inner.BatchInferenceSentenceHighlighting(ctx, modelID, requests, modelType)
	if err != nil {
		return nil, err
	}
	c.record(ctx, modelID, int64(len(requests)))
	return results, nil
}

func (c *AccountingClient) record(ctx context.Context, modelID string, docs int64) {
	if err := c.recorder.RecordInference(ctx, modelID, docs); err != nil {
		c.logger.Warn("Failed to record inference usage",
			zap.String("model_id", modelID),
			zap.Error(err),
		)
	}
}
