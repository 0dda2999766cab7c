package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/spotlight/internal/domain"
	"github.com/kailas-cloud/spotlight/internal/metrics"
	"github.com/kailas-cloud/spotlight/internal/ml"
)

// Prompts for the sentence-highlighting model. The model is expected to
// answer with nothing but the JSON the pipeline parses.
const (
	singlePrompt = `You select the character spans of a passage that best answer a question. ` +
		`Respond with JSON: {"highlights": [{"start": <int>, "end": <int>}, ...]} using ` +
		`0-based character offsets into the passage, sorted by start position. ` +
		`Respond with {"highlights": []} when nothing matches.`

	batchPrompt = `You select the character spans of several passages that best answer a question. ` +
		`Respond with JSON: {"results": [{"highlights": [{"start": <int>, "end": <int>}, ...]}, ...]} ` +
		`with exactly one entry per passage, in passage order. Offsets are 0-based character ` +
		`offsets into the corresponding passage, sorted by start position.`
)

// Highlighter is a sentence-highlighting inference client for models served
// behind an OpenAI-compatible chat-completions API.
type Highlighter struct {
	client      *openai.Client
	localModels []string
	logger      *zap.Logger
}

// HighlighterConfig holds the inference provider settings.
type HighlighterConfig struct {
	APIKey  string
	BaseURL string
	// LocalModels lists model ids deployed as local question-answering
	// models rather than remote connectors.
	LocalModels []string
	Logger      *zap.Logger
}

// NewHighlighter creates an OpenAI-compatible highlighting inference client.
func NewHighlighter(cfg *HighlighterConfig) *Highlighter {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL

	return &Highlighter{
		client:      openai.NewClientWithConfig(clientCfg),
		localModels: cfg.LocalModels,
		logger:      cfg.Logger,
	}
}

var _ ml.Client = (*Highlighter)(nil)
var _ ml.InfoProvider = (*Highlighter)(nil)

// InferenceSentenceHighlighting runs one document's highlighting inference.
func (h *Highlighter) InferenceSentenceHighlighting(
	ctx context.Context, req ml.SentenceHighlightingRequest,
) ([]map[string]any, error) {
	start := time.Now()

	resp, err := h.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: req.ModelID,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: singlePrompt},
			{Role: openai.ChatMessageRoleUser, Content: formatSingleInput(req.Question, req.Context)},
		},
	})
	duration := time.Since(start)

	if err != nil {
		metrics.InferenceRequestsTotal.WithLabelValues(req.ModelID, "single", "error").Inc()
		return nil, parseInferenceError(req.ModelID, err)
	}

	metrics.InferenceRequestsTotal.WithLabelValues(req.ModelID, "single", "success").Inc()
	metrics.InferenceRequestDuration.WithLabelValues(req.ModelID, "single").Observe(duration.Seconds())

	result, err := decodeResultMap(resp)
	if err != nil {
		return nil, err
	}
	return []map[string]any{result}, nil
}

// BatchInferenceSentenceHighlighting runs one inference call covering all
// requests, returning one result list per request in submission order.
func (h *Highlighter) BatchInferenceSentenceHighlighting(
	ctx context.Context, modelID string,
	requests []ml.SentenceHighlightingRequest, modelType ml.ModelType,
) ([][]map[string]any, error) {
	if !modelType.SupportsBatch() {
		return nil, fmt.Errorf("model type %q cannot serve batch inference: %w",
			modelType, domain.ErrBatchNotPermitted)
	}

	start := time.Now()
	metrics.InferenceBatchSize.WithLabelValues(modelID).Observe(float64(len(requests)))

	resp, err := h.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: modelID,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: batchPrompt},
			{Role: openai.ChatMessageRoleUser, Content: formatBatchInput(requests)},
		},
	})
	duration := time.Since(start)

	if err != nil {
		metrics.InferenceRequestsTotal.WithLabelValues(modelID, "batch", "error").Inc()
		return nil, parseInferenceError(modelID, err)
	}

	metrics.InferenceRequestsTotal.WithLabelValues(modelID, "batch", "success").Inc()
	metrics.InferenceRequestDuration.WithLabelValues(modelID, "batch").Observe(duration.Seconds())

	envelope, err := decodeResultMap(resp)
	if err != nil {
		return nil, err
	}
	return splitBatchResults(envelope, len(requests))
}

// ModelInfo resolves a model id against the provider's model listing.
// Ids declared local in config are question-answering models; everything the
// provider serves is a remote connector model.
func (h *Highlighter) ModelInfo(ctx context.Context, modelID string) (ml.ModelInfo, error) {
	if slices.Contains(h.localModels, modelID) {
		return ml.ModelInfo{ID: modelID, Type: ml.QuestionAnswering}, nil
	}

	model, err := h.client.GetModel(ctx, modelID)
	if err != nil {
		return ml.ModelInfo{}, fmt.Errorf("get model %q: %w: %w", modelID, domain.ErrModelNotFound, err)
	}
	return ml.ModelInfo{ID: model.ID, Type: ml.Remote}, nil
}

// HealthCheck verifies provider availability via ListModels (free endpoint).
func (h *Highlighter) HealthCheck(ctx context.Context) error {
	if _, err := h.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func formatSingleInput(question, passage string) string {
	return fmt.Sprintf("Question: %s\n\nPassage:\n%s", question, passage)
}

func formatBatchInput(requests []ml.SentenceHighlightingRequest) string {
	var sb strings.Builder
	if len(requests) > 0 {
		fmt.Fprintf(&sb, "Question: %s\n", requests[0].Question)
	}
	for i, req := range requests {
		fmt.Fprintf(&sb, "\nPassage %d:\n%s\n", i+1, req.Context)
	}
	return sb.String()
}

// decodeResultMap parses the completion content as a JSON object.
func decodeResultMap(resp openai.ChatCompletionResponse) (map[string]any, error) {
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty inference response: %w", domain.ErrInferenceProvider)
	}
	var result map[string]any
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &result); err != nil {
		return nil, fmt.Errorf("decode inference response: %w: %w", domain.ErrInferenceProvider, err)
	}
	return result, nil
}

// splitBatchResults unpacks {"results": [...]} into one result list per
// submitted document.
func splitBatchResults(envelope map[string]any, want int) ([][]map[string]any, error) {
	raw, ok := envelope["results"].([]any)
	if !ok {
		return nil, fmt.Errorf("batch inference response missing results array: %w", domain.ErrInferenceProvider)
	}
	if len(raw) != want {
		return nil, fmt.Errorf("batch inference returned %d results for %d documents: %w",
			len(raw), want, domain.ErrInferenceProvider)
	}

	out := make([][]map[string]any, len(raw))
	for i, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("batch inference result %d is not an object: %w", i, domain.ErrInferenceProvider)
		}
		out[i] = []map[string]any{m}
	}
	return out, nil
}

// parseInferenceError extracts a human-readable error from the API response.
// All errors are wrapped with a domain sentinel for correct status mapping.
func parseInferenceError(modelID string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		wrap := domain.ErrInferenceProvider
		if apiErr.HTTPStatusCode == 429 {
			wrap = domain.ErrRateLimited
		}
		return fmt.Errorf("inference API error %d from model %q: %s: %w",
			apiErr.HTTPStatusCode, modelID, apiErr.Message, wrap)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("inference API error %d from model %q: %s: %w",
			reqErr.HTTPStatusCode, modelID, string(reqErr.Body), domain.ErrInferenceProvider)
	}

	return fmt.Errorf("inference request to model %q failed: %w", modelID, domain.ErrInferenceProvider)
}
