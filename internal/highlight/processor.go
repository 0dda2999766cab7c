package highlight

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/spotlight/internal/domain"
	"github.com/kailas-cloud/spotlight/internal/domain/search"
	"github.com/kailas-cloud/spotlight/internal/metrics"
	"github.com/kailas-cloud/spotlight/internal/ml"
)

// FeatureGate reports whether a system-generated processor factory is enabled
// in cluster state. Checked once per request at the orchestration boundary.
type FeatureGate interface {
	FactoryEnabled(ctx context.Context, name string) (bool, error)
}

// Processor drives one response-highlighting pass:
// extract config, validate, build context, run a strategy, update took time.
// Every short-circuit returns the original response unmodified.
type Processor struct {
	extractor     *ConfigExtractor
	builder       *ContextBuilder
	single        *SingleHighlighter
	client        ml.Client
	applier       *ResultApplier
	models        ml.InfoProvider
	gate          FeatureGate
	ignoreFailure bool
	logger        *zap.Logger
}

// NewProcessor creates a highlighting response processor.
func NewProcessor(
	extractor *ConfigExtractor,
	builder *ContextBuilder,
	single *SingleHighlighter,
	client ml.Client,
	applier *ResultApplier,
	models ml.InfoProvider,
	gate FeatureGate,
	ignoreFailure bool,
	logger *zap.Logger,
) *Processor {
	return &Processor{
		extractor:     extractor,
		builder:       builder,
		single:        single,
		client:        client,
		applier:       applier,
		models:        models,
		gate:          gate,
		ignoreFailure: ignoreFailure,
		logger:        logger,
	}
}

// ProcessResponse highlights the response's hits in place and returns the
// response with its took time extended by the highlighting latency. Requests
// that don't ask for semantic highlighting pass through untouched.
func (p *Processor) ProcessResponse(
	ctx context.Context, req *search.Request, resp *search.Response,
) (*search.Response, error) {
	start := time.Now()

	cfg := p.extractor.Extract(req)
	if !cfg.IsValid() {
		p.logger.Debug("Highlight config extraction short-circuit",
			zap.String("reason", cfg.ValidationError()))
		return resp, nil
	}

	cfg = Validate(cfg, resp)
	if !cfg.IsValid() {
		p.logger.Debug("Highlight config validation short-circuit",
			zap.String("reason", cfg.ValidationError()))
		return resp, nil
	}

	mode := "single"
	if cfg.BatchInference() {
		mode = "batch"
		var err error
		cfg, err = p.admitBatch(ctx, cfg)
		if err != nil {
			// Capability and gate mismatches fail the request regardless of
			// ignoreFailure: silently degrading to single mode would hide a
			// misconfiguration the caller asked for explicitly.
			metrics.HighlightRequestsTotal.WithLabelValues(mode, "rejected").Inc()
			return nil, err
		}
	}

	hctx := p.builder.Build(cfg, resp, start)
	if hctx.IsEmpty() {
		p.logger.Debug("No valid documents to highlight")
		return resp, nil
	}

	strategy := p.selectStrategy(cfg)
	if err := strategy.Process(ctx, hctx); err != nil {
		return p.handleError(err, resp, mode)
	}

	elapsed := time.Since(start)
	resp.TookMillis += elapsed.Milliseconds()
	metrics.HighlightRequestsTotal.WithLabelValues(mode, "success").Inc()
	metrics.HighlightDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
	return resp, nil
}

// Strategy is one way of running the context's inference requests.
type Strategy interface {
	Process(ctx context.Context, hctx *Context) error
}

// selectStrategy is a pure function of the config's batch flag.
func (p *Processor) selectStrategy(cfg Config) Strategy {
	if cfg.BatchInference() {
		p.logger.Debug("Using batch highlighter", zap.Int("max_batch_size", cfg.MaxBatchSize()))
		return NewBatchHighlighter(p.client, p.applier, cfg.MaxBatchSize(), p.logger)
	}
	p.logger.Debug("Using single highlighter")
	return p.single
}

// admitBatch checks the feature gate and the model's batch capability,
// enriching the config with the resolved model type. Fail-closed: a gate
// read error counts as disabled.
func (p *Processor) admitBatch(ctx context.Context, cfg Config) (Config, error) {
	enabled, err := p.gate.FactoryEnabled(ctx, FactoryName)
	if err != nil {
		p.logger.Warn("Feature gate read failed, treating batch as disabled", zap.Error(err))
		enabled = false
	}
	if !enabled {
		return cfg, fmt.Errorf(
			"batch semantic highlighting requires the %q factory to be listed in the "+
				"cluster setting search.pipeline.enabled_system_generated_factories: %w",
			FactoryName, domain.ErrBatchNotPermitted,
		)
	}

	info, err := p.models.ModelInfo(ctx, cfg.ModelID())
	if err != nil {
		return cfg, fmt.Errorf("resolve model for batch highlighting: %w", err)
	}
	if !info.Type.SupportsBatch() {
		return cfg, fmt.Errorf(
			"model %q has type %q which does not support batch inference; "+
				"use a remote model or set %s to false: %w",
			cfg.ModelID(), info.Type, OptionBatchInference, domain.ErrBatchNotPermitted,
		)
	}
	return cfg.WithModelType(info.Type), nil
}

// handleError resolves a strategy failure per the ignore-failure policy:
// swallow and return the original response, or fail the whole request.
func (p *Processor) handleError(err error, resp *search.Response, mode string) (*search.Response, error) {
	metrics.HighlightRequestsTotal.WithLabelValues(mode, "error").Inc()
	if p.ignoreFailure {
		p.logger.Warn("Semantic highlighting failed, returning original response", zap.Error(err))
		return resp, nil
	}
	return nil, err
}
