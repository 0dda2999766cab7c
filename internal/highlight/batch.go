package highlight

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/spotlight/internal/domain"
	"github.com/kailas-cloud/spotlight/internal/ml"
)

// BatchHighlighter submits the context's requests in chunks of at most
// maxBatchSize, applying each chunk's results before submitting the next.
type BatchHighlighter struct {
	client       ml.Client
	applier      *ResultApplier
	maxBatchSize int
	logger       *zap.Logger
}

// NewBatchHighlighter creates a batch-inference strategy.
func NewBatchHighlighter(client ml.Client, applier *ResultApplier, maxBatchSize int, logger *zap.Logger) *BatchHighlighter {
	return &BatchHighlighter{client: client, applier: applier, maxBatchSize: maxBatchSize, logger: logger}
}

// Process runs chunked batch inference over the context. Chunk results are
// applied with explicit index ranges, so hit alignment survives chunking.
func (b *BatchHighlighter) Process(ctx context.Context, hctx *Context) error {
	total := hctx.Size()
	totalBatches := (total + b.maxBatchSize - 1) / b.maxBatchSize

	b.logger.Info("Starting batch semantic highlighting",
		zap.Int("documents", total),
		zap.Int("batches", totalBatches),
		zap.Int("max_batch_size", b.maxBatchSize),
	)

	for from := 0; from < total; from += b.maxBatchSize {
		to := min(from+b.maxBatchSize, total)
		batchNumber := from/b.maxBatchSize + 1
		chunkStart := time.Now()

		results, err := b.client.BatchInferenceSentenceHighlighting(
			ctx, hctx.ModelID, hctx.Requests[from:to], hctx.ModelType,
		)
		if err != nil {
			return fmt.Errorf("batch %d/%d inference from model %q: %w: %w",
				batchNumber, totalBatches, hctx.ModelID, domain.ErrInferenceProvider, err)
		}

		if err := b.applier.ApplyBatchResultsWithIndices(
			hctx.ValidHits, results, from, to, hctx.FieldName, hctx.PreTag, hctx.PostTag,
		); err != nil {
			return fmt.Errorf("batch %d/%d: %w", batchNumber, totalBatches, err)
		}

		b.logger.Debug("Batch completed",
			zap.Int("batch", batchNumber),
			zap.Int("total_batches", totalBatches),
			zap.Int("documents", to-from),
			zap.Duration("took", time.Since(chunkStart)),
		)
	}
	return nil
}
