package highlight

import (
	"context"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

// DefaultInferenceConcurrency bounds single-mode per-hit inference fan-out.
const DefaultInferenceConcurrency = 4

// SingleHighlighter runs one inference call per hit on a bounded worker pool
// and applies the fragments in hit order.
type SingleHighlighter struct {
	engine *Engine
	pool   *ants.Pool
	logger *zap.Logger
}

// NewSingleHighlighter creates a single-inference strategy with a worker pool
// of the given size.
func NewSingleHighlighter(engine *Engine, concurrency int, logger *zap.Logger) (*SingleHighlighter, error) {
	if concurrency < 1 {
		concurrency = DefaultInferenceConcurrency
	}
	pool, err := ants.NewPool(concurrency)
	if err != nil {
		return nil, fmt.Errorf("create inference pool: %w", err)
	}
	return &SingleHighlighter{engine: engine, pool: pool, logger: logger}, nil
}

// Close releases the worker pool.
func (s *SingleHighlighter) Close() { s.pool.Release() }

// Process highlights every context hit with its own inference call. Requests
// fan out concurrently; fragments are written back index-aligned, so
// Requests[i] always lands on ValidHits[i]. The first failure fails the pass.
func (s *SingleHighlighter) Process(ctx context.Context, hctx *Context) error {
	n := hctx.Size()
	fragments := make([]string, n)
	applied := make([]bool, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := range hctx.Requests {
		wg.Add(1)
		req := hctx.Requests[i]
		idx := i
		task := func() {
			defer wg.Done()
			fragment, ok, err := s.engine.GetHighlightedSentences(
				ctx, req.ModelID, req.Question, req.Context, hctx.PreTag, hctx.PostTag,
			)
			if err != nil {
				errs[idx] = err
				return
			}
			fragments[idx] = fragment
			applied[idx] = ok
		}
		if err := s.pool.Submit(task); err != nil {
			// Pool rejected the task (released or overloaded); run inline
			// rather than dropping the hit.
			task()
		}
	}
	wg.Wait()

	for i := range n {
		if errs[i] != nil {
			return fmt.Errorf("highlight hit %d: %w", i, errs[i])
		}
	}
	for i := range n {
		if applied[i] {
			hctx.ValidHits[i].SetHighlight(hctx.FieldName, fragments[i])
		}
	}
	return nil
}
