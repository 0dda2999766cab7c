package highlight

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/spotlight/internal/domain/search"
	"github.com/kailas-cloud/spotlight/internal/ml"
)

// Context packages everything one highlighting pass needs. Requests and
// ValidHits are index-aligned: Requests[i] was built from ValidHits[i].
// Built once, read-only afterward.
type Context struct {
	Requests  []ml.SentenceHighlightingRequest
	ValidHits []*search.Hit

	FieldName string
	ModelID   string
	ModelType ml.ModelType
	PreTag    string
	PostTag   string

	StartTime        time.Time
	OriginalResponse *search.Response
}

// IsEmpty reports whether no hit produced an inference request.
func (c *Context) IsEmpty() bool { return len(c.Requests) == 0 }

// Size returns the number of inference requests.
func (c *Context) Size() int { return len(c.Requests) }

// ContextBuilder builds highlighting contexts from validated configs.
type ContextBuilder struct {
	logger *zap.Logger
}

// NewContextBuilder creates a context builder.
func NewContextBuilder(logger *zap.Logger) *ContextBuilder {
	return &ContextBuilder{logger: logger}
}

// Build extracts the configured field's text from every hit and produces one
// inference request per hit that has usable text. Hits without the field, or
// whose value reduces to nothing, are excluded rather than sent as empty
// requests.
func (b *ContextBuilder) Build(cfg Config, resp *search.Response, startTime time.Time) *Context {
	ctx := &Context{
		FieldName:        cfg.FieldName(),
		ModelID:          cfg.ModelID(),
		ModelType:        cfg.ModelType(),
		PreTag:           cfg.PreTag(),
		PostTag:          cfg.PostTag(),
		StartTime:        startTime,
		OriginalResponse: resp,
	}
	if resp == nil {
		return ctx
	}

	for _, hit := range resp.Hits {
		if hit == nil {
			continue
		}
		text, ok := fieldText(hit.Source, cfg.FieldName())
		if !ok {
			b.logger.Debug("Hit excluded from highlighting",
				zap.String("hit_id", hit.ID),
				zap.String("field", cfg.FieldName()),
			)
			continue
		}
		ctx.Requests = append(ctx.Requests, ml.SentenceHighlightingRequest{
			ModelID:  cfg.ModelID(),
			Question: cfg.QueryText(),
			Context:  text,
		})
		ctx.ValidHits = append(ctx.ValidHits, hit)
	}
	return ctx
}

// fieldText resolves a possibly dotted field path in the hit source and
// renders it as inference input text. Lists are joined with single spaces,
// nil elements skipped; scalars are stringified.
func fieldText(source map[string]any, fieldName string) (string, bool) {
	value, ok := lookupField(source, fieldName)
	if !ok || value == nil {
		return "", false
	}

	switch v := value.(type) {
	case string:
		return v, true
	case []any:
		var parts []string
		for _, item := range v {
			if item == nil {
				continue
			}
			parts = append(parts, stringify(item))
		}
		if len(parts) == 0 {
			return "", false
		}
		return strings.Join(parts, " "), true
	case map[string]any:
		return "", false
	default:
		return stringify(v), true
	}
}

func stringify(v any) string {
	switch n := v.(type) {
	case string:
		return n
	case float64:
		// JSON numbers decode as float64; print integral values without a
		// fractional part.
		if n == float64(int64(n)) {
			return fmt.Sprintf("%d", int64(n))
		}
		return fmt.Sprintf("%v", n)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// lookupField navigates dotted paths through nested source objects.
func lookupField(source map[string]any, path string) (any, bool) {
	if v, ok := source[path]; ok {
		return v, true
	}
	current := any(source)
	for part := range strings.SplitSeq(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}
