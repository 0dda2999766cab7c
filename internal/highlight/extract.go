package highlight

import (
	"go.uber.org/zap"

	"github.com/kailas-cloud/spotlight/internal/domain/search"
	"github.com/kailas-cloud/spotlight/internal/highlight/extractor"
)

const errNoSemanticField = "No semantic highlight field found"

// ConfigExtractor pulls the highlight configuration out of a search request.
// Extraction never fails: anything unusable yields an invalid Config and the
// validator names the problem.
type ConfigExtractor struct {
	registry *extractor.Registry
	logger   *zap.Logger
}

// NewConfigExtractor creates a config extractor.
func NewConfigExtractor(registry *extractor.Registry, logger *zap.Logger) *ConfigExtractor {
	return &ConfigExtractor{registry: registry, logger: logger}
}

// Extract builds a Config from the request. Non-semantic highlight fields are
// ignored; option priority is field-specific, then highlighter-level, then
// defaults.
func (e *ConfigExtractor) Extract(req *search.Request) Config {
	if req == nil || req.Highlight == nil {
		e.logger.Debug("No highlighter in request")
		return Invalid(errNoSemanticField)
	}

	field, ok := semanticField(req.Highlight)
	if !ok {
		e.logger.Debug("No semantic highlight field in request")
		return Invalid(errNoSemanticField)
	}

	queryText := ""
	if req.Query != nil {
		text, err := e.registry.ExtractQueryText(req.Query, field.Name)
		if err != nil {
			e.logger.Debug("Query text extraction failed",
				zap.String("field", field.Name), zap.Error(err))
		} else {
			queryText = text
		}
	}

	return NewConfig(
		field.Name,
		stringOption(field.Options, req.Highlight.Options, OptionModelID, ""),
		queryText,
		tagOption(req.Highlight.PreTags, field.Options, req.Highlight.Options, OptionPreTag, DefaultPreTag),
		tagOption(req.Highlight.PostTags, field.Options, req.Highlight.Options, OptionPostTag, DefaultPostTag),
		boolOption(field.Options, req.Highlight.Options, OptionBatchInference),
		intOption(field.Options, req.Highlight.Options, OptionMaxBatchSize, DefaultMaxBatchSize),
	)
}

// semanticField returns the first field configured with the semantic
// highlighter type.
func semanticField(h *search.Highlight) (search.Field, bool) {
	for _, f := range h.Fields {
		if f.Type == HighlighterType {
			return f, true
		}
	}
	return search.Field{}, false
}

// stringOption reads a string option, field-specific first. Non-string values
// are ignored.
func stringOption(fieldOpts, globalOpts map[string]any, key, def string) string {
	for _, opts := range []map[string]any{fieldOpts, globalOpts} {
		if v, ok := opts[key].(string); ok {
			return v
		}
	}
	return def
}

// tagOption prefers the highlighter-level tags array, then option keys, then
// the default.
func tagOption(tags []string, fieldOpts, globalOpts map[string]any, key, def string) string {
	if len(tags) > 0 {
		return tags[0]
	}
	return stringOption(fieldOpts, globalOpts, key, def)
}

// boolOption reads a boolean option; anything but a literal boolean is false.
func boolOption(fieldOpts, globalOpts map[string]any, key string) bool {
	for _, opts := range []map[string]any{fieldOpts, globalOpts} {
		if v, present := opts[key]; present {
			b, ok := v.(bool)
			return ok && b
		}
	}
	return false
}

// intOption reads an integer option. JSON numbers decode as float64; anything
// non-integral falls back to the default.
func intOption(fieldOpts, globalOpts map[string]any, key string, def int) int {
	for _, opts := range []map[string]any{fieldOpts, globalOpts} {
		v, present := opts[key]
		if !present {
			continue
		}
		switch n := v.(type) {
		case int:
			return n
		case float64:
			if n == float64(int(n)) {
				return int(n)
			}
		}
		return def
	}
	return def
}
