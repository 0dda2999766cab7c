package extractor

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/spotlight/internal/domain/query"
)

// HybridExtractor joins the extractions of a hybrid query's sub-queries.
type HybridExtractor struct {
	registry *Registry
}

// ExtractQueryText iterates sub-queries in order, skipping nil entries,
// recursing into each via the registry, and joining the surviving non-empty
// pieces with single spaces. A sub-query the registry cannot read, or whose
// extraction fails, contributes nothing.
func (e HybridExtractor) ExtractQueryText(node query.Node, fieldName string) (string, error) {
	hybrid, ok := node.(*query.Hybrid)
	if !ok {
		return "", fmt.Errorf("expected *query.Hybrid but got %T", node)
	}

	var parts []string
	for _, sub := range hybrid.SubQueries {
		if sub == nil {
			continue
		}
		text, err := e.registry.ExtractQueryText(sub, fieldName)
		if err != nil || text == "" {
			continue
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, " "), nil
}
