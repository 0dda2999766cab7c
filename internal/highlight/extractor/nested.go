package extractor

import (
	"fmt"

	"github.com/kailas-cloud/spotlight/internal/domain/query"
)

// NestedExtractor unwraps one level of parent-child joining and recurses.
type NestedExtractor struct {
	registry *Registry
}

// ExtractQueryText delegates to the registry for the inner query, so nesting
// composes with any registered variant, including Neural.
func (e NestedExtractor) ExtractQueryText(node query.Node, fieldName string) (string, error) {
	nested, ok := node.(*query.Nested)
	if !ok {
		return "", fmt.Errorf("expected *query.Nested but got %T", node)
	}
	text, err := e.registry.ExtractQueryText(nested.Inner, fieldName)
	if err != nil {
		return "", nil
	}
	return text, nil
}
