package extractor

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/spotlight/internal/domain/query"
)

// BooleanExtractor joins the extractions of every non-negated clause.
type BooleanExtractor struct {
	registry *Registry
}

// ExtractQueryText recurses into every clause except must_not ones and joins
// the non-empty results with single spaces. A clause the registry cannot read
// contributes nothing.
func (e BooleanExtractor) ExtractQueryText(node query.Node, fieldName string) (string, error) {
	boolean, ok := node.(*query.Boolean)
	if !ok {
		return "", fmt.Errorf("expected *query.Boolean but got %T", node)
	}

	var parts []string
	for _, clause := range boolean.Clauses {
		if clause.Occur == query.MustNot {
			continue
		}
		text, err := e.registry.ExtractQueryText(clause.Node, fieldName)
		if err != nil || text == "" {
			continue
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, " "), nil
}
