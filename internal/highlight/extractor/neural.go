package extractor

import (
	"fmt"

	"github.com/kailas-cloud/spotlight/internal/domain/query"
)

// NeuralExtractor returns the natural-language text a neural query was
// rewritten from.
type NeuralExtractor struct{}

// ExtractQueryText returns the stored original query text verbatim. The field
// name is ignored: a neural query already carries its free-text form.
func (NeuralExtractor) ExtractQueryText(node query.Node, _ string) (string, error) {
	neural, ok := node.(*query.Neural)
	if !ok {
		return "", fmt.Errorf("expected *query.Neural but got %T", node)
	}
	return neural.OriginalText, nil
}
