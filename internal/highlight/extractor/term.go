package extractor

import (
	"fmt"

	"github.com/kailas-cloud/spotlight/internal/domain/query"
)

// TermExtractor extracts the literal term of a Term query targeting the field.
type TermExtractor struct{}

// ExtractQueryText returns the term text when the query targets fieldName,
// "" otherwise.
func (TermExtractor) ExtractQueryText(node query.Node, fieldName string) (string, error) {
	term, ok := node.(*query.Term)
	if !ok {
		return "", fmt.Errorf("expected *query.Term but got %T", node)
	}
	if term.Field != fieldName {
		return "", nil
	}
	return term.Text, nil
}
