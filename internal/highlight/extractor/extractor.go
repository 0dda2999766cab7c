// Package extractor recovers the plain-text form of a query tree for a given
// field. Each query variant registers its own extractor; composite extractors
// recurse through the registry so they compose with any registered variant.
package extractor

import (
	"errors"
	"reflect"

	"github.com/kailas-cloud/spotlight/internal/domain/query"
)

// ErrNoExtractor signals a query variant with no registered extractor. This
// is distinct from an extractor returning "" for a recognized variant: the
// registry does not know how to read the node at all.
var ErrNoExtractor = errors.New("no extractor registered for query type")

// Extractor produces the query text relevant to a field from one query
// variant. Implementations must reject nodes of the wrong variant.
type Extractor interface {
	ExtractQueryText(node query.Node, fieldName string) (string, error)
}

// Registry dispatches extraction by the node's concrete type.
//
// Registration happens at construction; afterwards the registry is read-only
// and safe to share across concurrent requests.
type Registry struct {
	extractors map[reflect.Type]Extractor
}

// NewRegistry creates a registry with all built-in variants registered.
func NewRegistry() *Registry {
	r := &Registry{extractors: make(map[reflect.Type]Extractor)}
	r.Register(&query.Term{}, TermExtractor{})
	r.Register(&query.Neural{}, NeuralExtractor{})
	r.Register(&query.Boolean{}, BooleanExtractor{registry: r})
	r.Register(&query.Nested{}, NestedExtractor{registry: r})
	r.Register(&query.Hybrid{}, HybridExtractor{registry: r})
	return r
}

// Register binds an extractor to the concrete type of the prototype node.
func (r *Registry) Register(prototype query.Node, e Extractor) {
	r.extractors[reflect.TypeOf(prototype)] = e
}

// ExtractQueryText extracts the query text relevant to fieldName.
// Returns ErrNoExtractor for an unregistered variant; a registered variant
// with no text for the field yields "" with a nil error.
func (r *Registry) ExtractQueryText(node query.Node, fieldName string) (string, error) {
	if node == nil {
		return "", nil
	}
	e, ok := r.extractors[reflect.TypeOf(node)]
	if !ok {
		return "", ErrNoExtractor
	}
	return e.ExtractQueryText(node, fieldName)
}
