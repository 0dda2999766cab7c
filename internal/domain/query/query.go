// Package query models the host engine's parsed query tree. The sidecar only
// reads these nodes; it never executes them.
package query

// Node is one node of a search query tree. Implementations are the concrete
// variants below plus whatever the host registers its own extractors for.
type Node interface {
	isNode()
}

// Occur is the role of a clause inside a Boolean query.
type Occur string

// Boolean clause occurrences.
const (
	Must    Occur = "must"
	Should  Occur = "should"
	Filter  Occur = "filter"
	MustNot Occur = "must_not"
)

// IsValid checks if the occurrence is one of the supported values.
func (o Occur) IsValid() bool {
	return o == Must || o == Should || o == Filter || o == MustNot
}

// Term matches a literal term on a single field.
type Term struct {
	Field string
	Text  string
}

func (*Term) isNode() {}

// Clause is one occur-tagged sub-query of a Boolean query.
type Clause struct {
	Occur Occur
	Node  Node
}

// Boolean combines sub-queries with must/should/filter/must_not semantics.
type Boolean struct {
	Clauses []Clause
}

func (*Boolean) isNode() {}

// Nested wraps a sub-query executed against nested child documents and
// joined back to the parent.
type Nested struct {
	Path      string
	ScoreMode string
	Inner     Node
}

func (*Nested) isNode() {}

// Neural is a k-NN query rewritten from natural-language text. It keeps the
// original free-text form alongside the rewritten vector sub-query.
type Neural struct {
	Field        string
	OriginalText string
	Inner        Node
}

func (*Neural) isNode() {}

// Hybrid runs sub-queries independently and fuses their scores.
type Hybrid struct {
	SubQueries []Node
}

func (*Hybrid) isNode() {}
