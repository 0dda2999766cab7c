package query

import (
	"testing"
)

func TestParse_TermShortForm(t *testing.T) {
	node, err := Parse(map[string]any{"term": map[string]any{"body": "rain"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	term, ok := node.(*Term)
	if !ok {
		t.Fatalf("expected *Term, got %T", node)
	}
	if term.Field != "body" || term.Text != "rain" {
		t.Errorf("unexpected term: %+v", term)
	}
}

func TestParse_TermValueForm(t *testing.T) {
	node, err := Parse(map[string]any{
		"term": map[string]any{"body": map[string]any{"value": "rain"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	term := node.(*Term)
	if term.Text != "rain" {
		t.Errorf("expected 'rain', got %q", term.Text)
	}
}

func TestParse_TermMultipleFields(t *testing.T) {
	_, err := Parse(map[string]any{
		"term": map[string]any{"a": "x", "b": "y"},
	})
	if err == nil {
		t.Fatal("expected error for term on two fields")
	}
}

func TestParse_Boolean(t *testing.T) {
	node, err := Parse(map[string]any{
		"bool": map[string]any{
			"must": []any{
				map[string]any{"term": map[string]any{"body": "rain"}},
			},
			"must_not": map[string]any{"term": map[string]any{"body": "snow"}},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	boolean, ok := node.(*Boolean)
	if !ok {
		t.Fatalf("expected *Boolean, got %T", node)
	}
	if len(boolean.Clauses) != 2 {
		t.Fatalf("expected 2 clauses, got %d", len(boolean.Clauses))
	}
	if boolean.Clauses[0].Occur != Must {
		t.Errorf("expected must clause first, got %q", boolean.Clauses[0].Occur)
	}
	if boolean.Clauses[1].Occur != MustNot {
		t.Errorf("expected must_not clause second, got %q", boolean.Clauses[1].Occur)
	}
}

func TestParse_Nested(t *testing.T) {
	node, err := Parse(map[string]any{
		"nested": map[string]any{
			"path":       "comments",
			"score_mode": "avg",
			"query":      map[string]any{"term": map[string]any{"comments.text": "rain"}},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	nested, ok := node.(*Nested)
	if !ok {
		t.Fatalf("expected *Nested, got %T", node)
	}
	if nested.Path != "comments" || nested.ScoreMode != "avg" {
		t.Errorf("unexpected nested: %+v", nested)
	}
	if _, ok := nested.Inner.(*Term); !ok {
		t.Errorf("expected inner *Term, got %T", nested.Inner)
	}
}

func TestParse_NestedMissingPath(t *testing.T) {
	_, err := Parse(map[string]any{
		"nested": map[string]any{
			"query": map[string]any{"term": map[string]any{"a": "b"}},
		},
	})
	if err == nil {
		t.Fatal("expected error for nested without path")
	}
}

func TestParse_Neural(t *testing.T) {
	node, err := Parse(map[string]any{
		"neural": map[string]any{
			"body_embedding": map[string]any{
				"query_text": "what causes rain",
				"k":          float64(10),
			},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	neural, ok := node.(*Neural)
	if !ok {
		t.Fatalf("expected *Neural, got %T", node)
	}
	if neural.Field != "body_embedding" {
		t.Errorf("expected field body_embedding, got %q", neural.Field)
	}
	if neural.OriginalText != "what causes rain" {
		t.Errorf("expected original text, got %q", neural.OriginalText)
	}
}

func TestParse_NeuralMissingQueryText(t *testing.T) {
	_, err := Parse(map[string]any{
		"neural": map[string]any{"body_embedding": map[string]any{"k": float64(10)}},
	})
	if err == nil {
		t.Fatal("expected error for neural without query_text")
	}
}

func TestParse_NeuralWithRewrittenInner(t *testing.T) {
	node, err := Parse(map[string]any{
		"neural": map[string]any{
			"body_embedding": map[string]any{
				"query_text": "what causes rain",
				"query":      map[string]any{"term": map[string]any{"body": "rain"}},
			},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	neural := node.(*Neural)
	if _, ok := neural.Inner.(*Term); !ok {
		t.Errorf("expected inner *Term, got %T", neural.Inner)
	}
}

func TestParse_Hybrid(t *testing.T) {
	node, err := Parse(map[string]any{
		"hybrid": map[string]any{
			"queries": []any{
				map[string]any{"term": map[string]any{"body": "rain"}},
				nil,
				map[string]any{"neural": map[string]any{
					"body_embedding": map[string]any{"query_text": "weather"},
				}},
			},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	hybrid, ok := node.(*Hybrid)
	if !ok {
		t.Fatalf("expected *Hybrid, got %T", node)
	}
	if len(hybrid.SubQueries) != 3 {
		t.Fatalf("expected 3 sub-queries, got %d", len(hybrid.SubQueries))
	}
	if hybrid.SubQueries[1] != nil {
		t.Errorf("expected nil slot preserved, got %T", hybrid.SubQueries[1])
	}
}

func TestParse_UnknownKind(t *testing.T) {
	node, err := Parse(map[string]any{
		"match_phrase": map[string]any{"body": map[string]any{"query": "heavy rain"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	unknown, ok := node.(*Unknown)
	if !ok {
		t.Fatalf("expected *Unknown, got %T", node)
	}
	if unknown.Kind != "match_phrase" {
		t.Errorf("expected kind match_phrase, got %q", unknown.Kind)
	}
}

func TestParse_MultipleTopLevelKeys(t *testing.T) {
	_, err := Parse(map[string]any{
		"term":   map[string]any{"a": "x"},
		"neural": map[string]any{"b": map[string]any{"query_text": "y"}},
	})
	if err == nil {
		t.Fatal("expected error for two top-level keys")
	}
}
