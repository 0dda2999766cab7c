package query

import "fmt"

// Unknown preserves a query variant the parser has no model for. Extractors
// treat it as an unregistered variant.
type Unknown struct {
	Kind string
	Body map[string]any
}

func (*Unknown) isNode() {}

// Parse converts a decoded query DSL object into a Node. The object must have
// exactly one top-level key naming the query kind.
func Parse(m map[string]any) (Node, error) {
	if len(m) != 1 {
		return nil, fmt.Errorf("query object must have exactly one key, got %d", len(m))
	}

	for kind, raw := range m {
		body, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("query %q: body must be an object, got %T", kind, raw)
		}

		switch kind {
		case "term":
			return parseTerm(body)
		case "bool":
			return parseBoolean(body)
		case "nested":
			return parseNested(body)
		case "neural":
			return parseNeural(body)
		case "hybrid":
			return parseHybrid(body)
		default:
			return &Unknown{Kind: kind, Body: body}, nil
		}
	}
	return nil, fmt.Errorf("empty query object")
}

// parseTerm accepts both {"field": "text"} and {"field": {"value": "text"}}.
func parseTerm(body map[string]any) (Node, error) {
	if len(body) != 1 {
		return nil, fmt.Errorf("term query must target exactly one field, got %d", len(body))
	}
	for field, raw := range body {
		switch v := raw.(type) {
		case string:
			return &Term{Field: field, Text: v}, nil
		case map[string]any:
			text, ok := v["value"].(string)
			if !ok {
				return nil, fmt.Errorf("term query on %q: value must be a string", field)
			}
			return &Term{Field: field, Text: text}, nil
		default:
			return nil, fmt.Errorf("term query on %q: unsupported value type %T", field, raw)
		}
	}
	return nil, fmt.Errorf("empty term query")
}

func parseBoolean(body map[string]any) (Node, error) {
	var clauses []Clause
	for _, occur := range []Occur{Must, Should, Filter, MustNot} {
		raw, present := body[string(occur)]
		if !present {
			continue
		}
		subs, err := clauseList(raw)
		if err != nil {
			return nil, fmt.Errorf("bool query %s: %w", occur, err)
		}
		for _, sub := range subs {
			node, err := Parse(sub)
			if err != nil {
				return nil, fmt.Errorf("bool query %s clause: %w", occur, err)
			}
			clauses = append(clauses, Clause{Occur: occur, Node: node})
		}
	}
	return &Boolean{Clauses: clauses}, nil
}

// clauseList accepts a single clause object or an array of them.
func clauseList(raw any) ([]map[string]any, error) {
	switch v := raw.(type) {
	case map[string]any:
		return []map[string]any{v}, nil
	case []any:
		out := make([]map[string]any, 0, len(v))
		for _, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("clause must be an object, got %T", item)
			}
			out = append(out, m)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("clauses must be an object or array, got %T", raw)
	}
}

func parseNested(body map[string]any) (Node, error) {
	path, _ := body["path"].(string)
	if path == "" {
		return nil, fmt.Errorf("nested query requires a path")
	}
	inner, ok := body["query"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("nested query on %q requires an inner query object", path)
	}
	node, err := Parse(inner)
	if err != nil {
		return nil, fmt.Errorf("nested query on %q: %w", path, err)
	}
	scoreMode, _ := body["score_mode"].(string)
	return &Nested{Path: path, ScoreMode: scoreMode, Inner: node}, nil
}

// parseNeural accepts {"field": {"query_text": "...", ...}}. The rewritten
// vector sub-query, if the host included one, rides along as Inner.
func parseNeural(body map[string]any) (Node, error) {
	if len(body) != 1 {
		return nil, fmt.Errorf("neural query must target exactly one field, got %d", len(body))
	}
	for field, raw := range body {
		opts, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("neural query on %q: body must be an object", field)
		}
		text, ok := opts["query_text"].(string)
		if !ok || text == "" {
			return nil, fmt.Errorf("neural query on %q requires query_text", field)
		}
		n := &Neural{Field: field, OriginalText: text}
		if rewritten, ok := opts["query"].(map[string]any); ok {
			inner, err := Parse(rewritten)
			if err != nil {
				return nil, fmt.Errorf("neural query on %q: %w", field, err)
			}
			n.Inner = inner
		}
		return n, nil
	}
	return nil, fmt.Errorf("empty neural query")
}

func parseHybrid(body map[string]any) (Node, error) {
	raw, ok := body["queries"].([]any)
	if !ok {
		return nil, fmt.Errorf("hybrid query requires a queries array")
	}
	subs := make([]Node, 0, len(raw))
	for _, item := range raw {
		if item == nil {
			// Hosts have been observed to serialize removed sub-queries as
			// null entries; keep the slot so extraction can skip it.
			subs = append(subs, nil)
			continue
		}
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("hybrid sub-query must be an object, got %T", item)
		}
		node, err := Parse(m)
		if err != nil {
			return nil, fmt.Errorf("hybrid sub-query: %w", err)
		}
		subs = append(subs, node)
	}
	return &Hybrid{SubQueries: subs}, nil
}
