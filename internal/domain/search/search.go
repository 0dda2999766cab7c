// Package search models the slice of the host engine's search request and
// response that the highlighting pipeline reads and annotates.
package search

import (
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/spotlight/internal/domain/query"
)

// Request is the host's search request as handed to the pipeline: the parsed
// query tree plus the highlight section, everything else is the host's business.
type Request struct {
	Query     query.Node
	Highlight *Highlight
}

// Highlight is the request's highlighter configuration.
type Highlight struct {
	PreTags  []string
	PostTags []string
	Options  map[string]any
	Fields   []Field
}

// Field is one per-field highlighter entry, in request order.
type Field struct {
	Name    string
	Type    string
	Options map[string]any
}

// Response is the host's search response. Hits are owned by the host; the
// pipeline reads their sources and writes highlight fragments back.
type Response struct {
	TookMillis int64  `json:"took"`
	Hits       []*Hit `json:"hits"`
}

// Hit is a single retrieved document.
type Hit struct {
	ID        string              `json:"_id"`
	Score     float64             `json:"_score"`
	Source    map[string]any      `json:"_source"`
	Highlight map[string][]string `json:"highlight,omitempty"`
}

// SetHighlight attaches a single-fragment highlight entry for the field,
// replacing any previous entry for that field.
func (h *Hit) SetHighlight(field, fragment string) {
	if h.Highlight == nil {
		h.Highlight = make(map[string][]string, 1)
	}
	h.Highlight[field] = []string{fragment}
}

// requestDTO is the wire form of Request.
type requestDTO struct {
	Query     map[string]any `json:"query"`
	Highlight *highlightDTO  `json:"highlight"`
}

type highlightDTO struct {
	PreTags  []string                  `json:"pre_tags"`
	PostTags []string                  `json:"post_tags"`
	Options  map[string]any            `json:"options"`
	Fields   map[string]map[string]any `json:"fields"`
}

// UnmarshalJSON decodes the host's request DSL, parsing the query tree into
// query nodes. A request without a query or highlight section is valid here;
// the pipeline's validator decides what that means.
func (r *Request) UnmarshalJSON(data []byte) error {
	var dto requestDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return err
	}

	if dto.Query != nil {
		node, err := query.Parse(dto.Query)
		if err != nil {
			return fmt.Errorf("parse query: %w", err)
		}
		r.Query = node
	}

	if dto.Highlight != nil {
		h := &Highlight{
			PreTags:  dto.Highlight.PreTags,
			PostTags: dto.Highlight.PostTags,
			Options:  dto.Highlight.Options,
		}
		for name, opts := range dto.Highlight.Fields {
			f := Field{Name: name, Options: opts}
			if t, ok := opts["type"].(string); ok {
				f.Type = t
			}
			h.Fields = append(h.Fields, f)
		}
		r.Highlight = h
	}
	return nil
}
