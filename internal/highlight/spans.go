package highlight

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/spotlight/internal/domain"
)

// Span is a half-open rune-offset interval [Start, End) into a document
// field's text, as returned by the model.
type Span struct {
	Start int
	End   int
}

// parseSpans reads the "highlights" list out of one model result map.
// Returns ok=false when the map carries no recognized highlights key, which
// is distinct from a present-but-empty list (ok=true, zero spans).
func parseSpans(result map[string]any) ([]Span, bool, error) {
	raw, present := result[highlightsKey]
	list, ok := raw.([]any)
	if !present || !ok {
		return nil, false, nil
	}

	spans := make([]Span, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, true, fmt.Errorf(
				"expect highlight entry to be a map of string to number, but was: %v: %w",
				item, domain.ErrModelContract,
			)
		}
		start, startOK := numeric(m[startKey])
		end, endOK := numeric(m[endKey])
		if m[startKey] == nil || m[endKey] == nil {
			return nil, true, fmt.Errorf("missing start or end position in highlight data: %w", domain.ErrModelContract)
		}
		if !startOK || !endOK {
			return nil, true, fmt.Errorf(
				"highlight start and end must be numbers, got start=%v end=%v: %w",
				m[startKey], m[endKey], domain.ErrModelContract,
			)
		}
		spans = append(spans, Span{Start: start, End: end})
	}
	return spans, true, nil
}

func numeric(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	default:
		return 0, false
	}
}

// validateSpans checks every span's bounds independently, then the ascending
// start order the model contract promises. Out-of-order spans are an upstream
// malfunction and are never silently reordered.
func validateSpans(spans []Span, textLength int) error {
	for _, s := range spans {
		if s.Start < 0 || s.End > textLength || s.Start >= s.End {
			return fmt.Errorf(
				"invalid highlight positions: start=%d, end=%d, textLength=%d. "+
					"Positions must satisfy: 0 <= start < end <= textLength: %w",
				s.Start, s.End, textLength, domain.ErrModelContract,
			)
		}
	}
	for i := 1; i < len(spans); i++ {
		if spans[i].Start < spans[i-1].Start {
			return fmt.Errorf("received unsorted highlights from model: %w", domain.ErrModelContract)
		}
	}
	return nil
}

// renderSpans applies validated, ascending spans onto text: untouched runs
// are copied verbatim, spanned runs are wrapped with the tags.
func renderSpans(text string, spans []Span, preTag, postTag string) string {
	runes := []rune(text)
	var sb strings.Builder
	pos := 0
	for _, s := range spans {
		if s.Start > pos {
			sb.WriteString(string(runes[pos:s.Start]))
		}
		sb.WriteString(preTag)
		sb.WriteString(string(runes[s.Start:s.End]))
		sb.WriteString(postTag)
		pos = s.End
	}
	if pos < len(runes) {
		sb.WriteString(string(runes[pos:]))
	}
	return sb.String()
}
