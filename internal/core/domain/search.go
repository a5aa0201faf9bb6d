package domain

import "strings"

// SearchMode selects how a query is executed against the index.
type SearchMode string

// Retrieval modes. All four are expressed over the same schema.
const (
	// SearchModeKeyword is lexical text matching with highlights.
	SearchModeKeyword SearchMode = "keyword"

	// SearchModeVector is nearest-neighbour search over content_vector.
	SearchModeVector SearchMode = "vector"

	// SearchModeHybrid issues lexical and vector payloads in one call;
	// the backing engine fuses the ranking.
	SearchModeHybrid SearchMode = "hybrid"

	// SearchModeFiltered restricts results by a field-equality predicate,
	// optionally combined with a lexical query.
	SearchModeFiltered SearchMode = "filtered"
)

// FieldFilter is a field-equality predicate (field eq 'value').
type FieldFilter struct {
	Field string
	Value string
}

// Expression renders the filter in the index service's filter syntax.
func (f FieldFilter) Expression() string {
	return f.Field + " eq '" + strings.ReplaceAll(f.Value, "'", "''") + "'"
}

// SearchResult is one matched record plus engine-assigned decoration.
// Result order is whatever the backing engine returns; this layer does
// not re-sort.
type SearchResult struct {
	// Document is the matched record.
	Document Document

	// Score is the engine relevance score. Present for vector and hybrid
	// modes; absent for plain keyword and wildcard listings.
	Score *float64

	// Highlights holds engine-marked spans keyed by field name.
	// Nil when the engine provided none (e.g. pure vector search).
	Highlights map[string][]string
}

// Session holds interactive query context. It keeps the most recently
// issued free-text query so the presenter can compute contextual
// snippets when the engine provides no highlight spans.
// Created at session start, mutated on every search, never persisted.
type Session struct {
	lastQuery string
}

// SetQuery records the active free-text query.
func (s *Session) SetQuery(q string) {
	s.lastQuery = q
}

// Query returns the most recently issued query string.
func (s *Session) Query() string {
	return s.lastQuery
}
