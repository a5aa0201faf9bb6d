// Package memory provides an in-memory search index for tests and
// local development. It approximates the hosted service: lexical
// term-frequency ranking, cosine-similarity vector search, reciprocal
// rank fusion for hybrid queries, and field-equality filters.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/libria-search/libria/internal/core/domain"
	"github.com/libria-search/libria/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.SearchIndex = (*Index)(nil)

// fragmentContext is the number of characters kept around a highlighted
// term occurrence.
const fragmentContext = 60

// maxFragments caps highlight fragments per document.
const maxFragments = 3

// Index is a thread-safe in-memory search index.
type Index struct {
	mu     sync.RWMutex
	schema *domain.IndexSchema
	docs   map[string]domain.Document
	order  []string
}

// NewIndex creates an empty in-memory index.
func NewIndex() *Index {
	return &Index{docs: make(map[string]domain.Document)}
}

// EnsureIndex stores the schema on first call. A later call with a
// different vector dimension reports *domain.SchemaIncompatibleError,
// mirroring the hosted service's refusal to change vector fields.
func (x *Index) EnsureIndex(_ context.Context, schema domain.IndexSchema) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.schema == nil || x.schema.Name != schema.Name {
		s := schema
		x.schema = &s
		return nil
	}
	if x.schema.Vector.Dimensions != schema.Vector.Dimensions {
		return &domain.SchemaIncompatibleError{
			Index:  schema.Name,
			Reason: "VectorDimensionMismatch",
			Message: fmt.Sprintf("existing index has %d dimensions, declared %d",
				x.schema.Vector.Dimensions, schema.Vector.Dimensions),
		}
	}
	return nil
}

// DeleteIndex drops the schema and all documents.
func (x *Index) DeleteIndex(_ context.Context, name string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.schema != nil && x.schema.Name == name {
		x.schema = nil
		x.docs = make(map[string]domain.Document)
		x.order = nil
	}
	return nil
}

// Upload upserts docs by ID, preserving first-seen insertion order.
func (x *Index) Upload(_ context.Context, docs []domain.Document) ([]driven.UploadResult, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	results := make([]driven.UploadResult, len(docs))
	for i, doc := range docs {
		if doc.ID == "" {
			results[i] = driven.UploadResult{Succeeded: false, Message: "document key is empty"}
			continue
		}
		if _, exists := x.docs[doc.ID]; !exists {
			x.order = append(x.order, doc.ID)
		}
		x.docs[doc.ID] = doc
		results[i] = driven.UploadResult{ID: doc.ID, Succeeded: true}
	}
	return results, nil
}

// scored pairs a document with its ranking keys.
type scored struct {
	doc     domain.Document
	lexical float64
	cosine  float64
}

// Search executes a composed query over the stored documents.
func (x *Index) Search(_ context.Context, q driven.IndexQuery) ([]domain.SearchResult, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	candidates := make([]scored, 0, len(x.order))
	for _, id := range x.order {
		doc := x.docs[id]
		if q.Filter != "" && !matchesFilter(doc, q.Filter) {
			continue
		}
		candidates = append(candidates, scored{doc: doc})
	}

	lexical := q.Text != "" && q.Text != "*"
	vector := q.Vector != nil

	if lexical {
		terms := strings.Fields(strings.ToLower(q.Text))
		kept := candidates[:0]
		for _, c := range candidates {
			c.lexical = termFrequency(c.doc.Content, terms)
			if c.lexical > 0 || vector {
				kept = append(kept, c)
			}
		}
		candidates = kept
	}
	if vector {
		for i := range candidates {
			candidates[i].cosine = cosineSimilarity(q.Vector, candidates[i].doc.ContentVector)
		}
	}

	rank(candidates, lexical, vector)

	top := q.Top
	if top <= 0 || top > len(candidates) {
		top = len(candidates)
	}
	if vector && q.KNN > 0 && q.KNN < top {
		top = q.KNN
	}

	results := make([]domain.SearchResult, 0, top)
	for _, c := range candidates[:top] {
		r := domain.SearchResult{Document: c.doc}
		if vector {
			score := c.cosine
			r.Score = &score
		}
		if lexical && len(q.HighlightFields) > 0 {
			if frags := highlight(c.doc.Content, q.Text, q.HighlightPreTag, q.HighlightPostTag); len(frags) > 0 {
				r.Highlights = map[string][]string{"content": frags}
			}
		}
		results = append(results, r)
	}
	return results, nil
}

// GetDocument fetches a document by key.
func (x *Index) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	doc, ok := x.docs[id]
	if !ok {
		return nil, fmt.Errorf("document %q: %w", id, domain.ErrNotFound)
	}
	return &doc, nil
}

// Count returns the number of stored documents.
func (x *Index) Count(_ context.Context) (int, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.docs), nil
}

// Close releases resources.
func (x *Index) Close() error {
	return nil
}

// rank orders candidates by the active clauses: fused reciprocal ranks
// for hybrid, a single key otherwise. Insertion order breaks ties.
func rank(candidates []scored, lexical, vector bool) {
	switch {
	case lexical && vector:
		lexRank := rankPositions(candidates, func(c scored) float64 { return c.lexical })
		vecRank := rankPositions(candidates, func(c scored) float64 { return c.cosine })
		fused := make(map[string]float64, len(candidates))
		for _, c := range candidates {
			fused[c.doc.ID] = 1.0/float64(60+lexRank[c.doc.ID]) + 1.0/float64(60+vecRank[c.doc.ID])
		}
		sort.SliceStable(candidates, func(i, j int) bool {
			return fused[candidates[i].doc.ID] > fused[candidates[j].doc.ID]
		})
	case vector:
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].cosine > candidates[j].cosine
		})
	case lexical:
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].lexical > candidates[j].lexical
		})
	}
}

// rankPositions assigns 1-based ranks under the given key.
func rankPositions(candidates []scored, key func(scored) float64) map[string]int {
	idx := make([]int, len(candidates))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return key(candidates[idx[a]]) > key(candidates[idx[b]])
	})
	ranks := make(map[string]int, len(candidates))
	for pos, i := range idx {
		ranks[candidates[i].doc.ID] = pos + 1
	}
	return ranks
}

// termFrequency counts case-insensitive occurrences of each term.
func termFrequency(content string, terms []string) float64 {
	lower := strings.ToLower(content)
	total := 0
	for _, term := range terms {
		total += strings.Count(lower, term)
	}
	return float64(total)
}

// cosineSimilarity computes the cosine of two vectors, 0 on mismatch.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// matchesFilter evaluates a "field eq 'value'" expression.
func matchesFilter(doc domain.Document, filter string) bool {
	field, value, ok := parseFilter(filter)
	if !ok {
		return false
	}
	switch field {
	case "id":
		return doc.ID == value
	case "product_name":
		return doc.ProductName == value
	case "filename":
		return doc.Filename == value
	case "filepath":
		return doc.Filepath == value
	case "document_url":
		return doc.DocumentURL == value
	default:
		return false
	}
}

// parseFilter splits "field eq 'value'", undoing quote escaping.
func parseFilter(filter string) (field, value string, ok bool) {
	field, rest, found := strings.Cut(filter, " eq ")
	if !found {
		return "", "", false
	}
	rest = strings.TrimSpace(rest)
	if len(rest) < 2 || rest[0] != '\'' || rest[len(rest)-1] != '\'' {
		return "", "", false
	}
	value = strings.ReplaceAll(rest[1:len(rest)-1], "''", "'")
	return strings.TrimSpace(field), value, true
}

// highlight extracts tagged fragments around query occurrences.
func highlight(content, query, preTag, postTag string) []string {
	lower := strings.ToLower(content)
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	var fragments []string
	offset := 0
	for len(fragments) < maxFragments {
		i := strings.Index(lower[offset:], q)
		if i < 0 {
			break
		}
		i += offset

		start := i - fragmentContext
		if start < 0 {
			start = 0
		}
		end := i + len(q) + fragmentContext
		if end > len(content) {
			end = len(content)
		}

		fragment := content[start:i] + preTag + content[i:i+len(q)] + postTag + content[i+len(q):end]
		fragments = append(fragments, fragment)
		offset = i + len(q)
	}
	return fragments
}
