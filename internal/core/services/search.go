package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/libria-search/libria/internal/core/domain"
	"github.com/libria-search/libria/internal/core/ports/driven"
	"github.com/libria-search/libria/internal/core/ports/driving"
	"github.com/libria-search/libria/internal/logger"
)

// maxListLimit is the hard cap on wildcard listings regardless of what
// the caller asks for.
const maxListLimit = 50

// defaultSelect limits hydrated fields to what result rendering needs;
// content_vector in particular is large and never displayed.
var defaultSelect = []string{"id", "content", "product_name", "filename", "document_url", "content_length"}

// QueryEmbedder is the slice of the embedder the query engine needs.
type QueryEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// QueryEngineConfig carries the result-shape defaults.
type QueryEngineConfig struct {
	// TopK is the result count used when the caller passes top <= 0.
	TopK int

	// ListLimit is the default wildcard listing size.
	ListLimit int

	// HighlightPreTag and HighlightPostTag delimit highlighted spans.
	HighlightPreTag  string
	HighlightPostTag string
}

// QueryEngine implements driving.SearchService by composing index
// queries for the four retrieval modes. It records each free-text query
// in the session so snippet rendering can locate the match.
type QueryEngine struct {
	index    driven.SearchIndex
	embedder QueryEmbedder
	manager  *IndexManager
	session  *domain.Session
	cfg      QueryEngineConfig
}

var _ driving.SearchService = (*QueryEngine)(nil)

// NewQueryEngine wires the engine's collaborators.
func NewQueryEngine(index driven.SearchIndex, embedder QueryEmbedder, manager *IndexManager, session *domain.Session, cfg QueryEngineConfig) *QueryEngine {
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	if cfg.ListLimit <= 0 {
		cfg.ListLimit = 20
	}
	return &QueryEngine{
		index:    index,
		embedder: embedder,
		manager:  manager,
		session:  session,
		cfg:      cfg,
	}
}

// Keyword performs lexical search with content highlighting.
func (e *QueryEngine) Keyword(ctx context.Context, query string, top int) ([]domain.SearchResult, error) {
	query, err := e.prepare(query)
	if err != nil {
		return nil, err
	}
	logger.Debug("keyword search: %q (top %d)", query, e.top(top))

	return e.index.Search(ctx, driven.IndexQuery{
		Text:             query,
		Top:              e.top(top),
		HighlightFields:  []string{"content"},
		HighlightPreTag:  e.cfg.HighlightPreTag,
		HighlightPostTag: e.cfg.HighlightPostTag,
		Select:           defaultSelect,
	})
}

// Vector embeds the query and performs nearest-neighbour search.
func (e *QueryEngine) Vector(ctx context.Context, query string, k int) ([]domain.SearchResult, error) {
	query, err := e.prepare(query)
	if err != nil {
		return nil, err
	}

	vector, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	logger.Debug("vector search: %q (k %d)", query, e.top(k))

	return e.index.Search(ctx, driven.IndexQuery{
		Vector: vector,
		KNN:    e.top(k),
		Top:    e.top(k),
		Select: defaultSelect,
	})
}

// Hybrid issues lexical and vector payloads in one call.
func (e *QueryEngine) Hybrid(ctx context.Context, query string, top int) ([]domain.SearchResult, error) {
	query, err := e.prepare(query)
	if err != nil {
		return nil, err
	}

	vector, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	logger.Debug("hybrid search: %q (top %d)", query, e.top(top))

	return e.index.Search(ctx, driven.IndexQuery{
		Text:             query,
		Vector:           vector,
		KNN:              e.top(top),
		Top:              e.top(top),
		HighlightFields:  []string{"content"},
		HighlightPreTag:  e.cfg.HighlightPreTag,
		HighlightPostTag: e.cfg.HighlightPostTag,
		Select:           defaultSelect,
	})
}

// Filtered restricts results by a field-equality predicate. An empty
// query lists all documents matching the filter.
func (e *QueryEngine) Filtered(ctx context.Context, query string, filter domain.FieldFilter, top int) ([]domain.SearchResult, error) {
	text := strings.TrimSpace(query)
	if text == "" {
		text = "*"
	} else {
		e.session.SetQuery(text)
	}
	logger.Debug("filtered search: %q where %s (top %d)", text, filter.Expression(), e.top(top))

	q := driven.IndexQuery{
		Text:   text,
		Filter: filter.Expression(),
		Top:    e.top(top),
		Select: defaultSelect,
	}
	if text != "*" {
		q.HighlightFields = []string{"content"}
		q.HighlightPreTag = e.cfg.HighlightPreTag
		q.HighlightPostTag = e.cfg.HighlightPostTag
	}
	return e.index.Search(ctx, q)
}

// List returns up to limit documents via a wildcard query. The limit is
// capped; zero or negative falls back to the configured default.
func (e *QueryEngine) List(ctx context.Context, limit int) ([]domain.SearchResult, error) {
	if limit <= 0 {
		limit = e.cfg.ListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	logger.Debug("listing up to %d documents", limit)

	return e.index.Search(ctx, driven.IndexQuery{
		Text:   "*",
		Top:    limit,
		Select: defaultSelect,
	})
}

// Get fetches one document by ID.
func (e *QueryEngine) Get(ctx context.Context, id string) (*domain.Document, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.ErrEmptyInput
	}
	return e.index.GetDocument(ctx, id)
}

// Stats reports index-level statistics.
func (e *QueryEngine) Stats(ctx context.Context) (*driving.IndexStats, error) {
	return e.manager.Stats(ctx)
}

// prepare validates and records a free-text query.
func (e *QueryEngine) prepare(query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", domain.ErrEmptyQuery
	}
	e.session.SetQuery(query)
	return query, nil
}

// top resolves a caller-supplied result count against the default.
func (e *QueryEngine) top(n int) int {
	if n <= 0 {
		return e.cfg.TopK
	}
	return n
}
