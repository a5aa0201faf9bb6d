package driving

import (
	"context"

	"github.com/libria-search/libria/internal/core/domain"
)

// SearchService exposes the four retrieval modes plus document access.
// Each mode returns results in the backing engine's relevance order.
type SearchService interface {
	// Keyword performs lexical search with field highlighting.
	Keyword(ctx context.Context, query string, top int) ([]domain.SearchResult, error)

	// Vector embeds the query and performs nearest-neighbour search.
	Vector(ctx context.Context, query string, k int) ([]domain.SearchResult, error)

	// Hybrid issues lexical and vector payloads in one call; the engine
	// fuses the ranking.
	Hybrid(ctx context.Context, query string, top int) ([]domain.SearchResult, error)

	// Filtered restricts results by a field-equality predicate. An empty
	// query matches all documents satisfying the filter, without scores.
	Filtered(ctx context.Context, query string, filter domain.FieldFilter, top int) ([]domain.SearchResult, error)

	// List returns up to limit documents in the index.
	List(ctx context.Context, limit int) ([]domain.SearchResult, error)

	// Get fetches one document by ID.
	Get(ctx context.Context, id string) (*domain.Document, error)

	// Stats reports index-level statistics.
	Stats(ctx context.Context) (*IndexStats, error)
}

// IndexStats summarises the state of the backing index.
type IndexStats struct {
	IndexName     string
	FieldCount    int
	DocumentCount int
	VectorEnabled bool
}
