package driven

import (
	"context"

	"github.com/libria-search/libria/internal/core/domain"
)

// SearchIndex is the backing full-text/vector index service. Index
// construction and ANN graph maintenance are the service's concern; this
// port covers schema management, document upload and retrieval.
//
// Visibility of uploaded documents follows the service's own consistency
// model; callers must not assume uploads are immediately queryable.
type SearchIndex interface {
	// EnsureIndex creates the index if absent or updates it in place.
	// Calling it repeatedly with the same schema is a no-op. A structural
	// vector-configuration conflict is reported as
	// *domain.SchemaIncompatibleError, never forced.
	EnsureIndex(ctx context.Context, schema domain.IndexSchema) error

	// DeleteIndex removes the named index.
	DeleteIndex(ctx context.Context, name string) error

	// Upload upserts documents by ID and returns one result per
	// submitted document, in submission order.
	Upload(ctx context.Context, docs []domain.Document) ([]UploadResult, error)

	// Search executes a composed query and returns results in the
	// engine's relevance order.
	Search(ctx context.Context, q IndexQuery) ([]domain.SearchResult, error)

	// GetDocument fetches a document by key. Returns domain.ErrNotFound
	// if no such document exists.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// Count returns the number of documents in the index.
	Count(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}

// UploadResult reports per-document upload success.
type UploadResult struct {
	// ID is the document key.
	ID string

	// Succeeded is true when the service accepted the document.
	Succeeded bool

	// Message carries the service's failure detail, if any.
	Message string
}

// IndexQuery is a composed query payload. The four retrieval modes are
// expressed by which parts are set: Text only (keyword), Vector only
// (vector), both (hybrid), Filter with or without Text (filtered).
type IndexQuery struct {
	// Text is the lexical query. "*" matches all documents.
	Text string

	// Vector is the query embedding; nil disables the vector clause.
	Vector []float32

	// KNN is the nearest-neighbour count for the vector clause.
	KNN int

	// Filter is a field-equality expression; "" disables filtering.
	Filter string

	// Top caps the number of results returned.
	Top int

	// HighlightFields requests engine highlight spans for these fields.
	HighlightFields []string

	// HighlightPreTag and HighlightPostTag delimit highlighted spans.
	HighlightPreTag  string
	HighlightPostTag string

	// Select limits which document fields are populated; nil means all.
	Select []string
}
