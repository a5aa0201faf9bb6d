package domain

import (
	"fmt"
	"time"
)

// Document is the canonical record produced by the ingestion pipeline
// and stored in the search index.
type Document struct {
	// ID is the unique identifier. Assignment is positional within an
	// ingestion run (doc_1, doc_2, ...) so re-running a failed subset is
	// predictable by index. The index treats uploads as upserts by ID.
	ID string `json:"id"`

	// Content is the extracted full text. Documents with empty content
	// are never indexed.
	Content string `json:"content"`

	// ContentVector is the embedding of Content. Nil when embedding was
	// not generated. When present its length must equal the configured
	// vector dimensions.
	ContentVector []float32 `json:"content_vector,omitempty"`

	// ProductName is the title from extraction metadata, or
	// "Unknown Product" when the source carries no title.
	ProductName string `json:"product_name,omitempty"`

	// Filename is the positional local name (doc_1.pdf, ...).
	Filename string `json:"filename"`

	// Filepath is the absolute path of the transient local file the
	// content was extracted from. The file itself is deleted after
	// processing; the path is kept for provenance only.
	Filepath string `json:"filepath,omitempty"`

	// DocumentURL is the source location the document was fetched from.
	DocumentURL string `json:"document_url"`

	// ContentLength must equal len(Content) at validation time.
	ContentLength int `json:"content_length"`

	// ProcessedAt is set once, in UTC, at successful extraction.
	ProcessedAt time.Time `json:"processed_at"`
}

// Validate checks the upload invariant: non-empty ID and content, a
// consistent content length, and, when a vector is present, a length
// matching the configured dimensions. Invalid documents are excluded
// from upload, never partially written.
func (d *Document) Validate(dims int) error {
	if d.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidDocument)
	}
	if d.Content == "" {
		return fmt.Errorf("%w: document %s has empty content", ErrInvalidDocument, d.ID)
	}
	if d.ContentLength != len(d.Content) {
		return fmt.Errorf("%w: document %s content_length %d != %d",
			ErrInvalidDocument, d.ID, d.ContentLength, len(d.Content))
	}
	if d.ContentVector != nil && len(d.ContentVector) != dims {
		return fmt.Errorf("%w: document %s vector dimension %d, want %d",
			ErrInvalidDocument, d.ID, len(d.ContentVector), dims)
	}
	return nil
}

// HasVector returns true if the document carries an embedding.
func (d *Document) HasVector() bool {
	return len(d.ContentVector) > 0
}
