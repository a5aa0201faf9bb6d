package driven

import (
	"context"
	"io"
	"strings"
	"time"
)

// TextExtractor wraps the external content-extraction engine
// (OCR / layout analysis). The engine itself is out of scope; this port
// normalises its output into text lines plus document metadata.
type TextExtractor interface {
	// Analyze submits document bytes and returns the extraction result.
	Analyze(ctx context.Context, content io.Reader) (*ExtractionResult, error)

	// Close releases resources.
	Close() error
}

// ExtractionMetadata holds the optional document properties the
// extraction engine reports.
type ExtractionMetadata struct {
	Author    string
	Title     string
	Created   time.Time
	PageCount int
	Language  string
}

// ExtractionResult is the normalised output of one analysis call.
type ExtractionResult struct {
	// Pages holds the ordered text lines grouped by page.
	Pages [][]string

	// Metadata carries the document properties; all fields optional.
	Metadata ExtractionMetadata
}

// Text joins all non-blank lines across pages with newlines, preserving
// page and line order.
func (r *ExtractionResult) Text() string {
	var b strings.Builder
	for _, page := range r.Pages {
		for _, line := range page {
			if strings.TrimSpace(line) == "" {
				continue
			}
			if b.Len() > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(line)
		}
	}
	return b.String()
}
