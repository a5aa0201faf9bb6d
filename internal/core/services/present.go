package services

import (
	"fmt"
	"strings"

	"github.com/libria-search/libria/internal/core/domain"
)

// maxHighlights caps the engine highlight spans shown per result.
const maxHighlights = 3

// DisplayResult is one search result shaped for rendering. The display
// layers (CLI, chat) format it; they never reach into raw results.
type DisplayResult struct {
	Rank        int
	ID          string
	Filename    string
	ProductName string
	DocumentURL string

	// Score is the formatted relevance score, "" when the engine
	// assigned none.
	Score string

	// Snippets are the text fragments to show: engine highlights when
	// available, otherwise one contextual snippet around the query.
	Snippets []string

	// FromHighlights is true when Snippets came from engine highlights.
	FromHighlights bool
}

// Presenter turns raw search results into display form. It reads the
// session's last query to locate the match when the engine provided no
// highlight spans.
type Presenter struct {
	session    *domain.Session
	contextLen int
}

// NewPresenter creates a presenter with the given snippet context
// window (total characters around the match).
func NewPresenter(session *domain.Session, contextLen int) *Presenter {
	if contextLen <= 0 {
		contextLen = 150
	}
	return &Presenter{session: session, contextLen: contextLen}
}

// Format shapes one result for display at the given 1-based rank.
func (p *Presenter) Format(r domain.SearchResult, rank int) DisplayResult {
	d := DisplayResult{
		Rank:        rank,
		ID:          r.Document.ID,
		Filename:    r.Document.Filename,
		ProductName: r.Document.ProductName,
		DocumentURL: r.Document.DocumentURL,
	}
	if r.Score != nil {
		d.Score = fmt.Sprintf("%.3f", *r.Score)
	}

	for _, h := range r.Highlights["content"] {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		d.Snippets = append(d.Snippets, h)
		if len(d.Snippets) == maxHighlights {
			break
		}
	}
	if len(d.Snippets) > 0 {
		d.FromHighlights = true
		return d
	}

	if snippet := ContextualSnippet(r.Document.Content, p.session.Query(), p.contextLen); snippet != "" {
		d.Snippets = []string{snippet}
	}
	return d
}

// FormatAll shapes a result list, assigning ranks in order. An empty
// input yields an empty (non-nil) slice; callers render the explicit
// no-results state themselves.
func (p *Presenter) FormatAll(results []domain.SearchResult) []DisplayResult {
	out := make([]DisplayResult, 0, len(results))
	for i, r := range results {
		out = append(out, p.Format(r, i+1))
	}
	return out
}

// ContextualSnippet extracts a window of roughly contextLen characters
// centred on the first case-insensitive occurrence of query in content.
// Ellipses mark truncation at either end. When the query is absent or
// empty the snippet falls back to the content prefix.
func ContextualSnippet(content, query string, contextLen int) string {
	if content == "" {
		return ""
	}

	idx := -1
	if strings.TrimSpace(query) != "" {
		idx = strings.Index(strings.ToLower(content), strings.ToLower(query))
	}
	if idx < 0 {
		if len(content) <= contextLen {
			return content
		}
		return content[:contextLen] + "..."
	}

	half := contextLen / 2
	start := idx - half
	if start < 0 {
		start = 0
	}
	end := idx + len(query) + half
	if end > len(content) {
		end = len(content)
	}

	snippet := content[start:end]
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(content) {
		snippet += "..."
	}
	return snippet
}
