package cli

import (
	"context"
	"errors"

	"github.com/libria-search/libria/internal/core/domain"
	"github.com/libria-search/libria/internal/core/ports/driving"
	"github.com/libria-search/libria/internal/core/services"
)

// mockSearchService returns a fixed result set for every mode.
type mockSearchService struct {
	results []domain.SearchResult
	doc     *domain.Document
	stats   *driving.IndexStats
	err     error

	lastQuery string
	lastTop   int
	lastMode  string
}

var _ driving.SearchService = (*mockSearchService)(nil)

func (m *mockSearchService) record(mode, query string, top int) ([]domain.SearchResult, error) {
	m.lastMode, m.lastQuery, m.lastTop = mode, query, top
	return m.results, m.err
}

func (m *mockSearchService) Keyword(_ context.Context, query string, top int) ([]domain.SearchResult, error) {
	return m.record("keyword", query, top)
}

func (m *mockSearchService) Vector(_ context.Context, query string, k int) ([]domain.SearchResult, error) {
	return m.record("vector", query, k)
}

func (m *mockSearchService) Hybrid(_ context.Context, query string, top int) ([]domain.SearchResult, error) {
	return m.record("hybrid", query, top)
}

func (m *mockSearchService) Filtered(_ context.Context, query string, filter domain.FieldFilter, top int) ([]domain.SearchResult, error) {
	return m.record("filtered:"+filter.Expression(), query, top)
}

func (m *mockSearchService) List(_ context.Context, limit int) ([]domain.SearchResult, error) {
	return m.record("list", "", limit)
}

func (m *mockSearchService) Get(_ context.Context, id string) (*domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.doc == nil || m.doc.ID != id {
		return nil, domain.ErrNotFound
	}
	return m.doc, nil
}

func (m *mockSearchService) Stats(context.Context) (*driving.IndexStats, error) {
	return m.stats, m.err
}

// mockIngestService records the URLs it was asked to ingest.
type mockIngestService struct {
	report *domain.IngestReport
	err    error
	urls   []string
}

var _ driving.IngestService = (*mockIngestService)(nil)

func (m *mockIngestService) Run(_ context.Context, urls []string) (*domain.IngestReport, error) {
	m.urls = urls
	return m.report, m.err
}

// mockAdminService implements driving.IndexAdminService.
type mockAdminService struct {
	stats     *driving.IndexStats
	err       error
	ensured   int
	deleted   int
	indexName string
}

var _ driving.IndexAdminService = (*mockAdminService)(nil)

func (m *mockAdminService) EnsureSchema(context.Context) error {
	m.ensured++
	return m.err
}

func (m *mockAdminService) DeleteIndex(context.Context) error {
	m.deleted++
	return m.err
}

func (m *mockAdminService) Stats(context.Context) (*driving.IndexStats, error) {
	return m.stats, m.err
}

func (m *mockAdminService) IndexName() string {
	if m.indexName == "" {
		return "library"
	}
	return m.indexName
}

type mockSearchServiceError struct {
	mockSearchService
}

func newMockSearchServiceError() *mockSearchServiceError {
	m := &mockSearchServiceError{}
	m.err = errors.New("index unreachable")
	return m
}

// setupTestServices wires mock services and returns a cleanup that
// restores the previous wiring.
func setupTestServices() func() {
	prevIngest, prevSearch := ingestService, searchService
	prevAdmin, prevPresenter, prevSources := indexAdmin, presenter, defaultSources

	score := 0.954
	SetServices(&Services{
		Ingest: &mockIngestService{report: &domain.IngestReport{
			RunID:     "run-1",
			IndexName: "library",
			Outcomes:  []domain.ItemOutcome{{Index: 0, URL: "https://example.com/a.pdf", DocID: "doc_1"}},
		}},
		Search: &mockSearchService{
			results: []domain.SearchResult{{
				Document:   domain.Document{ID: "doc_1", Filename: "doc_1.pdf", ProductName: "Coffee Maker 2000", Content: "clean the frother wand"},
				Score:      &score,
				Highlights: map[string][]string{"content": {"clean the <em>frother</em> wand"}},
			}},
			doc: &domain.Document{ID: "doc_1", Filename: "doc_1.pdf", ProductName: "Coffee Maker 2000", ContentLength: 22},
			stats: &driving.IndexStats{
				IndexName: "library", FieldCount: 9, DocumentCount: 3, VectorEnabled: true,
			},
		},
		IndexAdmin: &mockAdminService{stats: &driving.IndexStats{
			IndexName: "library", FieldCount: 9, DocumentCount: 3, VectorEnabled: true,
		}},
		Presenter: services.NewPresenter(&domain.Session{}, 150),
		Sources:   []string{"https://example.com/a.pdf"},
	})

	return func() {
		ingestService, searchService = prevIngest, prevSearch
		indexAdmin, presenter, defaultSources = prevAdmin, prevPresenter, prevSources
	}
}
