package services

import (
	"context"
	"io"

	"github.com/libria-search/libria/internal/core/domain"
	"github.com/libria-search/libria/internal/core/ports/driven"
)

// Hand-written mocks for the driven ports. Zero-valued fields fall back
// to benign defaults so each test only overrides what it exercises.

type mockEmbeddingClient struct {
	embedFn func(ctx context.Context, text string) ([]float32, error)
	pingFn  func(ctx context.Context) error
	dims    int

	inputs []string
}

var _ driven.EmbeddingClient = (*mockEmbeddingClient)(nil)

func (m *mockEmbeddingClient) Embed(ctx context.Context, text string) ([]float32, error) {
	m.inputs = append(m.inputs, text)
	if m.embedFn != nil {
		return m.embedFn(ctx, text)
	}
	return make([]float32, m.Dimensions()), nil
}

func (m *mockEmbeddingClient) Dimensions() int {
	if m.dims == 0 {
		return 3
	}
	return m.dims
}

func (m *mockEmbeddingClient) ModelName() string { return "mock-model" }

func (m *mockEmbeddingClient) Ping(ctx context.Context) error {
	if m.pingFn != nil {
		return m.pingFn(ctx)
	}
	return nil
}

func (m *mockEmbeddingClient) Close() error { return nil }

type mockIndex struct {
	ensureFn func(ctx context.Context, schema domain.IndexSchema) error
	uploadFn func(ctx context.Context, docs []domain.Document) ([]driven.UploadResult, error)
	searchFn func(ctx context.Context, q driven.IndexQuery) ([]domain.SearchResult, error)
	getFn    func(ctx context.Context, id string) (*domain.Document, error)
	countFn  func(ctx context.Context) (int, error)

	ensured  []domain.IndexSchema
	uploaded [][]domain.Document
	queries  []driven.IndexQuery
	deleted  []string
}

var _ driven.SearchIndex = (*mockIndex)(nil)

func (m *mockIndex) EnsureIndex(ctx context.Context, schema domain.IndexSchema) error {
	m.ensured = append(m.ensured, schema)
	if m.ensureFn != nil {
		return m.ensureFn(ctx, schema)
	}
	return nil
}

func (m *mockIndex) DeleteIndex(_ context.Context, name string) error {
	m.deleted = append(m.deleted, name)
	return nil
}

func (m *mockIndex) Upload(ctx context.Context, docs []domain.Document) ([]driven.UploadResult, error) {
	m.uploaded = append(m.uploaded, docs)
	if m.uploadFn != nil {
		return m.uploadFn(ctx, docs)
	}
	results := make([]driven.UploadResult, len(docs))
	for i, d := range docs {
		results[i] = driven.UploadResult{ID: d.ID, Succeeded: true}
	}
	return results, nil
}

func (m *mockIndex) Search(ctx context.Context, q driven.IndexQuery) ([]domain.SearchResult, error) {
	m.queries = append(m.queries, q)
	if m.searchFn != nil {
		return m.searchFn(ctx, q)
	}
	return nil, nil
}

func (m *mockIndex) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockIndex) Count(ctx context.Context) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return 0, nil
}

func (m *mockIndex) Close() error { return nil }

type mockFetcher struct {
	fetchFn func(ctx context.Context, url string, dst io.Writer) (int64, error)

	urls []string
}

var _ driven.Fetcher = (*mockFetcher)(nil)

func (m *mockFetcher) Fetch(ctx context.Context, url string, dst io.Writer) (int64, error) {
	m.urls = append(m.urls, url)
	if m.fetchFn != nil {
		return m.fetchFn(ctx, url, dst)
	}
	n, err := dst.Write([]byte("%PDF-1.7 stub"))
	return int64(n), err
}

type mockExtractor struct {
	analyzeFn func(ctx context.Context, content io.Reader) (*driven.ExtractionResult, error)

	calls int
}

var _ driven.TextExtractor = (*mockExtractor)(nil)

func (m *mockExtractor) Analyze(ctx context.Context, content io.Reader) (*driven.ExtractionResult, error) {
	m.calls++
	if m.analyzeFn != nil {
		return m.analyzeFn(ctx, content)
	}
	return &driven.ExtractionResult{
		Pages:    [][]string{{"User Manual", "Setup instructions for the device."}},
		Metadata: driven.ExtractionMetadata{Title: "Coffee Maker 2000"},
	}, nil
}

func (m *mockExtractor) Close() error { return nil }

type mockBatchEmbedder struct {
	batchFn func(ctx context.Context, texts []string) ([][]float32, error)
	dims    int
}

var _ BatchEmbedder = (*mockBatchEmbedder)(nil)

func (m *mockBatchEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if m.batchFn != nil {
		return m.batchFn(ctx, texts)
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, m.Dimensions())
	}
	return out, nil
}

func (m *mockBatchEmbedder) Dimensions() int {
	if m.dims == 0 {
		return 3
	}
	return m.dims
}

type mockQueryEmbedder struct {
	embedFn func(ctx context.Context, text string) ([]float32, error)
}

var _ QueryEmbedder = (*mockQueryEmbedder)(nil)

func (m *mockQueryEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if m.embedFn != nil {
		return m.embedFn(ctx, text)
	}
	return []float32{0.1, 0.2, 0.3}, nil
}
