package azsearch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libria-search/libria/internal/core/domain"
	"github.com/libria-search/libria/internal/core/ports/driven"
)

func testIndex(t *testing.T, endpoint string) *Index {
	t.Helper()
	x, err := NewIndex(Config{Endpoint: endpoint, APIKey: "key-1", IndexName: "library"})
	require.NoError(t, err)
	return x
}

func testSchema() domain.IndexSchema {
	return domain.DefaultSchema("library", 3)
}

func TestEnsureIndex_CreatesWhenAbsent(t *testing.T) {
	var created indexDefinition
	puts := 0
	mux := http.NewServeMux()
	mux.HandleFunc("GET /indexes/library", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key-1", r.Header.Get("api-key"))
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("PUT /indexes/library", func(w http.ResponseWriter, r *http.Request) {
		puts++
		require.NoError(t, json.NewDecoder(r.Body).Decode(&created))
		w.WriteHeader(http.StatusCreated)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	x := testIndex(t, srv.URL)
	require.NoError(t, x.EnsureIndex(context.Background(), testSchema()))

	assert.Equal(t, 1, puts)
	assert.Equal(t, "library", created.Name)
	assert.Len(t, created.Fields, 9)

	require.NotNil(t, created.VectorSearch)
	require.Len(t, created.VectorSearch.Algorithms, 1)
	algo := created.VectorSearch.Algorithms[0]
	assert.Equal(t, "hnsw", algo.Kind)
	assert.Equal(t, 4, algo.Parameters.M)
	assert.Equal(t, 400, algo.Parameters.EfConstruction)
	assert.Equal(t, 500, algo.Parameters.EfSearch)
	assert.Equal(t, "cosine", algo.Parameters.Metric)

	var vectorField *fieldDefinition
	for i := range created.Fields {
		if created.Fields[i].Name == "content_vector" {
			vectorField = &created.Fields[i]
		}
	}
	require.NotNil(t, vectorField)
	assert.Equal(t, 3, vectorField.Dimensions)
	assert.Equal(t, vectorProfileName, vectorField.VectorSearchProfile)
}

func TestEnsureIndex_NoOpWhenMatching(t *testing.T) {
	puts := 0
	mux := http.NewServeMux()
	mux.HandleFunc("GET /indexes/library", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(toDefinition(testSchema()))
	})
	mux.HandleFunc("PUT /indexes/library", func(w http.ResponseWriter, r *http.Request) {
		puts++
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	x := testIndex(t, srv.URL)
	require.NoError(t, x.EnsureIndex(context.Background(), testSchema()))
	require.NoError(t, x.EnsureIndex(context.Background(), testSchema()))
	assert.Zero(t, puts, "matching index is never rewritten")
}

func TestEnsureIndex_DimensionMismatch(t *testing.T) {
	existing := toDefinition(domain.DefaultSchema("library", 768))
	mux := http.NewServeMux()
	mux.HandleFunc("GET /indexes/library", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(existing)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	x := testIndex(t, srv.URL)
	err := x.EnsureIndex(context.Background(), testSchema())

	var incompat *domain.SchemaIncompatibleError
	require.ErrorAs(t, err, &incompat)
	assert.Equal(t, "library", incompat.Index)
	assert.Equal(t, "VectorDimensionMismatch", incompat.Reason)
}

func TestEnsureIndex_FieldTypeConflict(t *testing.T) {
	existing := toDefinition(testSchema())
	for i := range existing.Fields {
		if existing.Fields[i].Name == "content_length" {
			existing.Fields[i].Type = "Edm.String"
		}
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /indexes/library", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(existing)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	x := testIndex(t, srv.URL)
	err := x.EnsureIndex(context.Background(), testSchema())

	var incompat *domain.SchemaIncompatibleError
	require.ErrorAs(t, err, &incompat)
	assert.Equal(t, "CannotChangeExistingField", incompat.Reason)
}

func TestEnsureIndex_ServiceRejectsUpdate(t *testing.T) {
	existing := toDefinition(testSchema())
	existing.Fields = existing.Fields[:5] // missing fields force an update
	mux := http.NewServeMux()
	mux.HandleFunc("GET /indexes/library", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(existing)
	})
	mux.HandleFunc("PUT /indexes/library", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": "CannotChangeVectorSearchAlgorithm", "message": "algorithm is immutable"},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	x := testIndex(t, srv.URL)
	err := x.EnsureIndex(context.Background(), testSchema())

	var incompat *domain.SchemaIncompatibleError
	require.ErrorAs(t, err, &incompat)
	assert.Equal(t, "CannotChangeVectorSearchAlgorithm", incompat.Reason)
}

func TestUpload_MapsPerDocumentResults(t *testing.T) {
	var gotBody map[string][]map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("POST /indexes/library/docs/index", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusMultiStatus)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"value": []map[string]any{
				{"key": "doc_1", "status": true},
				{"key": "doc_2", "status": false, "errorMessage": "throttled"},
			},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	x := testIndex(t, srv.URL)
	docs := []domain.Document{
		{ID: "doc_1", Content: "alpha", ContentLength: 5},
		{ID: "doc_2", Content: "beta", ContentLength: 4},
	}
	results, err := x.Upload(context.Background(), docs)
	require.NoError(t, err)

	require.Len(t, gotBody["value"], 2)
	assert.Equal(t, "mergeOrUpload", gotBody["value"][0]["@search.action"])
	assert.Equal(t, "doc_1", gotBody["value"][0]["id"])

	require.Len(t, results, 2)
	assert.True(t, results[0].Succeeded)
	assert.False(t, results[1].Succeeded)
	assert.Equal(t, "throttled", results[1].Message)
}

func TestSearch_Keyword(t *testing.T) {
	var gotReq searchRequest
	mux := http.NewServeMux()
	mux.HandleFunc("POST /indexes/library/docs/search", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"value": []map[string]any{
				{
					"@search.score":      1.7,
					"@search.highlights": map[string]any{"content": []string{"the <em>frother</em> wand"}},
					"id":                 "doc_1",
					"content":            "clean the frother wand weekly",
					"filename":           "doc_1.pdf",
				},
			},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	x := testIndex(t, srv.URL)
	results, err := x.Search(context.Background(), driven.IndexQuery{
		Text:             "frother",
		Top:              5,
		HighlightFields:  []string{"content"},
		HighlightPreTag:  "<em>",
		HighlightPostTag: "</em>",
	})
	require.NoError(t, err)

	assert.Equal(t, "frother", gotReq.Search)
	assert.Equal(t, "content", gotReq.Highlight)
	assert.Equal(t, 5, gotReq.Top)
	assert.Empty(t, gotReq.VectorQueries)

	require.Len(t, results, 1)
	assert.Equal(t, "doc_1", results[0].Document.ID)
	assert.Nil(t, results[0].Score, "keyword hits carry no score")
	assert.Equal(t, []string{"the <em>frother</em> wand"}, results[0].Highlights["content"])
}

func TestSearch_Vector(t *testing.T) {
	var gotReq searchRequest
	mux := http.NewServeMux()
	mux.HandleFunc("POST /indexes/library/docs/search", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"value": []map[string]any{
				{"@search.score": 0.8234567, "id": "doc_2", "content": "descaling"},
			},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	x := testIndex(t, srv.URL)
	results, err := x.Search(context.Background(), driven.IndexQuery{
		Vector: []float32{0.1, 0.2, 0.3},
		KNN:    5,
		Top:    5,
	})
	require.NoError(t, err)

	require.Len(t, gotReq.VectorQueries, 1)
	assert.Equal(t, "vector", gotReq.VectorQueries[0].Kind)
	assert.Equal(t, vectorFieldName, gotReq.VectorQueries[0].Fields)
	assert.Equal(t, 5, gotReq.VectorQueries[0].K)

	require.Len(t, results, 1)
	require.NotNil(t, results[0].Score)
	assert.InDelta(t, 0.8234567, *results[0].Score, 1e-9)
}

func TestGetDocument(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /indexes/library/docs/doc_1", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "doc_1", "content": "alpha", "filename": "doc_1.pdf"})
	})
	mux.HandleFunc("GET /indexes/library/docs/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	x := testIndex(t, srv.URL)
	doc, err := x.GetDocument(context.Background(), "doc_1")
	require.NoError(t, err)
	assert.Equal(t, "alpha", doc.Content)

	_, err = x.GetDocument(context.Background(), "doc_404")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCount(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /indexes/library/docs/$count", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("\ufeff42"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	x := testIndex(t, srv.URL)
	n, err := x.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, n)
}

func TestDeleteIndex_AbsentIsNotError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /indexes/library", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	x := testIndex(t, srv.URL)
	assert.NoError(t, x.DeleteIndex(context.Background(), "library"))
}

func TestNewIndex_Validation(t *testing.T) {
	_, err := NewIndex(Config{APIKey: "k", IndexName: "library"})
	assert.Error(t, err, "endpoint required")

	_, err = NewIndex(Config{Endpoint: "https://x", IndexName: "library"})
	assert.Error(t, err, "API key required")

	_, err = NewIndex(Config{Endpoint: "https://x", APIKey: "k"})
	assert.Error(t, err, "index name required")
}
