// Package azsearch adapts a hosted full-text/vector index service over
// its REST API (Azure AI Search compatible).
package azsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/libria-search/libria/internal/core/domain"
	"github.com/libria-search/libria/internal/core/ports/driven"
	"github.com/libria-search/libria/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.SearchIndex = (*Index)(nil)

// Default configuration values.
const (
	DefaultTimeout    = 30 * time.Second
	DefaultAPIVersion = "2024-07-01"

	vectorProfileName = "vector-profile"
	vectorFieldName   = "content_vector"
)

// Config holds configuration for the index service.
type Config struct {
	// Endpoint is the service base URL (required).
	Endpoint string

	// APIKey authenticates requests (required).
	APIKey string

	// IndexName is the index document operations target (required).
	// EnsureIndex repins it, so schema-recovery renames propagate to
	// subsequent uploads and queries.
	IndexName string

	// APIVersion selects the REST API version (default: 2024-07-01).
	APIVersion string

	// Timeout bounds each HTTP request (default: 30s).
	Timeout time.Duration
}

// Index talks to the remote index service.
type Index struct {
	client     *http.Client
	endpoint   string
	apiKey     string
	apiVersion string
	indexName  string
}

// NewIndex creates an index adapter.
func NewIndex(cfg Config) (*Index, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("azsearch: endpoint is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("azsearch: API key is required")
	}
	if cfg.IndexName == "" {
		return nil, fmt.Errorf("azsearch: index name is required")
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Index{
		client:     &http.Client{Timeout: cfg.Timeout},
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:     cfg.APIKey,
		apiVersion: cfg.APIVersion,
		indexName:  cfg.IndexName,
	}, nil
}

// Wire formats for index definitions.

type indexDefinition struct {
	Name         string            `json:"name"`
	Fields       []fieldDefinition `json:"fields"`
	VectorSearch *vectorSearch     `json:"vectorSearch,omitempty"`
}

type fieldDefinition struct {
	Name                string `json:"name"`
	Type                string `json:"type"`
	Key                 bool   `json:"key,omitempty"`
	Searchable          bool   `json:"searchable"`
	Filterable          bool   `json:"filterable"`
	Sortable            bool   `json:"sortable"`
	Facetable           bool   `json:"facetable"`
	Dimensions          int    `json:"dimensions,omitempty"`
	VectorSearchProfile string `json:"vectorSearchProfile,omitempty"`
}

type vectorSearch struct {
	Algorithms []vectorAlgorithm `json:"algorithms"`
	Profiles   []vectorProfile   `json:"profiles"`
}

type vectorAlgorithm struct {
	Name       string         `json:"name"`
	Kind       string         `json:"kind"`
	Parameters hnswParameters `json:"hnswParameters"`
}

type hnswParameters struct {
	M              int    `json:"m"`
	EfConstruction int    `json:"efConstruction"`
	EfSearch       int    `json:"efSearch"`
	Metric         string `json:"metric"`
}

type vectorProfile struct {
	Name      string `json:"name"`
	Algorithm string `json:"algorithm"`
}

// serviceError is the service's error envelope.
type serviceError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// toDefinition maps the schema to the service's index definition.
func toDefinition(schema domain.IndexSchema) indexDefinition {
	def := indexDefinition{Name: schema.Name}
	for _, f := range schema.Fields {
		fd := fieldDefinition{
			Name:       f.Name,
			Type:       string(f.Type),
			Key:        f.Key,
			Searchable: f.Searchable,
			Filterable: f.Filterable,
			Sortable:   f.Sortable,
			Facetable:  f.Facetable,
		}
		if f.Type == domain.FieldTypeSingleVector {
			fd.Dimensions = schema.Vector.Dimensions
			fd.VectorSearchProfile = vectorProfileName
		}
		def.Fields = append(def.Fields, fd)
	}
	def.VectorSearch = &vectorSearch{
		Algorithms: []vectorAlgorithm{{
			Name: schema.Vector.Algorithm,
			Kind: "hnsw",
			Parameters: hnswParameters{
				M:              schema.Vector.M,
				EfConstruction: schema.Vector.EfConstruction,
				EfSearch:       schema.Vector.EfSearch,
				Metric:         schema.Vector.Metric,
			},
		}},
		Profiles: []vectorProfile{{Name: vectorProfileName, Algorithm: schema.Vector.Algorithm}},
	}
	return def
}

// checkCompatible reports a *domain.SchemaIncompatibleError when the
// existing definition cannot serve the declared schema in place: a
// field type change, a vector dimension change, or different ANN graph
// parameters. Missing fields are not conflicts; they are added by a
// subsequent update.
func checkCompatible(schema domain.IndexSchema, existing *indexDefinition) error {
	byName := make(map[string]fieldDefinition, len(existing.Fields))
	for _, f := range existing.Fields {
		byName[f.Name] = f
	}

	for _, want := range schema.Fields {
		have, ok := byName[want.Name]
		if !ok {
			continue
		}
		if have.Type != string(want.Type) {
			return &domain.SchemaIncompatibleError{
				Index:   existing.Name,
				Reason:  "CannotChangeExistingField",
				Message: fmt.Sprintf("field %s has type %s, declared %s", want.Name, have.Type, want.Type),
			}
		}
		if want.Type == domain.FieldTypeSingleVector && have.Dimensions != schema.Vector.Dimensions {
			return &domain.SchemaIncompatibleError{
				Index:   existing.Name,
				Reason:  "VectorDimensionMismatch",
				Message: fmt.Sprintf("field %s has %d dimensions, declared %d", want.Name, have.Dimensions, schema.Vector.Dimensions),
			}
		}
	}

	if existing.VectorSearch != nil && len(existing.VectorSearch.Algorithms) > 0 {
		have := existing.VectorSearch.Algorithms[0].Parameters
		want := hnswParameters{
			M:              schema.Vector.M,
			EfConstruction: schema.Vector.EfConstruction,
			EfSearch:       schema.Vector.EfSearch,
			Metric:         schema.Vector.Metric,
		}
		if have != want {
			return &domain.SchemaIncompatibleError{
				Index:   existing.Name,
				Reason:  "CannotChangeVectorSearchAlgorithm",
				Message: fmt.Sprintf("existing graph parameters %+v, declared %+v", have, want),
			}
		}
	}
	return nil
}

// covered reports whether every declared field already exists.
func covered(schema domain.IndexSchema, existing *indexDefinition) bool {
	byName := make(map[string]bool, len(existing.Fields))
	for _, f := range existing.Fields {
		byName[f.Name] = true
	}
	for _, want := range schema.Fields {
		if !byName[want.Name] {
			return false
		}
	}
	return true
}

// EnsureIndex creates the index if absent. When the index exists its
// definition is fetched and compared: missing fields are added in
// place, structural vector conflicts surface as
// *domain.SchemaIncompatibleError and the index is never forced.
func (x *Index) EnsureIndex(ctx context.Context, schema domain.IndexSchema) error {
	existing, found, err := x.getIndex(ctx, schema.Name)
	if err != nil {
		return err
	}

	if !found {
		logger.Info("index %q not found, creating", schema.Name)
		if err := x.putIndex(ctx, schema); err != nil {
			return err
		}
		x.indexName = schema.Name
		return nil
	}

	if err := checkCompatible(schema, existing); err != nil {
		return err
	}
	if covered(schema, existing) {
		logger.Debug("index %q already matches the declared schema", schema.Name)
		x.indexName = schema.Name
		return nil
	}

	logger.Info("index %q exists, adding missing fields", schema.Name)
	if err := x.putIndex(ctx, schema); err != nil {
		return err
	}
	x.indexName = schema.Name
	return nil
}

// getIndex fetches an index definition; found is false on 404.
func (x *Index) getIndex(ctx context.Context, name string) (*indexDefinition, bool, error) {
	resp, err := x.do(ctx, http.MethodGet, "/indexes/"+url.PathEscape(name), nil)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, x.errorFrom(resp, "get index")
	}

	var def indexDefinition
	if err := json.NewDecoder(resp.Body).Decode(&def); err != nil {
		return nil, false, fmt.Errorf("decode index definition: %w", err)
	}
	return &def, true, nil
}

// putIndex creates or updates the index definition. The service rejects
// structural changes with a CannotChange* code, which is surfaced as
// *domain.SchemaIncompatibleError.
func (x *Index) putIndex(ctx context.Context, schema domain.IndexSchema) error {
	resp, err := x.do(ctx, http.MethodPut, "/indexes/"+url.PathEscape(schema.Name), toDefinition(schema))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		return nil
	}

	body, _ := io.ReadAll(resp.Body)
	var se serviceError
	if err := json.Unmarshal(body, &se); err == nil && strings.HasPrefix(se.Error.Code, "CannotChange") {
		return &domain.SchemaIncompatibleError{
			Index:   schema.Name,
			Reason:  se.Error.Code,
			Message: se.Error.Message,
		}
	}
	if se.Error.Message != "" {
		return fmt.Errorf("put index: %s (%s, status %d)", se.Error.Message, se.Error.Code, resp.StatusCode)
	}
	return fmt.Errorf("put index: unexpected status %d: %s", resp.StatusCode, string(body))
}

// DeleteIndex removes the named index. Deleting an absent index is not
// an error.
func (x *Index) DeleteIndex(ctx context.Context, name string) error {
	resp, err := x.do(ctx, http.MethodDelete, "/indexes/"+url.PathEscape(name), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusNotFound {
		return x.errorFrom(resp, "delete index")
	}
	return nil
}

type uploadResponse struct {
	Value []struct {
		Key          string `json:"key"`
		Status       bool   `json:"status"`
		ErrorMessage string `json:"errorMessage"`
	} `json:"value"`
}

// Upload upserts docs by ID and reports per-document acceptance in
// submission order.
func (x *Index) Upload(ctx context.Context, docs []domain.Document) ([]driven.UploadResult, error) {
	actions := make([]map[string]any, 0, len(docs))
	for _, doc := range docs {
		action, err := toAction(doc)
		if err != nil {
			return nil, err
		}
		actions = append(actions, action)
	}

	resp, err := x.do(ctx, http.MethodPost, x.docsPath("index"), map[string]any{"value": actions})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// 200 is full success, 207 is partial; both carry per-key statuses.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusMultiStatus {
		return nil, x.errorFrom(resp, "upload documents")
	}

	var upload uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&upload); err != nil {
		return nil, fmt.Errorf("decode upload response: %w", err)
	}

	results := make([]driven.UploadResult, len(upload.Value))
	for i, v := range upload.Value {
		results[i] = driven.UploadResult{ID: v.Key, Succeeded: v.Status, Message: v.ErrorMessage}
	}
	return results, nil
}

// toAction flattens a document into an upsert action.
func toAction(doc domain.Document) (map[string]any, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document %s: %w", doc.ID, err)
	}
	var action map[string]any
	if err := json.Unmarshal(raw, &action); err != nil {
		return nil, fmt.Errorf("shape document %s: %w", doc.ID, err)
	}
	action["@search.action"] = "mergeOrUpload"
	return action, nil
}

// Wire formats for queries.

type searchRequest struct {
	Search           string        `json:"search,omitempty"`
	VectorQueries    []vectorQuery `json:"vectorQueries,omitempty"`
	Filter           string        `json:"filter,omitempty"`
	Top              int           `json:"top,omitempty"`
	Highlight        string        `json:"highlight,omitempty"`
	HighlightPreTag  string        `json:"highlightPreTag,omitempty"`
	HighlightPostTag string        `json:"highlightPostTag,omitempty"`
	Select           string        `json:"select,omitempty"`
}

type vectorQuery struct {
	Kind   string    `json:"kind"`
	Vector []float32 `json:"vector"`
	K      int       `json:"k"`
	Fields string    `json:"fields"`
}

type searchResponse struct {
	Value []json.RawMessage `json:"value"`
}

type hitDecoration struct {
	Score      *float64            `json:"@search.score"`
	Highlights map[string][]string `json:"@search.highlights"`
}

// Search executes a composed query.
func (x *Index) Search(ctx context.Context, q driven.IndexQuery) ([]domain.SearchResult, error) {
	req := searchRequest{
		Search:           q.Text,
		Filter:           q.Filter,
		Top:              q.Top,
		Highlight:        strings.Join(q.HighlightFields, ","),
		HighlightPreTag:  q.HighlightPreTag,
		HighlightPostTag: q.HighlightPostTag,
		Select:           strings.Join(q.Select, ","),
	}
	if q.Vector != nil {
		req.VectorQueries = []vectorQuery{{
			Kind:   "vector",
			Vector: q.Vector,
			K:      q.KNN,
			Fields: vectorFieldName,
		}}
	}

	resp, err := x.do(ctx, http.MethodPost, x.docsPath("search"), req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, x.errorFrom(resp, "search")
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	results := make([]domain.SearchResult, 0, len(sr.Value))
	for _, raw := range sr.Value {
		var doc domain.Document
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("decode search hit: %w", err)
		}
		var deco hitDecoration
		if err := json.Unmarshal(raw, &deco); err != nil {
			return nil, fmt.Errorf("decode search hit: %w", err)
		}

		result := domain.SearchResult{Document: doc, Highlights: deco.Highlights}
		// The service reports a score on every hit, but it only ranks
		// meaningfully when a vector clause contributed.
		if q.Vector != nil {
			result.Score = deco.Score
		}
		results = append(results, result)
	}
	return results, nil
}

// GetDocument fetches a document by key.
func (x *Index) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	resp, err := x.do(ctx, http.MethodGet, x.docsPath(url.PathEscape(id)), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("document %q: %w", id, domain.ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, x.errorFrom(resp, "get document")
	}

	var doc domain.Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &doc, nil
}

// Count returns the number of documents in the index.
func (x *Index) Count(ctx context.Context) (int, error) {
	resp, err := x.do(ctx, http.MethodGet, x.docsPath("$count"), nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, x.errorFrom(resp, "count documents")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("read count response: %w", err)
	}
	// The count endpoint returns a bare integer, optionally BOM-prefixed.
	n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(string(body), "\ufeff")))
	if err != nil {
		return 0, fmt.Errorf("parse count %q: %w", string(body), err)
	}
	return n, nil
}

// Close releases resources.
func (x *Index) Close() error {
	return nil
}

// docsPath builds a documents sub-path for the active index.
func (x *Index) docsPath(suffix string) string {
	return "/indexes/" + url.PathEscape(x.indexName) + "/docs/" + suffix
}

// do issues one JSON request against the service.
func (x *Index) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader = http.NoBody
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, x.endpoint+path+"?api-version="+x.apiVersion, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", x.apiKey)

	resp, err := x.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

// errorFrom drains the response and shapes the service error envelope.
func (x *Index) errorFrom(resp *http.Response, op string) error {
	body, _ := io.ReadAll(resp.Body)
	var se serviceError
	if err := json.Unmarshal(body, &se); err == nil && se.Error.Message != "" {
		return fmt.Errorf("%s: %s (%s, status %d)", op, se.Error.Message, se.Error.Code, resp.StatusCode)
	}
	return fmt.Errorf("%s: unexpected status %d: %s", op, resp.StatusCode, string(body))
}
