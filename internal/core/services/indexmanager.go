package services

import (
	"context"
	"fmt"

	"github.com/libria-search/libria/internal/core/domain"
	"github.com/libria-search/libria/internal/core/ports/driven"
	"github.com/libria-search/libria/internal/core/ports/driving"
	"github.com/libria-search/libria/internal/logger"
)

// IndexManager owns the index schema: it creates the index when
// missing, verifies compatibility when present, and uploads validated
// documents. It never deletes or mutates an existing index implicitly.
type IndexManager struct {
	index  driven.SearchIndex
	schema domain.IndexSchema
}

var _ driving.IndexAdminService = (*IndexManager)(nil)

// NewIndexManager creates a manager for the given backing index.
func NewIndexManager(index driven.SearchIndex, schema domain.IndexSchema) *IndexManager {
	return &IndexManager{index: index, schema: schema}
}

// IndexName returns the name the manager currently targets.
func (m *IndexManager) IndexName() string {
	return m.schema.Name
}

// Schema returns the managed schema.
func (m *IndexManager) Schema() domain.IndexSchema {
	return m.schema
}

// Rename retargets the manager at a different index name, keeping the
// field definitions. Used when an existing index turns out to be
// schema-incompatible and a fresh one is needed.
func (m *IndexManager) Rename(name string) {
	logger.Info("retargeting index %q -> %q", m.schema.Name, name)
	m.schema.Name = name
}

// EnsureSchema creates the index if absent and verifies it otherwise.
// Calling it repeatedly is safe. An existing index whose fields cannot
// serve the schema yields a *domain.SchemaIncompatibleError.
func (m *IndexManager) EnsureSchema(ctx context.Context) error {
	if err := m.index.EnsureIndex(ctx, m.schema); err != nil {
		return fmt.Errorf("ensure index %q: %w", m.schema.Name, err)
	}
	logger.Info("index %q ready (%d fields)", m.schema.Name, len(m.schema.Fields))
	return nil
}

// DeleteIndex removes the managed index and all its documents.
func (m *IndexManager) DeleteIndex(ctx context.Context) error {
	if err := m.index.DeleteIndex(ctx, m.schema.Name); err != nil {
		return fmt.Errorf("delete index %q: %w", m.schema.Name, err)
	}
	logger.Info("deleted index %q", m.schema.Name)
	return nil
}

// UploadReport describes the outcome of one upload call per document.
type UploadReport struct {
	// Results holds the index's per-document acknowledgements for the
	// documents that passed validation, in submission order.
	Results []driven.UploadResult

	// Invalid holds documents rejected before submission.
	Invalid []InvalidDocument
}

// InvalidDocument records a document that failed pre-upload validation.
type InvalidDocument struct {
	ID  string
	Err error
}

// Succeeded returns the number of documents the index accepted.
func (r *UploadReport) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.Succeeded {
			n++
		}
	}
	return n
}

// Failed returns the number of documents that were rejected, either by
// validation or by the index.
func (r *UploadReport) Failed() int {
	return len(r.Invalid) + len(r.Results) - r.Succeeded()
}

// Upload validates docs against the schema and submits the valid ones.
// Documents that fail validation are reported, not submitted; a single
// bad document never blocks the rest. The returned report always covers
// every input document.
func (m *IndexManager) Upload(ctx context.Context, docs []domain.Document) (*UploadReport, error) {
	report := &UploadReport{}

	valid := make([]domain.Document, 0, len(docs))
	for _, doc := range docs {
		if err := doc.Validate(m.schema.Vector.Dimensions); err != nil {
			logger.Warn("document %s failed validation: %v", doc.ID, err)
			report.Invalid = append(report.Invalid, InvalidDocument{ID: doc.ID, Err: err})
			continue
		}
		valid = append(valid, doc)
	}

	if len(valid) == 0 {
		return report, nil
	}

	logger.Info("uploading %d documents to index %q", len(valid), m.schema.Name)
	results, err := m.index.Upload(ctx, valid)
	if err != nil {
		return report, fmt.Errorf("upload to index %q: %w", m.schema.Name, err)
	}
	report.Results = results

	for _, res := range results {
		if !res.Succeeded {
			logger.Warn("index rejected document %s: %s", res.ID, res.Message)
		}
	}
	logger.Info("upload complete: %d/%d accepted", report.Succeeded(), len(docs))

	return report, nil
}

// Stats reports the index document count alongside schema facts.
func (m *IndexManager) Stats(ctx context.Context) (*driving.IndexStats, error) {
	count, err := m.index.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count documents in %q: %w", m.schema.Name, err)
	}
	return &driving.IndexStats{
		IndexName:     m.schema.Name,
		FieldCount:    len(m.schema.Fields),
		DocumentCount: count,
		VectorEnabled: m.schema.Vector.Dimensions > 0,
	}, nil
}
