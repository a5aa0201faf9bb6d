package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDocument() Document {
	content := "anaesthesia machine maintenance procedure"
	return Document{
		ID:            "doc_1",
		Content:       content,
		ContentVector: make([]float32, 4),
		ProductName:   "Carestation 650",
		Filename:      "doc_1.pdf",
		Filepath:      "/tmp/doc_1.pdf",
		DocumentURL:   "https://example.com/manual.pdf",
		ContentLength: len(content),
		ProcessedAt:   time.Now().UTC(),
	}
}

func TestDocument_Validate_OK(t *testing.T) {
	doc := validDocument()
	require.NoError(t, doc.Validate(4))
}

func TestDocument_Validate_MissingID(t *testing.T) {
	doc := validDocument()
	doc.ID = ""

	err := doc.Validate(4)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidDocument)
}

func TestDocument_Validate_EmptyContent(t *testing.T) {
	doc := validDocument()
	doc.Content = ""
	doc.ContentLength = 0

	err := doc.Validate(4)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidDocument)
}

func TestDocument_Validate_ContentLengthMismatch(t *testing.T) {
	doc := validDocument()
	doc.ContentLength = doc.ContentLength + 7

	err := doc.Validate(4)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidDocument)
}

func TestDocument_Validate_WrongVectorDimension(t *testing.T) {
	doc := validDocument()
	doc.ContentVector = make([]float32, 3)

	err := doc.Validate(4)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidDocument)
}

func TestDocument_Validate_NoVectorIsAllowed(t *testing.T) {
	// A document without a vector is still valid; vector presence is
	// policy, not an invariant.
	doc := validDocument()
	doc.ContentVector = nil

	require.NoError(t, doc.Validate(4))
	assert.False(t, doc.HasVector())
}

func TestFieldFilter_Expression(t *testing.T) {
	f := FieldFilter{Field: "filename", Value: "doc_1.pdf"}
	assert.Equal(t, "filename eq 'doc_1.pdf'", f.Expression())

	// Single quotes are escaped by doubling
	f = FieldFilter{Field: "product_name", Value: "O'Neil"}
	assert.Equal(t, "product_name eq 'O''Neil'", f.Expression())
}

func TestDefaultSchema(t *testing.T) {
	schema := DefaultSchema("library", 1536)

	assert.Equal(t, "library", schema.Name)
	assert.Equal(t, "id", schema.KeyField())
	assert.Equal(t, 1536, schema.Vector.Dimensions)
	assert.Equal(t, "cosine", schema.Vector.Metric)
	assert.Contains(t, schema.FieldNames(), "content_vector")
	assert.Contains(t, schema.FieldNames(), "processed_at")
}

func TestIngestReport_Counters(t *testing.T) {
	report := IngestReport{
		Outcomes: []ItemOutcome{
			{Index: 0, URL: "a", DocID: "doc_1"},
			{Index: 1, URL: "b", DocID: "doc_2", Err: NewStageError(StageDownload, ErrNotFound)},
			{Index: 2, URL: "c", DocID: "doc_3"},
		},
	}

	assert.Equal(t, 2, report.Succeeded())
	assert.Equal(t, 1, report.Failed())
}

func TestStageError_Unwrap(t *testing.T) {
	err := NewStageError(StageEmbed, ErrInvalidVector)

	assert.ErrorIs(t, err, ErrInvalidVector)
	assert.Contains(t, err.Error(), "embed")
}

func TestSession_Query(t *testing.T) {
	var s Session
	assert.Empty(t, s.Query())

	s.SetQuery("brown fox")
	assert.Equal(t, "brown fox", s.Query())
}
