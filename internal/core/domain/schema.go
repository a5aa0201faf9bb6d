package domain

// FieldType enumerates the index field data types.
type FieldType string

// Supported field types.
const (
	FieldTypeString         FieldType = "Edm.String"
	FieldTypeInt32          FieldType = "Edm.Int32"
	FieldTypeDateTimeOffset FieldType = "Edm.DateTimeOffset"
	FieldTypeSingleVector   FieldType = "Collection(Edm.Single)"
)

// Field declares one column of the index schema.
type Field struct {
	Name       string    `json:"name"`
	Type       FieldType `json:"type"`
	Key        bool      `json:"key,omitempty"`
	Searchable bool      `json:"searchable,omitempty"`
	Filterable bool      `json:"filterable,omitempty"`
	Sortable   bool      `json:"sortable,omitempty"`
	Facetable  bool      `json:"facetable,omitempty"`
}

// VectorConfig holds the vector-index parameters. The algorithm identity
// (Algorithm plus graph parameters) cannot be changed on an existing
// index; doing so surfaces as SchemaIncompatibleError.
type VectorConfig struct {
	// Dimensions is the fixed length of every embedding in the index.
	Dimensions int `json:"dimensions"`

	// Metric is the distance metric (cosine, euclidean, dotProduct).
	Metric string `json:"metric"`

	// Algorithm names the ANN algorithm configuration.
	Algorithm string `json:"algorithm"`

	// M is the number of bi-directional links created per node.
	M int `json:"m"`

	// EfConstruction is the candidate list size during graph build.
	EfConstruction int `json:"efConstruction"`

	// EfSearch is the candidate list size during search.
	EfSearch int `json:"efSearch"`
}

// IndexSchema is the field-level contract shared by the ingestion
// pipeline and the query engine. It is declared once and idempotently
// applied before any upload.
type IndexSchema struct {
	Name   string       `json:"name"`
	Fields []Field      `json:"fields"`
	Vector VectorConfig `json:"vectorSearch"`
}

// FieldNames returns the declared field names in order.
func (s *IndexSchema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// KeyField returns the name of the key field, or "" if none is declared.
func (s *IndexSchema) KeyField() string {
	for _, f := range s.Fields {
		if f.Key {
			return f.Name
		}
	}
	return ""
}

// DefaultSchema returns the document index schema with vector search
// enabled for the given dimensions.
func DefaultSchema(name string, dims int) IndexSchema {
	return IndexSchema{
		Name: name,
		Fields: []Field{
			{Name: "id", Type: FieldTypeString, Key: true, Filterable: true, Sortable: true},
			{Name: "content", Type: FieldTypeString, Searchable: true},
			{Name: "product_name", Type: FieldTypeString, Filterable: true, Sortable: true, Facetable: true},
			{Name: "filename", Type: FieldTypeString, Filterable: true, Sortable: true, Facetable: true},
			{Name: "filepath", Type: FieldTypeString, Filterable: true},
			{Name: "document_url", Type: FieldTypeString, Filterable: true},
			{Name: "content_length", Type: FieldTypeInt32, Filterable: true, Sortable: true},
			{Name: "processed_at", Type: FieldTypeDateTimeOffset, Filterable: true, Sortable: true},
			{Name: "content_vector", Type: FieldTypeSingleVector, Searchable: true},
		},
		Vector: VectorConfig{
			Dimensions:     dims,
			Metric:         "cosine",
			Algorithm:      "hnsw-config",
			M:              4,
			EfConstruction: 400,
			EfSearch:       500,
		},
	}
}
