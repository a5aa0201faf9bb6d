// Package domain defines the core business entities for libria.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: The canonical ingested record uploaded to the index
//   - IndexSchema: The field and vector-index contract
//   - SearchResult: One matched record with score and highlights
//   - IngestReport: Per-item outcomes of an ingestion run
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
