package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested document does not exist in the index.
	ErrNotFound = errors.New("not found")

	// ErrEmptyInput indicates empty or whitespace-only text was submitted
	// for embedding. This is a caller error, not a service failure.
	ErrEmptyInput = errors.New("empty input")

	// ErrEmptyQuery indicates a search was requested with no query text.
	ErrEmptyQuery = errors.New("empty query")

	// ErrInvalidDocument indicates a document failed schema validation
	// and was excluded from upload.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidVector indicates the embedding service returned a vector
	// with the wrong dimension or non-finite components.
	ErrInvalidVector = errors.New("invalid vector")

	// ErrEmptyContent indicates extraction produced no text.
	ErrEmptyContent = errors.New("empty content")

	// ErrNoDocuments indicates an ingestion run produced no uploadable
	// documents after all stages.
	ErrNoDocuments = errors.New("no documents were processed successfully")

	// ErrMissingConfig indicates required settings are absent.
	// Fatal at startup; the pipeline does not proceed.
	ErrMissingConfig = errors.New("missing required configuration")
)

// SchemaIncompatibleError reports a structural conflict between an
// existing index's vector configuration and a newly declared one, which
// the backing service refuses to reconcile in place. Recovery requires a
// new index identity and is owned by the caller.
type SchemaIncompatibleError struct {
	// Index is the name of the conflicting index.
	Index string

	// Reason is the structured reason code reported by the service
	// (for example "CannotChangeVectorSearchAlgorithm").
	Reason string

	// Message is the human-readable detail from the service.
	Message string
}

func (e *SchemaIncompatibleError) Error() string {
	return fmt.Sprintf("index %q schema incompatible (%s): %s", e.Index, e.Reason, e.Message)
}

// StageError records which pipeline stage failed for one source item.
type StageError struct {
	// Stage is the pipeline stage that failed.
	Stage Stage

	// Err is the underlying cause.
	Err error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError wraps err with the stage it occurred in.
func NewStageError(stage Stage, err error) *StageError {
	return &StageError{Stage: stage, Err: err}
}
