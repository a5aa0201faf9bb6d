package domain

// Stage identifies a step of the ingestion pipeline for failure reporting.
type Stage string

// Pipeline stages in execution order.
const (
	StageDownload Stage = "download"
	StageExtract  Stage = "extract"
	StageEmbed    Stage = "embed"
	StageValidate Stage = "validate"
	StageUpload   Stage = "upload"
)

// ItemOutcome is the per-source result of one ingestion run.
// Failures carry the stage that failed; item errors never abort the batch.
type ItemOutcome struct {
	// Index is the zero-based position in the input source list.
	Index int

	// URL is the source location.
	URL string

	// DocID is the positional document ID assigned to this item.
	DocID string

	// Err is non-nil when the item failed; it is a *StageError.
	Err error
}

// Succeeded returns true if the item completed every stage.
func (o ItemOutcome) Succeeded() bool {
	return o.Err == nil
}

// IngestReport is the aggregate result of one ingestion run.
type IngestReport struct {
	// RunID uniquely identifies the run for diagnostics.
	RunID string

	// IndexName is the index the run uploaded into. May differ from the
	// configured name after schema-incompatibility recovery.
	IndexName string

	// Outcomes is ordered by input index, one entry per source URL.
	Outcomes []ItemOutcome

	// Documents are the successfully ingested records.
	Documents []Document
}

// Succeeded returns the number of successful items.
func (r *IngestReport) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Succeeded() {
			n++
		}
	}
	return n
}

// Failed returns the number of failed items.
func (r *IngestReport) Failed() int {
	return len(r.Outcomes) - r.Succeeded()
}
