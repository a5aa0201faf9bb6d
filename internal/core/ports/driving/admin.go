package driving

import "context"

// IndexAdminService exposes index lifecycle operations to the driving
// adapters. Deletion is always explicit; nothing here runs implicitly
// during search or ingestion.
type IndexAdminService interface {
	// EnsureSchema creates or verifies the index. Safe to repeat.
	EnsureSchema(ctx context.Context) error

	// DeleteIndex removes the index and all its documents.
	DeleteIndex(ctx context.Context) error

	// Stats reports index-level statistics.
	Stats(ctx context.Context) (*IndexStats, error)

	// IndexName returns the currently targeted index name.
	IndexName() string
}
