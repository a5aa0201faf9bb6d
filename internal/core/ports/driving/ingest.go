package driving

import (
	"context"

	"github.com/libria-search/libria/internal/core/domain"
)

// IngestService runs the ingestion pipeline over a list of source URLs.
type IngestService interface {
	// Run acquires, extracts, embeds, validates and uploads each source,
	// returning per-item outcomes ordered by input index. Item failures
	// never abort the batch; an entirely empty result set is an error.
	Run(ctx context.Context, urls []string) (*domain.IngestReport, error)
}
