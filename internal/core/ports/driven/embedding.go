package driven

import "context"

// EmbeddingClient is the raw client for the external embedding service.
// It performs a single inference call per Embed. Input-length limits,
// output validation and batch rate limiting are enforced by the core
// embedding adapter, not here.
type EmbeddingClient interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size (e.g. 768, 1536).
	// This must match the index schema's vector configuration.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
