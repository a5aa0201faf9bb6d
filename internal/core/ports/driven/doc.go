// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
//   - Fetcher: Downloads a source document over the network
//   - TextExtractor: Extracts text and metadata from document bytes
//   - EmbeddingClient: Generates vector embeddings (raw service client;
//     truncation, validation and batch pacing live in core services)
//   - SearchIndex: The backing full-text/vector index
//
// All adapters are constructed once at startup and passed by reference
// to the services that consume them. Substituting fakes for testing only
// requires implementing the same interface.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
