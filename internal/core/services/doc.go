// Package services implements the driving port interfaces.
// Services hold the orchestration logic (ingestion pipeline, schema
// management, query composition, result presentation) and call out
// through driven ports to the adapters.
package services
