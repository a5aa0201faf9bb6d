package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/libria-search/libria/internal/core/domain"
	"github.com/libria-search/libria/internal/core/ports/driven"
	"github.com/libria-search/libria/internal/logger"
)

// maxComponentMagnitude rejects implausibly large embedding components.
// Corrupt vectors degrade nearest-neighbour search without any visible
// error, so they are caught here rather than in the index.
const maxComponentMagnitude = 1e6

// charsPerToken approximates the embedding model's tokenisation for
// English text when computing the truncation budget.
const charsPerToken = 4

// EmbedderConfig tunes truncation and batch pacing.
type EmbedderConfig struct {
	// MaxTokens is the input token budget. Text longer than
	// MaxTokens*4 characters is truncated to exactly that prefix.
	MaxTokens int

	// BatchSize is the number of texts per embedding batch.
	BatchSize int

	// RequestDelay is the pause between requests within a batch.
	RequestDelay time.Duration

	// BatchPause is the longer pause between batches.
	BatchPause time.Duration
}

// Embedder wraps the raw embedding client with input-length limits,
// output validation, and the batching/rate-limit policy. The embedding
// service enforces request-rate ceilings, so requests are paced
// cooperatively rather than parallelised.
type Embedder struct {
	client    driven.EmbeddingClient
	maxChars  int
	batchSize int
	limiter   *rate.Limiter
	pause     time.Duration
}

// NewEmbedder creates an embedder over the given client.
func NewEmbedder(client driven.EmbeddingClient, cfg EmbedderConfig) *Embedder {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 8191
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.RequestDelay <= 0 {
		cfg.RequestDelay = 100 * time.Millisecond
	}
	if cfg.BatchPause <= 0 {
		cfg.BatchPause = time.Second
	}

	return &Embedder{
		client:    client,
		maxChars:  cfg.MaxTokens * charsPerToken,
		batchSize: cfg.BatchSize,
		limiter:   rate.NewLimiter(rate.Every(cfg.RequestDelay), 1),
		pause:     cfg.BatchPause,
	}
}

// Dimensions returns the configured vector dimension.
func (e *Embedder) Dimensions() int {
	return e.client.Dimensions()
}

// Verify checks that the embedding service is reachable.
func (e *Embedder) Verify(ctx context.Context) error {
	if err := e.client.Ping(ctx); err != nil {
		return fmt.Errorf("embedding service unreachable (model %s): %w", e.client.ModelName(), err)
	}
	logger.Debug("embedding service ready: model %s, %d dimensions", e.client.ModelName(), e.client.Dimensions())
	return nil
}

// Embed generates a validated embedding for text. Empty or
// whitespace-only input is a caller error. Oversized input is truncated
// to the token budget before submission; truncation is logged, not an
// error.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.ErrEmptyInput
	}

	text = e.truncate(text)

	vector, err := e.client.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}

	if err := e.validate(vector); err != nil {
		return nil, err
	}

	logger.Debug("generated embedding with %d dimensions", len(vector))
	return vector, nil
}

// EmbedBatch embeds texts in fixed-size batches, pacing requests within
// a batch and pausing between batches. The returned slice has the same
// length as texts; a nil entry marks a failed embedding. A failure for
// one text never blocks the rest; only context cancellation aborts.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	if len(texts) == 0 {
		return results, nil
	}

	batches := (len(texts) + e.batchSize - 1) / e.batchSize
	logger.Info("generating embeddings for %d texts (batch size %d)", len(texts), e.batchSize)

	for start := 0; start < len(texts); start += e.batchSize {
		end := start + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		logger.Debug("processing batch %d/%d", start/e.batchSize+1, batches)

		for i := start; i < end; i++ {
			if err := e.limiter.Wait(ctx); err != nil {
				return results, err
			}

			vector, err := e.Embed(ctx, texts[i])
			if err != nil {
				if ctx.Err() != nil {
					return results, ctx.Err()
				}
				logger.Warn("embedding failed for item %d: %v", i, err)
				continue
			}
			results[i] = vector
		}

		if end < len(texts) {
			select {
			case <-ctx.Done():
				return results, ctx.Err()
			case <-time.After(e.pause):
			}
		}
	}

	succeeded := 0
	for _, v := range results {
		if v != nil {
			succeeded++
		}
	}
	logger.Info("embedding generation complete: %d/%d successful", succeeded, len(texts))

	return results, nil
}

// truncate cuts text to the character budget, taking the prefix.
func (e *Embedder) truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= e.maxChars {
		return text
	}
	logger.Warn("truncated embedding input from %d to %d characters", len(runes), e.maxChars)
	return string(runes[:e.maxChars])
}

// validate accepts a vector only if its length matches the configured
// dimension and every component is finite and within a sane range.
func (e *Embedder) validate(vector []float32) error {
	dims := e.client.Dimensions()
	if len(vector) != dims {
		return fmt.Errorf("%w: got %d dimensions, want %d", domain.ErrInvalidVector, len(vector), dims)
	}
	for i, v := range vector {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > maxComponentMagnitude {
			return fmt.Errorf("%w: component %d is %v", domain.ErrInvalidVector, i, v)
		}
	}
	return nil
}
