// Package config loads libria configuration from a TOML file with
// environment-variable overrides for endpoints and credentials.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/libria-search/libria/internal/core/domain"
)

// Environment variables recognised as overrides. Secrets should be
// provided this way rather than written into the config file.
const (
	EnvIndexEndpoint      = "LIBRIA_INDEX_ENDPOINT"
	EnvIndexAPIKey        = "LIBRIA_INDEX_API_KEY"
	EnvExtractionEndpoint = "LIBRIA_EXTRACTION_ENDPOINT"
	EnvExtractionAPIKey   = "LIBRIA_EXTRACTION_API_KEY"
	EnvEmbeddingEndpoint  = "LIBRIA_EMBEDDING_ENDPOINT"
	EnvEmbeddingAPIKey    = "LIBRIA_EMBEDDING_API_KEY"
)

// IndexConfig configures the backing search index service.
type IndexConfig struct {
	Endpoint string `toml:"endpoint"`
	APIKey   string `toml:"api_key"`
	Name     string `toml:"name"`
}

// ExtractionConfig configures the content-extraction service.
type ExtractionConfig struct {
	Endpoint string `toml:"endpoint"`
	APIKey   string `toml:"api_key"`
}

// EmbeddingConfig configures the embedding service.
type EmbeddingConfig struct {
	Endpoint   string `toml:"endpoint"`
	APIKey     string `toml:"api_key"`
	Model      string `toml:"model"`
	Dimensions int    `toml:"dimensions"`
}

// ProcessingConfig holds pipeline tuning knobs.
type ProcessingConfig struct {
	// BatchSize is the embedding batch size.
	BatchSize int `toml:"batch_size"`

	// RequestTimeoutSecs bounds every network call.
	RequestTimeoutSecs int `toml:"request_timeout_secs"`

	// MaxTokens is the embedding input token budget; text longer than
	// MaxTokens*4 characters is truncated before submission.
	MaxTokens int `toml:"max_tokens"`

	// RequestDelayMillis is the pause between requests within a batch.
	RequestDelayMillis int `toml:"request_delay_ms"`

	// BatchPauseMillis is the longer pause between batches.
	BatchPauseMillis int `toml:"batch_pause_ms"`
}

// SearchConfig holds query-side defaults.
type SearchConfig struct {
	// TopK caps relevance query results.
	TopK int `toml:"top_k"`

	// ListLimit is the default cap for listing operations.
	ListLimit int `toml:"list_limit"`

	// SnippetContext is the contextual snippet window length.
	SnippetContext int `toml:"snippet_context"`

	// HighlightPreTag and HighlightPostTag delimit highlighted spans.
	HighlightPreTag  string `toml:"highlight_pre_tag"`
	HighlightPostTag string `toml:"highlight_post_tag"`
}

// Config is the root configuration.
type Config struct {
	Index      IndexConfig      `toml:"index"`
	Extraction ExtractionConfig `toml:"extraction"`
	Embedding  EmbeddingConfig  `toml:"embedding"`
	Processing ProcessingConfig `toml:"processing"`
	Search     SearchConfig     `toml:"search"`

	// Sources is the default list of document URLs for ingestion when
	// none are given on the command line.
	Sources []string `toml:"sources"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Index: IndexConfig{
			Name: "library",
		},
		Embedding: EmbeddingConfig{
			Model:      "text-embedding-3-small",
			Dimensions: 1536,
		},
		Processing: ProcessingConfig{
			BatchSize:          10,
			RequestTimeoutSecs: 30,
			MaxTokens:          8191,
			RequestDelayMillis: 100,
			BatchPauseMillis:   1000,
		},
		Search: SearchConfig{
			TopK:             5,
			ListLimit:        20,
			SnippetContext:   150,
			HighlightPreTag:  "<em>",
			HighlightPostTag: "</em>",
		},
	}
}

// Load reads configuration from path, falling back to defaults when the
// file does not exist, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		// Defaults plus environment only.
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.applyEnv()
	applyFallbacks(cfg)
	return cfg, nil
}

// DefaultPath returns the per-user config file location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".libria", "config.toml"), nil
}

// Validate checks that every required setting is present. A missing
// setting is fatal at startup; the pipeline does not proceed.
func (c *Config) Validate() error {
	missing := []string{}
	if c.Index.Endpoint == "" {
		missing = append(missing, "index.endpoint")
	}
	if c.Index.APIKey == "" {
		missing = append(missing, "index.api_key")
	}
	if c.Index.Name == "" {
		missing = append(missing, "index.name")
	}
	if c.Extraction.Endpoint == "" {
		missing = append(missing, "extraction.endpoint")
	}
	if c.Extraction.APIKey == "" {
		missing = append(missing, "extraction.api_key")
	}
	if c.Embedding.Endpoint == "" {
		missing = append(missing, "embedding.endpoint")
	}
	if c.Embedding.APIKey == "" {
		missing = append(missing, "embedding.api_key")
	}
	if c.Embedding.Dimensions <= 0 {
		missing = append(missing, "embedding.dimensions")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %v", domain.ErrMissingConfig, missing)
	}
	return nil
}

// RequestTimeout returns the configured network timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Processing.RequestTimeoutSecs) * time.Second
}

// RequestDelay returns the intra-batch pacing delay.
func (c *Config) RequestDelay() time.Duration {
	return time.Duration(c.Processing.RequestDelayMillis) * time.Millisecond
}

// BatchPause returns the inter-batch pause.
func (c *Config) BatchPause() time.Duration {
	return time.Duration(c.Processing.BatchPauseMillis) * time.Millisecond
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvIndexEndpoint); v != "" {
		c.Index.Endpoint = v
	}
	if v := os.Getenv(EnvIndexAPIKey); v != "" {
		c.Index.APIKey = v
	}
	if v := os.Getenv(EnvExtractionEndpoint); v != "" {
		c.Extraction.Endpoint = v
	}
	if v := os.Getenv(EnvExtractionAPIKey); v != "" {
		c.Extraction.APIKey = v
	}
	if v := os.Getenv(EnvEmbeddingEndpoint); v != "" {
		c.Embedding.Endpoint = v
	}
	if v := os.Getenv(EnvEmbeddingAPIKey); v != "" {
		c.Embedding.APIKey = v
	}
}

// applyFallbacks restores defaults for zero-value tuning knobs so a
// partial config file cannot disable pacing or timeouts.
func applyFallbacks(cfg *Config) {
	def := Default()
	if cfg.Processing.BatchSize <= 0 {
		cfg.Processing.BatchSize = def.Processing.BatchSize
	}
	if cfg.Processing.RequestTimeoutSecs <= 0 {
		cfg.Processing.RequestTimeoutSecs = def.Processing.RequestTimeoutSecs
	}
	if cfg.Processing.MaxTokens <= 0 {
		cfg.Processing.MaxTokens = def.Processing.MaxTokens
	}
	if cfg.Processing.RequestDelayMillis <= 0 {
		cfg.Processing.RequestDelayMillis = def.Processing.RequestDelayMillis
	}
	if cfg.Processing.BatchPauseMillis <= 0 {
		cfg.Processing.BatchPauseMillis = def.Processing.BatchPauseMillis
	}
	if cfg.Search.TopK <= 0 {
		cfg.Search.TopK = def.Search.TopK
	}
	if cfg.Search.ListLimit <= 0 {
		cfg.Search.ListLimit = def.Search.ListLimit
	}
	if cfg.Search.SnippetContext <= 0 {
		cfg.Search.SnippetContext = def.Search.SnippetContext
	}
	if cfg.Search.HighlightPreTag == "" {
		cfg.Search.HighlightPreTag = def.Search.HighlightPreTag
	}
	if cfg.Search.HighlightPostTag == "" {
		cfg.Search.HighlightPostTag = def.Search.HighlightPostTag
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = def.Embedding.Model
	}
	if cfg.Index.Name == "" {
		cfg.Index.Name = def.Index.Name
	}
}
