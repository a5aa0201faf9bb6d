// Command libria ingests documents into a hosted search index and
// queries them by keyword, vector, hybrid or filtered search.
package main

import (
	"context"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/libria-search/libria/internal/adapters/driven/extraction/docintel"
	"github.com/libria-search/libria/internal/adapters/driven/fetch/httpfetch"
	"github.com/libria-search/libria/internal/adapters/driven/searchindex/azsearch"
	"github.com/libria-search/libria/internal/adapters/driving/cli"
	"github.com/libria-search/libria/internal/config"
	"github.com/libria-search/libria/internal/core/domain"
	"github.com/libria-search/libria/internal/core/services"
	"github.com/libria-search/libria/internal/fileutil"
	"github.com/libria-search/libria/internal/logger"

	"github.com/libria-search/libria/internal/adapters/driven/embedding/openai"
)

func main() {
	// Missing .env is fine; environment variables still apply.
	_ = godotenv.Load()

	cfgPath := configPath(os.Args[1:])
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("%v", err)
		logger.Error("set the values in %s or export the LIBRIA_* environment variables", cfgPath)
		os.Exit(1)
	}

	if err := wire(cfg); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

// wire constructs the adapters once and injects them into the commands.
func wire(cfg *config.Config) error {
	fetcher := httpfetch.NewFetcher(httpfetch.Config{
		Timeout: cfg.RequestTimeout(),
	})

	extractor, err := docintel.NewExtractor(docintel.Config{
		Endpoint: cfg.Extraction.Endpoint,
		APIKey:   cfg.Extraction.APIKey,
		Timeout:  cfg.RequestTimeout(),
	})
	if err != nil {
		return err
	}

	embeddingClient, err := openai.NewClient(openai.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.Endpoint,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Timeout:    cfg.RequestTimeout(),
	})
	if err != nil {
		return err
	}

	index, err := azsearch.NewIndex(azsearch.Config{
		Endpoint:  cfg.Index.Endpoint,
		APIKey:    cfg.Index.APIKey,
		IndexName: cfg.Index.Name,
		Timeout:   cfg.RequestTimeout(),
	})
	if err != nil {
		return err
	}

	files, err := fileutil.NewManager("")
	if err != nil {
		return err
	}

	embedder := services.NewEmbedder(embeddingClient, services.EmbedderConfig{
		MaxTokens:    cfg.Processing.MaxTokens,
		BatchSize:    cfg.Processing.BatchSize,
		RequestDelay: cfg.RequestDelay(),
		BatchPause:   cfg.BatchPause(),
	})

	// Reachability is checked up front so a bad endpoint or key surfaces
	// before any documents are downloaded. Commands that never embed
	// still work; the failure is only a warning here.
	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout())
	defer cancel()
	if err := embedder.Verify(ctx); err != nil {
		logger.Warn("%v", err)
	}

	schema := domain.DefaultSchema(cfg.Index.Name, cfg.Embedding.Dimensions)
	manager := services.NewIndexManager(index, schema)
	session := &domain.Session{}

	engine := services.NewQueryEngine(index, embedder, manager, session, services.QueryEngineConfig{
		TopK:             cfg.Search.TopK,
		ListLimit:        cfg.Search.ListLimit,
		HighlightPreTag:  cfg.Search.HighlightPreTag,
		HighlightPostTag: cfg.Search.HighlightPostTag,
	})

	cli.SetServices(&cli.Services{
		Ingest:     services.NewIngestPipeline(fetcher, extractor, embedder, manager, files),
		Search:     engine,
		IndexAdmin: manager,
		Presenter:  services.NewPresenter(session, cfg.Search.SnippetContext),
		Sources:    cfg.Sources,
	})
	return nil
}

// configPath resolves the config file location before cobra parses
// flags, so services can be wired ahead of command execution.
func configPath(args []string) string {
	for i, arg := range args {
		if arg == "--config" && i+1 < len(args) {
			return args[i+1]
		}
		if v, ok := strings.CutPrefix(arg, "--config="); ok {
			return v
		}
	}
	if v := os.Getenv("LIBRIA_CONFIG"); v != "" {
		return v
	}
	path, err := config.DefaultPath()
	if err != nil {
		return "config.toml"
	}
	return path
}
