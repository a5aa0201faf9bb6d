// Package cli implements the command-line interface. Commands hold no
// business logic; they parse input, call the driving ports set at
// startup, and render results.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/libria-search/libria/internal/core/ports/driving"
	"github.com/libria-search/libria/internal/core/services"
	"github.com/libria-search/libria/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	verbose    bool
	configPath string
)

// Services holds the wired driving ports. Set once at startup, before
// Execute.
type Services struct {
	Ingest     driving.IngestService
	Search     driving.SearchService
	IndexAdmin driving.IndexAdminService
	Presenter  *services.Presenter

	// Sources are the configured default ingestion URLs, used when the
	// ingest command gets no arguments.
	Sources []string
}

var (
	ingestService driving.IngestService
	searchService driving.SearchService
	indexAdmin    driving.IndexAdminService
	presenter     *services.Presenter
	defaultSources []string
)

// SetServices wires the commands to their services.
func SetServices(s *Services) {
	ingestService = s.Ingest
	searchService = s.Search
	indexAdmin = s.IndexAdmin
	presenter = s.Presenter
	defaultSources = s.Sources
}

var rootCmd = &cobra.Command{
	Use:   "libria",
	Short: "Ingest documents and search them by keyword, vector or both",
	Long: `libria ingests documents from URLs into a hosted search index:
download, text extraction, embedding generation and upload, with
per-document failure isolation.

Once indexed, documents are searchable in four modes: keyword, vector,
hybrid and filtered. Run "libria chat" for an interactive session.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
