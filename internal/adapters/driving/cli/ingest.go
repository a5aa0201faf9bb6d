package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/libria-search/libria/internal/core/domain"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [url...]",
	Short: "Download, extract, embed and index documents",
	Long: `Runs the ingestion pipeline over the given URLs. With no
arguments the configured source list is used.

Each document passes through download, text extraction, embedding
generation, validation and upload. A failing document is reported with
the stage that failed and never blocks the others.`,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	urls := args
	if len(urls) == 0 {
		urls = defaultSources
	}
	if len(urls) == 0 {
		return errors.New("no source URLs: pass them as arguments or configure sources")
	}

	report, err := ingestService.Run(cmd.Context(), urls)
	if report != nil {
		printReport(cmd, report)
	}
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	return nil
}

func printReport(cmd *cobra.Command, report *domain.IngestReport) {
	cmd.Printf("Run %s into index %q: %d succeeded, %d failed\n",
		report.RunID, report.IndexName, report.Succeeded(), report.Failed())

	for _, o := range report.Outcomes {
		if o.Succeeded() {
			cmd.Printf("  [ok]   %s  %s\n", o.DocID, o.URL)
			continue
		}
		cmd.Printf("  [fail] %s  %s\n         %v\n", o.DocID, o.URL, o.Err)
	}
}
