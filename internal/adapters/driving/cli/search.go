package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/libria-search/libria/internal/core/domain"
	"github.com/libria-search/libria/internal/core/services"
)

var (
	searchMode   string
	searchFilter string
	searchLimit  int
	searchJSON   bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed documents",
	Long: `Searches the index in one of four modes:

  keyword   lexical matching with highlighted fragments (default)
  vector    nearest-neighbour search over embeddings
  hybrid    keyword and vector fused by the engine
  filtered  field-equality filter, optionally with a query

Filters use field=value syntax, e.g. --filter product_name="Coffee
Maker 2000". In filtered mode an empty query matches everything the
filter allows.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchMode, "mode", "m", string(domain.SearchModeKeyword), "search mode (keyword, vector, hybrid, filtered)")
	searchCmd.Flags().StringVarP(&searchFilter, "filter", "f", "", "field=value filter (filtered mode)")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (default 5)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	query := ""
	if len(args) > 0 {
		query = args[0]
	}

	ctx := cmd.Context()
	var (
		results []domain.SearchResult
		err     error
	)
	switch domain.SearchMode(searchMode) {
	case domain.SearchModeKeyword:
		results, err = searchService.Keyword(ctx, query, searchLimit)
	case domain.SearchModeVector:
		results, err = searchService.Vector(ctx, query, searchLimit)
	case domain.SearchModeHybrid:
		results, err = searchService.Hybrid(ctx, query, searchLimit)
	case domain.SearchModeFiltered:
		filter, ferr := parseFilterFlag(searchFilter)
		if ferr != nil {
			return ferr
		}
		results, err = searchService.Filtered(ctx, query, filter, searchLimit)
	default:
		return fmt.Errorf("unknown search mode %q", searchMode)
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	display := presenter.FormatAll(results)
	if searchJSON {
		return outputJSON(cmd, display)
	}
	outputResults(cmd, display)
	return nil
}

// parseFilterFlag parses field=value, tolerating quotes around value.
func parseFilterFlag(s string) (domain.FieldFilter, error) {
	field, value, ok := strings.Cut(s, "=")
	if !ok || strings.TrimSpace(field) == "" {
		return domain.FieldFilter{}, fmt.Errorf("invalid filter %q: expected field=value", s)
	}
	value = strings.Trim(value, `"'`)
	return domain.FieldFilter{Field: strings.TrimSpace(field), Value: value}, nil
}

func outputJSON(cmd *cobra.Command, display []services.DisplayResult) error {
	data, err := json.MarshalIndent(display, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputResults(cmd *cobra.Command, display []services.DisplayResult) {
	if len(display) == 0 {
		cmd.Println("No results found.")
		return
	}

	cmd.Println("Results:")
	cmd.Println()
	for _, d := range display {
		header := d.Filename
		if header == "" {
			header = d.ID
		}
		if d.Score != "" {
			cmd.Printf("  [%d] %s (score %s)\n", d.Rank, header, d.Score)
		} else {
			cmd.Printf("  [%d] %s\n", d.Rank, header)
		}
		if d.ProductName != "" {
			cmd.Printf("      Product: %s\n", d.ProductName)
		}
		for _, snippet := range d.Snippets {
			cmd.Printf("      %s\n", snippet)
		}
		cmd.Println()
	}
}
