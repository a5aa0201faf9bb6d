package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var documentListLimit int

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Inspect indexed documents",
}

var documentGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one document by ID",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

func init() {
	documentListCmd.Flags().IntVarP(&documentListLimit, "limit", "n", 0, "maximum number of documents (default 20, max 50)")
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentListCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	doc, err := searchService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("get document: %w", err)
	}

	cmd.Printf("ID:           %s\n", doc.ID)
	cmd.Printf("Product:      %s\n", doc.ProductName)
	cmd.Printf("Filename:     %s\n", doc.Filename)
	cmd.Printf("Source URL:   %s\n", doc.DocumentURL)
	cmd.Printf("Length:       %d characters\n", doc.ContentLength)
	if !doc.ProcessedAt.IsZero() {
		cmd.Printf("Processed at: %s\n", doc.ProcessedAt.Format("2006-01-02 15:04:05 MST"))
	}
	cmd.Printf("Vector:       %v\n", doc.HasVector())
	return nil
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	results, err := searchService.List(cmd.Context(), documentListLimit)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}

	if len(results) == 0 {
		cmd.Println("The index is empty.")
		return nil
	}

	cmd.Printf("%d document(s):\n", len(results))
	for _, r := range results {
		cmd.Printf("  %-8s %-24s %s\n", r.Document.ID, r.Document.Filename, r.Document.ProductName)
	}
	return nil
}
