package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var indexDeleteYes bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the search index",
}

var indexEnsureCmd = &cobra.Command{
	Use:   "ensure",
	Short: "Create the index if missing and verify its schema",
	Args:  cobra.NoArgs,
	RunE:  runIndexEnsure,
}

var indexDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the index and all its documents",
	Args:  cobra.NoArgs,
	RunE:  runIndexDelete,
}

var indexStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	Args:  cobra.NoArgs,
	RunE:  runIndexStats,
}

func init() {
	indexDeleteCmd.Flags().BoolVar(&indexDeleteYes, "yes", false, "confirm deletion")
	indexCmd.AddCommand(indexEnsureCmd)
	indexCmd.AddCommand(indexDeleteCmd)
	indexCmd.AddCommand(indexStatsCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexEnsure(cmd *cobra.Command, _ []string) error {
	if indexAdmin == nil {
		return errors.New("index service not configured")
	}

	if err := indexAdmin.EnsureSchema(cmd.Context()); err != nil {
		return fmt.Errorf("ensure index: %w", err)
	}
	cmd.Printf("Index %q is ready.\n", indexAdmin.IndexName())
	return nil
}

func runIndexDelete(cmd *cobra.Command, _ []string) error {
	if indexAdmin == nil {
		return errors.New("index service not configured")
	}
	if !indexDeleteYes {
		return fmt.Errorf("deleting index %q is irreversible; re-run with --yes to confirm", indexAdmin.IndexName())
	}

	if err := indexAdmin.DeleteIndex(cmd.Context()); err != nil {
		return fmt.Errorf("delete index: %w", err)
	}
	cmd.Printf("Index %q deleted.\n", indexAdmin.IndexName())
	return nil
}

func runIndexStats(cmd *cobra.Command, _ []string) error {
	if indexAdmin == nil {
		return errors.New("index service not configured")
	}

	stats, err := indexAdmin.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("index stats: %w", err)
	}

	cmd.Printf("Index:     %s\n", stats.IndexName)
	cmd.Printf("Fields:    %d\n", stats.FieldCount)
	cmd.Printf("Documents: %d\n", stats.DocumentCount)
	cmd.Printf("Vector:    %v\n", stats.VectorEnabled)
	return nil
}
