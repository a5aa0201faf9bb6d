package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/libria-search/libria/internal/adapters/driving/chat"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive search session",
	Long: `Starts an interactive session against the index. Type a query
for a quick keyword search, or pick a menu entry:

  1. search <query>   keyword search
  2. vector <query>   semantic search
  3. hybrid <query>   keyword + semantic
  4. filter <field=value> [query]
  5. list
  6. stats
  get <id>
  7. quit (also: exit, q, bye)`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	// Panic recovery keeps a stack trace visible after the alternate
	// screen is torn down
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in chat: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	if searchService == nil || presenter == nil {
		return errors.New("search service not configured")
	}

	model := chat.New(cmd.Context(), chat.Ports{
		Search:    searchService,
		Admin:     indexAdmin,
		Presenter: presenter,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat error: %w", err)
	}
	return nil
}
