package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/doeshing/matrixsh/internal/domain"
)

var errIndexDisabled = errors.New("history index unavailable (enable history.index in the config)")

// newHistoryCommand creates the history command with its subcommands
func newHistoryCommand(flags *rootFlags) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect MatrixShell history",
	}

	historyCmd.AddCommand(
		newHistoryListCommand(flags),
		newHistorySearchCommand(flags),
	)

	return historyCmd
}

// newHistoryListCommand creates the 'history list' subcommand
func newHistoryListCommand(flags *rootFlags) *cobra.Command {
	var (
		dir   string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent history for a directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := flags.build(cmd)
			if err != nil {
				return err
			}
			defer container.Close()

			if dir == "" {
				if dir, err = os.Getwd(); err != nil {
					return fmt.Errorf("resolve working directory: %w", err)
				}
			}
			items, err := container.HistoryStore.LoadRecent(dir, limit)
			if err != nil {
				return fmt.Errorf("failed to read history for %s: %w", dir, err)
			}
			NewPresenter(cmd.OutOrStdout(), cmd.ErrOrStderr(), container.Config.UI.Color).History(items)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Directory whose history to show (default current)")
	cmd.Flags().IntVar(&limit, "limit", domain.DefaultHistoryLimit, "Max entries to show (0 for all)")
	return cmd
}

// newHistorySearchCommand creates the 'history search' subcommand
func newHistorySearchCommand(flags *rootFlags) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search history across all directories",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := flags.build(cmd)
			if err != nil {
				return err
			}
			defer container.Close()

			if container.HistoryIndex == nil {
				return errIndexDisabled
			}
			items, err := container.HistoryIndex.Search(strings.Join(args, " "), limit)
			if err != nil {
				return fmt.Errorf("failed to search history: %w", err)
			}
			NewPresenter(cmd.OutOrStdout(), cmd.ErrOrStderr(), container.Config.UI.Color).SearchResults(items)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", domain.DefaultHistorySearchLimit, "Limit search results")
	return cmd
}
