package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sfmc-extract/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sfmc-extract/internal/core/domain"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the most recent extraction run",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&historyPath, "history", "",
		"run history database (default ~/.sfmc-extract/data/runs.db)")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	path := historyPath
	if !cmd.Flags().Changed("history") {
		settings, err := loadSettings()
		if err != nil {
			return err
		}
		path = settings.History
	}

	store, err := sqlite.NewStore(path)
	if err != nil {
		return fmt.Errorf("open run history: %w", err)
	}
	defer store.Close()

	report, err := store.LatestReport(cmd.Context())
	if errors.Is(err, domain.ErrNotFound) {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet.")
		return nil
	}
	if err != nil {
		return err
	}
	printReport(cmd.OutOrStdout(), report)
	return nil
}
