package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

func newSweepMergesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep-merges",
		Short: "Delete suggestions left behind by interrupted merges",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := app.Merges.Sweep(cmd.Context())
			if err != nil {
				return fmt.Errorf("sweeping merges: %w", err)
			}
			slog.InfoContext(cmd.Context(), "merge sweep finished", "scanned", result.Scanned, "deleted", len(result.Deleted))
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
}

func newMetricsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "Print the admin dashboard report as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := app.Metrics.Dashboard(cmd.Context(), operator)
			if err != nil {
				return fmt.Errorf("computing metrics: %w", err)
			}
			return writeJSON(cmd.OutOrStdout(), report)
		},
	}
}

func newReindexCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the search index from the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if app.Search == nil {
				return fmt.Errorf("search is not configured")
			}
			n, err := app.Search.Reindex(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "indexed %d suggestions\n", n)
			return nil
		},
	}
}

func newGetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Print one suggestion as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sg, err := app.Suggestions.Get(cmd.Context(), operator, args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), sg)
		},
	}
}
