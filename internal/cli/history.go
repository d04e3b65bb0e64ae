package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/me/mcp/internal/report"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [batch-id]",
		Short: "List recorded batches, or show one in detail",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := historyPath()
			if err != nil {
				return err
			}
			st, err := openStore(path)
			if err != nil {
				return fmt.Errorf("open history %s: %w", path, err)
			}
			defer st.Close()

			ctx := context.Background()
			w := cmd.OutOrStdout()

			if len(args) == 1 {
				rep, err := st.GetBatch(ctx, args[0])
				if err != nil {
					return err
				}
				if rep == nil {
					return fmt.Errorf("batch %s not found", args[0])
				}
				return writeReport(w, rep)
			}

			batches, err := st.ListBatches(ctx, limit)
			if err != nil {
				return err
			}
			if len(batches) == 0 {
				fmt.Fprintln(w, "No batches recorded.")
				return nil
			}

			fmt.Fprintf(w, "%s  %-16s  %10s  %5s  %7s  %s\n", padRight("ID", 42), "STARTED", "DURATION", "PROCS", "ERRORED", "SOURCE")
			for _, b := range batches {
				fmt.Fprintf(w, "%s  %-16s  %10s  %5d  %7d  %s\n",
					padRight(b.ID, 42),
					humanize.Time(b.StartedAt),
					report.FormatDuration(b.Duration()),
					len(b.Processes),
					b.Errored(),
					truncate(b.Source, 40))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of batches to list (0 for all)")
	return cmd
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func padRight(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return s + strings.Repeat(" ", n-len(s))
}
