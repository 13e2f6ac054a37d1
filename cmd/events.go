package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/abhisek/waypoint/internal/store"
	"github.com/spf13/cobra"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List recent gateway calls from the journal",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		op, _ := cmd.Flags().GetString("op")
		step, _ := cmd.Flags().GetString("step")

		svc, _, err := openCommandServices(cmd)
		if err != nil {
			return err
		}
		defer svc.Close()
		return printEvents(cmd.Context(), cmd.OutOrStdout(), svc.store.EventRepo(),
			store.QueryOpts{Limit: limit, Op: op, StepID: step})
	},
}

func init() {
	eventsCmd.Flags().Int("limit", 50, "Maximum number of events")
	eventsCmd.Flags().String("op", "", "Only show this operation, e.g. record_elapsed")
	eventsCmd.Flags().String("step", "", "Only show events for this step id")
}

func printEvents(ctx context.Context, w io.Writer, repo store.EventRepo, opts store.QueryOpts) error {
	events, err := repo.QueryJournalEvents(ctx, opts)
	if err != nil {
		return fmt.Errorf("query events: %w", err)
	}
	if len(events) == 0 {
		fmt.Fprintln(w, "No events found.")
		return nil
	}

	fmt.Fprintf(w, "%-6s  %-19s  %-18s  %-8s  %4s  %6s  %-2s  %s\n",
		"Seq", "Timestamp", "Op", "Step", "Min", "Ms", "OK", "Error")
	fmt.Fprintln(w, strings.Repeat("─", 90))
	for _, e := range events {
		ok := "✓"
		if !e.Success {
			ok = "✗"
		}
		step := e.StepID
		if len(step) > 8 {
			step = step[:8]
		}
		fmt.Fprintf(w, "%-6d  %-19s  %-18s  %-8s  %4d  %6d  %-2s  %s\n",
			e.Sequence,
			e.Timestamp.Local().Format("2006-01-02 15:04:05"),
			e.Op,
			step,
			e.Minutes,
			e.LatencyMs,
			ok,
			e.ErrorMessage,
		)
	}
	return nil
}
