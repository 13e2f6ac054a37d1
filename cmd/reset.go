package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear a career's tracked time, completion and assessment results",
	Long: "Clear a career's tracked time, completion and assessment results. " +
		"A snapshot of the cleared progress is kept in the database.",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, cfg, err := openCommandServices(cmd)
		if err != nil {
			return err
		}
		defer svc.Close()
		return resetCareer(cmd.Context(), cmd.OutOrStdout(), svc, cfg.CareerID)
	},
}

func resetCareer(ctx context.Context, w io.Writer, svc *services, careerID string) error {
	if svc.local == nil {
		return errNeedsLocal
	}
	id, err := svc.resolveCareer(ctx, careerID)
	if err != nil {
		return err
	}
	snap, err := svc.store.ResetCareer(ctx, id)
	if err != nil {
		return err
	}

	minutes, done := 0, 0
	for _, s := range snap.Data.Steps {
		minutes += s.Minutes
		if s.Done {
			done++
		}
	}
	fmt.Fprintf(w, "Reset career %s: cleared %d minutes and %d completed steps.\n", id, minutes, done)
	fmt.Fprintf(w, "Snapshot %d saved.\n", snap.Sequence)
	return nil
}
