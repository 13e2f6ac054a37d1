package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Show step progress for a career",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, cfg, err := openCommandServices(cmd)
		if err != nil {
			return err
		}
		defer svc.Close()
		return printProgress(cmd.Context(), cmd.OutOrStdout(), svc, cfg.CareerID)
	},
}

// printProgress refreshes the gate for a career and prints one row per
// step.
func printProgress(ctx context.Context, w io.Writer, svc *services, careerID string) error {
	id, err := svc.resolveCareer(ctx, careerID)
	if err != nil {
		return err
	}
	rm, err := svc.catalog.LoadRoadmap(ctx, id)
	if err != nil {
		return fmt.Errorf("load roadmap: %w", err)
	}
	eng := svc.newEngine(rm)
	if _, err := eng.Refresh(ctx); err != nil {
		return err
	}

	fmt.Fprintln(w, rm.Title)
	fmt.Fprintf(w, "%-3s  %-40s  %7s  %-6s  %-4s  %s\n",
		"#", "Step", "Minutes", "Locked", "Done", "Assessment")
	fmt.Fprintln(w, strings.Repeat("─", 84))

	for _, v := range eng.Overview() {
		title := v.Title
		if len(title) > 40 {
			title = title[:37] + "..."
		}
		assessment := "-"
		switch {
		case v.HasAssessment && v.AssessmentPassed:
			assessment = "passed"
		case v.HasAssessment:
			assessment = "pending"
		}
		fmt.Fprintf(w, "%-3d  %-40s  %7d  %-6s  %-4s  %s\n",
			v.Number, title, v.AccumulatedMinutes, yesNo(v.Locked), yesNo(v.IsDone), assessment)
	}

	fmt.Fprintf(w, "\n%d of %d steps done, %d minutes tracked\n",
		rm.CompletedCount(), rm.Len(), rm.TotalMinutes())
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
