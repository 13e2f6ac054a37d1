package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

var careersCmd = &cobra.Command{
	Use:   "careers",
	Short: "Manage imported careers",
}

var careersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List careers",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, err := openCommandServices(cmd)
		if err != nil {
			return err
		}
		defer svc.Close()
		return listCareers(cmd.Context(), cmd.OutOrStdout(), svc)
	},
}

var careersDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a career and all of its progress",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, err := openCommandServices(cmd)
		if err != nil {
			return err
		}
		defer svc.Close()
		if svc.local == nil {
			return errNeedsLocal
		}
		if err := svc.store.Careers().Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted career %s\n", args[0])
		return nil
	},
}

func init() {
	careersCmd.AddCommand(careersListCmd)
	careersCmd.AddCommand(careersDeleteCmd)
}

func listCareers(ctx context.Context, w io.Writer, svc *services) error {
	cs, err := svc.catalog.ListCareers(ctx)
	if err != nil {
		return fmt.Errorf("list careers: %w", err)
	}
	if len(cs) == 0 {
		fmt.Fprintln(w, "No careers imported.")
		return nil
	}

	fmt.Fprintf(w, "%-36s  %5s  %s\n", "ID", "Steps", "Title")
	fmt.Fprintln(w, strings.Repeat("─", 80))
	for _, c := range cs {
		fmt.Fprintf(w, "%-36s  %5d  %s\n", c.ID, c.StepCount, c.Title)
	}
	return nil
}
