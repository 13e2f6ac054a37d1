package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a roadmap document (YAML)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, err := openCommandServices(cmd)
		if err != nil {
			return err
		}
		defer svc.Close()

		c, err := svc.importRoadmap(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Imported %q (%d steps)\n", c.Title, c.StepCount)
		fmt.Fprintf(out, "Career id: %s\n", c.ID)
		return nil
	},
}
