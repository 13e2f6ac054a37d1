package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/abhisek/waypoint/internal/config"
	"github.com/abhisek/waypoint/internal/store"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "waypoint",
	Short: "Career roadmap tracker",
	Long: "Waypoint is a terminal app that walks you through a career roadmap step by step, " +
		"tracking time on each step and gating progress behind timed assessments.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command
// context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("db", "", "Path to SQLite database file (overrides WAYPOINT_DB env var)")
	pf.String("config", "", "Path to config file (default $XDG_CONFIG_HOME/waypoint/config.yaml)")
	pf.String("backend", "", `Gateway backend: "local" or "remote"`)
	pf.String("api-url", "", "Base URL of a waypoint server (remote backend)")
	pf.String("career", "", "Career id to open or report on")
	pf.BoolP("verbose", "v", false, "Log debug output")

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(careersCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig resolves configuration: flags, then WAYPOINT_* env vars,
// then the config file, then defaults.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path, func(c *config.Config) {
		flagOverride(cmd, "db", &c.DBPath)
		flagOverride(cmd, "backend", &c.Backend)
		flagOverride(cmd, "api-url", &c.APIURL)
		flagOverride(cmd, "career", &c.CareerID)
	})
}

func flagOverride(cmd *cobra.Command, name string, dst *string) {
	if v, _ := cmd.Flags().GetString(name); v != "" {
		*dst = v
	}
}

// resolveDBPath returns the configured database path, falling back to the
// default XDG path.
func resolveDBPath(cfg config.Config) (string, error) {
	if cfg.DBPath != "" {
		return cfg.DBPath, store.EnsureDir(cfg.DBPath)
	}
	return store.DefaultDBPath()
}
