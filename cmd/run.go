package cmd

import (
	"fmt"
	"log/slog"

	"github.com/abhisek/waypoint/internal/app"
	"github.com/spf13/cobra"
)

// runApp opens the gateways, builds dependencies, and launches the TUI.
func runApp(cmd *cobra.Command) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, logFile, err := newFileLogger(cmd, cfg)
	if err != nil {
		return err
	}
	defer logFile.Close()
	slog.SetDefault(logger)

	svc, err := openServices(cfg, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	opts := app.Options{
		Catalog:   svc.catalog,
		NewEngine: svc.newEngine,
		AutoOpen:  cfg.CareerID,
		Logger:    logger,
	}
	if svc.local != nil {
		opts.Import = svc.importRoadmap
	}
	return app.Run(ctx, opts)
}
