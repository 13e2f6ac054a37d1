package cmd

import (
	"fmt"
	"log/slog"

	"github.com/abhisek/waypoint/internal/api"
	"github.com/abhisek/waypoint/internal/config"
	"github.com/abhisek/waypoint/internal/gateway"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the local database over HTTP for remote clients",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg.Backend = config.BackendLocal
		if addr, _ := cmd.Flags().GetString("listen"); addr != "" {
			cfg.ListenAddr = addr
		}
		if tok, _ := cmd.Flags().GetString("token"); tok != "" {
			cfg.APIToken = tok
		}
		rps, _ := cmd.Flags().GetFloat64("rate")
		burst, _ := cmd.Flags().GetInt("burst")

		level := slog.LevelInfo
		if v, _ := cmd.Flags().GetBool("verbose"); v {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

		svc, err := openServices(cfg, logger)
		if err != nil {
			return err
		}
		defer svc.Close()

		if cfg.APIToken == "" {
			logger.Warn("serving without a bearer token")
		}
		srv := api.NewServer(journaledBackend{svc.persist, svc.assess}, api.Options{
			Token:     cfg.APIToken,
			RateLimit: rps,
			Burst:     burst,
			Logger:    logger,
			Catalog:   svc.catalog,
		})
		return srv.ListenAndServe(cmd.Context(), cfg.ListenAddr)
	},
}

// journaledBackend serves both gateways through their journaling
// decorators.
type journaledBackend struct {
	gateway.Persistence
	gateway.Assessments
}

func init() {
	serveCmd.Flags().String("listen", "", "Listen address (default 127.0.0.1:8420)")
	serveCmd.Flags().String("token", "", "Bearer token clients must send (overrides WAYPOINT_API_TOKEN)")
	serveCmd.Flags().Float64("rate", 20, "Requests per second per client IP, 0 disables limiting")
	serveCmd.Flags().Int("burst", 40, "Rate limiter burst size")
}
