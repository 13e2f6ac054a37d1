package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/abhisek/waypoint/internal/config"
	"github.com/abhisek/waypoint/internal/store"
	"github.com/spf13/cobra"
)

func logLevel(cmd *cobra.Command) slog.Level {
	if v, _ := cmd.Flags().GetBool("verbose"); v {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}

// newLogger logs to stderr, at WARN unless --verbose.
func newLogger(cmd *cobra.Command) *slog.Logger {
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: logLevel(cmd)}))
}

// newFileLogger logs to cfg.LogPath, or waypoint.log in the data
// directory, while the TUI owns the terminal.
func newFileLogger(cmd *cobra.Command, cfg config.Config) (*slog.Logger, io.Closer, error) {
	path := cfg.LogPath
	if path == "" {
		dir, err := store.DataDir()
		if err != nil {
			return nil, nil, err
		}
		path = filepath.Join(dir, "waypoint.log")
	}
	if err := store.EnsureDir(path); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	level := logLevel(cmd)
	if level > slog.LevelInfo {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level})), f, nil
}
