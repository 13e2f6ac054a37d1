// Package config resolves waypoint settings from defaults, an optional
// YAML file and WAYPOINT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/abhisek/waypoint/internal/gateway"
	"gopkg.in/yaml.v3"
)

// Backend names accepted in Config.Backend.
const (
	BackendLocal  = "local"
	BackendRemote = "remote"
)

// Config holds all runtime configuration.
type Config struct {
	// DBPath is the SQLite file. Empty means the XDG default.
	DBPath string `yaml:"db"`

	// Backend selects the gateway implementation: "local" or "remote".
	Backend string `yaml:"backend"`

	APIURL   string `yaml:"api_url"`
	APIToken string `yaml:"api_token"`

	// CareerID is the career opened on launch. Empty shows the picker.
	CareerID string `yaml:"career"`

	// LogPath receives slog output while the TUI owns the terminal.
	LogPath string `yaml:"log"`

	Retry gateway.RetryConfig `yaml:"retry"`

	// RequestTimeout bounds a single remote call. Default: 10s.
	RequestTimeout time.Duration `yaml:"request_timeout"`

	ListenAddr string `yaml:"listen"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Backend:        BackendLocal,
		Retry:          gateway.DefaultRetryConfig(),
		RequestTimeout: 10 * time.Second,
		ListenAddr:     "127.0.0.1:8420",
	}
}

// FromEnv builds a Config from environment variables, falling back to
// defaults for unset values.
func FromEnv() Config {
	cfg := DefaultConfig()
	cfg.applyEnv()
	return cfg
}

// Load reads the YAML file at path over the defaults and then applies
// environment overrides, then each override in order. A missing file is
// not an error. An empty path uses DefaultPath.
func Load(path string, overrides ...func(*Config)) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return cfg, err
		}
		path = p
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	for _, o := range overrides {
		o(&cfg)
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() {
	if p := os.Getenv("WAYPOINT_DB"); p != "" {
		c.DBPath = p
	}
	if b := os.Getenv("WAYPOINT_BACKEND"); b != "" {
		c.Backend = b
	}
	if u := os.Getenv("WAYPOINT_API_URL"); u != "" {
		c.APIURL = u
	}
	if t := os.Getenv("WAYPOINT_API_TOKEN"); t != "" {
		c.APIToken = t
	}
	if id := os.Getenv("WAYPOINT_CAREER"); id != "" {
		c.CareerID = id
	}
	if l := os.Getenv("WAYPOINT_LOG"); l != "" {
		c.LogPath = l
	}
	if a := os.Getenv("WAYPOINT_LISTEN"); a != "" {
		c.ListenAddr = a
	}
	if n, err := strconv.Atoi(os.Getenv("WAYPOINT_RETRY_ATTEMPTS")); err == nil {
		c.Retry.MaxAttempts = n
	}
}

// Validate checks that the selected backend has what it needs.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendLocal:
	case BackendRemote:
		if c.APIURL == "" {
			return fmt.Errorf("WAYPOINT_API_URL is required for the remote backend")
		}
	default:
		return fmt.Errorf("unknown backend: %q", c.Backend)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request timeout must not be negative")
	}
	return nil
}

// DefaultPath returns $XDG_CONFIG_HOME/waypoint/config.yaml, falling back
// to ~/.config.
func DefaultPath() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "waypoint", "config.yaml"), nil
}
