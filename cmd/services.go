package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/abhisek/waypoint/internal/backend"
	"github.com/abhisek/waypoint/internal/clock"
	"github.com/abhisek/waypoint/internal/config"
	"github.com/abhisek/waypoint/internal/gateway"
	"github.com/abhisek/waypoint/internal/progression"
	"github.com/abhisek/waypoint/internal/remote"
	"github.com/abhisek/waypoint/internal/roadmap"
	"github.com/abhisek/waypoint/internal/store"
	"github.com/spf13/cobra"
)

// errNeedsLocal is returned by commands that edit the database directly.
var errNeedsLocal = errors.New("this command needs the local backend")

// services are the gateways a command works against. The store is always
// opened: with the remote backend it only holds the call journal.
type services struct {
	store   *store.Store
	local   *backend.Backend // nil with the remote backend
	catalog gateway.Catalog
	persist gateway.Persistence
	assess  gateway.Assessments
	logger  *slog.Logger
}

func openServices(cfg config.Config, logger *slog.Logger) (*services, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dbPath, err := resolveDBPath(cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	svc := &services{store: st, logger: logger}
	var (
		persist gateway.Persistence
		assess  gateway.Assessments
	)
	switch cfg.Backend {
	case config.BackendRemote:
		opts := []remote.Option{remote.WithToken(cfg.APIToken)}
		if cfg.RequestTimeout > 0 {
			opts = append(opts, remote.WithTimeout(cfg.RequestTimeout))
		}
		c, err := remote.New(cfg.APIURL, opts...)
		if err != nil {
			st.Close()
			return nil, err
		}
		svc.catalog, persist, assess = c, c, c
	default:
		b := backend.New(st, clock.Real{}, logger)
		svc.local = b
		svc.catalog, persist, assess = b, b, b
	}

	journal := st.EventRepo()
	svc.persist = gateway.WithPersistenceLogging(persist, journal, logger)
	svc.assess = gateway.WithAssessmentLogging(gateway.WithRetry(assess, cfg.Retry), journal, logger)
	return svc, nil
}

// openCommandServices loads config and opens services for a
// non-interactive command, logging to stderr.
func openCommandServices(cmd *cobra.Command) (*services, config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, cfg, fmt.Errorf("load config: %w", err)
	}
	svc, err := openServices(cfg, newLogger(cmd))
	return svc, cfg, err
}

func (s *services) Close() error {
	return s.store.Close()
}

func (s *services) newEngine(rm *roadmap.Roadmap) *progression.Engine {
	return progression.New(rm, s.persist, s.assess, progression.WithLogger(s.logger))
}

// importRoadmap validates and stores the roadmap document at path.
func (s *services) importRoadmap(ctx context.Context, path string) (*gateway.Career, error) {
	if s.local == nil {
		return nil, errNeedsLocal
	}
	doc, err := roadmap.LoadDocument(path)
	if err != nil {
		return nil, err
	}
	c, err := s.store.Careers().Import(ctx, doc)
	if err != nil {
		return nil, err
	}
	return &gateway.Career{ID: c.ID, Title: c.Title, Description: c.Description, StepCount: c.StepCount}, nil
}

// resolveCareer returns id when set. Otherwise it picks the only career,
// so single-roadmap users never type an id.
func (s *services) resolveCareer(ctx context.Context, id string) (string, error) {
	if id != "" {
		return id, nil
	}
	cs, err := s.catalog.ListCareers(ctx)
	if err != nil {
		return "", fmt.Errorf("list careers: %w", err)
	}
	switch len(cs) {
	case 0:
		return "", errors.New("no careers imported; run `waypoint import <file>` first")
	case 1:
		return cs[0].ID, nil
	}
	ids := make([]string, len(cs))
	for i, c := range cs {
		ids[i] = fmt.Sprintf("  %s  %s", c.ID, c.Title)
	}
	return "", fmt.Errorf("several careers found, pick one with --career:\n%s", strings.Join(ids, "\n"))
}
