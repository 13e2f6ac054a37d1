package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/waypoint/internal/config"
	"github.com/abhisek/waypoint/internal/gateway"
	"github.com/abhisek/waypoint/internal/store"
)

const roadmapYAML = `
title: Backend Developer
steps:
  - title: HTTP fundamentals
    assessment:
      title: HTTP check
      passing_score: 70
      time_limit_minutes: 5
      questions:
        - text: Which status code means "Not Found"?
          options: ["200", "404"]
          correct_option: 1
  - title: Databases
  - title: Deploying services
`

func newTestServices(t *testing.T) *services {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DBPath = filepath.Join(t.TempDir(), "waypoint.db")
	svc, err := openServices(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })
	return svc
}

func writeRoadmap(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "roadmap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(roadmapYAML), 0o644))
	return path
}

func importOne(t *testing.T, svc *services) *gateway.Career {
	t.Helper()
	c, err := svc.importRoadmap(context.Background(), writeRoadmap(t))
	require.NoError(t, err)
	return c
}

func TestImportAndList(t *testing.T) {
	svc := newTestServices(t)
	c := importOne(t, svc)
	assert.Equal(t, "Backend Developer", c.Title)
	assert.Equal(t, 3, c.StepCount)

	var out bytes.Buffer
	require.NoError(t, listCareers(context.Background(), &out, svc))
	assert.Contains(t, out.String(), c.ID)
	assert.Contains(t, out.String(), "Backend Developer")
}

func TestImport_InvalidDocument(t *testing.T) {
	svc := newTestServices(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("title: x\nsteps: []\n"), 0o644))

	_, err := svc.importRoadmap(context.Background(), path)
	assert.Error(t, err)
}

func TestImport_NeedsLocalBackend(t *testing.T) {
	svc := &services{}
	_, err := svc.importRoadmap(context.Background(), "whatever.yaml")
	assert.ErrorIs(t, err, errNeedsLocal)
	assert.ErrorIs(t, resetCareer(context.Background(), &bytes.Buffer{}, svc, "c1"), errNeedsLocal)
}

func TestPrintProgress(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()
	c := importOne(t, svc)
	rm, err := svc.catalog.LoadRoadmap(ctx, c.ID)
	require.NoError(t, err)
	require.NoError(t, svc.persist.RecordElapsed(ctx, rm.Steps()[0].ID, 12))

	var out bytes.Buffer
	require.NoError(t, printProgress(ctx, &out, svc, ""), "the only career is picked")
	got := out.String()
	assert.Contains(t, got, "Backend Developer")
	assert.Regexp(t, `1\s+HTTP fundamentals\s+12\s+no\s+no\s+pending`, got)
	assert.Regexp(t, `2\s+Databases\s+0\s+yes\s+no\s+-`, got)
	assert.Contains(t, got, "0 of 3 steps done, 12 minutes tracked")
}

func TestResolveCareer(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	_, err := svc.resolveCareer(ctx, "")
	assert.ErrorContains(t, err, "waypoint import")

	a := importOne(t, svc)
	b := importOne(t, svc)
	_, err = svc.resolveCareer(ctx, "")
	assert.ErrorContains(t, err, "--career")
	assert.ErrorContains(t, err, a.ID)
	assert.ErrorContains(t, err, b.ID)

	id, err := svc.resolveCareer(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, id)
}

func TestResetCareer(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()
	c := importOne(t, svc)
	rm, err := svc.catalog.LoadRoadmap(ctx, c.ID)
	require.NoError(t, err)
	step := rm.Steps()[0].ID
	require.NoError(t, svc.persist.StartStep(ctx, step))
	require.NoError(t, svc.persist.RecordElapsed(ctx, step, 25))

	var out bytes.Buffer
	require.NoError(t, resetCareer(ctx, &out, svc, c.ID))
	assert.Contains(t, out.String(), "cleared 25 minutes")

	rm, err = svc.catalog.LoadRoadmap(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, rm.TotalMinutes())
}

func TestPrintEvents(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, printEvents(ctx, &out, svc.store.EventRepo(), store.QueryOpts{}))
	assert.Contains(t, out.String(), "No events found.")

	c := importOne(t, svc)
	rm, err := svc.catalog.LoadRoadmap(ctx, c.ID)
	require.NoError(t, err)
	require.NoError(t, svc.persist.RecordElapsed(ctx, rm.Steps()[0].ID, 3))
	assert.Error(t, svc.persist.RecordElapsed(ctx, rm.Steps()[0].ID, 0))

	out.Reset()
	require.NoError(t, printEvents(ctx, &out, svc.store.EventRepo(), store.QueryOpts{Op: gateway.OpRecordElapsed}))
	got := out.String()
	assert.Contains(t, got, "record_elapsed")
	assert.Contains(t, got, "✓")
	assert.Contains(t, got, "✗")
	assert.Contains(t, got, "minutes must be at least 1")
}

func testCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	c := &cobra.Command{Use: "waypoint-test"}
	c.Flags().String("db", "", "")
	c.Flags().String("config", "", "")
	c.Flags().String("backend", "", "")
	c.Flags().String("api-url", "", "")
	c.Flags().String("career", "", "")
	c.Flags().Bool("verbose", false, "")
	require.NoError(t, c.ParseFlags(args))
	return c
}

func TestLoadConfig_FlagsOverrideEnv(t *testing.T) {
	for _, k := range []string{"WAYPOINT_DB", "WAYPOINT_API_URL", "WAYPOINT_API_TOKEN",
		"WAYPOINT_LOG", "WAYPOINT_LISTEN", "WAYPOINT_RETRY_ATTEMPTS"} {
		t.Setenv(k, "")
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("WAYPOINT_CAREER", "from-env")
	t.Setenv("WAYPOINT_BACKEND", "remote")

	cfg, err := loadConfig(testCommand(t, "--career", "from-flag", "--api-url", "http://flag.test", "--db", "/tmp/x.db"))
	require.NoError(t, err)
	assert.Equal(t, "from-flag", cfg.CareerID)
	assert.Equal(t, config.BackendRemote, cfg.Backend)
	assert.Equal(t, "http://flag.test", cfg.APIURL)
	assert.Equal(t, "/tmp/x.db", cfg.DBPath)

	_, err = loadConfig(testCommand(t, "--backend", "nope"))
	assert.ErrorContains(t, err, "unknown backend")
}
