package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/waypoint/internal/api"
	"github.com/abhisek/waypoint/internal/backend"
	"github.com/abhisek/waypoint/internal/clock"
	"github.com/abhisek/waypoint/internal/gate"
	"github.com/abhisek/waypoint/internal/gateway"
	"github.com/abhisek/waypoint/internal/progression"
	"github.com/abhisek/waypoint/internal/roadmap"
	"github.com/abhisek/waypoint/internal/store"
	"github.com/abhisek/waypoint/internal/tracker"
)

type roundTrip struct {
	client *Client
	store  *store.Store
	clk    *clock.Fake
	rm     *roadmap.Roadmap
}

func newRoundTrip(t *testing.T) *roundTrip {
	t.Helper()
	s, err := store.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	doc, err := roadmap.LoadDocument("../roadmap/testdata/backend.yaml")
	require.NoError(t, err)
	c, err := s.Careers().Import(context.Background(), doc)
	require.NoError(t, err)
	rm, err := s.Careers().LoadRoadmap(context.Background(), c.ID)
	require.NoError(t, err)

	clk := clock.NewFake(time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC))
	b := backend.New(s, clk, nil)
	srv := api.NewServer(b, api.Options{Token: "t0ken", Catalog: b})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	client, err := New(ts.URL, WithToken("t0ken"), WithHTTPClient(ts.Client()))
	require.NoError(t, err)
	return &roundTrip{client: client, store: s, clk: clk, rm: rm}
}

func TestNew_InvalidURL(t *testing.T) {
	_, err := New("not a url")
	assert.Error(t, err)
}

func TestRoundTrip_Gateways(t *testing.T) {
	rt := newRoundTrip(t)
	ctx := context.Background()
	steps := rt.rm.Steps()

	progress, err := rt.client.GetProgress(ctx, rt.rm.CareerID)
	require.NoError(t, err)
	require.Len(t, progress, 3)
	assert.True(t, progress[1].IsLocked)

	require.NoError(t, rt.client.StartStep(ctx, steps[0].ID))
	require.NoError(t, rt.client.RecordElapsed(ctx, steps[0].ID, 2))

	res, err := rt.client.SetStepDone(ctx, steps[0].ID, true)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, gate.DoneReason, res.RejectedReason)

	_, err = rt.client.LoadAssessment(ctx, steps[1].ID)
	assert.ErrorIs(t, err, gateway.ErrLocked)

	err = rt.client.StartStep(ctx, "missing")
	assert.ErrorIs(t, err, gateway.ErrNotFound)

	a, err := rt.client.LoadAssessment(ctx, steps[0].ID)
	require.NoError(t, err)
	require.NotEmpty(t, a.Questions)

	rec, err := rt.store.Steps().Get(ctx, string(steps[0].ID))
	require.NoError(t, err)
	assert.Equal(t, 2, rec.AccumulatedMinutes)
	assert.NotNil(t, rec.StartedAt)
}

func TestRoundTrip_EngineScenario(t *testing.T) {
	rt := newRoundTrip(t)
	ctx := context.Background()

	e := progression.New(rt.rm, rt.client, rt.client, progression.WithClock(rt.clk))
	_, err := e.Refresh(ctx)
	require.NoError(t, err)

	require.NoError(t, e.StartStep(ctx, 1))
	rt.clk.Advance(2*time.Minute + 10*time.Second)
	require.NoError(t, e.OpenAssessment(ctx, 1))

	// Answer everything correctly using the stored key.
	steps := rt.rm.Steps()
	key, err := rt.store.Assessments().GetByStep(ctx, string(steps[0].ID))
	require.NoError(t, err)
	for _, q := range key.Questions {
		require.NoError(t, e.Runner().Answer(q.ID, q.CorrectOption))
	}

	res, err := e.SubmitAssessment(ctx)
	require.NoError(t, err)
	assert.True(t, res.Passed)
	assert.True(t, res.StepMarkedComplete)

	assert.Equal(t, tracker.StateIdle, e.Tracker().State())
	assert.False(t, e.Gate().IsLocked(2))

	rec, err := rt.store.Steps().Get(ctx, string(steps[0].ID))
	require.NoError(t, err)
	assert.Equal(t, 2, rec.AccumulatedMinutes)
	assert.True(t, rec.IsDone)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{"locked", http.StatusLocked, `{"type":"x","title":"Locked","status":423,"detail":"step 2"}`, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, gateway.ErrLocked)
		}},
		{"forbidden", http.StatusForbidden, `{"title":"Assessment Required","status":403,"detail":"Pass it first."}`, func(t *testing.T, err error) {
			var rejected *gateway.RejectedError
			require.ErrorAs(t, err, &rejected)
			assert.Equal(t, "Pass it first.", rejected.Reason)
			assert.True(t, gateway.IsLockCondition(err))
		}},
		{"server error", http.StatusBadGateway, `oops`, func(t *testing.T, err error) {
			assert.True(t, gateway.IsTransient(err))
		}},
		{"rate limited", http.StatusTooManyRequests, ``, func(t *testing.T, err error) {
			assert.True(t, gateway.IsTransient(err))
		}},
		{"bad request", http.StatusBadRequest, `{"title":"Bad Request","status":400,"detail":"nope"}`, func(t *testing.T, err error) {
			assert.False(t, gateway.IsTransient(err))
			assert.Contains(t, err.Error(), "nope")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", api.ProblemContentType)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			c, err := New(ts.URL)
			require.NoError(t, err)
			_, err = c.LoadAssessment(context.Background(), "s1")
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestNetworkFailureIsTransient(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	addr := ts.URL
	ts.Close()

	c, err := New(addr)
	require.NoError(t, err)
	err = c.RecordElapsed(context.Background(), "s1", 1)
	assert.True(t, gateway.IsTransient(err))
}

func TestRetryRecoversProgress(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"stepNumber":1,"isLocked":false,"isCompleted":false,"assessmentPassed":true}]`))
	}))
	defer ts.Close()

	c, err := New(ts.URL)
	require.NoError(t, err)
	retrying := gateway.WithRetry(c, gateway.RetryConfig{MaxAttempts: 3, InitialWait: time.Millisecond, MaxWait: 5 * time.Millisecond, Multiplier: 2})

	got, err := retrying.GetProgress(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, []gateway.StepStatus{{StepNumber: 1, AssessmentPassed: true}}, got)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRoundTrip_Catalog(t *testing.T) {
	rt := newRoundTrip(t)
	ctx := context.Background()

	require.NoError(t, rt.client.RecordElapsed(ctx, rt.rm.Steps()[0].ID, 4))

	careers, err := rt.client.ListCareers(ctx)
	require.NoError(t, err)
	require.Len(t, careers, 1)
	assert.Equal(t, rt.rm.CareerID, careers[0].ID)
	assert.Equal(t, 3, careers[0].StepCount)

	rm, err := rt.client.LoadRoadmap(ctx, rt.rm.CareerID)
	require.NoError(t, err)
	assert.Equal(t, rt.rm.Title, rm.Title)
	steps := rm.Steps()
	require.Len(t, steps, 3)
	assert.Equal(t, rt.rm.Steps()[0].ID, steps[0].ID)
	assert.Equal(t, 4, steps[0].AccumulatedMinutes)
	assert.True(t, steps[0].HasAssessment)

	_, err = rt.client.LoadRoadmap(ctx, "missing")
	assert.ErrorIs(t, err, gateway.ErrNotFound)
}
