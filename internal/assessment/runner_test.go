package assessment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/waypoint/internal/clock"
	"github.com/abhisek/waypoint/internal/gateway"
	"github.com/abhisek/waypoint/internal/roadmap"
)

var epoch = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

func sampleAssessment() *gateway.Assessment {
	return &gateway.Assessment{
		ID:               "a1",
		Title:            "Foundations check",
		PassingScore:     70,
		TimeLimitMinutes: 5,
		Questions: []gateway.Question{
			{ID: "q1", Text: "First?", Options: []string{"a", "b", "c"}},
			{ID: "q2", Text: "Second?", Options: []string{"a", "b"}},
		},
	}
}

func newRunner(t *testing.T) (*Runner, *clock.Fake, *gateway.MockAssessments) {
	t.Helper()
	clk := clock.NewFake(epoch)
	gw := gateway.NewMockAssessments()
	gw.Assessments["s1"] = sampleAssessment()
	return NewRunner(clk, gw, nil), clk, gw
}

func openAttempt(t *testing.T, r *Runner) {
	t.Helper()
	require.NoError(t, r.Open(context.Background(), 1, "s1"))
	require.Equal(t, PhaseInProgress, r.Phase())
}

func TestOpen_StartsFreshAttempt(t *testing.T) {
	r, _, _ := newRunner(t)
	openAttempt(t, r)

	s := r.Snapshot()
	require.NotNil(t, s.Attempt)
	assert.Equal(t, 0, s.Attempt.Current)
	assert.Empty(t, s.Attempt.Answers)
	assert.Equal(t, epoch, s.Attempt.StartedAt)
	assert.Equal(t, 5*time.Minute, s.Remaining)
}

func TestOpen_Failures(t *testing.T) {
	tests := []struct {
		name    string
		loadErr error
		stepID  string
		wantIs  error
	}{
		{"locked", gateway.ErrLocked, "s1", gateway.ErrLocked},
		{"missing", nil, "nope", gateway.ErrNotFound},
		{"transient", &gateway.UnavailableError{StatusCode: 503, Err: errors.New("down")}, "s1", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _, gw := newRunner(t)
			gw.LoadErr = tt.loadErr

			err := r.Open(context.Background(), 1, roadmap.StepID(tt.stepID))
			require.Error(t, err)
			if tt.wantIs != nil {
				assert.ErrorIs(t, err, tt.wantIs)
			} else {
				assert.True(t, gateway.IsTransient(err))
			}
			assert.Equal(t, PhaseClosed, r.Phase())
		})
	}
}

func TestAnswer_UpsertsAndValidates(t *testing.T) {
	r, _, _ := newRunner(t)
	openAttempt(t, r)

	require.NoError(t, r.Answer("q1", 0))
	require.NoError(t, r.Answer("q1", 2))
	assert.ErrorIs(t, r.Answer("q9", 0), ErrUnknownQuestion)
	assert.ErrorIs(t, r.Answer("q2", 2), ErrUnknownQuestion)

	s := r.Snapshot()
	assert.Equal(t, map[string]int{"q1": 2}, s.Attempt.Answers)
}

func TestNext_RequiresAnswer(t *testing.T) {
	r, _, _ := newRunner(t)
	openAttempt(t, r)

	assert.False(t, r.Next())
	assert.True(t, r.Snapshot().NeedsAnswer)

	require.NoError(t, r.AnswerCurrent(1))
	assert.False(t, r.Snapshot().NeedsAnswer)
	assert.True(t, r.Next())
	assert.Equal(t, 1, r.Snapshot().Attempt.Current)

	// Last question: answered but nowhere to go.
	require.NoError(t, r.AnswerCurrent(0))
	assert.False(t, r.Next())
	assert.Equal(t, 1, r.Snapshot().Attempt.Current)

	assert.True(t, r.Previous())
	assert.False(t, r.Previous())
	assert.Equal(t, 0, r.Snapshot().Attempt.Current)
}

func TestSubmit_RequiresAllAnswers(t *testing.T) {
	r, _, gw := newRunner(t)
	openAttempt(t, r)
	require.NoError(t, r.Answer("q1", 1))

	_, err := r.Submit(context.Background())
	assert.ErrorIs(t, err, ErrIncompleteAnswers)
	assert.Equal(t, PhaseInProgress, r.Phase())
	assert.True(t, r.Snapshot().NeedsAnswer)
	assert.Zero(t, gw.SubmissionCount())
}

func TestSubmit_Success(t *testing.T) {
	r, clk, gw := newRunner(t)
	openAttempt(t, r)
	gw.AddResult(gateway.MockResult{Result: &gateway.Result{Score: 100, Passed: true, StepMarkedComplete: true}})

	require.NoError(t, r.Answer("q2", 0))
	require.NoError(t, r.Answer("q1", 2))
	clk.Advance(95 * time.Second)

	res, err := r.Submit(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Passed)
	assert.Equal(t, PhaseShowingResult, r.Phase())
	assert.Same(t, res, r.Result())

	require.Equal(t, 1, gw.SubmissionCount())
	sub := gw.Submissions[0]
	assert.Equal(t, 95, sub.ElapsedSeconds)
	assert.Equal(t, []gateway.Answer{{QuestionID: "q1", OptionIndex: 2}, {QuestionID: "q2", OptionIndex: 0}}, sub.Answers)
}

func TestSubmit_FailureReturnsToInProgress(t *testing.T) {
	r, _, gw := newRunner(t)
	openAttempt(t, r)
	gw.AddResult(gateway.MockResult{Err: &gateway.UnavailableError{StatusCode: 500, Err: errors.New("boom")}})
	require.NoError(t, r.Answer("q1", 0))
	require.NoError(t, r.Answer("q2", 0))

	_, err := r.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, PhaseInProgress, r.Phase())
	assert.Len(t, r.Snapshot().Attempt.Answers, 2)
}

func TestSubmit_SingleInFlight(t *testing.T) {
	r, _, gw := newRunner(t)
	openAttempt(t, r)
	gate := make(chan struct{})
	gw.SubmitGate = gate
	gw.AddResult(gateway.MockResult{Result: &gateway.Result{Passed: false}})
	require.NoError(t, r.Answer("q1", 0))
	require.NoError(t, r.Answer("q2", 0))

	done := make(chan error, 1)
	go func() {
		_, err := r.Submit(context.Background())
		done <- err
	}()
	require.Eventually(t, func() bool { return r.Phase() == PhaseSubmitting }, time.Second, time.Millisecond)

	_, err := r.Submit(context.Background())
	assert.ErrorIs(t, err, ErrSubmitInFlight)

	close(gate)
	require.NoError(t, <-done)
	assert.Equal(t, 1, gw.SubmissionCount())
}

func TestClose_DiscardsLateResponse(t *testing.T) {
	r, _, gw := newRunner(t)
	openAttempt(t, r)
	gate := make(chan struct{})
	gw.SubmitGate = gate
	gw.AddResult(gateway.MockResult{Result: &gateway.Result{Passed: true}})
	require.NoError(t, r.Answer("q1", 0))
	require.NoError(t, r.Answer("q2", 0))

	done := make(chan error, 1)
	go func() {
		_, err := r.Submit(context.Background())
		done <- err
	}()
	require.Eventually(t, func() bool { return r.Phase() == PhaseSubmitting }, time.Second, time.Millisecond)

	r.Close()
	close(gate)
	assert.ErrorIs(t, <-done, ErrStale)
	assert.Equal(t, PhaseClosed, r.Phase())
	assert.Nil(t, r.Result())
}

func TestTick_AutoSubmitsOnceWithPartialAnswers(t *testing.T) {
	r, clk, gw := newRunner(t)
	openAttempt(t, r)
	gw.AddResult(gateway.MockResult{Result: &gateway.Result{Score: 50, Passed: false}})
	require.NoError(t, r.Answer("q1", 1))

	clk.Advance(4*time.Minute + 59*time.Second)
	_, fired, err := r.Tick(context.Background())
	require.NoError(t, err)
	assert.False(t, fired)
	assert.False(t, r.AutoSubmitDue())

	clk.Advance(time.Second)
	assert.True(t, r.AutoSubmitDue())
	res, fired, err := r.Tick(context.Background())
	require.NoError(t, err)
	assert.True(t, fired)
	assert.False(t, res.Passed)

	clk.Advance(10 * time.Second)
	_, fired, _ = r.Tick(context.Background())
	assert.False(t, fired)

	require.Equal(t, 1, gw.SubmissionCount())
	assert.Equal(t, []gateway.Answer{{QuestionID: "q1", OptionIndex: 1}}, gw.Submissions[0].Answers)
	assert.Equal(t, 300, gw.Submissions[0].ElapsedSeconds)
}

func TestTick_FailedAutoSubmitAllowsManualPartialSubmit(t *testing.T) {
	r, clk, gw := newRunner(t)
	openAttempt(t, r)
	gw.AddResult(gateway.MockResult{Err: &gateway.UnavailableError{StatusCode: 502, Err: errors.New("bad gateway")}})
	gw.AddResult(gateway.MockResult{Result: &gateway.Result{Passed: false}})

	clk.Advance(6 * time.Minute)
	_, fired, err := r.Tick(context.Background())
	assert.True(t, fired)
	require.Error(t, err)
	assert.Equal(t, PhaseInProgress, r.Phase())

	_, fired, _ = r.Tick(context.Background())
	assert.False(t, fired, "auto-submit fires at most once per attempt")

	_, err = r.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, gw.SubmissionCount())
}

func TestTick_NoAttemptIsNoop(t *testing.T) {
	r, clk, gw := newRunner(t)
	clk.Advance(time.Hour)
	_, fired, err := r.Tick(context.Background())
	assert.NoError(t, err)
	assert.False(t, fired)
	assert.Zero(t, r.Remaining())
	assert.Zero(t, gw.SubmissionCount())
}

func TestRetry_AfterFailStartsFreshAttempt(t *testing.T) {
	r, clk, gw := newRunner(t)
	openAttempt(t, r)
	gw.AddResult(gateway.MockResult{Result: &gateway.Result{Score: 0, Passed: false}})
	require.NoError(t, r.Answer("q1", 0))
	require.NoError(t, r.Answer("q2", 1))
	_, err := r.Submit(context.Background())
	require.NoError(t, err)

	clk.Advance(time.Minute)
	require.NoError(t, r.Retry(context.Background()))

	s := r.Snapshot()
	assert.Equal(t, PhaseInProgress, s.Phase)
	assert.Empty(t, s.Attempt.Answers)
	assert.Equal(t, epoch.Add(time.Minute), s.Attempt.StartedAt)
	assert.Nil(t, s.Result)
	assert.Len(t, gw.LoadCalls, 2)
}

func TestRetry_WithoutStep(t *testing.T) {
	r, _, _ := newRunner(t)
	assert.ErrorIs(t, r.Retry(context.Background()), ErrNotInProgress)
}

func TestNoTimeLimit_NeverExpires(t *testing.T) {
	r, clk, gw := newRunner(t)
	a := sampleAssessment()
	a.TimeLimitMinutes = 0
	gw.Assessments["s1"] = a
	openAttempt(t, r)

	clk.Advance(24 * time.Hour)
	assert.False(t, r.AutoSubmitDue())
	_, err := r.Submit(context.Background())
	assert.ErrorIs(t, err, ErrIncompleteAnswers)
}
