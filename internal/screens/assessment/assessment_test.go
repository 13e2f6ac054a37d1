package assessment

import (
	"context"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	runner "github.com/abhisek/waypoint/internal/assessment"
	"github.com/abhisek/waypoint/internal/clock"
	"github.com/abhisek/waypoint/internal/gateway"
	"github.com/abhisek/waypoint/internal/progression"
	"github.com/abhisek/waypoint/internal/roadmap"
	"github.com/abhisek/waypoint/internal/router"
)

type fixture struct {
	clk     *clock.Fake
	persist *gateway.MockPersistence
	assess  *gateway.MockAssessments
	engine  *progression.Engine
	screen  *Screen
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clk := clock.NewFake(time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC))
	persist := gateway.NewMockPersistence()
	assess := gateway.NewMockAssessments()
	assess.Assessments["s1"] = &gateway.Assessment{
		ID: "a1", Title: "HTTP check", PassingScore: 50, TimeLimitMinutes: 5,
		Questions: []gateway.Question{
			{ID: "q1", Text: "Which verb is idempotent?", Options: []string{"POST", "PUT", "PATCH"}},
			{ID: "q2", Text: "Status for created?", Options: []string{"200", "201"}},
		},
	}
	assess.SetProgress([]gateway.StepStatus{{StepNumber: 1}, {StepNumber: 2, IsLocked: true}})

	rm := roadmap.New("c1", "Backend", []roadmap.Step{
		{ID: "s1", Number: 1, Title: "HTTP", HasAssessment: true},
		{ID: "s2", Number: 2, Title: "SQL"},
	})
	e := progression.New(rm, persist, assess, progression.WithClock(clk))
	ctx := context.Background()
	_, err := e.Refresh(ctx)
	require.NoError(t, err)
	require.NoError(t, e.OpenAssessment(ctx, 1))
	return &fixture{clk: clk, persist: persist, assess: assess, engine: e, screen: New(e, nil)}
}

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func passResult() *gateway.Result {
	return &gateway.Result{
		Score: 100, Passed: true, StepMarkedComplete: true,
		PerQuestion: []gateway.QuestionResult{
			{QuestionID: "q1", Correct: true, CorrectOptionIndex: 1, Explanation: "PUT replaces"},
			{QuestionID: "q2", Correct: true, CorrectOptionIndex: 1},
		},
	}
}

func failResult() *gateway.Result {
	return &gateway.Result{
		Score: 0,
		PerQuestion: []gateway.QuestionResult{
			{QuestionID: "q1", CorrectOptionIndex: 1, Explanation: "PUT replaces"},
			{QuestionID: "q2", CorrectOptionIndex: 1},
		},
	}
}

func TestNumberKeysAnswerAndAdvance(t *testing.T) {
	f := newFixture(t)

	f.screen.Update(keyPress('2'))
	snap := f.engine.Runner().Snapshot()
	assert.Equal(t, 1, snap.Attempt.Answers["q1"])
	assert.Equal(t, 1, snap.Attempt.Current)

	f.screen.Update(keyPress('2'))
	snap = f.engine.Runner().Snapshot()
	assert.True(t, snap.Attempt.Complete())
	assert.Equal(t, "All questions answered. Press s to submit.", f.screen.status)
}

func TestOutOfRangeOptionIgnored(t *testing.T) {
	f := newFixture(t)
	f.screen.Update(keyPress('6'))
	assert.Empty(t, f.engine.Runner().Snapshot().Attempt.Answers)
}

func TestNextRequiresAnswer(t *testing.T) {
	f := newFixture(t)

	f.screen.Update(tea.KeyPressMsg{Code: tea.KeyRight})

	assert.Equal(t, 0, f.engine.Runner().Snapshot().Attempt.Current)
	assert.Equal(t, "Answer this question to move on.", f.screen.status)
}

func TestCursorAndEnterAnswer(t *testing.T) {
	f := newFixture(t)

	f.screen.Update(tea.KeyPressMsg{Code: tea.KeyDown}) // onto option 0
	f.screen.Update(tea.KeyPressMsg{Code: tea.KeyDown}) // option 1
	f.screen.Update(tea.KeyPressMsg{Code: tea.KeyEnter})

	assert.Equal(t, 1, f.engine.Runner().Snapshot().Attempt.Answers["q1"])

	f.screen.Update(tea.KeyPressMsg{Code: tea.KeyLeft})
	snap := f.engine.Runner().Snapshot()
	assert.Equal(t, 0, snap.Attempt.Current)
	assert.Equal(t, 1, f.screen.effectiveCursor(snap), "revisited question starts on its answer")
}

func TestSubmitIncompleteWarns(t *testing.T) {
	f := newFixture(t)
	f.screen.Update(keyPress('1'))

	_, cmd := f.screen.Update(keyPress('s'))
	require.NotNil(t, cmd)
	f.screen.Update(cmd())

	assert.Equal(t, "Answer every question before submitting.", f.screen.status)
	assert.False(t, f.screen.isError)
	assert.Equal(t, runner.PhaseInProgress, f.engine.Runner().Phase())
}

func TestSubmitPassShowsResult(t *testing.T) {
	f := newFixture(t)
	f.assess.AddResult(gateway.MockResult{Result: passResult()})
	f.screen.Update(keyPress('2'))
	f.screen.Update(keyPress('2'))

	_, cmd := f.screen.Update(keyPress('s'))
	require.NotNil(t, cmd)
	f.screen.Update(cmd())

	assert.Equal(t, runner.PhaseShowingResult, f.engine.Runner().Phase())
	assert.Equal(t, "Passed with 100%. The next step is unlocked.", f.screen.status)
	view := f.screen.View(100, 40)
	assert.Contains(t, view, "PASSED")
	assert.Contains(t, view, "PUT replaces")

	_, cmd = f.screen.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, router.PopScreenMsg{}, cmd())
}

func TestFailThenRetry(t *testing.T) {
	f := newFixture(t)
	f.assess.AddResult(gateway.MockResult{Result: failResult()})
	f.screen.Update(keyPress('1'))
	f.screen.Update(keyPress('1'))
	_, cmd := f.screen.Update(keyPress('s'))
	f.screen.Update(cmd())

	assert.Contains(t, f.screen.View(100, 40), "NOT PASSED")
	assert.Equal(t, "r", f.screen.KeyHints()[0].Key)

	_, cmd = f.screen.Update(keyPress('r'))
	require.NotNil(t, cmd)
	f.screen.Update(cmd())

	snap := f.engine.Runner().Snapshot()
	assert.Equal(t, runner.PhaseInProgress, snap.Phase)
	assert.Empty(t, snap.Attempt.Answers)
	assert.Equal(t, -1, f.screen.cursor)
}

func TestTickAutoSubmitsOnce(t *testing.T) {
	f := newFixture(t)
	f.assess.AddResult(gateway.MockResult{Result: failResult()})
	f.screen.Update(keyPress('1'))

	f.clk.Advance(5 * time.Minute)
	assert.Equal(t, "time is up", f.screen.Status())

	_, cmd := f.screen.Update(tickMsg{gen: f.screen.tickGen})
	require.NotNil(t, cmd)
	assert.True(t, f.screen.submitting)

	// A second tick while submitting does not start another submission.
	_, again := f.screen.Update(tickMsg{gen: f.screen.tickGen})
	require.NotNil(t, again)

	msg := runUntil[submittedMsg](t, cmd)
	assert.True(t, msg.Auto)
	f.screen.Update(msg)

	assert.Equal(t, 1, f.assess.SubmissionCount())
	assert.Equal(t, runner.PhaseShowingResult, f.engine.Runner().Phase())
	assert.False(t, f.screen.submitting)
}

func TestAutoSubmitFailureAllowsManualSubmit(t *testing.T) {
	f := newFixture(t)
	f.assess.AddResult(gateway.MockResult{Err: &gateway.UnavailableError{StatusCode: 503}})
	f.assess.AddResult(gateway.MockResult{Result: failResult()})
	f.screen.Update(keyPress('1'))
	f.clk.Advance(6 * time.Minute)

	_, cmd := f.screen.Update(tickMsg{gen: f.screen.tickGen})
	f.screen.Update(runUntil[submittedMsg](t, cmd))
	assert.True(t, f.screen.isError)
	assert.Equal(t, runner.PhaseInProgress, f.engine.Runner().Phase())
	assert.False(t, f.engine.AutoSubmitDue(), "auto-submit fires once per attempt")

	_, cmd = f.screen.Update(keyPress('s'))
	f.screen.Update(cmd())
	assert.Equal(t, runner.PhaseShowingResult, f.engine.Runner().Phase())
	assert.Equal(t, 2, f.assess.SubmissionCount())
}

func TestLeaveClosesAttempt(t *testing.T) {
	f := newFixture(t)
	f.screen.Leave()()
	assert.Equal(t, runner.PhaseClosed, f.engine.Runner().Phase())
}

// runUntil runs cmd, expanding batches, and returns the first message of
// type T. Timer commands run concurrently so the test does not wait on them.
func runUntil[T tea.Msg](t *testing.T, cmd tea.Cmd) T {
	t.Helper()
	found := make(chan T, 1)
	var run func(c tea.Cmd)
	run = func(c tea.Cmd) {
		if c == nil {
			return
		}
		switch m := c().(type) {
		case tea.BatchMsg:
			for _, sub := range m {
				go run(sub)
			}
		case T:
			select {
			case found <- m:
			default:
			}
		}
	}
	go run(cmd)
	select {
	case m := <-found:
		return m
	case <-time.After(5 * time.Second):
		t.Fatal("message not produced")
	}
	var zero T
	return zero
}
