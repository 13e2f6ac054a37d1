package roadmap

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/waypoint/internal/clock"
	"github.com/abhisek/waypoint/internal/gate"
	"github.com/abhisek/waypoint/internal/gateway"
	"github.com/abhisek/waypoint/internal/progression"
	rm "github.com/abhisek/waypoint/internal/roadmap"
	"github.com/abhisek/waypoint/internal/router"
	assessmentscreen "github.com/abhisek/waypoint/internal/screens/assessment"
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
		Questions: []gateway.Question{{ID: "q1", Text: "?", Options: []string{"x", "y"}}},
	}
	assess.SetProgress([]gateway.StepStatus{{StepNumber: 1}, {StepNumber: 2, IsLocked: true}})

	roadmap := rm.New("c1", "Backend", []rm.Step{
		{ID: "s1", Number: 1, Title: "HTTP", HasAssessment: true},
		{ID: "s2", Number: 2, Title: "SQL", HasAssessment: true},
	})
	e := progression.New(roadmap, persist, assess, progression.WithClock(clk))
	_, err := e.Refresh(context.Background())
	require.NoError(t, err)
	return &fixture{clk: clk, persist: persist, assess: assess, engine: e, screen: New(e, nil)}
}

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

// press sends a key and feeds the resulting command's message back.
func (f *fixture) press(t *testing.T, r rune) tea.Cmd {
	t.Helper()
	_, cmd := f.screen.Update(keyPress(r))
	if cmd == nil {
		return nil
	}
	_, next := f.screen.Update(cmd())
	return next
}

func TestStartTracksSelectedStep(t *testing.T) {
	f := newFixture(t)

	f.press(t, 's')

	assert.Equal(t, rm.StepID("s1"), f.engine.Tracker().ActiveStepID())
	assert.Equal(t, "Tracking step 1.", f.screen.status)
	assert.Equal(t, 1, f.persist.StartCount("s1"))

	f.clk.Advance(75 * time.Second)
	f.screen.Update(tickMsg{gen: f.screen.tickGen})
	assert.Equal(t, "● step 1  0:01:15", f.screen.Status())
	assert.Contains(t, f.screen.View(100, 30), "+0:01:15")
}

func TestStaleTickIgnored(t *testing.T) {
	f := newFixture(t)
	_, cmd := f.screen.Update(tickMsg{gen: f.screen.tickGen + 1})
	assert.Nil(t, cmd)
}

func TestStartLockedStepShowsWarning(t *testing.T) {
	f := newFixture(t)

	f.screen.Update(keyPress('j'))
	f.press(t, 's')

	assert.Equal(t, "Step 2 is locked. Pass the step 1 assessment first.", f.screen.status)
	assert.False(t, f.screen.isError)
	assert.Empty(t, f.engine.Tracker().ActiveStepID())
}

func TestPauseFlushesWholeMinutes(t *testing.T) {
	f := newFixture(t)
	f.press(t, 's')
	f.clk.Advance(150 * time.Second)

	f.press(t, 'p')

	assert.Equal(t, 2, f.persist.MinutesFor("s1"))
	v := f.engine.Overview()[0]
	assert.True(t, v.Paused)
	assert.Equal(t, "⏸ step 1", f.screen.Status())
}

func TestCancelDropsUnsavedTime(t *testing.T) {
	f := newFixture(t)
	f.press(t, 's')
	f.clk.Advance(5 * time.Minute)

	f.press(t, 'x')

	assert.Zero(t, f.persist.MinutesFor("s1"))
	assert.Empty(t, f.engine.Tracker().ActiveStepID())
}

func TestDoneBeforePassIsRefused(t *testing.T) {
	f := newFixture(t)

	f.press(t, 'd')

	assert.Equal(t, gate.DoneReason, f.screen.status)
	assert.Empty(t, f.persist.Dones())
}

func TestAssessmentKeyPushesAssessmentScreen(t *testing.T) {
	f := newFixture(t)

	next := f.press(t, 'a')
	require.NotNil(t, next)
	push, ok := next().(router.PushScreenMsg)
	require.True(t, ok)
	assert.IsType(t, &assessmentscreen.Screen{}, push.Screen)
}

func TestAssessmentLoadFailureShowsError(t *testing.T) {
	f := newFixture(t)
	f.assess.LoadErr = &gateway.UnavailableError{StatusCode: 503}

	next := f.press(t, 'a')

	assert.Nil(t, next)
	assert.True(t, f.screen.isError)
}

func TestLeavePausesTracking(t *testing.T) {
	f := newFixture(t)
	f.press(t, 's')
	f.clk.Advance(3*time.Minute + 10*time.Second)

	f.screen.Leave()()

	assert.Equal(t, 3, f.persist.MinutesFor("s1"))
	assert.True(t, f.engine.Tracker().Session().Paused)
}

func TestRefreshErrorKeepsSteps(t *testing.T) {
	f := newFixture(t)
	f.assess.ProgressErr = &gateway.UnavailableError{StatusCode: 502}

	f.press(t, 'r')

	assert.True(t, f.screen.isError)
	assert.Len(t, f.screen.steps, 2)
	view := f.screen.View(100, 30)
	assert.True(t, strings.Contains(view, "HTTP") && strings.Contains(view, "SQL"))
}

func TestKeyHintsFollowSelection(t *testing.T) {
	f := newFixture(t)

	hints := f.screen.KeyHints()
	var keys []string
	for _, h := range hints {
		keys = append(keys, h.Key)
	}
	assert.Contains(t, keys, "s")
	assert.Contains(t, keys, "a")
	assert.NotContains(t, keys, "p")

	f.screen.Update(keyPress('j'))
	keys = keys[:0]
	for _, h := range f.screen.KeyHints() {
		keys = append(keys, h.Key)
	}
	assert.NotContains(t, keys, "s", "locked step cannot start")
	assert.NotContains(t, keys, "a")
}
