package app

import (
	"context"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/waypoint/internal/clock"
	"github.com/abhisek/waypoint/internal/gateway"
	"github.com/abhisek/waypoint/internal/progression"
	"github.com/abhisek/waypoint/internal/roadmap"
	"github.com/abhisek/waypoint/internal/router"
	rmscreen "github.com/abhisek/waypoint/internal/screens/roadmap"
)

type emptyCatalog struct{}

func (emptyCatalog) ListCareers(context.Context) ([]gateway.Career, error) { return nil, nil }
func (emptyCatalog) LoadRoadmap(context.Context, string) (*roadmap.Roadmap, error) {
	return nil, gateway.ErrNotFound
}

func TestEscAtRootDoesNotPop(t *testing.T) {
	m := newAppModel(Options{Catalog: emptyCatalog{}})
	_, cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	if cmd != nil {
		if _, ok := cmd().(router.PopScreenMsg); ok {
			t.Fatal("esc at the root must not pop")
		}
	}
}

func TestQuitPausesTracking(t *testing.T) {
	clk := clock.NewFake(time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC))
	persist := gateway.NewMockPersistence()
	rm := roadmap.New("c1", "Backend", []roadmap.Step{{ID: "s1", Number: 1, Title: "HTTP"}})
	e := progression.New(rm, persist, gateway.NewMockAssessments(), progression.WithClock(clk))
	if err := e.StartStep(context.Background(), 1); err != nil {
		t.Fatalf("start: %v", err)
	}
	clk.Advance(2*time.Minute + 5*time.Second)

	m := newAppModel(Options{Catalog: emptyCatalog{}})
	m.router.Push(rmscreen.New(e, nil))

	updated, cmd := m.Update(tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl})
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if !updated.(AppModel).quitting {
		t.Error("expected model to be quitting")
	}

	// The leave commands run before tea.Quit.
	for _, c := range m.router.LeaveAll() {
		c()
	}
	if got := persist.MinutesFor("s1"); got != 2 {
		t.Errorf("expected 2 minutes flushed, got %d", got)
	}
}
