// Package roadmap is the screen listing a career's steps with their gate
// state and the live tracking session.
package roadmap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/waypoint/internal/progression"
	"github.com/abhisek/waypoint/internal/router"
	"github.com/abhisek/waypoint/internal/screen"
	assessmentscreen "github.com/abhisek/waypoint/internal/screens/assessment"
	"github.com/abhisek/waypoint/internal/ui/layout"
)

const (
	tickInterval = time.Second
	callTimeout  = 30 * time.Second
)

// Screen shows the roadmap of one engine.
type Screen struct {
	engine *progression.Engine
	logger *slog.Logger
	keys   keyMap

	steps   []progression.StepView
	cursor  int
	status  string
	isError bool
	loaded  bool
	tickGen int
}

var (
	_ screen.Screen          = (*Screen)(nil)
	_ screen.KeyHintProvider = (*Screen)(nil)
	_ screen.Leaver          = (*Screen)(nil)
	_ screen.Resumer         = (*Screen)(nil)
	_ screen.StatusProvider  = (*Screen)(nil)
)

// New creates the roadmap screen for engine.
func New(engine *progression.Engine, logger *slog.Logger) *Screen {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Screen{engine: engine, logger: logger, keys: newKeyMap()}
	s.steps = engine.Overview()
	return s
}

func (s *Screen) Init() tea.Cmd {
	return tea.Batch(s.refresh(""), s.tick())
}

// Resume picks up progress changed by the assessment screen.
func (s *Screen) Resume() tea.Cmd {
	s.tickGen++
	s.steps = s.engine.Overview()
	return tea.Batch(s.refresh(""), s.tick())
}

// Leave pauses tracking so whole minutes are saved.
func (s *Screen) Leave() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		if err := s.engine.Shutdown(ctx); err != nil {
			s.logger.Warn("pause on leave failed", "err", err)
		}
		return nil
	}
}

func (s *Screen) Title() string {
	return s.engine.Roadmap().Title
}

// Status shows the tracked step and its live time in the header.
func (s *Screen) Status() string {
	for _, v := range s.steps {
		if !v.Tracking {
			continue
		}
		if v.Paused {
			return fmt.Sprintf("⏸ step %d", v.Number)
		}
		return fmt.Sprintf("● step %d  %s", v.Number, formatLive(v.LiveSeconds))
	}
	return ""
}

func (s *Screen) KeyHints() []layout.KeyHint {
	k := s.keys
	v, ok := s.selected()
	k.Start.SetEnabled(ok && !v.Locked && (!v.Tracking || v.Paused))
	k.Pause.SetEnabled(ok && v.Tracking && !v.Paused)
	k.Cancel.SetEnabled(ok && v.Tracking)
	k.Assessment.SetEnabled(ok && v.HasAssessment && !v.Locked)
	if ok && v.IsDone {
		k.Done.SetHelp("d", "Undo")
	}
	return layout.HintsFor(k.Up, k.Start, k.Pause, k.Cancel, k.Done, k.Assessment, k.Refresh, k.Back)
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if msg.gen != s.tickGen {
			return s, nil
		}
		s.steps = s.engine.Overview()
		return s, s.tick()

	case actionMsg:
		s.loaded = true
		s.steps = s.engine.Overview()
		if msg.Err != nil {
			s.setError(msg.Err)
		} else if msg.Note != "" {
			s.setStatus(msg.Note)
		}
		return s, nil

	case openedMsg:
		if msg.Err != nil {
			s.setError(msg.Err)
			return s, nil
		}
		s.status = ""
		next := assessmentscreen.New(s.engine, s.logger)
		return s, func() tea.Msg { return router.PushScreenMsg{Screen: next} }

	case tea.KeyPressMsg:
		return s.handleKey(msg)
	}
	return s, nil
}

func (s *Screen) handleKey(msg tea.KeyPressMsg) (screen.Screen, tea.Cmd) {
	switch {
	case key.Matches(msg, s.keys.Up):
		if s.cursor > 0 {
			s.cursor--
		}
		return s, nil
	case key.Matches(msg, s.keys.Down):
		if s.cursor < len(s.steps)-1 {
			s.cursor++
		}
		return s, nil
	case key.Matches(msg, s.keys.Refresh):
		s.setStatus("Refreshing…")
		return s, s.refresh("Progress refreshed.")
	}

	v, ok := s.selected()
	if !ok {
		return s, nil
	}
	n := v.Number

	switch {
	case key.Matches(msg, s.keys.Start):
		return s, s.call(func(ctx context.Context) (string, error) {
			return fmt.Sprintf("Tracking step %d.", n), s.engine.StartStep(ctx, n)
		})
	case key.Matches(msg, s.keys.Pause):
		return s, s.call(func(ctx context.Context) (string, error) {
			return "Paused. Whole minutes were saved.", s.engine.PauseStep(ctx)
		})
	case key.Matches(msg, s.keys.Cancel):
		return s, s.call(func(context.Context) (string, error) {
			return "Stopped without saving the unsaved time.", s.engine.CancelTracking()
		})
	case key.Matches(msg, s.keys.Done):
		done := !v.IsDone
		return s, s.call(func(ctx context.Context) (string, error) {
			note := fmt.Sprintf("Step %d marked complete.", n)
			if !done {
				note = fmt.Sprintf("Step %d marked not complete.", n)
			}
			return note, s.engine.SetStepDone(ctx, n, done)
		})
	case key.Matches(msg, s.keys.Assessment):
		if !v.HasAssessment {
			s.setStatus(fmt.Sprintf("Step %d has no assessment.", n))
			return s, nil
		}
		s.setStatus("Loading assessment…")
		return s, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
			defer cancel()
			return openedMsg{Err: s.engine.OpenAssessment(ctx, n)}
		}
	}
	return s, nil
}

func (s *Screen) selected() (progression.StepView, bool) {
	if s.cursor < 0 || s.cursor >= len(s.steps) {
		return progression.StepView{}, false
	}
	return s.steps[s.cursor], true
}

func (s *Screen) setStatus(msg string) {
	s.status = msg
	s.isError = false
}

// setError shows warnings as they are and logs anything else.
func (s *Screen) setError(err error) {
	var w *progression.Warning
	if errors.As(err, &w) {
		s.status = w.Message
		s.isError = false
		return
	}
	s.logger.Error("roadmap action failed", "err", err)
	s.status = err.Error()
	s.isError = true
}

// call runs fn off the update loop and reports through an actionMsg.
func (s *Screen) call(fn func(ctx context.Context) (string, error)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		note, err := fn(ctx)
		return actionMsg{Note: note, Err: err}
	}
}

func (s *Screen) refresh(note string) tea.Cmd {
	return s.call(func(ctx context.Context) (string, error) {
		_, err := s.engine.Refresh(ctx)
		return note, err
	})
}

func (s *Screen) tick() tea.Cmd {
	gen := s.tickGen
	return tea.Tick(tickInterval, func(time.Time) tea.Msg {
		return tickMsg{gen: gen}
	})
}

func formatLive(secs int) string {
	return fmt.Sprintf("%d:%02d:%02d", secs/3600, secs/60%60, secs%60)
}
