// Package assessment is the screen that runs one timed step assessment.
package assessment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"

	runner "github.com/abhisek/waypoint/internal/assessment"
	"github.com/abhisek/waypoint/internal/progression"
	"github.com/abhisek/waypoint/internal/router"
	"github.com/abhisek/waypoint/internal/screen"
	"github.com/abhisek/waypoint/internal/ui/components"
	"github.com/abhisek/waypoint/internal/ui/layout"
)

const (
	tickInterval = time.Second
	callTimeout  = 30 * time.Second
)

// Screen renders the open attempt of the engine's runner. The runner owns
// all attempt state; the screen keeps only the option cursor.
type Screen struct {
	engine *progression.Engine
	logger *slog.Logger
	keys   keyMap

	cursor     int
	submitting bool
	status     string
	isError    bool
	tickGen    int
}

var (
	_ screen.Screen          = (*Screen)(nil)
	_ screen.KeyHintProvider = (*Screen)(nil)
	_ screen.Leaver          = (*Screen)(nil)
	_ screen.StatusProvider  = (*Screen)(nil)
)

// New creates the screen for an attempt the engine has already opened.
func New(engine *progression.Engine, logger *slog.Logger) *Screen {
	if logger == nil {
		logger = slog.Default()
	}
	return &Screen{engine: engine, logger: logger, keys: newKeyMap(), cursor: -1}
}

func (s *Screen) Init() tea.Cmd {
	return s.tick()
}

func (s *Screen) Title() string {
	snap := s.engine.Runner().Snapshot()
	if snap.Attempt != nil {
		return fmt.Sprintf("Step %d · %s", snap.StepNumber, snap.Attempt.Assessment.Title)
	}
	return fmt.Sprintf("Step %d assessment", snap.StepNumber)
}

// Status shows the countdown in the header.
func (s *Screen) Status() string {
	snap := s.engine.Runner().Snapshot()
	if snap.Phase != runner.PhaseInProgress || snap.Attempt == nil || snap.Attempt.Assessment.TimeLimit() <= 0 {
		return ""
	}
	if snap.Expired {
		return "time is up"
	}
	return "⏱ " + components.FormatClock(snap.Remaining)
}

func (s *Screen) KeyHints() []layout.KeyHint {
	switch s.engine.Runner().Phase() {
	case runner.PhaseInProgress:
		return layout.HintsFor(s.keys.Prev, s.keys.Choose, s.keys.Submit, s.keys.Back)
	case runner.PhaseShowingResult:
		res := s.engine.Runner().Result()
		if res != nil && !res.Passed {
			return layout.HintsFor(s.keys.Retry, s.keys.Back)
		}
		return layout.HintsFor(s.keys.Back)
	}
	return layout.HintsFor(s.keys.Back)
}

// Leave discards the attempt. A submission still in flight is ignored
// when it returns.
func (s *Screen) Leave() tea.Cmd {
	return func() tea.Msg {
		s.engine.CloseAssessment()
		return nil
	}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		return s.handleTick(msg)
	case submittedMsg:
		return s.handleSubmitted(msg)
	case reopenedMsg:
		if msg.Err != nil {
			s.setError(msg.Err)
			return s, nil
		}
		s.cursor = -1
		s.status = ""
		s.tickGen++
		return s, s.tick()
	case tea.KeyPressMsg:
		return s.handleKey(msg)
	}
	return s, nil
}

func (s *Screen) handleTick(msg tickMsg) (screen.Screen, tea.Cmd) {
	if msg.gen != s.tickGen {
		return s, nil
	}
	if s.engine.Runner().Phase() == runner.PhaseShowingResult {
		return s, nil
	}
	if !s.submitting && s.engine.AutoSubmitDue() {
		s.submitting = true
		s.setStatus("Time is up. Submitting your answers…")
		return s, tea.Batch(s.autoSubmit(), s.tick())
	}
	return s, s.tick()
}

func (s *Screen) handleSubmitted(msg submittedMsg) (screen.Screen, tea.Cmd) {
	s.submitting = false
	if msg.Result == nil {
		switch {
		case msg.Err == nil, errors.Is(msg.Err, runner.ErrStale):
		case msg.Auto:
			s.setError(fmt.Errorf("automatic submission failed, press s to submit: %w", msg.Err))
		default:
			s.setError(msg.Err)
		}
		return s, nil
	}

	if msg.Result.Passed {
		s.setStatus(fmt.Sprintf("Passed with %d%%. The next step is unlocked.", msg.Result.Score))
	} else {
		s.setStatus(fmt.Sprintf("Scored %d%%. Review the answers and retry when ready.", msg.Result.Score))
	}
	if msg.Err != nil {
		// Graded, but saving time or refreshing progress failed.
		s.logger.Warn("post-submit update failed", "err", msg.Err)
		s.status += " (progress will update on refresh)"
	}
	return s, nil
}

func (s *Screen) handleKey(msg tea.KeyPressMsg) (screen.Screen, tea.Cmd) {
	r := s.engine.Runner()
	switch r.Phase() {
	case runner.PhaseShowingResult:
		switch {
		case key.Matches(msg, s.keys.Retry):
			if res := r.Result(); res != nil && !res.Passed {
				s.setStatus("Loading a fresh attempt…")
				return s, s.retry()
			}
		case key.Matches(msg, s.keys.Choose):
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
		return s, nil

	case runner.PhaseInProgress:
	default:
		return s, nil
	}

	snap := r.Snapshot()
	if snap.Attempt == nil {
		return s, nil
	}
	q := snap.Attempt.CurrentQuestion()

	switch {
	case key.Matches(msg, s.keys.Prev):
		if r.Previous() {
			s.cursor = -1
		}
	case key.Matches(msg, s.keys.Next):
		if r.Next() {
			s.cursor = -1
		} else if r.Snapshot().NeedsAnswer {
			s.setStatus("Answer this question to move on.")
		}
	case key.Matches(msg, s.keys.Up):
		s.moveCursor(snap, -1)
	case key.Matches(msg, s.keys.Down):
		s.moveCursor(snap, 1)
	case key.Matches(msg, s.keys.Pick):
		idx := int(msg.String()[0] - '1')
		if idx < len(q.Options) {
			return s, s.answer(idx)
		}
	case key.Matches(msg, s.keys.Choose):
		if c := s.effectiveCursor(snap); c >= 0 {
			return s, s.answer(c)
		}
	case key.Matches(msg, s.keys.Submit):
		if s.submitting {
			s.setStatus("Submission already in progress.")
			return s, nil
		}
		s.submitting = true
		s.setStatus("Submitting…")
		return s, s.submit()
	}
	return s, nil
}

// answer records the option and moves to the next question, if any.
func (s *Screen) answer(idx int) tea.Cmd {
	r := s.engine.Runner()
	if err := r.AnswerCurrent(idx); err != nil {
		s.setError(err)
		return nil
	}
	s.status = ""
	if r.Next() {
		s.cursor = -1
	} else {
		s.cursor = idx
		if r.Snapshot().Attempt.Complete() {
			s.setStatus("All questions answered. Press s to submit.")
		}
	}
	return nil
}

func (s *Screen) moveCursor(snap runner.Snapshot, delta int) {
	n := len(snap.Attempt.CurrentQuestion().Options)
	c := s.effectiveCursor(snap)
	if c < 0 {
		c = 0
	} else {
		c += delta
	}
	s.cursor = max(0, min(n-1, c))
}

// effectiveCursor starts on the recorded answer of a revisited question.
func (s *Screen) effectiveCursor(snap runner.Snapshot) int {
	if s.cursor >= 0 {
		return s.cursor
	}
	if idx, ok := snap.Attempt.Answers[snap.Attempt.CurrentQuestion().ID]; ok {
		return idx
	}
	return -1
}

func (s *Screen) setStatus(msg string) {
	s.status = msg
	s.isError = false
}

func (s *Screen) setError(err error) {
	var w *progression.Warning
	if errors.As(err, &w) {
		s.status = w.Message
		s.isError = false
		return
	}
	s.logger.Error("assessment action failed", "err", err)
	s.status = err.Error()
	s.isError = true
}

func (s *Screen) tick() tea.Cmd {
	gen := s.tickGen
	return tea.Tick(tickInterval, func(time.Time) tea.Msg {
		return tickMsg{gen: gen}
	})
}

func (s *Screen) submit() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		res, err := s.engine.SubmitAssessment(ctx)
		return submittedMsg{Result: res, Err: err}
	}
}

func (s *Screen) autoSubmit() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		res, _, err := s.engine.Tick(ctx)
		return submittedMsg{Result: res, Auto: true, Err: err}
	}
}

func (s *Screen) retry() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		return reopenedMsg{Err: s.engine.RetryAssessment(ctx)}
	}
}
