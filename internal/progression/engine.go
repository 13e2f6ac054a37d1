// Package progression composes the time tracker, the assessment runner and
// the progression gate for one roadmap. It is the only place where their
// effects are sequenced: a pass flushes and stops tracking before the gate
// is refreshed, and every done toggle or submission is followed by a
// refresh from the server.
package progression

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/abhisek/waypoint/internal/assessment"
	"github.com/abhisek/waypoint/internal/clock"
	"github.com/abhisek/waypoint/internal/gate"
	"github.com/abhisek/waypoint/internal/gateway"
	"github.com/abhisek/waypoint/internal/roadmap"
	"github.com/abhisek/waypoint/internal/tracker"
)

// ErrUnknownStep is returned for a step number outside the roadmap.
var ErrUnknownStep = errors.New("unknown step")

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock used by the tracker and the runner.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// StepView is one roadmap row as the UI shows it.
type StepView struct {
	roadmap.Step
	Locked           bool
	AssessmentPassed bool
	Tracking         bool
	Paused           bool
	// LiveSeconds are the unsaved seconds when this step is tracked.
	LiveSeconds int
}

// Engine drives step progression for a single roadmap.
type Engine struct {
	roadmap *roadmap.Roadmap
	persist gateway.Persistence
	assess  gateway.Assessments
	clock   clock.Clock
	logger  *slog.Logger

	tracker *tracker.Tracker
	runner  *assessment.Runner

	refreshes singleflight.Group

	mu   sync.RWMutex
	gate *gate.Gate
}

// New creates an Engine. Call Refresh before relying on lock state; until
// then every step after the first is treated as locked.
func New(rm *roadmap.Roadmap, persist gateway.Persistence, assess gateway.Assessments, opts ...Option) *Engine {
	e := &Engine{
		roadmap: rm,
		persist: persist,
		assess:  assess,
		clock:   clock.Real{},
		logger:  slog.Default(),
		gate:    gate.New(nil),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "progression", "career", rm.CareerID)
	e.tracker = tracker.New(e.clock, persist, rm, e.logger)
	e.runner = assessment.NewRunner(e.clock, assess, e.logger)
	return e
}

// Roadmap returns the roadmap the engine drives.
func (e *Engine) Roadmap() *roadmap.Roadmap { return e.roadmap }

// Tracker returns the time tracker.
func (e *Engine) Tracker() *tracker.Tracker { return e.tracker }

// Runner returns the assessment runner.
func (e *Engine) Runner() *assessment.Runner { return e.runner }

// Gate returns the last fetched gate.
func (e *Engine) Gate() *gate.Gate {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.gate
}

// Refresh fetches gate status from the server and syncs step completion.
// Concurrent calls share one request.
func (e *Engine) Refresh(ctx context.Context) (*gate.Gate, error) {
	v, err, _ := e.refreshes.Do(e.roadmap.CareerID, func() (any, error) {
		statuses, err := e.assess.GetProgress(ctx, e.roadmap.CareerID)
		if err != nil {
			return nil, fmt.Errorf("refresh progress: %w", err)
		}
		g := gate.New(statuses)
		for _, s := range e.roadmap.Steps() {
			e.roadmap.SetDone(s.ID, g.IsCompleted(s.Number))
		}
		e.mu.Lock()
		e.gate = g
		e.mu.Unlock()
		return g, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*gate.Gate), nil
}

// Overview returns every step with its gate and tracking state.
func (e *Engine) Overview() []StepView {
	g := e.Gate()
	sess := e.tracker.Session()
	live := e.tracker.LiveElapsedSeconds()

	steps := e.roadmap.Steps()
	out := make([]StepView, len(steps))
	for i, s := range steps {
		v := StepView{
			Step:             s,
			Locked:           g.IsLocked(s.Number),
			AssessmentPassed: g.AssessmentPassed(s.Number),
		}
		if sess.ActiveStepID == s.ID {
			v.Tracking = true
			v.Paused = sess.Paused
			v.LiveSeconds = live
		}
		out[i] = v
	}
	return out
}

// StartStep starts or resumes tracking a step. A locked step yields a
// Warning and leaves tracking unchanged.
func (e *Engine) StartStep(ctx context.Context, stepNumber int) error {
	step, err := e.step(stepNumber)
	if err != nil {
		return err
	}
	if e.Gate().IsLocked(stepNumber) {
		return warn(gateway.ErrLocked, lockedMessage(stepNumber))
	}
	err = e.tracker.Start(ctx, step.ID)
	if errors.Is(err, tracker.ErrBusy) {
		return warn(err, "Still saving time, try again in a moment.")
	}
	return err
}

// PauseStep pauses the tracked step, flushing whole minutes.
func (e *Engine) PauseStep(ctx context.Context) error {
	err := e.tracker.Pause(ctx)
	switch {
	case errors.Is(err, tracker.ErrNotRunning):
		return warn(err, "No step is being tracked.")
	case errors.Is(err, tracker.ErrBusy):
		return warn(err, "Still saving time, try again in a moment.")
	}
	return err
}

// CancelTracking drops the unsaved time of the tracked step.
func (e *Engine) CancelTracking() error {
	if err := e.tracker.Cancel(); err != nil {
		return warn(err, "Still saving time, try again in a moment.")
	}
	return nil
}

// SetStepDone toggles step completion. Marking a step done that the gate
// does not allow, or that is still locked, is refused locally without
// calling the server; a server rejection is returned as a Warning carrying
// its reason verbatim.
func (e *Engine) SetStepDone(ctx context.Context, stepNumber int, done bool) error {
	step, err := e.step(stepNumber)
	if err != nil {
		return err
	}
	if done && e.Gate().IsLocked(stepNumber) {
		return warn(gateway.ErrLocked, lockedMessage(stepNumber))
	}
	if done && !e.Gate().CanMarkDone(step) {
		return warn(gateway.ErrAssessmentRequired, gate.DoneReason)
	}

	res, err := e.persist.SetStepDone(ctx, step.ID, done)
	if err != nil {
		var rejected *gateway.RejectedError
		if errors.As(err, &rejected) {
			return warn(err, rejected.Reason)
		}
		if gateway.IsLockCondition(err) {
			return warn(err, lockedMessage(stepNumber))
		}
		return fmt.Errorf("set step %d done=%t: %w", stepNumber, done, err)
	}
	if !res.Success {
		reason := res.RejectedReason
		if reason == "" {
			reason = gate.DoneReason
		}
		return warn(&gateway.RejectedError{Reason: reason}, reason)
	}

	e.roadmap.SetDone(step.ID, done)
	_, err = e.Refresh(ctx)
	return err
}

// OpenAssessment starts a fresh attempt for a step.
func (e *Engine) OpenAssessment(ctx context.Context, stepNumber int) error {
	step, err := e.step(stepNumber)
	if err != nil {
		return err
	}
	if e.Gate().IsLocked(stepNumber) {
		return warn(gateway.ErrLocked, lockedMessage(stepNumber))
	}
	return e.assessmentErr(stepNumber, e.runner.Open(ctx, stepNumber, step.ID))
}

// RetryAssessment discards the attempt and opens a fresh one for the same
// step.
func (e *Engine) RetryAssessment(ctx context.Context) error {
	return e.assessmentErr(e.runner.StepNumber(), e.runner.Retry(ctx))
}

// CloseAssessment discards the attempt.
func (e *Engine) CloseAssessment() {
	e.runner.Close()
}

// SubmitAssessment submits the open attempt and applies its outcome.
func (e *Engine) SubmitAssessment(ctx context.Context) (*gateway.Result, error) {
	snap := e.runner.Snapshot()
	res, err := e.runner.Submit(ctx)
	if err != nil {
		return nil, e.assessmentErr(snap.StepNumber, err)
	}
	return res, e.afterSubmit(ctx, snap.StepID, res)
}

// AutoSubmitDue reports whether Tick would submit now.
func (e *Engine) AutoSubmitDue() bool {
	return e.runner.AutoSubmitDue()
}

// Tick evaluates the assessment countdown and applies the outcome of an
// automatic submission. It reports whether a submission happened.
func (e *Engine) Tick(ctx context.Context) (*gateway.Result, bool, error) {
	snap := e.runner.Snapshot()
	res, fired, err := e.runner.Tick(ctx)
	if !fired {
		return nil, false, nil
	}
	if err != nil {
		return nil, true, e.assessmentErr(snap.StepNumber, err)
	}
	return res, true, e.afterSubmit(ctx, snap.StepID, res)
}

// Shutdown pauses tracking so whole minutes are saved, and closes any
// attempt.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.runner.Close()
	if e.tracker.State() != tracker.StateRunning {
		return nil
	}
	return e.tracker.Pause(ctx)
}

// afterSubmit flushes and stops tracking of the assessed step on a pass,
// then refreshes the gate.
func (e *Engine) afterSubmit(ctx context.Context, stepID roadmap.StepID, res *gateway.Result) error {
	var flushErr error
	if res.Passed {
		flushErr = e.stopTracking(ctx, stepID)
	}
	if res.StepMarkedComplete {
		e.roadmap.SetDone(stepID, true)
	}
	if _, err := e.Refresh(ctx); err != nil {
		return err
	}
	return flushErr
}

// busyRetryInterval paces stopTracking while a flush is outstanding.
const busyRetryInterval = 20 * time.Millisecond

// stopTracking flushes and stops tracking of stepID, waiting out a flush
// already in progress. Tracking of any other step is left alone.
func (e *Engine) stopTracking(ctx context.Context, stepID roadmap.StepID) error {
	for {
		if e.tracker.ActiveStepID() != stepID {
			return nil
		}
		err := e.tracker.FlushAndStop(ctx)
		if !errors.Is(err, tracker.ErrBusy) {
			return err
		}
		select {
		case <-ctx.Done():
			return warn(err, "Still saving time, the step is still being tracked.")
		case <-time.After(busyRetryInterval):
		}
	}
}

func (e *Engine) assessmentErr(stepNumber int, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gateway.ErrLocked):
		return warn(err, lockedMessage(stepNumber))
	case errors.Is(err, assessment.ErrIncompleteAnswers):
		return warn(err, "Answer every question before submitting.")
	case errors.Is(err, assessment.ErrSubmitInFlight):
		return warn(err, "Submission already in progress.")
	case errors.Is(err, gateway.ErrNotFound):
		return warn(err, "The assessment is not ready yet. Try again shortly.")
	}
	return err
}

func (e *Engine) step(n int) (roadmap.Step, error) {
	s, ok := e.roadmap.Step(n)
	if !ok {
		return roadmap.Step{}, fmt.Errorf("step %d: %w", n, ErrUnknownStep)
	}
	return s, nil
}

func lockedMessage(stepNumber int) string {
	if stepNumber <= 1 {
		return fmt.Sprintf("Step %d is locked.", stepNumber)
	}
	return fmt.Sprintf("Step %d is locked. Pass the step %d assessment first.", stepNumber, stepNumber-1)
}
