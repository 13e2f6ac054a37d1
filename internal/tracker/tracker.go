// Package tracker measures time spent on a roadmap step. At most one step
// is tracked at a time; unsaved seconds are flushed to the Persistence
// Gateway in whole minutes on pause, on switching steps, and on stop.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/abhisek/waypoint/internal/clock"
	"github.com/abhisek/waypoint/internal/gateway"
	"github.com/abhisek/waypoint/internal/roadmap"
)

// State is the tracker's session state.
type State int

const (
	StateIdle    State = iota // no active step
	StateRunning              // clock running for the active step
	StatePaused               // active step kept, clock stopped
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	}
	return "idle"
}

var (
	// ErrBusy is returned when a call arrives while an earlier flush is
	// still outstanding. Callers should drop the request.
	ErrBusy = errors.New("tracker busy: flush in progress")

	// ErrNotRunning is returned by Pause when no step is running.
	ErrNotRunning = errors.New("no running session")
)

// FlushError reports a flush the gateway did not accept. The minutes were
// still added to the local step total.
type FlushError struct {
	StepID  roadmap.StepID
	Minutes int
	Err     error
}

func (e *FlushError) Error() string {
	return fmt.Sprintf("flush %d min for step %s: %v", e.Minutes, e.StepID, e.Err)
}

func (e *FlushError) Unwrap() error { return e.Err }

// Ledger receives the local side effects of tracking.
type Ledger interface {
	MarkStarted(id roadmap.StepID, at time.Time)
	AddMinutes(id roadmap.StepID, minutes int)
}

// Session is a point-in-time copy of the tracking session.
type Session struct {
	ActiveStepID roadmap.StepID
	// SessionStart is set only while running.
	SessionStart time.Time
	// PausedAccumulatedSeconds are counted but not yet flushed.
	PausedAccumulatedSeconds int
	Paused                   bool
}

// State derives the tracker state from the session.
func (s Session) State() State {
	switch {
	case s.ActiveStepID == "":
		return StateIdle
	case s.Paused:
		return StatePaused
	}
	return StateRunning
}

// Tracker owns the single tracking session.
type Tracker struct {
	clock  clock.Clock
	gw     gateway.Persistence
	ledger Ledger
	logger *slog.Logger

	mu            sync.Mutex
	active        roadmap.StepID
	sessionStart  time.Time
	pausedSeconds int
	paused        bool
	busy          bool
}

// New creates an idle Tracker.
func New(clk clock.Clock, gw gateway.Persistence, ledger Ledger, logger *slog.Logger) *Tracker {
	if clk == nil {
		clk = clock.Real{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		clock:  clk,
		gw:     gw,
		ledger: ledger,
		logger: logger.With("component", "tracker"),
	}
}

// Session returns a copy of the current session.
func (t *Tracker) Session() Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sessionLocked()
}

// State returns the current state.
func (t *Tracker) State() State {
	return t.Session().State()
}

// ActiveStepID returns the tracked step, or "" when idle.
func (t *Tracker) ActiveStepID() roadmap.StepID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// Busy reports whether a flush is outstanding.
func (t *Tracker) Busy() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.busy
}

// LiveElapsedSeconds returns the unsaved seconds of the active session. It
// only reads stored instants and is safe to call on every display tick.
func (t *Tracker) LiveElapsedSeconds() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.unsavedLocked(t.clock.Now())
}

// Start begins or resumes tracking a step. A running session on another
// step is flushed first. Starting the step that is already running is a
// no-op; starting a paused step resumes it with its unsaved seconds.
func (t *Tracker) Start(ctx context.Context, id roadmap.StepID) error {
	t.mu.Lock()
	if t.busy {
		t.mu.Unlock()
		return ErrBusy
	}

	if t.active == id {
		if !t.paused {
			t.mu.Unlock()
			return nil
		}
		t.sessionStart = t.clock.Now()
		t.paused = false
		t.mu.Unlock()
		t.logger.Debug("resumed", "step", id)
		return nil
	}

	prev := t.active
	var flushMinutes int
	if prev != "" && !t.paused {
		total := t.unsavedLocked(t.clock.Now())
		flushMinutes = total / 60
		t.pausedSeconds = total % 60
		t.paused = true
		t.sessionStart = time.Time{}
	}
	t.busy = true
	t.mu.Unlock()

	flushErr := t.flush(ctx, prev, flushMinutes)

	// StartStep is idempotent on the server; a failure must not keep the
	// learner from working.
	if err := t.gw.StartStep(ctx, id); err != nil {
		t.logger.Warn("start step not recorded", "step", id, "err", err)
	}

	now := t.clock.Now()
	t.mu.Lock()
	t.active = id
	t.sessionStart = now
	t.pausedSeconds = 0
	t.paused = false
	t.busy = false
	t.mu.Unlock()

	if t.ledger != nil {
		t.ledger.MarkStarted(id, now)
	}
	t.logger.Debug("started", "step", id, "flushed_prev", prev, "minutes", flushMinutes)
	return flushErr
}

// Pause stops the clock and flushes whole unsaved minutes. The sub-minute
// remainder is kept for the next resume.
func (t *Tracker) Pause(ctx context.Context) error {
	t.mu.Lock()
	if t.busy {
		t.mu.Unlock()
		return ErrBusy
	}
	if t.active == "" || t.paused {
		t.mu.Unlock()
		return ErrNotRunning
	}

	id := t.active
	total := t.unsavedLocked(t.clock.Now())
	minutes := total / 60
	t.paused = true
	t.sessionStart = time.Time{}
	t.pausedSeconds = total
	t.busy = true
	t.mu.Unlock()

	err := t.flush(ctx, id, minutes)

	t.mu.Lock()
	t.pausedSeconds = total % 60
	t.busy = false
	t.mu.Unlock()

	t.logger.Debug("paused", "step", id, "minutes", minutes, "remainder_s", total%60)
	return err
}

// FlushAndStop flushes whole unsaved minutes, discards the sub-minute
// remainder and returns to idle. It is a no-op when idle.
func (t *Tracker) FlushAndStop(ctx context.Context) error {
	t.mu.Lock()
	if t.busy {
		t.mu.Unlock()
		return ErrBusy
	}
	if t.active == "" {
		t.mu.Unlock()
		return nil
	}

	id := t.active
	minutes := t.unsavedLocked(t.clock.Now()) / 60
	t.resetLocked()
	t.busy = true
	t.mu.Unlock()

	err := t.flush(ctx, id, minutes)

	t.mu.Lock()
	t.busy = false
	t.mu.Unlock()

	t.logger.Debug("stopped", "step", id, "minutes", minutes)
	return err
}

// Cancel discards unsaved seconds without flushing and returns to idle.
func (t *Tracker) Cancel() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.busy {
		return ErrBusy
	}
	if t.active != "" {
		t.logger.Debug("cancelled", "step", t.active, "discarded_s", t.unsavedLocked(t.clock.Now()))
	}
	t.resetLocked()
	return nil
}

// flush sends minutes to the gateway and applies them locally whether or
// not the gateway accepted them.
func (t *Tracker) flush(ctx context.Context, id roadmap.StepID, minutes int) error {
	if id == "" || minutes < 1 {
		return nil
	}
	err := t.gw.RecordElapsed(ctx, id, minutes)
	if t.ledger != nil {
		t.ledger.AddMinutes(id, minutes)
	}
	if err != nil {
		t.logger.Warn("flush failed; minutes kept locally only", "step", id, "minutes", minutes, "err", err)
		return &FlushError{StepID: id, Minutes: minutes, Err: err}
	}
	return nil
}

func (t *Tracker) unsavedLocked(now time.Time) int {
	if t.active == "" {
		return 0
	}
	total := t.pausedSeconds
	if !t.paused {
		total += clock.Seconds(t.sessionStart, now)
	}
	return total
}

func (t *Tracker) resetLocked() {
	t.active = ""
	t.sessionStart = time.Time{}
	t.pausedSeconds = 0
	t.paused = false
}

func (t *Tracker) sessionLocked() Session {
	return Session{
		ActiveStepID:             t.active,
		SessionStart:             t.sessionStart,
		PausedAccumulatedSeconds: t.pausedSeconds,
		Paused:                   t.paused,
	}
}
