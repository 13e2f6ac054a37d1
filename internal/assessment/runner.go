// Package assessment runs one timed assessment attempt at a time:
// loading, question navigation, submission and auto-submit on timeout.
package assessment

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

// Phase is the runner's state.
type Phase int

const (
	PhaseClosed Phase = iota
	PhaseLoading
	PhaseInProgress
	PhaseSubmitting
	PhaseShowingResult
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseInProgress:
		return "in progress"
	case PhaseSubmitting:
		return "submitting"
	case PhaseShowingResult:
		return "showing result"
	}
	return "closed"
}

var (
	// ErrIncompleteAnswers is returned by a manual submit before every
	// question has an answer and before the time limit has run out.
	ErrIncompleteAnswers = errors.New("answer all questions before submitting")

	// ErrSubmitInFlight is returned when a submission is already pending.
	ErrSubmitInFlight = errors.New("submission already in progress")

	// ErrNotInProgress is returned by attempt operations outside InProgress.
	ErrNotInProgress = errors.New("no assessment in progress")

	// ErrStale is returned to the caller whose response arrived after the
	// attempt was closed or replaced. The response was discarded.
	ErrStale = errors.New("assessment was closed")

	// ErrUnknownQuestion is returned when answering a question that is not
	// part of the attempt, or with an option out of range.
	ErrUnknownQuestion = errors.New("unknown question or option")
)

// Attempt is one pass through an assessment's question set.
type Attempt struct {
	StepNumber int
	StepID     roadmap.StepID
	Assessment gateway.Assessment
	// Answers maps question id to the chosen option index.
	Answers   map[string]int
	Current   int
	StartedAt time.Time
}

// Answered reports whether the question has an answer.
func (a *Attempt) Answered(questionID string) bool {
	_, ok := a.Answers[questionID]
	return ok
}

// Complete reports whether every question has an answer.
func (a *Attempt) Complete() bool {
	return len(a.Answers) == len(a.Assessment.Questions)
}

// CurrentQuestion returns the question under the cursor.
func (a *Attempt) CurrentQuestion() gateway.Question {
	return a.Assessment.Questions[a.Current]
}

func (a *Attempt) clone() *Attempt {
	cp := *a
	cp.Answers = make(map[string]int, len(a.Answers))
	for k, v := range a.Answers {
		cp.Answers[k] = v
	}
	return &cp
}

// answerList orders answers by question position.
func (a *Attempt) answerList() []gateway.Answer {
	out := make([]gateway.Answer, 0, len(a.Answers))
	for _, q := range a.Assessment.Questions {
		if idx, ok := a.Answers[q.ID]; ok {
			out = append(out, gateway.Answer{QuestionID: q.ID, OptionIndex: idx})
		}
	}
	return out
}

// Snapshot is a read-only copy of the runner for rendering.
type Snapshot struct {
	Phase       Phase
	StepNumber  int
	StepID      roadmap.StepID
	Attempt     *Attempt
	Result      *gateway.Result
	NeedsAnswer bool
	Remaining   time.Duration
	// Expired is true once the time limit has run out for the attempt.
	Expired bool
}

// Runner owns the single active attempt. Gateway calls are made without
// holding the lock; a generation counter discards responses that arrive
// after Close or a newer Open.
type Runner struct {
	clock  clock.Clock
	gw     gateway.Assessments
	logger *slog.Logger

	mu            sync.Mutex
	phase         Phase
	generation    uint64
	stepNumber    int
	stepID        roadmap.StepID
	attempt       *Attempt
	result        *gateway.Result
	needsAnswer   bool
	autoSubmitted bool
}

// NewRunner creates a closed Runner.
func NewRunner(clk clock.Clock, gw gateway.Assessments, logger *slog.Logger) *Runner {
	if clk == nil {
		clk = clock.Real{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{clock: clk, gw: gw, logger: logger.With("component", "assessment")}
}

// Snapshot returns a copy of the runner state.
func (r *Runner) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Snapshot{
		Phase:       r.phase,
		StepNumber:  r.stepNumber,
		StepID:      r.stepID,
		Result:      r.result,
		NeedsAnswer: r.needsAnswer,
	}
	if r.attempt != nil {
		s.Attempt = r.attempt.clone()
		s.Remaining, s.Expired = r.remainingLocked(r.clock.Now())
	}
	return s
}

// Phase returns the current phase.
func (r *Runner) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// StepNumber returns the step of the open or last opened assessment.
func (r *Runner) StepNumber() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stepNumber
}

// Result returns the graded result while showing it.
func (r *Runner) Result() *gateway.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase != PhaseShowingResult {
		return nil
	}
	return r.result
}

// Open loads the step's assessment and starts a fresh attempt. Any
// previous attempt is discarded. The caller checks the lock beforehand;
// a gateway ErrLocked is returned unchanged so it can be reported apart
// from other load failures.
func (r *Runner) Open(ctx context.Context, stepNumber int, stepID roadmap.StepID) error {
	r.mu.Lock()
	r.generation++
	gen := r.generation
	r.phase = PhaseLoading
	r.stepNumber = stepNumber
	r.stepID = stepID
	r.attempt = nil
	r.result = nil
	r.needsAnswer = false
	r.autoSubmitted = false
	r.mu.Unlock()

	a, err := r.gw.LoadAssessment(ctx, stepID)

	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.generation {
		return ErrStale
	}
	if err != nil {
		r.phase = PhaseClosed
		r.logger.Warn("load failed", "step", stepNumber, "err", err)
		return fmt.Errorf("load assessment for step %d: %w", stepNumber, err)
	}
	if len(a.Questions) == 0 {
		r.phase = PhaseClosed
		return fmt.Errorf("load assessment for step %d: %w", stepNumber, gateway.ErrNotFound)
	}

	r.attempt = &Attempt{
		StepNumber: stepNumber,
		StepID:     stepID,
		Assessment: *a,
		Answers:    make(map[string]int, len(a.Questions)),
		StartedAt:  r.clock.Now(),
	}
	r.phase = PhaseInProgress
	r.logger.Debug("attempt started", "step", stepNumber, "questions", len(a.Questions), "limit_min", a.TimeLimitMinutes)
	return nil
}

// Answer records the option for a question, replacing an earlier answer.
func (r *Runner) Answer(questionID string, optionIndex int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase != PhaseInProgress {
		return ErrNotInProgress
	}
	i := r.attempt.Assessment.QuestionIndex(questionID)
	if i < 0 || optionIndex < 0 || optionIndex >= len(r.attempt.Assessment.Questions[i].Options) {
		return ErrUnknownQuestion
	}
	r.attempt.Answers[questionID] = optionIndex
	r.needsAnswer = false
	return nil
}

// AnswerCurrent answers the question under the cursor.
func (r *Runner) AnswerCurrent(optionIndex int) error {
	r.mu.Lock()
	if r.phase != PhaseInProgress {
		r.mu.Unlock()
		return ErrNotInProgress
	}
	id := r.attempt.CurrentQuestion().ID
	r.mu.Unlock()
	return r.Answer(id, optionIndex)
}

// Next advances to the next question. It refuses to move past an
// unanswered question and raises the needs-answer flag instead. On the
// last question it does not move.
func (r *Runner) Next() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase != PhaseInProgress {
		return false
	}
	if !r.attempt.Answered(r.attempt.CurrentQuestion().ID) {
		r.needsAnswer = true
		return false
	}
	if r.attempt.Current >= len(r.attempt.Assessment.Questions)-1 {
		return false
	}
	r.attempt.Current++
	return true
}

// Previous moves back one question.
func (r *Runner) Previous() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase != PhaseInProgress || r.attempt.Current == 0 {
		return false
	}
	r.attempt.Current--
	r.needsAnswer = false
	return true
}

// Remaining returns the time left on the attempt. It is zero when no
// attempt is open or the assessment has no time limit.
func (r *Runner) Remaining() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.attempt == nil {
		return 0
	}
	d, _ := r.remainingLocked(r.clock.Now())
	return d
}

// Submit sends the answers for grading. Before the time limit runs out
// every question must be answered.
func (r *Runner) Submit(ctx context.Context) (*gateway.Result, error) {
	return r.submit(ctx, false)
}

// AutoSubmitDue reports whether Tick would submit now. It has no side
// effects.
func (r *Runner) AutoSubmitDue() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.autoSubmitDueLocked()
}

// Tick evaluates the countdown and auto-submits once when it has run out,
// whatever the number of answers. It reports whether it submitted. Calls
// with no open attempt are no-ops.
func (r *Runner) Tick(ctx context.Context) (*gateway.Result, bool, error) {
	r.mu.Lock()
	if !r.autoSubmitDueLocked() {
		r.mu.Unlock()
		return nil, false, nil
	}
	r.autoSubmitted = true
	r.mu.Unlock()

	r.logger.Info("time limit reached; submitting", "step", r.StepNumber())
	res, err := r.submit(ctx, true)
	return res, true, err
}

// Retry discards the current attempt and opens a fresh one for the same
// step.
func (r *Runner) Retry(ctx context.Context) error {
	r.mu.Lock()
	n, id := r.stepNumber, r.stepID
	r.mu.Unlock()
	if id == "" {
		return ErrNotInProgress
	}
	r.Close()
	return r.Open(ctx, n, id)
}

// Close discards the attempt from any phase. A pending response is
// ignored when it arrives.
func (r *Runner) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generation++
	r.phase = PhaseClosed
	r.attempt = nil
	r.result = nil
	r.needsAnswer = false
	r.autoSubmitted = false
}

func (r *Runner) submit(ctx context.Context, auto bool) (*gateway.Result, error) {
	r.mu.Lock()
	switch r.phase {
	case PhaseSubmitting:
		r.mu.Unlock()
		return nil, ErrSubmitInFlight
	case PhaseInProgress:
	default:
		r.mu.Unlock()
		return nil, ErrNotInProgress
	}

	now := r.clock.Now()
	if !auto && !r.attempt.Complete() {
		if _, expired := r.remainingLocked(now); !expired {
			r.needsAnswer = true
			r.mu.Unlock()
			return nil, ErrIncompleteAnswers
		}
	}

	gen := r.generation
	stepID := r.attempt.StepID
	stepNumber := r.attempt.StepNumber
	answers := r.attempt.answerList()
	elapsed := clock.Seconds(r.attempt.StartedAt, now)
	r.phase = PhaseSubmitting
	r.needsAnswer = false
	r.mu.Unlock()

	res, err := r.gw.SubmitAssessment(ctx, stepID, answers, elapsed)

	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.generation {
		r.logger.Debug("discarding late submission response", "step", stepNumber)
		return nil, ErrStale
	}
	if err != nil {
		r.phase = PhaseInProgress
		r.logger.Warn("submit failed", "step", stepNumber, "auto", auto, "err", err)
		return nil, fmt.Errorf("submit assessment for step %d: %w", stepNumber, err)
	}
	r.phase = PhaseShowingResult
	r.result = res
	r.logger.Info("graded", "step", stepNumber, "score", res.Score, "passed", res.Passed, "auto", auto, "elapsed_s", elapsed)
	return res, nil
}

func (r *Runner) autoSubmitDueLocked() bool {
	if r.phase != PhaseInProgress || r.autoSubmitted {
		return false
	}
	_, expired := r.remainingLocked(r.clock.Now())
	return expired
}

// remainingLocked returns the time left and whether the limit has run out.
// Assessments without a limit never expire.
func (r *Runner) remainingLocked(now time.Time) (time.Duration, bool) {
	limit := r.attempt.Assessment.TimeLimit()
	if limit <= 0 {
		return 0, false
	}
	left := limit - now.Sub(r.attempt.StartedAt)
	if left <= 0 {
		return 0, true
	}
	return left, false
}
