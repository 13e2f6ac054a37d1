// Package roadmap defines the learner's career roadmap: an ordered list of
// steps, each optionally gated by an assessment.
package roadmap

import (
	"sync"
	"time"
)

// StepID identifies a step. It is opaque and stable across sessions.
type StepID string

// Step is one unit of a roadmap.
type Step struct {
	ID          StepID
	Number      int // 1-based position in the roadmap
	Title       string
	Description string

	IsDone    bool
	StartedAt *time.Time

	// AccumulatedMinutes only grows, except when progress is reset.
	AccumulatedMinutes int

	HasAssessment bool
}

// Roadmap is a career's ordered step list. It is shared between the
// progression engine, which mutates it, and the UI, which reads snapshots,
// so all access after construction goes through its methods.
type Roadmap struct {
	CareerID    string
	Title       string
	Description string

	mu    sync.RWMutex
	steps []*Step // ordered by Number
}

// New builds a roadmap from steps, which must be ordered by Number.
func New(careerID, title string, steps []Step) *Roadmap {
	r := &Roadmap{CareerID: careerID, Title: title}
	for i := range steps {
		s := steps[i]
		r.steps = append(r.steps, &s)
	}
	return r
}

// Len returns the number of steps.
func (r *Roadmap) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.steps)
}

// Steps returns a copy of every step.
func (r *Roadmap) Steps() []Step {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Step, len(r.steps))
	for i, s := range r.steps {
		out[i] = copyStep(s)
	}
	return out
}

// Step returns a copy of the step with the given number.
func (r *Roadmap) Step(number int) (Step, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s := r.byNumber(number); s != nil {
		return copyStep(s), true
	}
	return Step{}, false
}

// StepByID returns a copy of the step with the given id.
func (r *Roadmap) StepByID(id StepID) (Step, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s := r.byID(id); s != nil {
		return copyStep(s), true
	}
	return Step{}, false
}

// MarkStarted records the first time the step was worked on.
func (r *Roadmap) MarkStarted(id StepID, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.byID(id)
	if s == nil || s.StartedAt != nil {
		return
	}
	t := at
	s.StartedAt = &t
}

// AddMinutes adds flushed minutes to a step's local total.
func (r *Roadmap) AddMinutes(id StepID, minutes int) {
	if minutes <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if s := r.byID(id); s != nil {
		s.AccumulatedMinutes += minutes
	}
}

// SetDone sets a step's done flag.
func (r *Roadmap) SetDone(id StepID, done bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s := r.byID(id); s != nil {
		s.IsDone = done
	}
}

// TotalMinutes sums accumulated minutes across all steps.
func (r *Roadmap) TotalMinutes() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	total := 0
	for _, s := range r.steps {
		total += s.AccumulatedMinutes
	}
	return total
}

// CompletedCount returns the number of steps marked done.
func (r *Roadmap) CompletedCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, s := range r.steps {
		if s.IsDone {
			n++
		}
	}
	return n
}

func (r *Roadmap) byNumber(number int) *Step {
	if number >= 1 && number <= len(r.steps) && r.steps[number-1].Number == number {
		return r.steps[number-1]
	}
	for _, s := range r.steps {
		if s.Number == number {
			return s
		}
	}
	return nil
}

func (r *Roadmap) byID(id StepID) *Step {
	for _, s := range r.steps {
		if s.ID == id {
			return s
		}
	}
	return nil
}

func copyStep(s *Step) Step {
	out := *s
	if s.StartedAt != nil {
		t := *s.StartedAt
		out.StartedAt = &t
	}
	return out
}
