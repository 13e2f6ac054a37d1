// Package gate derives step lock and completion from the per-step status
// reported by the Assessment Gateway.
package gate

import (
	"sort"

	"github.com/abhisek/waypoint/internal/gateway"
	"github.com/abhisek/waypoint/internal/roadmap"
)

// DoneReason is shown when completion is refused locally.
const DoneReason = "Pass the step assessment before marking it complete."

// Gate is an immutable read model. The zero value locks nothing and
// reports nothing passed.
type Gate struct {
	statuses map[int]gateway.StepStatus
	count    int
}

// New builds a Gate from a progress report. Entries may arrive in any
// order; duplicates keep the last one.
func New(statuses []gateway.StepStatus) *Gate {
	g := &Gate{statuses: make(map[int]gateway.StepStatus, len(statuses))}
	for _, s := range statuses {
		g.statuses[s.StepNumber] = s
		if s.StepNumber > g.count {
			g.count = s.StepNumber
		}
	}
	return g
}

// IsLocked reports whether the step is locked, either because the server
// says so or because the previous step's assessment is not passed.
// Step 1 is only ever locked by the server.
func (g *Gate) IsLocked(stepNumber int) bool {
	if g == nil {
		return false
	}
	if s, ok := g.statuses[stepNumber]; ok && s.IsLocked {
		return true
	}
	if stepNumber <= 1 {
		return false
	}
	return !g.AssessmentPassed(stepNumber - 1)
}

// IsCompleted reports the server-side completion flag.
func (g *Gate) IsCompleted(stepNumber int) bool {
	if g == nil {
		return false
	}
	return g.statuses[stepNumber].IsCompleted
}

// AssessmentPassed reports whether the step's assessment is passed.
func (g *Gate) AssessmentPassed(stepNumber int) bool {
	if g == nil {
		return false
	}
	return g.statuses[stepNumber].AssessmentPassed
}

// CanMarkDone reports whether step may be toggled to done.
func (g *Gate) CanMarkDone(step roadmap.Step) bool {
	return step.IsDone || g.AssessmentPassed(step.Number)
}

// Statuses returns the statuses ordered by step number with the derived
// lock rule applied.
func (g *Gate) Statuses() []gateway.StepStatus {
	if g == nil {
		return nil
	}
	out := make([]gateway.StepStatus, 0, len(g.statuses))
	for n, s := range g.statuses {
		s.StepNumber = n
		s.IsLocked = g.IsLocked(n)
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StepNumber < out[j].StepNumber })
	return out
}

// Len returns the highest step number reported.
func (g *Gate) Len() int {
	if g == nil {
		return 0
	}
	return g.count
}
