// Package gateway defines the remote collaborators of the progression
// engine: the Persistence Gateway that stores step time and completion, and
// the Assessment Gateway that serves, grades and reports step assessments.
package gateway

import (
	"context"
	"time"

	"github.com/abhisek/waypoint/internal/roadmap"
)

// Persistence stores per-step tracking state. All operations are
// idempotent from the caller's point of view.
type Persistence interface {
	// StartStep records that work on a step began. Calling it on an
	// already-started step is a no-op.
	StartStep(ctx context.Context, stepID roadmap.StepID) error

	// RecordElapsed adds minutes (always >= 1) to the step's total.
	RecordElapsed(ctx context.Context, stepID roadmap.StepID, minutes int) error

	// SetStepDone toggles completion. The server may reject marking a step
	// done, reporting the reason in DoneResult.
	SetStepDone(ctx context.Context, stepID roadmap.StepID, done bool) (DoneResult, error)
}

// Assessments serves and grades step assessments and reports the gate
// status of every step in a career.
type Assessments interface {
	// LoadAssessment returns the assessment for a step. Fails with ErrLocked
	// or ErrNotFound.
	LoadAssessment(ctx context.Context, stepID roadmap.StepID) (*Assessment, error)

	// SubmitAssessment grades answers. Unanswered questions count as wrong.
	SubmitAssessment(ctx context.Context, stepID roadmap.StepID, answers []Answer, elapsedSeconds int) (*Result, error)

	// GetProgress returns the gate status of every step, ordered by step
	// number.
	GetProgress(ctx context.Context, careerID string) ([]StepStatus, error)
}

// Catalog lists imported careers and loads their roadmaps with the
// server's step ids and totals.
type Catalog interface {
	ListCareers(ctx context.Context) ([]Career, error)

	// LoadRoadmap fails with ErrNotFound for an unknown career.
	LoadRoadmap(ctx context.Context, careerID string) (*roadmap.Roadmap, error)
}

// Career summarizes one imported roadmap.
type Career struct {
	ID          string `json:"careerId"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	StepCount   int    `json:"stepCount"`
}

// DoneResult is the server's answer to a done toggle.
type DoneResult struct {
	Success        bool   `json:"success"`
	RejectedReason string `json:"rejectedReason,omitempty"`
}

// Assessment is a timed multiple-choice question set gating one step.
type Assessment struct {
	ID               string     `json:"assessmentId"`
	Title            string     `json:"title"`
	Questions        []Question `json:"questions"`
	PassingScore     int        `json:"passingScore"`
	TimeLimitMinutes int        `json:"timeLimitMinutes"`
}

// TimeLimit returns the time limit as a duration.
func (a *Assessment) TimeLimit() time.Duration {
	return time.Duration(a.TimeLimitMinutes) * time.Minute
}

// QuestionIndex returns the position of the question with the given id,
// or -1.
func (a *Assessment) QuestionIndex(questionID string) int {
	for i, q := range a.Questions {
		if q.ID == questionID {
			return i
		}
	}
	return -1
}

// Question is a single question. The answer key is never sent to clients.
type Question struct {
	ID      string   `json:"questionId"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

// Answer selects one option for one question.
type Answer struct {
	QuestionID  string `json:"questionId"`
	OptionIndex int    `json:"optionIndex"`
}

// Result is the graded outcome of a submission.
type Result struct {
	Score              int              `json:"score"`
	Passed             bool             `json:"passed"`
	PerQuestion        []QuestionResult `json:"perQuestion"`
	StepMarkedComplete bool             `json:"stepMarkedComplete"`
}

// CorrectCount returns the number of correctly answered questions.
func (r *Result) CorrectCount() int {
	n := 0
	for _, q := range r.PerQuestion {
		if q.Correct {
			n++
		}
	}
	return n
}

// QuestionResult is the per-question part of a Result.
type QuestionResult struct {
	QuestionID         string `json:"questionId"`
	Correct            bool   `json:"correct"`
	CorrectOptionIndex int    `json:"correctOptionIndex"`
	Explanation        string `json:"explanation,omitempty"`
}

// StepStatus is the server-reported gate state of one step.
type StepStatus struct {
	StepNumber       int  `json:"stepNumber"`
	IsLocked         bool `json:"isLocked"`
	IsCompleted      bool `json:"isCompleted"`
	AssessmentPassed bool `json:"assessmentPassed"`
}
