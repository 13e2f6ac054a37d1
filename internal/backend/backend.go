// Package backend implements the Persistence and Assessment gateways
// directly on the local store. It applies the same rules a remote server
// does: the lock rule, grading, and refusing completion before a pass.
package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/abhisek/waypoint/internal/clock"
	"github.com/abhisek/waypoint/internal/gate"
	"github.com/abhisek/waypoint/internal/gateway"
	"github.com/abhisek/waypoint/internal/roadmap"
	"github.com/abhisek/waypoint/internal/store"
)

// Backend serves both gateways from a Store.
type Backend struct {
	steps       store.StepRepo
	careers     store.CareerRepo
	assessments store.AssessmentRepo
	clock       clock.Clock
	logger      *slog.Logger
}

var (
	_ gateway.Persistence = (*Backend)(nil)
	_ gateway.Assessments = (*Backend)(nil)
	_ gateway.Catalog     = (*Backend)(nil)
)

// New creates a Backend over s.
func New(s *store.Store, clk clock.Clock, logger *slog.Logger) *Backend {
	if clk == nil {
		clk = clock.Real{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		steps:       s.Steps(),
		careers:     s.Careers(),
		assessments: s.Assessments(),
		clock:       clk,
		logger:      logger.With("component", "backend"),
	}
}

func (b *Backend) StartStep(ctx context.Context, stepID roadmap.StepID) error {
	rec, err := b.unlockedStep(ctx, stepID)
	if err != nil {
		return err
	}
	started, err := b.steps.MarkStarted(ctx, rec.ID, b.clock.Now())
	if err != nil {
		return mapErr(err)
	}
	if started {
		b.logger.Info("step started", "step", rec.Number, "career", rec.CareerID)
	}
	return nil
}

func (b *Backend) RecordElapsed(ctx context.Context, stepID roadmap.StepID, minutes int) error {
	if minutes < 1 {
		return fmt.Errorf("record elapsed: minutes must be at least 1, got %d", minutes)
	}
	return mapErr(b.steps.AddMinutes(ctx, string(stepID), minutes))
}

// SetStepDone refuses to complete a locked step with ErrLocked. Undoing
// completion is always allowed.
func (b *Backend) SetStepDone(ctx context.Context, stepID roadmap.StepID, done bool) (gateway.DoneResult, error) {
	var (
		rec *store.StepRecord
		err error
	)
	if done {
		rec, err = b.unlockedStep(ctx, stepID)
	} else {
		rec, err = b.steps.Get(ctx, string(stepID))
		err = mapErr(err)
	}
	if err != nil {
		return gateway.DoneResult{}, err
	}
	if done && !passed(*rec) {
		return gateway.DoneResult{Success: false, RejectedReason: gate.DoneReason}, nil
	}
	if err := b.steps.SetDone(ctx, rec.ID, done); err != nil {
		return gateway.DoneResult{}, mapErr(err)
	}
	return gateway.DoneResult{Success: true}, nil
}

func (b *Backend) LoadAssessment(ctx context.Context, stepID roadmap.StepID) (*gateway.Assessment, error) {
	rec, err := b.unlockedStep(ctx, stepID)
	if err != nil {
		return nil, err
	}
	a, err := b.assessments.GetByStep(ctx, rec.ID)
	if err != nil {
		return nil, mapErr(err)
	}

	out := &gateway.Assessment{
		ID:               a.ID,
		Title:            a.Title,
		PassingScore:     a.PassingScore,
		TimeLimitMinutes: a.TimeLimitMinutes,
		Questions:        make([]gateway.Question, len(a.Questions)),
	}
	for i, q := range a.Questions {
		out.Questions[i] = gateway.Question{ID: q.ID, Text: q.Text, Options: q.Options}
	}
	return out, nil
}

func (b *Backend) SubmitAssessment(ctx context.Context, stepID roadmap.StepID, answers []gateway.Answer, elapsedSeconds int) (*gateway.Result, error) {
	rec, err := b.unlockedStep(ctx, stepID)
	if err != nil {
		return nil, err
	}
	a, err := b.assessments.GetByStep(ctx, rec.ID)
	if err != nil {
		return nil, mapErr(err)
	}

	res, chosen := Grade(a, answers)

	err = b.assessments.RecordAttempt(ctx, &store.AttemptRecord{
		StepID:         rec.ID,
		Score:          res.Score,
		Passed:         res.Passed,
		ElapsedSeconds: elapsedSeconds,
		Answers:        chosen,
		CreatedAt:      b.clock.Now().UTC(),
	})
	if err != nil {
		return nil, mapErr(err)
	}

	if res.Passed {
		if err := b.steps.SetAssessmentPassed(ctx, rec.ID, true); err != nil {
			return nil, mapErr(err)
		}
		if err := b.steps.SetDone(ctx, rec.ID, true); err != nil {
			return nil, mapErr(err)
		}
		res.StepMarkedComplete = true
	}
	b.logger.Info("assessment graded", "step", rec.Number, "score", res.Score, "passed", res.Passed, "elapsed_s", elapsedSeconds)
	return res, nil
}

func (b *Backend) GetProgress(ctx context.Context, careerID string) ([]gateway.StepStatus, error) {
	if _, err := b.careers.Get(ctx, careerID); err != nil {
		return nil, mapErr(err)
	}
	recs, err := b.steps.ListByCareer(ctx, careerID)
	if err != nil {
		return nil, mapErr(err)
	}

	out := make([]gateway.StepStatus, len(recs))
	for i, r := range recs {
		out[i] = gateway.StepStatus{
			StepNumber:       r.Number,
			IsLocked:         i > 0 && !passed(recs[i-1]),
			IsCompleted:      r.IsDone,
			AssessmentPassed: passed(r),
		}
	}
	return out, nil
}

func (b *Backend) ListCareers(ctx context.Context) ([]gateway.Career, error) {
	cs, err := b.careers.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]gateway.Career, len(cs))
	for i, c := range cs {
		out[i] = gateway.Career{ID: c.ID, Title: c.Title, Description: c.Description, StepCount: c.StepCount}
	}
	return out, nil
}

func (b *Backend) LoadRoadmap(ctx context.Context, careerID string) (*roadmap.Roadmap, error) {
	rm, err := b.careers.LoadRoadmap(ctx, careerID)
	if err != nil {
		return nil, mapErr(err)
	}
	return rm, nil
}

// Grade scores answers against the key. Unanswered and unknown questions
// count as wrong; a repeated question keeps its last answer.
func Grade(a *store.AssessmentRecord, answers []gateway.Answer) (*gateway.Result, map[string]int) {
	chosen := make(map[string]int, len(answers))
	for _, ans := range answers {
		chosen[ans.QuestionID] = ans.OptionIndex
	}

	res := &gateway.Result{PerQuestion: make([]gateway.QuestionResult, len(a.Questions))}
	correct := 0
	for i, q := range a.Questions {
		idx, ok := chosen[q.ID]
		ok = ok && idx == q.CorrectOption
		if ok {
			correct++
		}
		res.PerQuestion[i] = gateway.QuestionResult{
			QuestionID:         q.ID,
			Correct:            ok,
			CorrectOptionIndex: q.CorrectOption,
			Explanation:        q.Explanation,
		}
	}
	if n := len(a.Questions); n > 0 {
		res.Score = 100 * correct / n
	}
	res.Passed = res.Score >= a.PassingScore
	return res, chosen
}

// unlockedStep loads a step and fails with ErrLocked when the previous
// step's assessment is not passed.
func (b *Backend) unlockedStep(ctx context.Context, stepID roadmap.StepID) (*store.StepRecord, error) {
	rec, err := b.steps.Get(ctx, string(stepID))
	if err != nil {
		return nil, mapErr(err)
	}
	if rec.Number <= 1 {
		return rec, nil
	}
	siblings, err := b.steps.ListByCareer(ctx, rec.CareerID)
	if err != nil {
		return nil, mapErr(err)
	}
	for _, s := range siblings {
		if s.Number == rec.Number-1 && !passed(s) {
			return nil, fmt.Errorf("step %d: %w", rec.Number, gateway.ErrLocked)
		}
	}
	return rec, nil
}

// passed treats a step without an assessment as passed.
func passed(r store.StepRecord) bool {
	return r.AssessmentPassed || !r.HasAssessment
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%v: %w", err, gateway.ErrNotFound)
	}
	return err
}
