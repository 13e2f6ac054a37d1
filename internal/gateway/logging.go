package gateway

import (
	"context"
	"log/slog"
	"time"

	"github.com/abhisek/waypoint/internal/roadmap"
	"github.com/abhisek/waypoint/internal/store"
)

// Journal operation names recorded for every gateway call.
const (
	OpStartStep        = "start_step"
	OpRecordElapsed    = "record_elapsed"
	OpSetStepDone      = "set_step_done"
	OpLoadAssessment   = "load_assessment"
	OpSubmitAssessment = "submit_assessment"
	OpGetProgress      = "get_progress"
)

type journal struct {
	repo   store.EventRepo
	logger *slog.Logger
}

// record appends a journal event. A journal failure never fails the call.
func (j journal) record(ctx context.Context, op, stepID string, minutes int, start time.Time, err error) {
	data := store.JournalEventData{
		Op:        op,
		StepID:    stepID,
		Minutes:   minutes,
		LatencyMs: time.Since(start).Milliseconds(),
		Success:   err == nil,
	}
	if err != nil {
		data.ErrorMessage = err.Error()
		j.logger.Warn("gateway call failed", "op", op, "step", stepID, "err", err)
	} else {
		j.logger.Debug("gateway call", "op", op, "step", stepID, "latency_ms", data.LatencyMs)
	}
	if logErr := j.repo.AppendJournalEvent(context.WithoutCancel(ctx), data); logErr != nil {
		j.logger.Warn("failed to journal gateway call", "op", op, "err", logErr)
	}
}

func newJournal(repo store.EventRepo, logger *slog.Logger) journal {
	if logger == nil {
		logger = slog.Default()
	}
	return journal{repo: repo, logger: logger.With("component", "gateway")}
}

// LoggingPersistence is a decorator that journals every Persistence call.
type LoggingPersistence struct {
	inner Persistence
	j     journal
}

// WithPersistenceLogging wraps p so every call is journaled to repo.
func WithPersistenceLogging(p Persistence, repo store.EventRepo, logger *slog.Logger) *LoggingPersistence {
	return &LoggingPersistence{inner: p, j: newJournal(repo, logger)}
}

func (l *LoggingPersistence) StartStep(ctx context.Context, stepID roadmap.StepID) error {
	start := time.Now()
	err := l.inner.StartStep(ctx, stepID)
	l.j.record(ctx, OpStartStep, string(stepID), 0, start, err)
	return err
}

func (l *LoggingPersistence) RecordElapsed(ctx context.Context, stepID roadmap.StepID, minutes int) error {
	start := time.Now()
	err := l.inner.RecordElapsed(ctx, stepID, minutes)
	l.j.record(ctx, OpRecordElapsed, string(stepID), minutes, start, err)
	return err
}

func (l *LoggingPersistence) SetStepDone(ctx context.Context, stepID roadmap.StepID, done bool) (DoneResult, error) {
	start := time.Now()
	res, err := l.inner.SetStepDone(ctx, stepID, done)
	l.j.record(ctx, OpSetStepDone, string(stepID), 0, start, err)
	return res, err
}

// LoggingAssessments is a decorator that journals every Assessments call.
type LoggingAssessments struct {
	inner Assessments
	j     journal
}

// WithAssessmentLogging wraps a so every call is journaled to repo.
func WithAssessmentLogging(a Assessments, repo store.EventRepo, logger *slog.Logger) *LoggingAssessments {
	return &LoggingAssessments{inner: a, j: newJournal(repo, logger)}
}

func (l *LoggingAssessments) LoadAssessment(ctx context.Context, stepID roadmap.StepID) (*Assessment, error) {
	start := time.Now()
	a, err := l.inner.LoadAssessment(ctx, stepID)
	l.j.record(ctx, OpLoadAssessment, string(stepID), 0, start, err)
	return a, err
}

func (l *LoggingAssessments) SubmitAssessment(ctx context.Context, stepID roadmap.StepID, answers []Answer, elapsedSeconds int) (*Result, error) {
	start := time.Now()
	res, err := l.inner.SubmitAssessment(ctx, stepID, answers, elapsedSeconds)
	l.j.record(ctx, OpSubmitAssessment, string(stepID), 0, start, err)
	return res, err
}

func (l *LoggingAssessments) GetProgress(ctx context.Context, careerID string) ([]StepStatus, error) {
	start := time.Now()
	out, err := l.inner.GetProgress(ctx, careerID)
	l.j.record(ctx, OpGetProgress, "", 0, start, err)
	return out, err
}
