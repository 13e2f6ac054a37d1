package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

type assessmentRepo struct {
	db *sql.DB
}

func (r *assessmentRepo) GetByStep(ctx context.Context, stepID string) (*AssessmentRecord, error) {
	query, args := builder.Select("id", "step_id", "title", "passing_score", "time_limit_minutes").
		From(entsql.Table("assessments")).
		Where(entsql.EQ("step_id", stepID)).
		Query()

	var a AssessmentRecord
	err := r.db.QueryRowContext(ctx, query, args...).
		Scan(&a.ID, &a.StepID, &a.Title, &a.PassingScore, &a.TimeLimitMinutes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("assessment for step %s: %w", stepID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get assessment: %w", err)
	}

	query, args = builder.Select("id", "position", "text", "options", "correct_option", "explanation").
		From(entsql.Table("questions")).
		Where(entsql.EQ("assessment_id", a.ID)).
		OrderBy("position").
		Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			q    QuestionRecord
			opts string
		)
		if err := rows.Scan(&q.ID, &q.Position, &q.Text, &opts, &q.CorrectOption, &q.Explanation); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if err := json.Unmarshal([]byte(opts), &q.Options); err != nil {
			return nil, fmt.Errorf("decode options of question %s: %w", q.ID, err)
		}
		a.Questions = append(a.Questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *assessmentRepo) RecordAttempt(ctx context.Context, a *AttemptRecord) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	answers, err := json.Marshal(a.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	_, err = exec(ctx, r.db, builder.Insert("attempts").
		Columns("id", "step_id", "score", "passed", "elapsed_seconds", "answers", "created_at").
		Values(a.ID, a.StepID, a.Score, a.Passed, a.ElapsedSeconds, string(answers), a.CreatedAt))
	if err != nil {
		return fmt.Errorf("save attempt: %w", err)
	}
	return nil
}

func (r *assessmentRepo) ListAttempts(ctx context.Context, stepID string) ([]AttemptRecord, error) {
	query, args := builder.Select("id", "step_id", "score", "passed", "elapsed_seconds", "answers", "created_at").
		From(entsql.Table("attempts")).
		Where(entsql.EQ("step_id", stepID)).
		OrderBy(entsql.Desc("created_at")).
		Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	var out []AttemptRecord
	for rows.Next() {
		var (
			a       AttemptRecord
			answers string
		)
		if err := rows.Scan(&a.ID, &a.StepID, &a.Score, &a.Passed, &a.ElapsedSeconds, &answers, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		if err := json.Unmarshal([]byte(answers), &a.Answers); err != nil {
			return nil, fmt.Errorf("decode answers of attempt %s: %w", a.ID, err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
