package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

type stepRepo struct {
	db *sql.DB
}

// stepCol names a column of the aliased steps table. Columns are taken
// through C so the alias and the column are quoted separately.
func stepCol(name string) string {
	return entsql.Table("steps").As("s").C(name)
}

// selectSteps reads the columns scanStep expects, in order.
func selectSteps() *entsql.Selector {
	s := entsql.Table("steps").As("s")
	a := entsql.Table("assessments").As("a")
	return builder.Select(
		s.C("id"), s.C("career_id"), s.C("number"), s.C("title"), s.C("description"),
		s.C("started_at"), s.C("accumulated_minutes"), s.C("is_done"), s.C("assessment_passed"),
		"("+a.C("id")+" IS NOT NULL)",
	).
		From(s).
		LeftJoin(a).On(a.C("step_id"), s.C("id"))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStep(row rowScanner) (StepRecord, error) {
	var (
		rec     StepRecord
		started sql.NullTime
	)
	err := row.Scan(&rec.ID, &rec.CareerID, &rec.Number, &rec.Title, &rec.Description, &started,
		&rec.AccumulatedMinutes, &rec.IsDone, &rec.AssessmentPassed, &rec.HasAssessment)
	if err != nil {
		return rec, err
	}
	if started.Valid {
		t := started.Time
		rec.StartedAt = &t
	}
	return rec, nil
}

func (r *stepRepo) Get(ctx context.Context, id string) (*StepRecord, error) {
	query, args := selectSteps().Where(entsql.EQ(stepCol("id"), id)).Query()
	rec, err := scanStep(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("step %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get step: %w", err)
	}
	return &rec, nil
}

func (r *stepRepo) ListByCareer(ctx context.Context, careerID string) ([]StepRecord, error) {
	query, args := selectSteps().
		Where(entsql.EQ(stepCol("career_id"), careerID)).
		OrderBy(stepCol("number")).
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list steps: %w", err)
	}
	defer rows.Close()

	var out []StepRecord
	for rows.Next() {
		rec, err := scanStep(rows)
		if err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *stepRepo) MarkStarted(ctx context.Context, id string, at time.Time) (bool, error) {
	n, err := exec(ctx, r.db, builder.Update("steps").
		Set("started_at", at.UTC()).
		Where(entsql.And(entsql.EQ("id", id), entsql.IsNull("started_at"))))
	if err != nil {
		return false, fmt.Errorf("mark step started: %w", err)
	}
	if n == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return false, err
		}
	}
	return n > 0, nil
}

func (r *stepRepo) AddMinutes(ctx context.Context, id string, minutes int) error {
	if minutes < 1 {
		return fmt.Errorf("add %d minutes: must be at least 1", minutes)
	}
	return r.update(ctx, id, "add minutes", builder.Update("steps").Add("accumulated_minutes", minutes))
}

func (r *stepRepo) SetDone(ctx context.Context, id string, done bool) error {
	return r.update(ctx, id, "set done", builder.Update("steps").Set("is_done", done))
}

func (r *stepRepo) SetAssessmentPassed(ctx context.Context, id string, passed bool) error {
	return r.update(ctx, id, "set assessment passed", builder.Update("steps").Set("assessment_passed", passed))
}

func (r *stepRepo) update(ctx context.Context, id, what string, u *entsql.UpdateBuilder) error {
	n, err := exec(ctx, r.db, u.Where(entsql.EQ("id", id)))
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("step %s: %w", id, ErrNotFound)
	}
	return nil
}
