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

	"github.com/abhisek/waypoint/internal/roadmap"
)

// careerRepo implements CareerRepo with SQL built for the SQLite dialect.
type careerRepo struct {
	db *sql.DB
}

func (r *careerRepo) Import(ctx context.Context, doc *roadmap.Document) (*Career, error) {
	c := &Career{
		ID:          uuid.NewString(),
		Title:       doc.Title,
		Description: doc.Description,
		CreatedAt:   time.Now().UTC(),
		StepCount:   len(doc.Steps),
	}

	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := exec(ctx, tx, builder.Insert("careers").
			Columns("id", "title", "description", "created_at").
			Values(c.ID, c.Title, c.Description, c.CreatedAt))
		if err != nil {
			return fmt.Errorf("insert career: %w", err)
		}

		for i, s := range doc.Steps {
			stepID := uuid.NewString()
			_, err := exec(ctx, tx, builder.Insert("steps").
				Columns("id", "career_id", "number", "title", "description").
				Values(stepID, c.ID, i+1, s.Title, s.Description))
			if err != nil {
				return fmt.Errorf("insert step %d: %w", i+1, err)
			}
			if s.Assessment != nil {
				if err := insertAssessment(ctx, tx, stepID, s.Assessment); err != nil {
					return fmt.Errorf("step %d: %w", i+1, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("import %q: %w", doc.Title, err)
	}
	return c, nil
}

func insertAssessment(ctx context.Context, tx *sql.Tx, stepID string, a *roadmap.DocumentAssessment) error {
	assessmentID := uuid.NewString()
	_, err := exec(ctx, tx, builder.Insert("assessments").
		Columns("id", "step_id", "title", "passing_score", "time_limit_minutes").
		Values(assessmentID, stepID, a.Title, a.PassingScore, a.TimeLimitMinutes))
	if err != nil {
		return fmt.Errorf("insert assessment: %w", err)
	}

	for i, q := range a.Questions {
		opts, err := json.Marshal(q.Options)
		if err != nil {
			return fmt.Errorf("marshal options: %w", err)
		}
		_, err = exec(ctx, tx, builder.Insert("questions").
			Columns("id", "assessment_id", "position", "text", "options", "correct_option", "explanation").
			Values(uuid.NewString(), assessmentID, i, q.Text, string(opts), q.CorrectOption, q.Explanation))
		if err != nil {
			return fmt.Errorf("insert question %d: %w", i+1, err)
		}
	}
	return nil
}

// selectCareers reads careers from c with their step counts.
func selectCareers(c *entsql.SelectTable) *entsql.Selector {
	s := entsql.Table("steps").As("s")
	return builder.Select(c.C("id"), c.C("title"), c.C("description"), c.C("created_at"), entsql.Count(s.C("id"))).
		From(c).
		LeftJoin(s).On(s.C("career_id"), c.C("id")).
		GroupBy(c.C("id"))
}

func (r *careerRepo) List(ctx context.Context) ([]Career, error) {
	careers := entsql.Table("careers").As("c")
	query, args := selectCareers(careers).
		OrderBy(careers.C("created_at")).
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list careers: %w", err)
	}
	defer rows.Close()

	var out []Career
	for rows.Next() {
		var c Career
		if err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.CreatedAt, &c.StepCount); err != nil {
			return nil, fmt.Errorf("scan career: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *careerRepo) Get(ctx context.Context, id string) (*Career, error) {
	careers := entsql.Table("careers").As("c")
	query, args := selectCareers(careers).
		Where(entsql.EQ(careers.C("id"), id)).
		Query()

	var c Career
	err := r.db.QueryRowContext(ctx, query, args...).
		Scan(&c.ID, &c.Title, &c.Description, &c.CreatedAt, &c.StepCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("career %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get career: %w", err)
	}
	return &c, nil
}

func (r *careerRepo) Delete(ctx context.Context, id string) error {
	n, err := exec(ctx, r.db, builder.Delete("careers").Where(entsql.EQ("id", id)))
	if err != nil {
		return fmt.Errorf("delete career: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("career %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *careerRepo) ResetProgress(ctx context.Context, id string) error {
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		stepIDs := builder.Select("id").From(entsql.Table("steps")).Where(entsql.EQ("career_id", id))
		if _, err := exec(ctx, tx, builder.Delete("attempts").Where(entsql.In("step_id", stepIDs))); err != nil {
			return fmt.Errorf("delete attempts: %w", err)
		}
		_, err := exec(ctx, tx, builder.Update("steps").
			SetNull("started_at").
			Set("accumulated_minutes", 0).
			Set("is_done", false).
			Set("assessment_passed", false).
			Where(entsql.EQ("career_id", id)))
		if err != nil {
			return fmt.Errorf("reset steps: %w", err)
		}
		return nil
	})
}

func (r *careerRepo) LoadRoadmap(ctx context.Context, id string) (*roadmap.Roadmap, error) {
	c, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	records, err := (&stepRepo{db: r.db}).ListByCareer(ctx, id)
	if err != nil {
		return nil, err
	}
	steps := make([]roadmap.Step, len(records))
	for i, rec := range records {
		steps[i] = rec.ToStep()
	}
	rm := roadmap.New(c.ID, c.Title, steps)
	rm.Description = c.Description
	return rm, nil
}
