package store

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table descriptions in the shape ent's migrate package expects. The
// migrator creates missing tables, columns and indexes on Open.
var (
	careersColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "title", Type: field.TypeString},
		{Name: "description", Type: field.TypeString, Default: ""},
		{Name: "created_at", Type: field.TypeTime},
	}
	careersTable = &schema.Table{
		Name:       "careers",
		Columns:    careersColumns,
		PrimaryKey: []*schema.Column{careersColumns[0]},
	}

	stepsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "career_id", Type: field.TypeString},
		{Name: "number", Type: field.TypeInt},
		{Name: "title", Type: field.TypeString},
		{Name: "description", Type: field.TypeString, Default: ""},
		{Name: "started_at", Type: field.TypeTime, Nullable: true},
		{Name: "accumulated_minutes", Type: field.TypeInt, Default: 0},
		{Name: "is_done", Type: field.TypeBool, Default: false},
		{Name: "assessment_passed", Type: field.TypeBool, Default: false},
	}
	stepsTable = &schema.Table{
		Name:       "steps",
		Columns:    stepsColumns,
		PrimaryKey: []*schema.Column{stepsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "steps_careers_steps",
				Columns:    []*schema.Column{stepsColumns[1]},
				RefColumns: []*schema.Column{careersColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{Name: "step_career_id_number", Unique: true, Columns: []*schema.Column{stepsColumns[1], stepsColumns[2]}},
		},
	}

	assessmentsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "step_id", Type: field.TypeString, Unique: true},
		{Name: "title", Type: field.TypeString},
		{Name: "passing_score", Type: field.TypeInt},
		{Name: "time_limit_minutes", Type: field.TypeInt},
	}
	assessmentsTable = &schema.Table{
		Name:       "assessments",
		Columns:    assessmentsColumns,
		PrimaryKey: []*schema.Column{assessmentsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "assessments_steps_assessment",
				Columns:    []*schema.Column{assessmentsColumns[1]},
				RefColumns: []*schema.Column{stepsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
	}

	questionsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "assessment_id", Type: field.TypeString},
		{Name: "position", Type: field.TypeInt},
		{Name: "text", Type: field.TypeString},
		{Name: "options", Type: field.TypeJSON},
		{Name: "correct_option", Type: field.TypeInt},
		{Name: "explanation", Type: field.TypeString, Default: ""},
	}
	questionsTable = &schema.Table{
		Name:       "questions",
		Columns:    questionsColumns,
		PrimaryKey: []*schema.Column{questionsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "questions_assessments_questions",
				Columns:    []*schema.Column{questionsColumns[1]},
				RefColumns: []*schema.Column{assessmentsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
	}

	attemptsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "step_id", Type: field.TypeString},
		{Name: "score", Type: field.TypeInt},
		{Name: "passed", Type: field.TypeBool},
		{Name: "elapsed_seconds", Type: field.TypeInt},
		{Name: "answers", Type: field.TypeJSON},
		{Name: "created_at", Type: field.TypeTime},
	}
	attemptsTable = &schema.Table{
		Name:       "attempts",
		Columns:    attemptsColumns,
		PrimaryKey: []*schema.Column{attemptsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "attempts_steps_attempts",
				Columns:    []*schema.Column{attemptsColumns[1]},
				RefColumns: []*schema.Column{stepsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{Name: "attempt_step_id", Columns: []*schema.Column{attemptsColumns[1]}},
		},
	}

	journalEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "op", Type: field.TypeString},
		{Name: "step_id", Type: field.TypeString, Default: ""},
		{Name: "minutes", Type: field.TypeInt, Default: 0},
		{Name: "latency_ms", Type: field.TypeInt64},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Default: ""},
	}
	journalEventsTable = &schema.Table{
		Name:       "journal_events",
		Columns:    journalEventsColumns,
		PrimaryKey: []*schema.Column{journalEventsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "journalevent_timestamp", Columns: []*schema.Column{journalEventsColumns[2]}},
		},
	}

	snapshotsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "data", Type: field.TypeJSON},
	}
	snapshotsTable = &schema.Table{
		Name:       "snapshots",
		Columns:    snapshotsColumns,
		PrimaryKey: []*schema.Column{snapshotsColumns[0]},
	}

	globalSequenceColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt},
		{Name: "next_val", Type: field.TypeInt64, Default: 1},
	}
	globalSequenceTable = &schema.Table{
		Name:       "global_sequence",
		Columns:    globalSequenceColumns,
		PrimaryKey: []*schema.Column{globalSequenceColumns[0]},
	}

	tables = []*schema.Table{
		careersTable,
		stepsTable,
		assessmentsTable,
		questionsTable,
		attemptsTable,
		journalEventsTable,
		snapshotsTable,
		globalSequenceTable,
	}
)

func init() {
	stepsTable.ForeignKeys[0].RefTable = careersTable
	assessmentsTable.ForeignKeys[0].RefTable = stepsTable
	questionsTable.ForeignKeys[0].RefTable = assessmentsTable
	attemptsTable.ForeignKeys[0].RefTable = stepsTable
}

// migrate creates or updates every table.
func migrate(ctx context.Context, drv *entsql.Driver) error {
	m, err := schema.NewMigrate(drv)
	if err != nil {
		return fmt.Errorf("new migrate: %w", err)
	}
	if err := m.Create(ctx, tables...); err != nil {
		return fmt.Errorf("create %s tables: %w", dialect.SQLite, err)
	}
	return nil
}
