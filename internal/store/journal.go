package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// eventRepo implements EventRepo backed by the journal table and the
// global sequence counter.
type eventRepo struct {
	db  *sql.DB
	seq *sequence
}

func (r *eventRepo) AppendJournalEvent(ctx context.Context, data JournalEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	_, err = exec(ctx, r.db, builder.Insert("journal_events").
		Columns("sequence", "timestamp", "op", "step_id", "minutes", "latency_ms", "success", "error_message").
		Values(seqNum, time.Now().UTC(), data.Op, data.StepID, data.Minutes, data.LatencyMs, data.Success, data.ErrorMessage))
	if err != nil {
		return fmt.Errorf("save journal event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryJournalEvents(ctx context.Context, opts QueryOpts) ([]JournalEvent, error) {
	sel := builder.Select("sequence", "timestamp", "op", "step_id", "minutes", "latency_ms", "success", "error_message").
		From(entsql.Table("journal_events")).
		OrderBy(entsql.Desc("sequence"))
	if opts.After > 0 {
		sel.Where(entsql.GT("sequence", opts.After))
	}
	if opts.Before > 0 {
		sel.Where(entsql.LT("sequence", opts.Before))
	}
	if !opts.From.IsZero() {
		sel.Where(entsql.GTE("timestamp", opts.From.UTC()))
	}
	if !opts.To.IsZero() {
		sel.Where(entsql.LTE("timestamp", opts.To.UTC()))
	}
	if opts.Op != "" {
		sel.Where(entsql.EQ("op", opts.Op))
	}
	if opts.StepID != "" {
		sel.Where(entsql.EQ("step_id", opts.StepID))
	}
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}

	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query journal events: %w", err)
	}
	defer rows.Close()

	var out []JournalEvent
	for rows.Next() {
		var e JournalEvent
		if err := rows.Scan(&e.Sequence, &e.Timestamp, &e.Op, &e.StepID, &e.Minutes, &e.LatencyMs, &e.Success, &e.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scan journal event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
