package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	entsql "entgo.io/ent/dialect/sql"
)

// sequence hands out the global ordering shared by journal events and
// snapshots. Values start at 1 and never repeat, even across processes
// sharing the database file: the increment and read share a transaction.
type sequence struct {
	mu sync.Mutex
	db *sql.DB
}

func newSequence(ctx context.Context, db *sql.DB) (*sequence, error) {
	_, err := exec(ctx, db, builder.Insert("global_sequence").
		Columns("id", "next_val").
		Values(1, 1).
		OnConflict(entsql.DoNothing()))
	if err != nil {
		return nil, fmt.Errorf("seed sequence: %w", err)
	}
	return &sequence{db: db}, nil
}

// Next returns the next value.
func (s *sequence) Next(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var next int64
	err := inTx(ctx, s.db, func(tx *sql.Tx) error {
		_, err := exec(ctx, tx, builder.Update("global_sequence").
			Add("next_val", 1).
			Where(entsql.EQ("id", 1)))
		if err != nil {
			return err
		}
		query, args := builder.Select("next_val").
			From(entsql.Table("global_sequence")).
			Where(entsql.EQ("id", 1)).
			Query()
		return tx.QueryRowContext(ctx, query, args...).Scan(&next)
	})
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return next - 1, nil
}
