package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

// snapshotRepo implements SnapshotRepo over the snapshots table.
type snapshotRepo struct {
	db *sql.DB
}

func (r *snapshotRepo) Save(ctx context.Context, snap *Snapshot) error {
	data, err := json.Marshal(snap.Data)
	if err != nil {
		return fmt.Errorf("marshal snapshot data: %w", err)
	}

	_, err = exec(ctx, r.db, builder.Insert("snapshots").
		Columns("sequence", "timestamp", "data").
		Values(snap.Sequence, snap.Timestamp.UTC(), string(data)))
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (r *snapshotRepo) Latest(ctx context.Context) (*Snapshot, error) {
	query, args := builder.Select("id", "sequence", "timestamp", "data").
		From(entsql.Table("snapshots")).
		OrderBy(entsql.Desc("sequence")).
		Limit(1).
		Query()

	var (
		s    Snapshot
		data string
	)
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&s.ID, &s.Sequence, &s.Timestamp, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest snapshot: %w", err)
	}
	if err := json.Unmarshal([]byte(data), &s.Data); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot data: %w", err)
	}
	return &s, nil
}

// Prune keeps the newest keep snapshots by sequence.
func (r *snapshotRepo) Prune(ctx context.Context, keep int) error {
	query, args := builder.Select("sequence").
		From(entsql.Table("snapshots")).
		OrderBy(entsql.Desc("sequence")).
		Offset(keep).
		Limit(1).
		Query()

	var cutoff int64
	switch err := r.db.QueryRowContext(ctx, query, args...).Scan(&cutoff); {
	case errors.Is(err, sql.ErrNoRows):
		return nil
	case err != nil:
		return fmt.Errorf("find prune cutoff: %w", err)
	}

	if _, err := exec(ctx, r.db, builder.Delete("snapshots").Where(entsql.LTE("sequence", cutoff))); err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	return nil
}
