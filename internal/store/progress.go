package store

import (
	"context"
	"fmt"
	"time"
)

// snapshotsKept is how many progress snapshots survive a reset.
const snapshotsKept = 5

// ResetCareer saves a snapshot of the career's progress and then clears
// it. The snapshot is returned so the caller can report what was lost.
func (s *Store) ResetCareer(ctx context.Context, careerID string) (*Snapshot, error) {
	steps, err := s.Steps().ListByCareer(ctx, careerID)
	if err != nil {
		return nil, err
	}
	if _, err := s.Careers().Get(ctx, careerID); err != nil {
		return nil, err
	}

	seq, err := s.seq.Next(ctx)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{
		Sequence:  seq,
		Timestamp: time.Now().UTC(),
		Data:      SnapshotData{Version: 1, CareerID: careerID},
	}
	for _, st := range steps {
		snap.Data.Steps = append(snap.Data.Steps, StepProgress{
			StepID:           st.ID,
			Number:           st.Number,
			Minutes:          st.AccumulatedMinutes,
			Done:             st.IsDone,
			AssessmentPassed: st.AssessmentPassed,
		})
	}

	repo := s.SnapshotRepo()
	if err := repo.Save(ctx, snap); err != nil {
		return nil, err
	}
	if err := s.Careers().ResetProgress(ctx, careerID); err != nil {
		return nil, fmt.Errorf("reset career %s: %w", careerID, err)
	}
	if err := repo.Prune(ctx, snapshotsKept); err != nil {
		return nil, err
	}
	return snap, nil
}
