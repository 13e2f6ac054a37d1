package gateway

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/waypoint/internal/store"
)

func openEventRepo(t *testing.T) store.EventRepo {
	t.Helper()
	s, err := store.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s.EventRepo()
}

func TestPersistenceLogging_JournalsCalls(t *testing.T) {
	repo := openEventRepo(t)
	mock := NewMockPersistence()
	p := WithPersistenceLogging(mock, repo, nil)
	ctx := context.Background()

	require.NoError(t, p.StartStep(ctx, "s1"))
	require.NoError(t, p.RecordElapsed(ctx, "s1", 3))
	mock.ElapsedErr = errors.New("offline")
	require.Error(t, p.RecordElapsed(ctx, "s1", 1))

	events, err := repo.QueryJournalEvents(ctx, store.QueryOpts{})
	require.NoError(t, err)
	require.Len(t, events, 3)

	// Newest first.
	assert.Equal(t, OpRecordElapsed, events[0].Op)
	assert.False(t, events[0].Success)
	assert.Equal(t, "offline", events[0].ErrorMessage)
	assert.Equal(t, 1, events[0].Minutes)

	assert.Equal(t, OpRecordElapsed, events[1].Op)
	assert.True(t, events[1].Success)
	assert.Equal(t, 3, events[1].Minutes)

	assert.Equal(t, OpStartStep, events[2].Op)
	assert.Equal(t, "s1", events[2].StepID)
}

func TestAssessmentLogging_PassesResultsThrough(t *testing.T) {
	repo := openEventRepo(t)
	mock := NewMockAssessments()
	mock.Assessments["s1"] = &Assessment{ID: "a1"}
	mock.AddResult(MockResult{Result: &Result{Score: 90, Passed: true}})
	a := WithAssessmentLogging(mock, repo, nil)
	ctx := context.Background()

	got, err := a.LoadAssessment(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "a1", got.ID)

	res, err := a.SubmitAssessment(ctx, "s1", nil, 5)
	require.NoError(t, err)
	assert.Equal(t, 90, res.Score)

	_, err = a.GetProgress(ctx, "c1")
	require.NoError(t, err)

	events, err := repo.QueryJournalEvents(ctx, store.QueryOpts{Op: OpSubmitAssessment})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, events[0].Success)
}

type failingRepo struct{}

func (failingRepo) AppendJournalEvent(context.Context, store.JournalEventData) error {
	return errors.New("disk full")
}

func (failingRepo) QueryJournalEvents(context.Context, store.QueryOpts) ([]store.JournalEvent, error) {
	return nil, nil
}

func TestLogging_JournalFailureDoesNotFailCall(t *testing.T) {
	p := WithPersistenceLogging(NewMockPersistence(), failingRepo{}, nil)
	assert.NoError(t, p.StartStep(context.Background(), "s1"))
}
