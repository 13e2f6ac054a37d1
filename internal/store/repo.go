package store

import (
	"context"
	"time"

	"github.com/abhisek/waypoint/internal/roadmap"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
	Op     string    // exact op match when set
	StepID string    // exact step match when set
}

// Career is an imported roadmap.
type Career struct {
	ID          string
	Title       string
	Description string
	CreatedAt   time.Time
	StepCount   int
}

// StepRecord is the persisted state of one step.
type StepRecord struct {
	ID                 string
	CareerID           string
	Number             int
	Title              string
	Description        string
	StartedAt          *time.Time
	AccumulatedMinutes int
	IsDone             bool
	AssessmentPassed   bool
	HasAssessment      bool
}

// ToStep converts the record to the roadmap model.
func (r StepRecord) ToStep() roadmap.Step {
	return roadmap.Step{
		ID:                 roadmap.StepID(r.ID),
		Number:             r.Number,
		Title:              r.Title,
		Description:        r.Description,
		IsDone:             r.IsDone,
		StartedAt:          r.StartedAt,
		AccumulatedMinutes: r.AccumulatedMinutes,
		HasAssessment:      r.HasAssessment,
	}
}

// QuestionRecord is a stored question including its answer key.
type QuestionRecord struct {
	ID            string
	Position      int
	Text          string
	Options       []string
	CorrectOption int
	Explanation   string
}

// AssessmentRecord is a stored assessment with its questions in order.
type AssessmentRecord struct {
	ID               string
	StepID           string
	Title            string
	PassingScore     int
	TimeLimitMinutes int
	Questions        []QuestionRecord
}

// AttemptRecord is one graded submission.
type AttemptRecord struct {
	ID             string
	StepID         string
	Score          int
	Passed         bool
	ElapsedSeconds int
	Answers        map[string]int
	CreatedAt      time.Time
}

// CareerRepo manages careers and their imported content.
type CareerRepo interface {
	// Import stores a validated roadmap document as a new career with
	// steps numbered from 1.
	Import(ctx context.Context, doc *roadmap.Document) (*Career, error)

	// List returns every career, oldest first.
	List(ctx context.Context) ([]Career, error)

	// Get returns a career or ErrNotFound.
	Get(ctx context.Context, id string) (*Career, error)

	// Delete removes a career with its steps, assessments and attempts.
	Delete(ctx context.Context, id string) error

	// ResetProgress clears time, completion, passes and attempts.
	ResetProgress(ctx context.Context, id string) error

	// LoadRoadmap builds the roadmap model for a career.
	LoadRoadmap(ctx context.Context, id string) (*roadmap.Roadmap, error)
}

// StepRepo manages per-step progress.
type StepRepo interface {
	Get(ctx context.Context, id string) (*StepRecord, error)
	ListByCareer(ctx context.Context, careerID string) ([]StepRecord, error)

	// MarkStarted sets started_at if unset. It reports whether it did.
	MarkStarted(ctx context.Context, id string, at time.Time) (bool, error)

	AddMinutes(ctx context.Context, id string, minutes int) error
	SetDone(ctx context.Context, id string, done bool) error
	SetAssessmentPassed(ctx context.Context, id string, passed bool) error
}

// AssessmentRepo manages assessments and attempts.
type AssessmentRepo interface {
	// GetByStep returns the step's assessment or ErrNotFound.
	GetByStep(ctx context.Context, stepID string) (*AssessmentRecord, error)

	RecordAttempt(ctx context.Context, a *AttemptRecord) error

	// ListAttempts returns attempts for a step, newest first.
	ListAttempts(ctx context.Context, stepID string) ([]AttemptRecord, error)
}

// JournalEventData captures one gateway call.
type JournalEventData struct {
	Op           string
	StepID       string
	Minutes      int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
}

// JournalEvent is a stored JournalEventData with its ordering.
type JournalEvent struct {
	Sequence  int64
	Timestamp time.Time
	JournalEventData
}

// EventRepo provides append and query access to journal events.
type EventRepo interface {
	// AppendJournalEvent records a gateway call.
	AppendJournalEvent(ctx context.Context, data JournalEventData) error

	// QueryJournalEvents returns events in sequence order, newest first.
	QueryJournalEvents(ctx context.Context, opts QueryOpts) ([]JournalEvent, error)
}

// StepProgress is the saved progress of one step inside a snapshot.
type StepProgress struct {
	StepID           string `json:"step_id"`
	Number           int    `json:"number"`
	Minutes          int    `json:"minutes"`
	Done             bool   `json:"done"`
	AssessmentPassed bool   `json:"assessment_passed"`
}

// SnapshotData captures a career's progress at a point in time.
type SnapshotData struct {
	Version  int            `json:"version"`
	CareerID string         `json:"career_id"`
	Steps    []StepProgress `json:"steps"`
}

// Snapshot represents a point-in-time capture of progress.
type Snapshot struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	Data      SnapshotData
}

// SnapshotRepo manages progress snapshots.
type SnapshotRepo interface {
	// Save stores a new snapshot.
	Save(ctx context.Context, snap *Snapshot) error

	// Latest returns the most recent snapshot, or nil if none exist.
	Latest(ctx context.Context) (*Snapshot, error)

	// Prune deletes all but the N most recent snapshots.
	Prune(ctx context.Context, keep int) error
}
