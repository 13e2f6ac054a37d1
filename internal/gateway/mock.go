package gateway

import (
	"context"
	"sync"

	"github.com/abhisek/waypoint/internal/roadmap"
)

// ElapsedCall records one RecordElapsed invocation.
type ElapsedCall struct {
	StepID  roadmap.StepID
	Minutes int
}

// DoneCall records one SetStepDone invocation.
type DoneCall struct {
	StepID roadmap.StepID
	Done   bool
}

// MockPersistence is a recording Persistence for tests.
type MockPersistence struct {
	mu sync.Mutex

	StartCalls   []roadmap.StepID
	ElapsedCalls []ElapsedCall
	DoneCalls    []DoneCall

	StartErr   error
	ElapsedErr error

	// DoneFunc decides SetStepDone outcomes. Nil accepts everything.
	DoneFunc func(stepID roadmap.StepID, done bool) (DoneResult, error)

	// ElapsedGate, when set, blocks RecordElapsed until it receives or is
	// closed.
	ElapsedGate chan struct{}
}

// NewMockPersistence creates an accepting MockPersistence.
func NewMockPersistence() *MockPersistence {
	return &MockPersistence{}
}

func (m *MockPersistence) StartStep(_ context.Context, stepID roadmap.StepID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StartCalls = append(m.StartCalls, stepID)
	return m.StartErr
}

func (m *MockPersistence) RecordElapsed(ctx context.Context, stepID roadmap.StepID, minutes int) error {
	m.mu.Lock()
	gate := m.ElapsedGate
	m.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.ElapsedCalls = append(m.ElapsedCalls, ElapsedCall{StepID: stepID, Minutes: minutes})
	return m.ElapsedErr
}

func (m *MockPersistence) SetStepDone(_ context.Context, stepID roadmap.StepID, done bool) (DoneResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DoneCalls = append(m.DoneCalls, DoneCall{StepID: stepID, Done: done})
	if m.DoneFunc != nil {
		return m.DoneFunc(stepID, done)
	}
	return DoneResult{Success: true}, nil
}

// StartCount returns how many times StartStep was called for stepID.
func (m *MockPersistence) StartCount(stepID roadmap.StepID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, id := range m.StartCalls {
		if id == stepID {
			n++
		}
	}
	return n
}

// Elapsed returns a copy of the recorded RecordElapsed calls.
func (m *MockPersistence) Elapsed() []ElapsedCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ElapsedCall, len(m.ElapsedCalls))
	copy(out, m.ElapsedCalls)
	return out
}

// MinutesFor sums the minutes recorded for stepID.
func (m *MockPersistence) MinutesFor(stepID roadmap.StepID) int {
	total := 0
	for _, c := range m.Elapsed() {
		if c.StepID == stepID {
			total += c.Minutes
		}
	}
	return total
}

// Dones returns a copy of the recorded SetStepDone calls.
func (m *MockPersistence) Dones() []DoneCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]DoneCall, len(m.DoneCalls))
	copy(out, m.DoneCalls)
	return out
}

// Submission records one SubmitAssessment invocation.
type Submission struct {
	StepID         roadmap.StepID
	Answers        []Answer
	ElapsedSeconds int
}

// MockResult is a canned submission outcome.
type MockResult struct {
	Result *Result
	Err    error
}

// MockAssessments is a scripted Assessments gateway for tests. Submission
// outcomes are served in FIFO order.
type MockAssessments struct {
	mu sync.Mutex

	Assessments map[roadmap.StepID]*Assessment
	LoadErr     error
	LoadCalls   []roadmap.StepID

	results     []MockResult
	Submissions []Submission

	// SubmitGate, when set, blocks SubmitAssessment until it receives or
	// is closed.
	SubmitGate chan struct{}

	Progress      []StepStatus
	ProgressErr   error
	ProgressCalls int
}

// NewMockAssessments creates a MockAssessments with no assessments.
func NewMockAssessments() *MockAssessments {
	return &MockAssessments{Assessments: make(map[roadmap.StepID]*Assessment)}
}

// AddResult queues a submission outcome.
func (m *MockAssessments) AddResult(r MockResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, r)
}

// SetProgress replaces the reported progress.
func (m *MockAssessments) SetProgress(p []StepStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Progress = p
}

func (m *MockAssessments) LoadAssessment(_ context.Context, stepID roadmap.StepID) (*Assessment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LoadCalls = append(m.LoadCalls, stepID)
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	a, ok := m.Assessments[stepID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *MockAssessments) SubmitAssessment(ctx context.Context, stepID roadmap.StepID, answers []Answer, elapsedSeconds int) (*Result, error) {
	m.mu.Lock()
	gate := m.SubmitGate
	m.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Submissions = append(m.Submissions, Submission{StepID: stepID, Answers: answers, ElapsedSeconds: elapsedSeconds})
	if len(m.results) == 0 {
		return nil, &UnavailableError{StatusCode: 503, Err: ErrNotFound}
	}
	r := m.results[0]
	m.results = m.results[1:]
	return r.Result, r.Err
}

func (m *MockAssessments) GetProgress(_ context.Context, _ string) ([]StepStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ProgressCalls++
	if m.ProgressErr != nil {
		return nil, m.ProgressErr
	}
	out := make([]StepStatus, len(m.Progress))
	copy(out, m.Progress)
	return out, nil
}

// SubmissionCount returns the number of SubmitAssessment calls.
func (m *MockAssessments) SubmissionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Submissions)
}

// ProgressCallCount returns the number of GetProgress calls.
func (m *MockAssessments) ProgressCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ProgressCalls
}
