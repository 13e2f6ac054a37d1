package roadmap

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRoadmap() *Roadmap {
	return New("career-1", "Backend", []Step{
		{ID: "a", Number: 1, AccumulatedMinutes: 10, IsDone: true},
		{ID: "b", Number: 2, AccumulatedMinutes: 5},
		{ID: "c", Number: 3},
	})
}

func TestRoadmap_Lookup(t *testing.T) {
	r := testRoadmap()

	s, ok := r.Step(2)
	require.True(t, ok)
	assert.Equal(t, StepID("b"), s.ID)

	_, ok = r.Step(0)
	assert.False(t, ok)
	_, ok = r.Step(4)
	assert.False(t, ok)

	s, ok = r.StepByID("c")
	require.True(t, ok)
	assert.Equal(t, 3, s.Number)

	_, ok = r.StepByID("missing")
	assert.False(t, ok)
	assert.Equal(t, 3, r.Len())
}

func TestRoadmap_Totals(t *testing.T) {
	r := testRoadmap()
	assert.Equal(t, 15, r.TotalMinutes())
	assert.Equal(t, 1, r.CompletedCount())
}

func TestRoadmap_MarkStartedOnlyOnce(t *testing.T) {
	r := testRoadmap()
	first := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	r.MarkStarted("b", first)
	r.MarkStarted("b", first.Add(time.Hour))

	s, _ := r.StepByID("b")
	require.NotNil(t, s.StartedAt)
	assert.Equal(t, first, *s.StartedAt)
}

func TestRoadmap_AddMinutesIgnoresNonPositive(t *testing.T) {
	r := testRoadmap()
	r.AddMinutes("b", 0)
	r.AddMinutes("b", -2)
	r.AddMinutes("b", 4)

	s, _ := r.StepByID("b")
	assert.Equal(t, 9, s.AccumulatedMinutes)
}

func TestRoadmap_SnapshotsAreCopies(t *testing.T) {
	r := testRoadmap()
	r.MarkStarted("a", time.Now())

	steps := r.Steps()
	steps[0].AccumulatedMinutes = 999
	*steps[0].StartedAt = time.Time{}
	r.SetDone("b", true)

	s, _ := r.StepByID("a")
	assert.Equal(t, 10, s.AccumulatedMinutes)
	assert.False(t, s.StartedAt.IsZero())
	assert.False(t, steps[1].IsDone)
	assert.Equal(t, 2, r.CompletedCount())
}

func TestLoadDocument_Valid(t *testing.T) {
	doc, err := LoadDocument(filepath.Join("testdata", "backend.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "Backend Developer", doc.Title)
	require.Len(t, doc.Steps, 3)
	require.NotNil(t, doc.Steps[0].Assessment)
	assert.Equal(t, 70, doc.Steps[0].Assessment.PassingScore)
	assert.Equal(t, 2, doc.Steps[0].Assessment.Questions[0].CorrectOption)
	assert.Nil(t, doc.Steps[2].Assessment)
}

func TestParseDocument_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"no steps", "title: Empty\nsteps: []\n"},
		{"missing title", "steps:\n  - title: One\n"},
		{"unknown field", "title: X\nsteps:\n  - title: One\n    minutes: 4\n"},
		{"passing score above 100", `title: X
steps:
  - title: One
    assessment:
      title: A
      passing_score: 120
      time_limit_minutes: 5
      questions:
        - text: Q
          options: [a, b]
          correct_option: 0
`},
		{"single option", `title: X
steps:
  - title: One
    assessment:
      title: A
      passing_score: 50
      time_limit_minutes: 5
      questions:
        - text: Q
          options: [a]
          correct_option: 0
`},
		{"answer key out of range", `title: X
steps:
  - title: One
    assessment:
      title: A
      passing_score: 50
      time_limit_minutes: 5
      questions:
        - text: Q
          options: [a, b]
          correct_option: 2
`},
		{"not yaml", "title: [unterminated"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDocument([]byte(tt.doc))
			require.Error(t, err)
		})
	}
}
