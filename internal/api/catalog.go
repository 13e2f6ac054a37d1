package api

import (
	"net/http"
	"time"

	"github.com/abhisek/waypoint/internal/roadmap"
)

// StepPayload is one step of a RoadmapPayload.
type StepPayload struct {
	ID                 roadmap.StepID `json:"stepId"`
	Number             int            `json:"number"`
	Title              string         `json:"title"`
	Description        string         `json:"description,omitempty"`
	IsDone             bool           `json:"isDone"`
	StartedAt          *time.Time     `json:"startedAt,omitempty"`
	AccumulatedMinutes int            `json:"accumulatedMinutes"`
	HasAssessment      bool           `json:"hasAssessment"`
}

// RoadmapPayload is the body of GET /api/careers/{id}/roadmap.
type RoadmapPayload struct {
	CareerID    string        `json:"careerId"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Steps       []StepPayload `json:"steps"`
}

// NewRoadmapPayload converts a roadmap for the wire.
func NewRoadmapPayload(rm *roadmap.Roadmap) RoadmapPayload {
	steps := rm.Steps()
	p := RoadmapPayload{
		CareerID:    rm.CareerID,
		Title:       rm.Title,
		Description: rm.Description,
		Steps:       make([]StepPayload, len(steps)),
	}
	for i, s := range steps {
		p.Steps[i] = StepPayload{
			ID:                 s.ID,
			Number:             s.Number,
			Title:              s.Title,
			Description:        s.Description,
			IsDone:             s.IsDone,
			StartedAt:          s.StartedAt,
			AccumulatedMinutes: s.AccumulatedMinutes,
			HasAssessment:      s.HasAssessment,
		}
	}
	return p
}

// Roadmap rebuilds the roadmap model.
func (p RoadmapPayload) Roadmap() *roadmap.Roadmap {
	steps := make([]roadmap.Step, len(p.Steps))
	for i, s := range p.Steps {
		steps[i] = roadmap.Step{
			ID:                 s.ID,
			Number:             s.Number,
			Title:              s.Title,
			Description:        s.Description,
			IsDone:             s.IsDone,
			StartedAt:          s.StartedAt,
			AccumulatedMinutes: s.AccumulatedMinutes,
			HasAssessment:      s.HasAssessment,
		}
	}
	rm := roadmap.New(p.CareerID, p.Title, steps)
	rm.Description = p.Description
	return rm
}

func (s *Server) handleListCareers(w http.ResponseWriter, r *http.Request) {
	careers, err := s.opts.Catalog.ListCareers(r.Context())
	if err != nil {
		s.writeGatewayError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, careers)
}

func (s *Server) handleRoadmap(w http.ResponseWriter, r *http.Request) {
	rm, err := s.opts.Catalog.LoadRoadmap(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeGatewayError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, NewRoadmapPayload(rm))
}
