package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

// Problem types. Clients map them back to gateway errors.
const (
	ProblemLocked             = "urn:waypoint:problem:locked"
	ProblemNotFound           = "urn:waypoint:problem:not-found"
	ProblemAssessmentRequired = "urn:waypoint:problem:assessment-required"
	ProblemBadRequest         = "urn:waypoint:problem:bad-request"
	ProblemUnauthorized       = "urn:waypoint:problem:unauthorized"
	ProblemRateLimited        = "urn:waypoint:problem:rate-limited"
	ProblemInternal           = "urn:waypoint:problem:internal"
)

// ProblemDetail is an RFC 7807 error body. Every error response uses it.
type ProblemDetail struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

func (p *ProblemDetail) Error() string {
	if p.Detail == "" {
		return p.Title
	}
	return fmt.Sprintf("%s: %s", p.Title, p.Detail)
}

// ProblemContentType is the media type of error bodies.
const ProblemContentType = "application/problem+json"

func writeProblem(w http.ResponseWriter, r *http.Request, status int, typ, title, detail string) {
	p := &ProblemDetail{
		Type:     typ,
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: r.URL.Path,
	}
	w.Header().Set("Content-Type", ProblemContentType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(p)
}

func writeBadRequest(w http.ResponseWriter, r *http.Request, detail string) {
	writeProblem(w, r, http.StatusBadRequest, ProblemBadRequest, "Bad Request", detail)
}

func writeUnauthorized(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="waypoint"`)
	writeProblem(w, r, http.StatusUnauthorized, ProblemUnauthorized, "Unauthorized", "A valid bearer token is required")
}

func writeTooManyRequests(w http.ResponseWriter, r *http.Request, retryAfterSecs int) {
	w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfterSecs))
	writeProblem(w, r, http.StatusTooManyRequests, ProblemRateLimited, "Too Many Requests", "Rate limit exceeded")
}

// writeInternal logs err and never exposes it to the client.
func writeInternal(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	logger.Error("internal server error", "path", r.URL.Path, "err", err)
	writeProblem(w, r, http.StatusInternalServerError, ProblemInternal, "Internal Server Error", "An unexpected error occurred. Please try again later.")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
