// Package remote implements the Persistence and Assessment gateways as an
// HTTP client of the waypoint API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/abhisek/waypoint/internal/api"
	"github.com/abhisek/waypoint/internal/gateway"
	"github.com/abhisek/waypoint/internal/roadmap"
)

// Client talks to a waypoint API server.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

var (
	_ gateway.Persistence = (*Client)(nil)
	_ gateway.Assessments = (*Client)(nil)
	_ gateway.Catalog     = (*Client)(nil)
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithToken sets the bearer token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// New creates a Client for baseURL, e.g. "http://localhost:8787".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid API URL %q", baseURL)
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) StartStep(ctx context.Context, stepID roadmap.StepID) error {
	return c.do(ctx, http.MethodPost, stepPath(stepID, "start"), nil, nil)
}

func (c *Client) RecordElapsed(ctx context.Context, stepID roadmap.StepID, minutes int) error {
	return c.do(ctx, http.MethodPost, stepPath(stepID, "elapsed"), api.ElapsedRequest{Minutes: minutes}, nil)
}

func (c *Client) SetStepDone(ctx context.Context, stepID roadmap.StepID, done bool) (gateway.DoneResult, error) {
	var res gateway.DoneResult
	err := c.do(ctx, http.MethodPut, stepPath(stepID, "done"), api.DoneRequest{Done: done}, &res)
	return res, err
}

func (c *Client) LoadAssessment(ctx context.Context, stepID roadmap.StepID) (*gateway.Assessment, error) {
	var a gateway.Assessment
	if err := c.do(ctx, http.MethodGet, stepPath(stepID, "assessment"), nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Client) SubmitAssessment(ctx context.Context, stepID roadmap.StepID, answers []gateway.Answer, elapsedSeconds int) (*gateway.Result, error) {
	var res gateway.Result
	body := api.SubmitRequest{Answers: answers, ElapsedSeconds: elapsedSeconds}
	if err := c.do(ctx, http.MethodPost, stepPath(stepID, "assessment/submit"), body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) GetProgress(ctx context.Context, careerID string) ([]gateway.StepStatus, error) {
	var out []gateway.StepStatus
	if err := c.do(ctx, http.MethodGet, "/api/careers/"+url.PathEscape(careerID)+"/progress", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListCareers(ctx context.Context) ([]gateway.Career, error) {
	var out []gateway.Career
	if err := c.do(ctx, http.MethodGet, "/api/careers", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) LoadRoadmap(ctx context.Context, careerID string) (*roadmap.Roadmap, error) {
	var p api.RoadmapPayload
	if err := c.do(ctx, http.MethodGet, "/api/careers/"+url.PathEscape(careerID)+"/roadmap", nil, &p); err != nil {
		return nil, err
	}
	return p.Roadmap(), nil
}

func stepPath(id roadmap.StepID, action string) string {
	return "/api/steps/" + url.PathEscape(string(id)) + "/" + action
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &gateway.UnavailableError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &gateway.UnavailableError{StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// decodeError maps a problem response back to the gateway taxonomy.
func decodeError(resp *http.Response) error {
	p := &api.ProblemDetail{Status: resp.StatusCode, Title: http.StatusText(resp.StatusCode)}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, p); err != nil {
			p.Detail = strings.TrimSpace(string(raw))
		}
	}

	switch {
	case resp.StatusCode == http.StatusLocked:
		return fmt.Errorf("%w: %s", gateway.ErrLocked, p.Detail)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", gateway.ErrNotFound, p.Detail)
	case resp.StatusCode == http.StatusForbidden:
		reason := p.Detail
		if reason == "" {
			reason = gateway.ErrAssessmentRequired.Error()
		}
		return &gateway.RejectedError{Reason: reason}
	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= 500:
		return &gateway.UnavailableError{StatusCode: resp.StatusCode, Err: errors.New(p.Error())}
	}
	return fmt.Errorf("request failed (status %d): %w", resp.StatusCode, p)
}
