package gateway

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"github.com/abhisek/waypoint/internal/roadmap"
)

// RetryConfig configures retry behavior for load operations.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	InitialWait time.Duration `yaml:"initial_wait"`
	MaxWait     time.Duration `yaml:"max_wait"`
	Multiplier  float64       `yaml:"multiplier"`
}

// DefaultRetryConfig returns the retry policy used for load operations.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		InitialWait: 500 * time.Millisecond,
		MaxWait:     5 * time.Second,
		Multiplier:  2.0,
	}
}

// RetryAssessments is a decorator that retries the blocking load
// operations (LoadAssessment, GetProgress) with exponential backoff and
// jitter. Submissions are never retried: a repeated submit would record a
// second attempt.
type RetryAssessments struct {
	inner  Assessments
	config RetryConfig
	sleep  func(ctx context.Context, d time.Duration) error
}

// WithRetry wraps an Assessments gateway with retry logic.
func WithRetry(a Assessments, cfg RetryConfig) *RetryAssessments {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &RetryAssessments{inner: a, config: cfg, sleep: sleepCtx}
}

func (r *RetryAssessments) LoadAssessment(ctx context.Context, stepID roadmap.StepID) (*Assessment, error) {
	var out *Assessment
	err := r.do(ctx, true, func() error {
		var err error
		out, err = r.inner.LoadAssessment(ctx, stepID)
		return err
	})
	return out, err
}

func (r *RetryAssessments) SubmitAssessment(ctx context.Context, stepID roadmap.StepID, answers []Answer, elapsedSeconds int) (*Result, error) {
	return r.inner.SubmitAssessment(ctx, stepID, answers, elapsedSeconds)
}

func (r *RetryAssessments) GetProgress(ctx context.Context, careerID string) ([]StepStatus, error) {
	var out []StepStatus
	err := r.do(ctx, false, func() error {
		var err error
		out, err = r.inner.GetProgress(ctx, careerID)
		return err
	})
	return out, err
}

func (r *RetryAssessments) do(ctx context.Context, retryNotFound bool, call func() error) error {
	var lastErr error
	for attempt := range r.config.MaxAttempts {
		err := call()
		if err == nil {
			return nil
		}
		lastErr = err

		if !shouldRetry(err, retryNotFound) {
			return err
		}
		if attempt == r.config.MaxAttempts-1 {
			break
		}
		if err := r.sleep(ctx, r.backoff(attempt)); err != nil {
			return err
		}
	}
	return lastErr
}

func shouldRetry(err error, retryNotFound bool) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if retryNotFound && errors.Is(err, ErrNotFound) {
		return true
	}
	return IsTransient(err)
}

// backoff computes the wait before the next attempt.
func (r *RetryAssessments) backoff(attempt int) time.Duration {
	wait := float64(r.config.InitialWait) * math.Pow(r.config.Multiplier, float64(attempt))
	if wait > float64(r.config.MaxWait) {
		wait = float64(r.config.MaxWait)
	}

	// ±20% jitter.
	wait += wait * 0.2 * (2*rand.Float64() - 1)
	if wait < 0 {
		wait = 0
	}
	return time.Duration(wait)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
