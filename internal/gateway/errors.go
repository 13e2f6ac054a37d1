package gateway

import (
	"errors"
	"fmt"
)

var (
	// ErrLocked means the step is gated behind an earlier step's assessment.
	ErrLocked = errors.New("step is locked")

	// ErrNotFound means the assessment does not exist yet (it may still be
	// generating); callers may retry after a short delay.
	ErrNotFound = errors.New("assessment not found")

	// ErrAssessmentRequired means the step's assessment must be passed first.
	ErrAssessmentRequired = errors.New("assessment must be passed first")
)

// UnavailableError is a transient failure (network, 5xx). Load operations
// may be retried; flush operations are best-effort and are not.
type UnavailableError struct {
	StatusCode int
	Err        error
}

func (e *UnavailableError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("gateway unavailable (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("gateway unavailable: %v", e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// RejectedError carries a server rejection reason that must be shown to
// the user verbatim.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string {
	return e.Reason
}

func (e *RejectedError) Unwrap() error { return ErrAssessmentRequired }

// IsTransient reports whether err is a transient gateway failure.
func IsTransient(err error) bool {
	var u *UnavailableError
	return errors.As(err, &u)
}

// IsLockCondition reports whether err is a lock or authorization outcome,
// which is routed to the user-facing warning channel rather than treated
// as a failure.
func IsLockCondition(err error) bool {
	return errors.Is(err, ErrLocked) || errors.Is(err, ErrAssessmentRequired)
}
