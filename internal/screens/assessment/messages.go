package assessment

import "github.com/abhisek/waypoint/internal/gateway"

// tickMsg drives the countdown once per second.
type tickMsg struct {
	gen int
}

// submittedMsg carries the outcome of a manual or automatic submission.
type submittedMsg struct {
	Result *gateway.Result
	Auto   bool
	Err    error
}

// reopenedMsg is sent when a retry has loaded a fresh attempt.
type reopenedMsg struct {
	Err error
}
