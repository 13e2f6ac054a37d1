package progression

import "errors"

// Warning is a recoverable, user-facing condition: a validation failure or
// a lock reported by the gate or the server. State is unchanged when a
// Warning is returned.
type Warning struct {
	Message string
	Err     error
}

func (w *Warning) Error() string { return w.Message }

func (w *Warning) Unwrap() error { return w.Err }

// IsWarning reports whether err belongs on the warning channel rather than
// being treated as a failure.
func IsWarning(err error) bool {
	var w *Warning
	return errors.As(err, &w)
}

func warn(err error, message string) error {
	return &Warning{Message: message, Err: err}
}
