package reconcile

import "fmt"

// ReconciliationError is implemented by every error that stops a job before
// its output path is settled.
type ReconciliationError interface {
	error
	reconciliationError()
}

type stateError struct {
	msg string
}

func (e *stateError) Error() string      { return e.msg }
func (*stateError) reconciliationError() {}

var (
	// ErrCancelled is returned when the operator cancels at the prompt.
	ErrCancelled ReconciliationError = &stateError{msg: "output already exists, cancelled"}
	// ErrUnanswered is returned when an existing output needs a decision but
	// prompting is disabled.
	ErrUnanswered ReconciliationError = &stateError{msg: "output already exists and no choice was made"}
)

// RenameExhaustedError reports that every numbered alternative was taken.
type RenameExhaustedError struct {
	Path     string
	Attempts int
}

func (e *RenameExhaustedError) Error() string {
	return fmt.Sprintf("no free name for %s after %d attempts", e.Path, e.Attempts)
}

func (*RenameExhaustedError) reconciliationError() {}
