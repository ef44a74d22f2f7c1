package ffmpeg

import (
	"fmt"
	"strings"
)

// RunError reports a failed or interrupted ffmpeg run.
type RunError struct {
	Args       []string
	ExitCode   int // -1 when the process did not exit normally
	StderrTail []string
	Err        error
}

func (e *RunError) Error() string {
	msg := fmt.Sprintf("ffmpeg exited with code %d", e.ExitCode)
	if e.Err != nil {
		msg = fmt.Sprintf("ffmpeg failed: %v", e.Err)
	}
	if n := len(e.StderrTail); n > 0 {
		msg += ": " + e.StderrTail[n-1]
	}
	return msg
}

func (e *RunError) Unwrap() error { return e.Err }

// Detail renders the stderr tail for verbose output.
func (e *RunError) Detail() string {
	return strings.Join(e.StderrTail, "\n")
}
