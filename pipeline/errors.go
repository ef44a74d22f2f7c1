package pipeline

import "fmt"

// CompileError is implemented by every error Compile returns. Use errors.As
// with a CompileError target to catch the whole family.
type CompileError interface {
	error
	compileError()
}

// InvalidSubtitlesError means neither the subtitles path nor the same-named
// .srt next to the input exists.
type InvalidSubtitlesError struct {
	Path  string
	Guess string
}

func (e *InvalidSubtitlesError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("subtitles not found: %s", e.Guess)
	}
	return fmt.Sprintf("subtitles not found: %s (also tried %s)", e.Path, e.Guess)
}

func (*InvalidSubtitlesError) compileError() {}

// InvalidSubtitlesModeError reports a subtitles mode other than burn or stream.
type InvalidSubtitlesModeError struct {
	Mode string
}

func (e *InvalidSubtitlesModeError) Error() string {
	return fmt.Sprintf("invalid subtitles mode %q, expected %q or %q", e.Mode, SubtitlesBurn, SubtitlesStream)
}

func (*InvalidSubtitlesModeError) compileError() {}

// UnsupportedSpeedError reports a speed that cannot be built from at most
// ten atempo stages.
type UnsupportedSpeedError struct {
	Speed float64
}

func (e *UnsupportedSpeedError) Error() string {
	return fmt.Sprintf("unsupported speed %g: must be within [%g, %g]", e.Speed, minSpeed(), maxSpeed())
}

func (*UnsupportedSpeedError) compileError() {}

// MissingOutputError means no output was given and none can be derived
// because the job has no input path.
type MissingOutputError struct{}

func (e *MissingOutputError) Error() string {
	return "no output given and none can be derived without an input path"
}

func (*MissingOutputError) compileError() {}

// NoInputError means the job resolved to no input at all.
type NoInputError struct {
	Patterns []string
}

func (e *NoInputError) Error() string {
	if len(e.Patterns) == 0 {
		return "no input given"
	}
	return fmt.Sprintf("no input matches %v", e.Patterns)
}

func (*NoInputError) compileError() {}
