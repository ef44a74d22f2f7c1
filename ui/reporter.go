package ui

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/bubbles/progress"

	"github.com/lepinkainen/ffsimple/ffmpeg"
	"github.com/lepinkainen/ffsimple/orchestrator"
	eta "github.com/lepinkainen/ffsimple/progress"
)

// ConsoleReporter prints job events as styled lines, redrawing a single
// progress line while ffmpeg runs.
type ConsoleReporter struct {
	mu      sync.Mutex
	out     io.Writer
	verbose bool
	bar     progress.Model
	inline  bool // a progress line without newline is on screen
}

// NewConsoleReporter writes to out. With verbose the command line and the
// ffmpeg stderr are shown too.
func NewConsoleReporter(out io.Writer, verbose bool) *ConsoleReporter {
	return &ConsoleReporter{
		out:     out,
		verbose: verbose,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(30)),
	}
}

// breakLine ends a pending progress line. Callers hold mu.
func (r *ConsoleReporter) breakLine() {
	if r.inline {
		fmt.Fprintln(r.out)
		r.inline = false
	}
}

func (r *ConsoleReporter) Start(job *orchestrator.Job, commandLine string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.breakLine()
	fmt.Fprintln(r.out, ProcessingStyle.Render(fmt.Sprintf("🎬 %s → %s", job.Label(), job.Plan.Output)))
	if r.verbose {
		fmt.Fprintln(r.out, InfoStyle.Render(commandLine))
	}
}

func (r *ConsoleReporter) Progress(_ *orchestrator.Job, est eta.Estimate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "\r%s %s", r.bar.ViewAs(est.Ratio), eta.Line(est))
	r.inline = true
}

func (r *ConsoleReporter) Stderr(_ *orchestrator.Job, line string) {
	if !r.verbose {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.breakLine()
	fmt.Fprintln(r.out, line)
}

func (r *ConsoleReporter) Warn(_ *orchestrator.Job, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.breakLine()
	fmt.Fprintln(r.out, WarningStyle.Render("⚠️  "+msg))
}

func (r *ConsoleReporter) Done(job *orchestrator.Job, res *orchestrator.Result, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.breakLine()

	switch {
	case err != nil:
		fmt.Fprintln(r.out, ErrorStyle.Render(fmt.Sprintf("❌ %s: %v", job.Label(), err)))
		var runErr *ffmpeg.RunError
		if r.verbose && errors.As(err, &runErr) && len(runErr.StderrTail) > 0 {
			fmt.Fprintln(r.out, runErr.Detail())
		}
	case res.Skipped:
		fmt.Fprintln(r.out, InfoStyle.Render(fmt.Sprintf("⏭️  Skipped %s: %s exists", job.Label(), res.Output)))
	default:
		line := "✅ " + res.Output
		if m := res.Metadata; m != nil {
			line += fmt.Sprintf(" (%s, %s)", m.HumanSize(), m.HumanDuration())
		}
		fmt.Fprintln(r.out, SuccessStyle.Render(line))
	}
}

// PrintSummary writes the batch outcome with one line per failure.
func PrintSummary(out io.Writer, s *orchestrator.Summary) {
	style := SuccessStyle
	if s.Failed > 0 {
		style = ErrorStyle
	}
	fmt.Fprintln(out, style.Render(fmt.Sprintf("📊 %d succeeded, %d failed, %d skipped", s.Succeeded, s.Failed, s.Skipped)))

	inputs := make([]string, len(s.Failures))
	for i, f := range s.Failures {
		inputs[i] = f.Input
	}
	for i, short := range ShortPaths(inputs) {
		fmt.Fprintln(out, ErrorStyle.Render(fmt.Sprintf("   ❌ %s: %v", short, s.Failures[i].Err)))
	}
}
