// Package ffmpeg runs the ffmpeg binary and reports its progress.
package ffmpeg

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
)

const (
	defaultTailLines      = 20
	defaultInterruptAfter = 2 * time.Second
	defaultWaitDelay      = 5 * time.Second
	maxScannerBuffer      = 1024 * 1024
)

// Invocation is one ffmpeg run. Bytes received on Control are written to
// ffmpeg's stdin, so sending 'q' asks it to finish cleanly.
type Invocation struct {
	Args    []string
	Control <-chan byte
}

// Hooks receive events of a run. They are never called concurrently.
type Hooks struct {
	OnStart    func(commandLine string)
	OnProgress func(Progress)
	OnStderr   func(line string)
	OnStdout   func(line string)
}

// Runner runs ffmpeg to completion.
type Runner interface {
	Run(ctx context.Context, inv Invocation, hooks Hooks) error
}

// Exec runs a local ffmpeg binary. When ctx ends, ffmpeg is sent 'q', then
// SIGINT after InterruptAfter, and is killed once WaitDelay has passed.
type Exec struct {
	Binary         string
	Logger         hclog.Logger
	InterruptAfter time.Duration
	WaitDelay      time.Duration
	TailLines      int
}

// NewExec creates an Exec for binary, "ffmpeg" when empty.
func NewExec(binary string, logger hclog.Logger) *Exec {
	if binary == "" {
		binary = "ffmpeg"
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Exec{
		Binary:         binary,
		Logger:         logger.Named("ffmpeg"),
		InterruptAfter: defaultInterruptAfter,
		WaitDelay:      defaultWaitDelay,
		TailLines:      defaultTailLines,
	}
}

// Run starts ffmpeg with inv.Args, relays its output to hooks and waits for
// it to exit. A non-zero exit or an ended ctx yields a *RunError.
func (e *Exec) Run(ctx context.Context, inv Invocation, hooks Hooks) error {
	logger := e.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	// global options must precede the output file
	args := append([]string{"-progress", "pipe:1", "-nostats"}, inv.Args...)

	cmd := exec.CommandContext(ctx, e.Binary, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to get stdin pipe: %w", err)
	}
	control := &stdinWriter{w: stdin}

	stdoutR, stdoutW := io.Pipe()
	stderrR, stderrW := io.Pipe()
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	var interrupt *time.Timer
	var timerMu sync.Mutex
	cmd.Cancel = func() error {
		logger.Debug("stopping ffmpeg", "reason", context.Cause(ctx))
		control.write('q')
		timerMu.Lock()
		defer timerMu.Unlock()
		interrupt = time.AfterFunc(e.interruptAfter(), func() {
			if cmd.Process != nil {
				_ = cmd.Process.Signal(os.Interrupt)
			}
		})
		return nil
	}
	cmd.WaitDelay = e.waitDelay()

	logger.Debug("running ffmpeg", "binary", e.Binary, "args", args)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", e.Binary, err)
	}

	var hookMu sync.Mutex
	call := func(fn func()) {
		hookMu.Lock()
		defer hookMu.Unlock()
		fn()
	}

	if hooks.OnStart != nil {
		call(func() { hooks.OnStart(commandLine(e.Binary, args)) })
	}

	tail := newTail(e.tailLines())
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		var parser progressParser
		scan(stdoutR, func(line string) {
			p, done, known := parser.feed(line)
			switch {
			case done && hooks.OnProgress != nil:
				call(func() { hooks.OnProgress(p) })
			case !known && hooks.OnStdout != nil:
				call(func() { hooks.OnStdout(line) })
			}
		})
	}()
	go func() {
		defer wg.Done()
		scan(stderrR, func(line string) {
			tail.add(line)
			logger.Trace("stderr", "line", line)
			if hooks.OnStderr != nil {
				call(func() { hooks.OnStderr(line) })
			}
		})
	}()

	done := make(chan struct{})
	if inv.Control != nil {
		go func() {
			for {
				select {
				case <-done:
					return
				case b, ok := <-inv.Control:
					if !ok {
						return
					}
					logger.Debug("forwarding key to ffmpeg", "key", string(b))
					control.write(b)
				}
			}
		}()
	}

	waitErr := cmd.Wait()
	close(done)
	_ = stdoutW.Close()
	_ = stderrW.Close()
	wg.Wait()

	timerMu.Lock()
	if interrupt != nil {
		interrupt.Stop()
	}
	timerMu.Unlock()

	if waitErr == nil && ctx.Err() == nil {
		logger.Debug("ffmpeg finished")
		return nil
	}

	runErr := &RunError{
		Args:       args,
		ExitCode:   -1,
		StderrTail: tail.lines(),
		Err:        waitErr,
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		runErr.ExitCode = exitErr.ExitCode()
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		runErr.Err = ctxErr
	}
	logger.Debug("ffmpeg failed", "exit_code", runErr.ExitCode, "error", runErr.Err)
	return runErr
}

func (e *Exec) interruptAfter() time.Duration {
	if e.InterruptAfter > 0 {
		return e.InterruptAfter
	}
	return defaultInterruptAfter
}

func (e *Exec) waitDelay() time.Duration {
	if e.WaitDelay > 0 {
		return e.WaitDelay
	}
	return defaultWaitDelay
}

func (e *Exec) tailLines() int {
	if e.TailLines > 0 {
		return e.TailLines
	}
	return defaultTailLines
}

// stdinWriter serializes control bytes written from the forwarder and Cancel.
type stdinWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *stdinWriter) write(b byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = s.w.Write([]byte{b})
}

func scan(r io.Reader, fn func(line string)) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxScannerBuffer)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line != "" {
			fn(line)
		}
	}
	// drain so the process never blocks on a full pipe
	_, _ = io.Copy(io.Discard, r)
}

type tail struct {
	mu  sync.Mutex
	max int
	buf []string
}

func newTail(max int) *tail {
	return &tail{max: max}
}

func (t *tail) add(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, line)
	if len(t.buf) > t.max {
		t.buf = t.buf[len(t.buf)-t.max:]
	}
}

func (t *tail) lines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.buf)
}

func commandLine(binary string, args []string) string {
	parts := []string{binary}
	for _, a := range args {
		if a == "" || strings.ContainsAny(a, " \t'\"") {
			a = "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}
