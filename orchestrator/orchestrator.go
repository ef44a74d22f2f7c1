// Package orchestrator drives a compiled job from input expansion to the
// post-processed output: probe, compile, reconcile, run ffmpeg, verify and
// optionally replace the input in place.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/lepinkainen/ffsimple/ffmpeg"
	"github.com/lepinkainen/ffsimple/pipeline"
	"github.com/lepinkainen/ffsimple/probe"
	"github.com/lepinkainen/ffsimple/progress"
	"github.com/lepinkainen/ffsimple/reconcile"
	"github.com/lepinkainen/ffsimple/video"
)

// DefaultFrameThreshold is the largest perceptual hash distance between an
// input and an output frame that still counts as the same picture.
const DefaultFrameThreshold = 10

// State is the lifecycle position of a Job.
type State int

const (
	StatePending State = iota
	StateCompiled
	StateOutputResolved
	StateRunning
	StateEnded
	StatePostProcessing
	StateDone
	StateFailed
	StateSkipped
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateCompiled:
		return "compiled"
	case StateOutputResolved:
		return "output-resolved"
	case StateRunning:
		return "running"
	case StateEnded:
		return "ended"
	case StatePostProcessing:
		return "post-processing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	case StateSkipped:
		return "skipped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Job is one prepared conversion.
type Job struct {
	Options  pipeline.JobOptions
	Inputs   []string
	Metadata []*probe.Metadata
	Plan     *pipeline.Plan
	Output   reconcile.Result
	State    State
	Err      error
}

// Label names the job in messages: its first input, or its output.
func (j *Job) Label() string {
	if len(j.Inputs) > 0 {
		return j.Inputs[0]
	}
	if paths := j.Options.Paths(); len(paths) > 0 {
		return paths[0]
	}
	if j.Plan != nil {
		return j.Plan.Output
	}
	return j.Options.Output
}

// Result is a finished job.
type Result struct {
	Job      *Job
	Output   string
	Skipped  bool
	Metadata *probe.Metadata

	// Integrity is set when the output could be probed.
	Integrity *Integrity
	// FrameDistance is set when VerifyFrames compared a frame.
	FrameDistance *int
	Warnings      []string
}

// Prober is the metadata capability the orchestrator needs.
type Prober interface {
	ProbeAll(ctx context.Context, paths []string) ([]*probe.Metadata, error)
	ProbeFresh(ctx context.Context, path string) (*probe.Metadata, error)
}

// OutputReconciler settles the compiled output path.
type OutputReconciler interface {
	Reconcile(ctx context.Context, candidate string, policy reconcile.Policy) (reconcile.Result, error)
}

// Orchestrator runs jobs. Prober, Runner and Reconciler are required; the
// other fields are optional.
type Orchestrator struct {
	Prober     Prober
	Runner     ffmpeg.Runner
	Reconciler OutputReconciler
	// Trash receives replaced outputs and backups; nil removes them.
	Trash    reconcile.Trasher
	Reporter Reporter
	// Keys returns operator keystrokes for the ffmpeg control channel while
	// ctx is alive. Nil means unattended.
	Keys   func(ctx context.Context) <-chan byte
	Cache  *probe.Cache
	Logger hclog.Logger

	Timeout           time.Duration
	FFmpeg            string
	FrameThreshold    int
	MaxRenameAttempts int
}

// New creates an orchestrator with the required collaborators.
func New(prober Prober, runner ffmpeg.Runner, reconciler OutputReconciler, logger hclog.Logger) *Orchestrator {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Orchestrator{
		Prober:         prober,
		Runner:         runner,
		Reconciler:     reconciler,
		Logger:         logger.Named("orchestrator"),
		FFmpeg:         "ffmpeg",
		FrameThreshold: DefaultFrameThreshold,
	}
}

// Convert prepares and runs a single job.
func (o *Orchestrator) Convert(ctx context.Context, opts pipeline.JobOptions) (*Result, error) {
	job, err := o.Prepare(ctx, opts)
	if err != nil {
		return nil, err
	}
	return o.Run(ctx, job)
}

// Prepare expands the inputs, probes them, compiles the plan and settles the
// output path. No external process is started and, apart from the output's
// parent directory, nothing is written. A job whose output already exists
// under the skip policy comes back in StateSkipped with a nil error.
func (o *Orchestrator) Prepare(ctx context.Context, opts pipeline.JobOptions) (*Job, error) {
	opts = opts.Clone()
	job := &Job{Options: opts}

	fromSources := len(opts.Sources) > 0
	patterns := opts.Paths()
	if fromSources {
		patterns = opts.Sources
	}
	inputs, err := video.ExpandInputs(patterns)
	if err != nil {
		return o.fail(job, fmt.Errorf("failed to expand inputs: %w", err))
	}
	if len(inputs) == 0 && opts.Customize == nil {
		return o.fail(job, &pipeline.NoInputError{Patterns: patterns})
	}
	job.Inputs = inputs
	if !fromSources && len(inputs) > 0 {
		opts.Input = ""
		opts.Inputs = inputs
		job.Options = opts
	}

	metas, err := o.Prober.ProbeAll(ctx, inputs)
	if err != nil {
		return o.fail(job, err)
	}
	job.Metadata = metas

	plan, err := pipeline.Compile(opts, metas)
	if err != nil {
		return o.fail(job, err)
	}
	job.Plan = plan
	job.State = StateCompiled
	for _, w := range plan.Warnings {
		o.reporter(job, nil).Warn(job, w)
	}

	res, err := o.Reconciler.Reconcile(ctx, plan.Output, reconcile.Policy{
		Skip:              opts.Skip,
		Overwrite:         opts.Overwrite,
		Quiet:             opts.Silent,
		Permanent:         opts.Permanent,
		MaxRenameAttempts: o.MaxRenameAttempts,
	})
	job.Output = res
	if err != nil {
		return o.fail(job, err)
	}
	if res.Skipped {
		o.Logger.Info("output exists, skipping", "output", res.Output)
		job.State = StateSkipped
		return job, nil
	}
	plan.Output = res.Output
	job.State = StateOutputResolved
	return job, nil
}

// Run executes a prepared job and post-processes its output. Relay of
// progress and stderr goes to the Reporter; a failed ffmpeg run is returned
// as *ffmpeg.RunError.
func (o *Orchestrator) Run(ctx context.Context, job *Job) (*Result, error) {
	return o.run(ctx, job, o.reporter(job, nil))
}

func (o *Orchestrator) run(ctx context.Context, job *Job, rep Reporter) (*Result, error) {
	if job.State == StateSkipped {
		res := &Result{Job: job, Output: job.Output.Output, Skipped: true}
		rep.Done(job, res, nil)
		return res, nil
	}
	if job.State != StateOutputResolved || job.Plan == nil {
		return nil, fmt.Errorf("job %s is not ready to run (state %s)", job.Label(), job.State)
	}

	runCtx := ctx
	if o.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, o.Timeout)
		defer cancel()
	}

	tracker := progress.NewTracker(progress.WithDuration(ExpectedDuration(job.Plan)))
	tracker.Start()

	inv := ffmpeg.Invocation{Args: job.Plan.Args()}
	if o.Keys != nil && !job.Options.Silent {
		keyCtx, stopKeys := context.WithCancel(runCtx)
		defer stopKeys()
		inv.Control = o.Keys(keyCtx)
	}
	hooks := ffmpeg.Hooks{
		OnStart: func(commandLine string) {
			o.Logger.Debug("ffmpeg started", "command", commandLine)
			rep.Start(job, commandLine)
		},
		OnProgress: func(p ffmpeg.Progress) {
			rep.Progress(job, tracker.Sample(p.Sample()))
		},
		OnStderr: func(line string) {
			rep.Stderr(job, line)
		},
	}

	job.State = StateRunning
	err := o.Runner.Run(runCtx, inv, hooks)
	job.State = StateEnded
	if err != nil {
		_, ferr := o.fail(job, err)
		rep.Done(job, nil, ferr)
		return nil, ferr
	}

	res, err := o.postProcess(ctx, job, rep)
	if err != nil {
		_, ferr := o.fail(job, err)
		rep.Done(job, res, ferr)
		return res, ferr
	}
	job.State = StateDone
	rep.Done(job, res, nil)
	return res, nil
}

// ExpectedDuration is the output length the progress ratio is measured
// against: the explicit duration, else To minus From, else the input length
// minus From, divided by the speed factor.
func ExpectedDuration(plan *pipeline.Plan) time.Duration {
	opts := plan.Options
	from := parseTime(opts.From)

	d := plan.InputDuration - from
	switch {
	case opts.Duration != "":
		d = parseTime(opts.Duration)
	case opts.To != "":
		d = parseTime(opts.To) - from
	}
	if opts.Speed > 0 {
		d = time.Duration(float64(d) / opts.Speed)
	}
	if d < 0 {
		return 0
	}
	return d
}

func parseTime(s string) time.Duration {
	if s == "" {
		return 0
	}
	d, err := progress.ParseTimemark(s)
	if err != nil {
		return 0
	}
	return d
}

func (o *Orchestrator) fail(job *Job, err error) (*Job, error) {
	job.State = StateFailed
	job.Err = err
	if !errors.Is(err, reconcile.ErrCancelled) {
		o.Logger.Debug("job failed", "input", job.Label(), "error", err)
	}
	return job, err
}

func (o *Orchestrator) reporter(job *Job, override Reporter) Reporter {
	if job != nil && job.Options.Silent {
		return NopReporter{}
	}
	if override != nil {
		return override
	}
	if o.Reporter == nil {
		return NopReporter{}
	}
	return o.Reporter
}
