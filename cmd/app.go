package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/lepinkainen/ffsimple/ffmpeg"
	"github.com/lepinkainen/ffsimple/orchestrator"
	"github.com/lepinkainen/ffsimple/pipeline"
	"github.com/lepinkainen/ffsimple/probe"
	"github.com/lepinkainen/ffsimple/reconcile"
	"github.com/lepinkainen/ffsimple/types"
	"github.com/lepinkainen/ffsimple/ui"
	"github.com/lepinkainen/ffsimple/utils"
)

func output(appCtx *types.AppContext) io.Writer {
	if appCtx.Out != nil {
		return appCtx.Out
	}
	return os.Stdout
}

func attended(appCtx *types.AppContext) bool {
	return !appCtx.Silent && isatty.IsTerminal(os.Stdin.Fd())
}

func newProber(appCtx *types.AppContext) *probe.Prober {
	bins := appCtx.Binaries.WithDefaults()
	p := probe.New(probe.ExecRunner{Binary: bins.FFprobe}, appCtx.Cache, appCtx.Logger)
	if !appCtx.Silent && isatty.IsTerminal(os.Stderr.Fd()) {
		p.BarOutput = os.Stderr
	}
	return p
}

// newOrchestrator wires the prober, reconciler, ffmpeg runner and console
// reporter for one command run.
func newOrchestrator(appCtx *types.AppContext) *orchestrator.Orchestrator {
	bins := appCtx.Binaries.WithDefaults()
	prober := newProber(appCtx)

	trash := utils.NewTrash()
	if appCtx.Config != nil {
		trash.Dir = appCtx.Config.TrashDir
	}

	var prompter reconcile.Prompter
	if attended(appCtx) {
		prompter = ui.NewChoicePrompt()
	}

	o := orchestrator.New(prober,
		ffmpeg.NewExec(bins.FFmpeg, appCtx.Logger),
		reconcile.New(prober, trash, prompter, appCtx.Logger),
		appCtx.Logger,
	)
	o.Trash = trash
	o.Cache = appCtx.Cache
	o.Timeout = appCtx.Timeout
	o.FFmpeg = bins.FFmpeg
	if !appCtx.Silent {
		o.Reporter = ui.NewConsoleReporter(output(appCtx), appCtx.Verbose)
	}
	if attended(appCtx) {
		o.Keys = ui.Keystrokes(os.Stdin)
	}
	return o
}

// prepareJobs applies the global flags and lays every job over the global preset.
func prepareJobs(appCtx *types.AppContext, jobs []pipeline.JobOptions) ([]pipeline.JobOptions, error) {
	out := make([]pipeline.JobOptions, 0, len(jobs))
	for _, job := range jobs {
		job.Silent = job.Silent || appCtx.Silent
		job.Verbose = job.Verbose || appCtx.Verbose
		if appCtx.Config != nil {
			merged, err := appCtx.Config.Apply(appCtx.Preset, job)
			if err != nil {
				return nil, err
			}
			job = merged
		}
		out = append(out, job)
	}
	return out, nil
}

// runJobs runs jobs as one batch and reports the outcome.
func runJobs(ctx context.Context, appCtx *types.AppContext, jobs []pipeline.JobOptions, halt bool) error {
	if len(jobs) == 0 {
		return errors.New("nothing to do")
	}
	jobs, err := prepareJobs(appCtx, jobs)
	if err != nil {
		return err
	}
	for _, job := range jobs {
		halt = halt || job.Halt
	}

	summary, err := newOrchestrator(appCtx).Batch(ctx, jobs, orchestrator.BatchPolicy{Halt: halt})
	if len(jobs) > 1 && !appCtx.Silent {
		fmt.Fprintln(output(appCtx))
		ui.PrintSummary(output(appCtx), summary)
	}
	if err != nil {
		return err
	}
	switch {
	case summary.Failed == 0:
		return nil
	case len(jobs) == 1:
		return summary.Failures[0].Err
	default:
		return fmt.Errorf("%d of %d jobs failed", summary.Failed, len(jobs))
	}
}
