package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lepinkainen/ffsimple/pipeline"
	"github.com/lepinkainen/ffsimple/progress"
	"github.com/lepinkainen/ffsimple/types"
)

// CutCmd extracts a time range. Without an explicit codec the streams are
// copied, so cut points snap to keyframes.
type CutCmd struct {
	Inputs []string `arg:"" name:"inputs" help:"Input files, directories or glob patterns"`

	TrimFlags      `embed:""`
	OutputFlags    `embed:""`
	TransformFlags `embed:""`
	PolicyFlags    `embed:""`
}

func (cmd *CutCmd) Run(appCtx *types.AppContext, ctx context.Context) error {
	if cmd.TrimFlags.empty() {
		return errors.New("cut needs --from, --to or --duration")
	}
	jobs, err := perInput(cmd.Inputs, cmd.OutputFlags, func(path string) (pipeline.JobOptions, error) {
		job := pipeline.FromString(path)
		cmd.OutputFlags.apply(&job)
		cmd.TransformFlags.apply(&job)
		cmd.TrimFlags.apply(&job)
		cmd.PolicyFlags.apply(&job)
		if !cmd.TransformFlags.hasCodec() {
			job.Copy = true
		}
		defaultSuffix(&job, "_cut")
		return job, nil
	})
	if err != nil {
		return err
	}
	return runJobs(ctx, appCtx, jobs, cmd.Halt)
}

// SampleCmd cuts a short clip from the middle of each input, for trying out
// encoder settings before a full run.
type SampleCmd struct {
	Inputs []string      `arg:"" name:"inputs" help:"Input files, directories or glob patterns"`
	Length time.Duration `help:"Length of the sample" default:"10s"`

	OutputFlags    `embed:""`
	TransformFlags `embed:""`
	PolicyFlags    `embed:""`
}

func (cmd *SampleCmd) Run(appCtx *types.AppContext, ctx context.Context) error {
	if cmd.Length <= 0 {
		return fmt.Errorf("sample length must be positive, got %s", cmd.Length)
	}
	prober := newProber(appCtx)
	jobs, err := perInput(cmd.Inputs, cmd.OutputFlags, func(path string) (pipeline.JobOptions, error) {
		meta, err := prober.Probe(ctx, path)
		if err != nil {
			return pipeline.JobOptions{}, err
		}
		from, length := sampleWindow(meta.Length(), cmd.Length)

		job := pipeline.FromString(path)
		cmd.OutputFlags.apply(&job)
		cmd.TransformFlags.apply(&job)
		cmd.PolicyFlags.apply(&job)
		job.From = progress.FormatTimemark(from)
		job.Duration = progress.FormatTimemark(length)
		defaultSuffix(&job, "_sample")
		return job, nil
	})
	if err != nil {
		return err
	}
	return runJobs(ctx, appCtx, jobs, cmd.Halt)
}

// sampleWindow centers a window of length in total. Inputs shorter than the
// window are taken whole; an unknown total starts at zero.
func sampleWindow(total, length time.Duration) (from, dur time.Duration) {
	if total <= 0 {
		return 0, length
	}
	if length >= total {
		return 0, total
	}
	return (total - length) / 2, length
}
