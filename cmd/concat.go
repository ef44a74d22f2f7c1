package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/lepinkainen/ffsimple/pipeline"
	"github.com/lepinkainen/ffsimple/types"
	"github.com/lepinkainen/ffsimple/video"
)

// ConcatCmd joins several inputs into one output, either with the concat
// filter (re-encoding) or the concat demuxer (stream copy).
type ConcatCmd struct {
	Inputs []string `arg:"" name:"inputs" help:"Files to join, in order"`
	Demux  bool     `help:"Use the concat demuxer and stream copy; inputs must share codecs"`

	OutputFlags    `embed:""`
	TransformFlags `embed:""`
	PolicyFlags    `embed:""`
}

func (cmd *ConcatCmd) Run(appCtx *types.AppContext, ctx context.Context) error {
	files, err := video.ExpandInputs(cmd.Inputs)
	if err != nil {
		return err
	}
	if len(files) < 2 {
		return fmt.Errorf("concat needs at least two inputs, got %d", len(files))
	}

	job := pipeline.JobOptions{Inputs: files}
	cmd.OutputFlags.apply(&job)
	cmd.TransformFlags.apply(&job)
	cmd.PolicyFlags.apply(&job)
	defaultSuffix(&job, "_joined")

	if cmd.Demux {
		list, err := pipeline.WriteConcatList(files, "")
		if err != nil {
			return err
		}
		defer func() {
			if err := os.Remove(list); err != nil && appCtx.Logger != nil {
				appCtx.Logger.Warn("failed to remove concat list", "path", list, "error", err)
			}
		}()
		job = pipeline.ConcatDemux(job, list)
		return runJobs(ctx, appCtx, []pipeline.JobOptions{job}, cmd.Halt)
	}

	if err := concatFilter(ctx, appCtx, &job); err != nil {
		return err
	}
	return runJobs(ctx, appCtx, []pipeline.JobOptions{job}, cmd.Halt)
}

// concatFilter makes job join its inputs with the concat filter. Audio is
// joined only when every input has an audio stream.
func concatFilter(ctx context.Context, appCtx *types.AppContext, job *pipeline.JobOptions) error {
	metas, err := newProber(appCtx).ProbeAll(ctx, job.Paths())
	if err != nil {
		return err
	}
	audio := !job.NoAudio
	for _, m := range metas {
		audio = audio && m.HasAudio
	}
	job.Customize = pipeline.Concat(audio)
	return nil
}
