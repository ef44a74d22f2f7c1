package cmd

import (
	"context"

	"github.com/lepinkainen/ffsimple/pipeline"
	"github.com/lepinkainen/ffsimple/types"
)

// ConvertCmd runs one ffmpeg job per input file.
type ConvertCmd struct {
	Inputs []string `arg:"" name:"inputs" help:"Input files, directories or glob patterns"`

	OutputFlags    `embed:""`
	TransformFlags `embed:""`
	TrimFlags      `embed:""`
	PolicyFlags    `embed:""`
}

func (cmd *ConvertCmd) Run(appCtx *types.AppContext, ctx context.Context) error {
	jobs, err := cmd.jobs()
	if err != nil {
		return err
	}
	return runJobs(ctx, appCtx, jobs, cmd.Halt)
}

func (cmd *ConvertCmd) jobs() ([]pipeline.JobOptions, error) {
	return perInput(cmd.Inputs, cmd.OutputFlags, func(path string) (pipeline.JobOptions, error) {
		job := pipeline.FromString(path)
		cmd.OutputFlags.apply(&job)
		cmd.TransformFlags.apply(&job)
		cmd.TrimFlags.apply(&job)
		cmd.PolicyFlags.apply(&job)
		return job, nil
	})
}
