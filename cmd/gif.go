package cmd

import (
	"context"
	"fmt"

	"github.com/lepinkainen/ffsimple/pipeline"
	"github.com/lepinkainen/ffsimple/types"
)

// GifCmd converts clips to looping gifs.
type GifCmd struct {
	Inputs []string `arg:"" name:"inputs" help:"Input files, directories or glob patterns"`
	FPS    int      `name:"fps" help:"Frames per second" default:"10"`
	Width  int      `help:"Width in pixels, height keeps the aspect ratio" default:"480"`

	OutputFlags `embed:""`
	TrimFlags   `embed:""`
	PolicyFlags `embed:""`
}

func (cmd *GifCmd) Run(appCtx *types.AppContext, ctx context.Context) error {
	jobs, err := cmd.jobs()
	if err != nil {
		return err
	}
	return runJobs(ctx, appCtx, jobs, cmd.Halt)
}

func (cmd *GifCmd) jobs() ([]pipeline.JobOptions, error) {
	if cmd.FPS <= 0 || cmd.Width <= 0 {
		return nil, fmt.Errorf("fps and width must be positive")
	}
	return perInput(cmd.Inputs, cmd.OutputFlags, func(path string) (pipeline.JobOptions, error) {
		job := pipeline.FromString(path)
		cmd.OutputFlags.apply(&job)
		cmd.TrimFlags.apply(&job)
		cmd.PolicyFlags.apply(&job)
		job.VideoFilters = []string{
			fmt.Sprintf("fps=%d", cmd.FPS),
			fmt.Sprintf("scale=%d:-1:flags=lanczos", cmd.Width),
		}
		job.OutputOptions = []string{"-loop 0"}
		job.NoAudio = true
		if job.Extension == "" {
			job.Extension = ".gif"
		}
		return job, nil
	})
}
