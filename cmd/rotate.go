package cmd

import (
	"context"
	"fmt"

	"github.com/lepinkainen/ffsimple/pipeline"
	"github.com/lepinkainen/ffsimple/types"
)

// RotateMetaCmd sets the display rotation tag without re-encoding.
type RotateMetaCmd struct {
	Degrees int      `arg:"" name:"degrees" help:"Rotation in degrees (0, 90, 180 or 270)"`
	Inputs  []string `arg:"" name:"inputs" help:"Input files, directories or glob patterns"`

	OutputFlags `embed:""`
	PolicyFlags `embed:""`
}

func (cmd *RotateMetaCmd) Validate() error {
	switch cmd.Degrees {
	case 0, 90, 180, 270, -90, -180, -270:
		return nil
	}
	return fmt.Errorf("rotation must be a multiple of 90 degrees, got %d", cmd.Degrees)
}

func (cmd *RotateMetaCmd) Run(appCtx *types.AppContext, ctx context.Context) error {
	jobs, err := perInput(cmd.Inputs, cmd.OutputFlags, func(path string) (pipeline.JobOptions, error) {
		job := pipeline.FromString(path)
		cmd.OutputFlags.apply(&job)
		cmd.PolicyFlags.apply(&job)
		degrees := cmd.Degrees
		job.Codec = "copy"
		job.RotateMeta = &degrees
		defaultSuffix(&job, "_rotated")
		return job, nil
	})
	if err != nil {
		return err
	}
	return runJobs(ctx, appCtx, jobs, cmd.Halt)
}
