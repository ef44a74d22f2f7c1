package cmd

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/lepinkainen/ffsimple/pipeline"
	"github.com/lepinkainen/ffsimple/types"
)

// CaptionCmd adds subtitles to a video, burned in or as a stream.
type CaptionCmd struct {
	Input     string `arg:"" name:"input" help:"Video file" type:"existingfile"`
	Subtitles string `arg:"" name:"subtitles" optional:"" help:"Subtitles file, defaults to the input name with .srt" type:"path"`
	Mode      string `help:"burn renders the text into the picture, stream adds a subtitle track" enum:"burn,stream" default:"burn"`

	OutputFlags `embed:""`
	TrimFlags   `embed:""`
	PolicyFlags `embed:""`
}

func (cmd *CaptionCmd) Run(appCtx *types.AppContext, ctx context.Context) error {
	return runJobs(ctx, appCtx, []pipeline.JobOptions{cmd.job()}, cmd.Halt)
}

func (cmd *CaptionCmd) job() pipeline.JobOptions {
	job := pipeline.FromString(cmd.Input)
	cmd.OutputFlags.apply(&job)
	cmd.TrimFlags.apply(&job)
	cmd.PolicyFlags.apply(&job)

	job.Subtitles = cmd.Subtitles
	if job.Subtitles == "" {
		job.Subtitles = strings.TrimSuffix(cmd.Input, filepath.Ext(cmd.Input)) + ".srt"
	}
	job.SubtitlesMode = cmd.Mode
	if cmd.Mode == pipeline.SubtitlesStream {
		job.VideoCodec = "copy"
		job.AudioCodec = "copy"
	}
	defaultSuffix(&job, "_captioned")
	return job
}
