package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lepinkainen/ffsimple/pipeline"
	"github.com/lepinkainen/ffsimple/video"
)

// OutputFlags place the output file.
type OutputFlags struct {
	Output    string `short:"o" help:"Output file, or directory when it ends with a separator or exists"`
	OutputDir string `name:"output-dir" help:"Directory for derived output names" type:"path"`
	Prefix    string `help:"Prefix for derived output names"`
	Suffix    string `help:"Suffix for derived output names"`
	Extension string `short:"e" help:"Extension (container) for derived output names, e.g. mkv"`
}

func (f OutputFlags) apply(o *pipeline.JobOptions) {
	o.Output = f.Output
	o.OutputDir = f.OutputDir
	o.Prefix = f.Prefix
	o.Suffix = f.Suffix
	o.Extension = f.Extension
}

// TransformFlags are the encoding and filter options.
type TransformFlags struct {
	Codec         string            `short:"c" help:"Codec for all streams (-c)" group:"Encoding"`
	VideoCodec    string            `name:"video-codec" help:"Video codec (-c:v)" group:"Encoding"`
	AudioCodec    string            `name:"audio-codec" help:"Audio codec (-c:a)" group:"Encoding"`
	Copy          bool              `help:"Copy streams without re-encoding" group:"Encoding"`
	CRF           int               `name:"crf" help:"Constant rate factor, -1 for the encoder default" default:"-1" group:"Encoding"`
	Quality       int               `help:"Fixed quality scale (-q:v)" group:"Encoding"`
	EncoderPreset string            `name:"encoder-preset" help:"Encoder speed preset (-preset)" group:"Encoding"`
	Scale         string            `help:"Scale filter value, e.g. 1280:-2" group:"Filters"`
	Crop          string            `help:"Crop filter value, e.g. 640:480:0:0" group:"Filters"`
	Rotate        float64           `help:"Rotate by radians, or degrees when larger than pi" group:"Filters"`
	Transpose     string            `help:"Transpose filter value" group:"Filters"`
	HFlip         bool              `name:"hflip" help:"Flip horizontally" group:"Filters"`
	VFlip         bool              `name:"vflip" help:"Flip vertically" group:"Filters"`
	Speed         float64           `help:"Playback speed factor, e.g. 2 or 0.5" group:"Filters"`
	Framerate     float64           `help:"Cap the output framerate" group:"Filters"`
	Subtitles     string            `help:"Subtitles file" type:"path" group:"Filters"`
	SubtitlesMode string            `name:"subtitles-mode" help:"burn or stream" group:"Filters"`
	NoAudio       bool              `name:"no-audio" help:"Drop audio" group:"Filters"`
	NoVideo       bool              `name:"no-video" help:"Drop video" group:"Filters"`
	VF            []string          `name:"vf" help:"Raw video filter, repeatable" sep:"none" group:"Raw"`
	FilterComplex string            `name:"filter-complex" help:"Raw filter_complex expression" group:"Raw"`
	InputOption   []string          `name:"input-option" help:"Raw input option, e.g. \"-hwaccel auto\", repeatable" sep:"none" group:"Raw"`
	OutputOption  []string          `name:"output-option" help:"Raw output option, e.g. \"-movflags +faststart\", repeatable" sep:"none" group:"Raw"`
	Metadata      map[string]string `help:"Output metadata tag, key=value" group:"Raw"`
}

func (f TransformFlags) apply(o *pipeline.JobOptions) {
	o.Codec = f.Codec
	o.VideoCodec = f.VideoCodec
	o.AudioCodec = f.AudioCodec
	o.Copy = f.Copy
	if f.CRF >= 0 {
		crf := f.CRF
		o.CRF = &crf
	}
	o.Quality = f.Quality
	o.Preset = f.EncoderPreset
	o.Scale = f.Scale
	o.Crop = f.Crop
	o.Rotate = f.Rotate
	o.Transpose = f.Transpose
	o.HFlip = f.HFlip
	o.VFlip = f.VFlip
	o.Speed = f.Speed
	o.Framerate = f.Framerate
	o.Subtitles = f.Subtitles
	o.SubtitlesMode = f.SubtitlesMode
	o.NoAudio = f.NoAudio
	o.NoVideo = f.NoVideo
	o.VideoFilters = f.VF
	o.FilterComplex = f.FilterComplex
	o.InputOptions = f.InputOption
	o.OutputOptions = f.OutputOption
	o.Metadata = f.Metadata
}

func (f TransformFlags) hasCodec() bool {
	return f.Codec != "" || f.VideoCodec != "" || f.Copy
}

// TrimFlags select a time range of the input.
type TrimFlags struct {
	From     string `help:"Start position, e.g. 00:01:30 or 90"`
	To       string `help:"End position"`
	Duration string `short:"t" help:"Output duration"`
}

func (f TrimFlags) apply(o *pipeline.JobOptions) {
	o.From = f.From
	o.To = f.To
	o.Duration = f.Duration
}

func (f TrimFlags) empty() bool {
	return f.From == "" && f.To == "" && f.Duration == ""
}

// PolicyFlags decide what happens around the run.
type PolicyFlags struct {
	Skip         bool `help:"Skip jobs whose output already exists"`
	Force        bool `short:"f" help:"Overwrite existing outputs (moved to trash)"`
	Halt         bool `help:"Stop at the first failed job"`
	Replace      bool `help:"Replace the input with the output after a successful run"`
	Permanent    bool `help:"Delete replaced files instead of moving them to trash"`
	VerifyFrames bool `name:"verify-frames" help:"Compare a frame of input and output perceptually"`
}

func (f PolicyFlags) apply(o *pipeline.JobOptions) {
	o.Skip = f.Skip
	o.Overwrite = f.Force
	o.Halt = f.Halt
	o.Replace = f.Replace
	o.Permanent = f.Permanent
	o.VerifyFrames = f.VerifyFrames
}

// perInput expands patterns and builds one job per file. Several jobs can
// only share an explicit output when it is a directory.
func perInput(patterns []string, out OutputFlags, build func(path string) (pipeline.JobOptions, error)) ([]pipeline.JobOptions, error) {
	files, err := video.ExpandInputs(patterns)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, &pipeline.NoInputError{Patterns: patterns}
	}
	if len(files) > 1 && out.Output != "" && !isDirTarget(out.Output) {
		return nil, fmt.Errorf("output %s must be a directory when processing %d inputs", out.Output, len(files))
	}

	jobs := make([]pipeline.JobOptions, 0, len(files))
	for _, file := range files {
		job, err := build(file)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func isDirTarget(path string) bool {
	if strings.HasSuffix(path, string(filepath.Separator)) || strings.HasSuffix(path, "/") {
		return true
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// defaultSuffix marks derived outputs of a subcommand unless the user named
// the output or chose a suffix.
func defaultSuffix(o *pipeline.JobOptions, suffix string) {
	if o.Output == "" && o.Suffix == "" && o.Prefix == "" {
		o.Suffix = suffix
	}
}
