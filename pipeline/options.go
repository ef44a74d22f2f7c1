// Package pipeline compiles a flat JobOptions record into the inputs, filters
// and output directives of a single ffmpeg invocation.
package pipeline

import (
	"maps"
	"reflect"
	"slices"
)

// Subtitles modes.
const (
	SubtitlesBurn   = "burn"
	SubtitlesStream = "stream"
)

// JobOptions drives one conversion. Zero values mean "not requested".
type JobOptions struct {
	Input  string   `yaml:"input,omitempty"`
	Inputs []string `yaml:"inputs,omitempty"`
	// Sources are probed in place of the declared inputs, for inputs ffprobe
	// cannot read such as a concat list file.
	Sources []string `yaml:"-"`

	Output    string `yaml:"output,omitempty"`
	OutputDir string `yaml:"outputDir,omitempty"`
	Prefix    string `yaml:"prefix,omitempty"`
	Suffix    string `yaml:"suffix,omitempty"`
	Extension string `yaml:"extension,omitempty"`

	Codec         string            `yaml:"codec,omitempty"`
	VideoCodec    string            `yaml:"videoCodec,omitempty"`
	AudioCodec    string            `yaml:"audioCodec,omitempty"`
	Copy          bool              `yaml:"copy,omitempty"`
	CRF           *int              `yaml:"crf,omitempty"`
	Quality       int               `yaml:"quality,omitempty"`
	Preset        string            `yaml:"preset,omitempty"`
	Scale         string            `yaml:"scale,omitempty"`
	Crop          string            `yaml:"crop,omitempty"`
	Rotate        float64           `yaml:"rotate,omitempty"` // radians, or degrees when |v| > π
	Transpose     string            `yaml:"transpose,omitempty"`
	HFlip         bool              `yaml:"hflip,omitempty"`
	VFlip         bool              `yaml:"vflip,omitempty"`
	Speed         float64           `yaml:"speed,omitempty"`
	Framerate     float64           `yaml:"framerate,omitempty"`
	Subtitles     string            `yaml:"subtitles,omitempty"`
	SubtitlesMode string            `yaml:"subtitlesMode,omitempty"`
	From          string            `yaml:"from,omitempty"`
	To            string            `yaml:"to,omitempty"`
	Duration      string            `yaml:"duration,omitempty"`
	NoAudio       bool              `yaml:"noAudio,omitempty"`
	NoVideo       bool              `yaml:"noVideo,omitempty"`
	RotateMeta    *int              `yaml:"rotateMeta,omitempty"` // degrees, applied in a separate pass
	VideoFilters  []string          `yaml:"videoFilters,omitempty"`
	FilterComplex string            `yaml:"filterComplex,omitempty"`
	InputOptions  []string          `yaml:"inputOptions,omitempty"`
	OutputOptions []string          `yaml:"outputOptions,omitempty"`
	Metadata      map[string]string `yaml:"metadata,omitempty"`

	Overwrite    bool `yaml:"overwrite,omitempty"`
	Skip         bool `yaml:"skip,omitempty"`
	Silent       bool `yaml:"silent,omitempty"`
	Halt         bool `yaml:"halt,omitempty"`
	Replace      bool `yaml:"replace,omitempty"`
	Verbose      bool `yaml:"verbose,omitempty"`
	Permanent    bool `yaml:"permanent,omitempty"`
	VerifyFrames bool `yaml:"verifyFrames,omitempty"`

	// Customize runs last on the compiled plan and may add inputs, filters or
	// options directly.
	Customize func(*Plan) error `yaml:"-"`
}

// FromString builds options for a single input path.
func FromString(input string) JobOptions {
	return JobOptions{Input: input}
}

// FromCallback builds options whose plan is shaped by fn.
func FromCallback(fn func(*Plan) error) JobOptions {
	return JobOptions{Customize: fn}
}

// FromRecord copies a full options record so later edits by the caller do
// not leak into the job.
func FromRecord(opts JobOptions) JobOptions {
	return opts.Clone()
}

// Clone deep-copies slices, maps and pointers.
func (o JobOptions) Clone() JobOptions {
	c := o
	c.Inputs = slices.Clone(o.Inputs)
	c.Sources = slices.Clone(o.Sources)
	c.VideoFilters = slices.Clone(o.VideoFilters)
	c.InputOptions = slices.Clone(o.InputOptions)
	c.OutputOptions = slices.Clone(o.OutputOptions)
	c.Metadata = maps.Clone(o.Metadata)
	if o.CRF != nil {
		v := *o.CRF
		c.CRF = &v
	}
	if o.RotateMeta != nil {
		v := *o.RotateMeta
		c.RotateMeta = &v
	}
	return c
}

// Paths lists the declared inputs: Input first, then Inputs.
func (o JobOptions) Paths() []string {
	var paths []string
	if o.Input != "" {
		paths = append(paths, o.Input)
	}
	for _, in := range o.Inputs {
		if in != "" {
			paths = append(paths, in)
		}
	}
	return paths
}

// StreamCopy reports whether the winning codec choice is a stream copy.
func (o JobOptions) StreamCopy() bool {
	switch {
	case o.Codec != "":
		return o.Codec == "copy"
	case o.VideoCodec != "":
		return o.VideoCodec == "copy"
	default:
		return o.Copy
	}
}

// Merge lays explicit over preset: every non-zero explicit field wins.
// Metadata maps are merged key by key.
func Merge(preset, explicit JobOptions) JobOptions {
	out := preset.Clone()
	src := reflect.ValueOf(explicit.Clone())
	dst := reflect.ValueOf(&out).Elem()

	for i := 0; i < src.NumField(); i++ {
		field := src.Field(i)
		if field.IsZero() {
			continue
		}
		if src.Type().Field(i).Name == "Metadata" {
			continue
		}
		dst.Field(i).Set(field)
	}

	if len(explicit.Metadata) > 0 {
		if out.Metadata == nil {
			out.Metadata = make(map[string]string, len(explicit.Metadata))
		}
		maps.Copy(out.Metadata, explicit.Metadata)
	}
	return out
}
