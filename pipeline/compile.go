package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/lepinkainen/ffsimple/filtergraph"
	"github.com/lepinkainen/ffsimple/probe"
)

var sourceTags = []string{"title", "artist", "date", "comment"}

// Compile turns opts into a plan. metas holds the probe results of the
// declared inputs in order; when opts declares no paths the metas' paths are
// used instead. Steps run in a fixed order and later steps may append to or
// override what earlier ones produced.
func Compile(opts JobOptions, metas []*probe.Metadata) (*Plan, error) {
	paths := opts.Paths()
	if len(paths) == 0 {
		for _, m := range metas {
			if m != nil && m.Path != "" {
				paths = append(paths, m.Path)
			}
		}
	}
	if len(paths) == 0 && opts.Customize == nil {
		return nil, &NoInputError{}
	}

	first := ""
	if len(paths) > 0 {
		first = paths[0]
	}
	output, err := ResolveOutput(opts, first)
	if err != nil {
		return nil, err
	}

	var meta *probe.Metadata
	if len(metas) > 0 {
		meta = metas[0]
	}

	plan := &Plan{
		Output:   output,
		Complex:  filtergraph.New(),
		Metadata: metas,
		Options:  opts,
	}
	plan.InputDuration, plan.InputSize = probe.Aggregate(metas)

	// inputs and input-side options
	inputOptions := splitOptions(opts.InputOptions)
	if opts.From != "" {
		inputOptions = append(inputOptions, "-ss", opts.From)
		if opts.To != "" {
			inputOptions = append(inputOptions, "-to", opts.To)
		}
	}
	for _, path := range paths {
		plan.AddInput(path, slices.Clone(inputOptions)...)
	}

	// codec
	switch {
	case opts.Codec != "":
		plan.AddOutputOptions("-c", opts.Codec)
	case opts.VideoCodec != "":
		plan.AddOutputOptions("-c:v", opts.VideoCodec)
	case opts.Copy:
		plan.AddOutputOptions("-c", "copy")
	}
	if opts.AudioCodec != "" {
		plan.AddOutputOptions("-c:a", opts.AudioCodec)
	}
	if opts.CRF != nil {
		plan.AddOutputOptions("-crf", strconv.Itoa(*opts.CRF))
	}
	if opts.Quality > 0 {
		plan.AddOutputOptions("-q:v", strconv.Itoa(opts.Quality))
	}
	if opts.Preset != "" {
		plan.AddOutputOptions("-preset", opts.Preset)
	}
	if opts.NoAudio {
		plan.AddOutputOptions("-an")
	}
	if opts.NoVideo {
		plan.AddOutputOptions("-vn")
	}

	// visual transforms
	vf := slices.Clone(opts.VideoFilters)
	if opts.Scale != "" {
		vf = append(vf, "scale="+opts.Scale)
	}
	if opts.Crop != "" {
		vf = append(vf, "crop="+opts.Crop)
	}
	if opts.Rotate != 0 {
		vf = append(vf, "rotate="+formatFloat(NormalizeRotate(opts.Rotate)))
	}
	if opts.Transpose != "" {
		vf = append(vf, "transpose="+opts.Transpose)
	}
	if opts.HFlip {
		vf = append(vf, "hflip")
	}
	if opts.VFlip {
		vf = append(vf, "vflip")
	}

	if m := opts.SubtitlesMode; m != "" && m != SubtitlesBurn && m != SubtitlesStream {
		return nil, &InvalidSubtitlesModeError{Mode: m}
	}
	var burnIn string
	if opts.Subtitles != "" {
		burnIn, err = compileSubtitles(plan, opts, first)
		if err != nil {
			return nil, err
		}
	}

	// speed
	if opts.Speed != 0 && opts.Speed != 1 {
		video, audio, err := speedFilters(opts.Speed)
		if err != nil {
			return nil, err
		}
		if !opts.NoVideo {
			vf = append(vf, video)
		}
		if !opts.NoAudio && (meta == nil || meta.HasAudio) {
			plan.AudioFilters = append(plan.AudioFilters, audio...)
		}
	}

	// framerate cap, never upsampling
	if opts.Framerate > 0 {
		native := 0.0
		if meta != nil {
			native = meta.Framerate
		}
		if native == 0 || opts.Framerate < native {
			plan.AddOutputOptions("-r", formatFloat(opts.Framerate))
		}
	}

	// trimming
	if opts.To != "" && opts.From == "" {
		plan.AddOutputOptions("-to", opts.To)
	}
	if opts.Duration != "" {
		plan.AddOutputOptions("-t", opts.Duration)
	}

	plan.AddOutputOptions(splitOptions(opts.OutputOptions)...)

	// filter assembly
	if meta.IsPortrait() {
		vf = orient(vf)
	}
	if burnIn != "" {
		vf = append(vf, burnIn)
	}
	plan.VideoFilters = vf
	plan.RawComplex = opts.FilterComplex
	if len(vf) > 0 && plan.RawComplex != "" {
		plan.Warnings = append(plan.Warnings,
			fmt.Sprintf("ignoring filter_complex %q because video filters are set", plan.RawComplex))
	}

	// source tags
	for _, key := range sourceTags {
		if _, overridden := opts.Metadata[key]; overridden || meta == nil {
			continue
		}
		if v := meta.Tags()[key]; v != "" {
			plan.AddOutputOptions("-metadata", key+"="+v)
		}
	}
	keys := make([]string, 0, len(opts.Metadata))
	for k := range opts.Metadata {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		plan.AddOutputOptions("-metadata", k+"="+opts.Metadata[k])
	}

	if opts.RotateMeta != nil {
		v := *opts.RotateMeta
		plan.RotateMeta = &v
	}

	if opts.Customize != nil {
		if err := opts.Customize(plan); err != nil {
			return nil, fmt.Errorf("customize failed: %w", err)
		}
	}
	if len(plan.Inputs) == 0 {
		return nil, &NoInputError{}
	}
	return plan, nil
}

// compileSubtitles resolves the subtitles file and either returns the burn-in
// filter or declares an extra input mapped as a subtitle stream.
func compileSubtitles(plan *Plan, opts JobOptions, input string) (string, error) {
	mode := opts.SubtitlesMode
	if mode == "" {
		mode = SubtitlesBurn
	}
	// burning in needs a re-encode
	if opts.StreamCopy() {
		mode = SubtitlesStream
	}

	path, err := resolveSubtitles(opts.Subtitles, input)
	if err != nil {
		return "", err
	}

	if mode == SubtitlesBurn {
		return "subtitles=" + EscapeFilterPath(path), nil
	}

	idx := plan.AddInput(path)
	plan.Map("0:v?")
	plan.Map("0:a?")
	plan.Map(strconv.Itoa(idx) + ":s")
	plan.AddOutputOptions("-c:s", subtitleCodec(plan.Output))
	return "", nil
}

func resolveSubtitles(path, input string) (string, error) {
	guess := ""
	if input != "" {
		guess = strings.TrimSuffix(input, filepath.Ext(input)) + ".srt"
	}
	if path != "" && fileExists(path) {
		return path, nil
	}
	if guess != "" && fileExists(guess) {
		return guess, nil
	}
	return "", &InvalidSubtitlesError{Path: path, Guess: guess}
}

func subtitleCodec(output string) string {
	switch strings.ToLower(filepath.Ext(output)) {
	case ".mp4", ".m4v", ".mov":
		return "mov_text"
	default:
		return "srt"
	}
}

// EscapeFilterPath escapes a path for use as a filter argument.
func EscapeFilterPath(path string) string {
	path = filepath.ToSlash(path)
	path = strings.ReplaceAll(path, `\`, `\\`)
	return strings.ReplaceAll(path, ":", `\:`)
}

// orient wraps portrait filters in a transpose pair so landscape-relative
// filters act on the upright picture. Flips swap axes inside the pair.
func orient(filters []string) []string {
	if len(filters) == 0 {
		return filters
	}
	out := make([]string, 0, len(filters)+2)
	out = append(out, "transpose=1")
	for _, f := range filters {
		switch f {
		case "hflip":
			out = append(out, "vflip")
		case "vflip":
			out = append(out, "hflip")
		default:
			out = append(out, f)
		}
	}
	return append(out, "transpose=2")
}

// splitOptions splits each raw option on its first whitespace, so
// "-movflags +faststart" becomes two arguments.
func splitOptions(raw []string) []string {
	var out []string
	for _, opt := range raw {
		opt = strings.TrimSpace(opt)
		if opt == "" {
			continue
		}
		if flag, value, ok := strings.Cut(opt, " "); ok && strings.HasPrefix(flag, "-") {
			out = append(out, flag, strings.TrimSpace(value))
			continue
		}
		out = append(out, opt)
	}
	return out
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
