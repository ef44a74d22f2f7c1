package pipeline

import (
	"strings"
	"time"

	"github.com/lepinkainen/ffsimple/filtergraph"
	"github.com/lepinkainen/ffsimple/probe"
)

// Input is one "-i" declaration with the options that precede it.
type Input struct {
	Path    string
	Options []string
}

// Plan is a compiled ffmpeg invocation.
type Plan struct {
	Inputs        []Input
	OutputOptions []string
	VideoFilters  []string
	AudioFilters  []string
	Complex       *filtergraph.Graph
	RawComplex    string
	Maps          []string
	Output        string

	// RotateMeta is applied by a stream-copy pass after the main run.
	RotateMeta *int

	InputDuration time.Duration
	InputSize     int64
	Metadata      []*probe.Metadata
	Options       JobOptions

	// Warnings collects requests the compiler had to drop.
	Warnings []string
}

// AddInput declares another input and returns its index.
func (p *Plan) AddInput(path string, options ...string) int {
	p.Inputs = append(p.Inputs, Input{Path: path, Options: options})
	return len(p.Inputs) - 1
}

// AddOutputOptions appends output options.
func (p *Plan) AddOutputOptions(options ...string) {
	p.OutputOptions = append(p.OutputOptions, options...)
}

// Map adds a "-map" directive.
func (p *Plan) Map(spec string) {
	p.Maps = append(p.Maps, spec)
}

// UsesComplex reports whether the plan renders -filter_complex. Dedicated
// video filters take precedence over the complex graph.
func (p *Plan) UsesComplex() bool {
	return len(p.VideoFilters) == 0 && p.ComplexExpression() != ""
}

// ComplexExpression renders the raw expression followed by the deduplicated graph.
func (p *Plan) ComplexExpression() string {
	var parts []string
	if p.RawComplex != "" {
		parts = append(parts, p.RawComplex)
	}
	if p.Complex != nil {
		if expr := filtergraph.Join(filtergraph.Unique(p.Complex.Nodes())); expr != "" {
			parts = append(parts, expr)
		}
	}
	return strings.Join(parts, ";")
}

// Args renders the ffmpeg argument list, without the binary name.
func (p *Plan) Args() []string {
	args := []string{"-hide_banner"}
	for _, in := range p.Inputs {
		args = append(args, in.Options...)
		args = append(args, "-i", in.Path)
	}

	maps := p.Maps
	if p.UsesComplex() {
		args = append(args, "-filter_complex", p.ComplexExpression())
		if len(maps) == 0 && p.Complex != nil && p.Complex.Len() > 0 {
			for _, label := range p.Complex.Cursor() {
				maps = append(maps, "["+label+"]")
			}
		}
	}
	for _, m := range maps {
		args = append(args, "-map", m)
	}

	args = append(args, p.OutputOptions...)
	if len(p.VideoFilters) > 0 {
		args = append(args, "-vf", strings.Join(p.VideoFilters, ","))
	}
	if len(p.AudioFilters) > 0 {
		args = append(args, "-filter:a", strings.Join(p.AudioFilters, ","))
	}
	return append(args, "-y", p.Output)
}
