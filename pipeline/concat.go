package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/lepinkainen/ffsimple/filtergraph"
)

// Concat returns a Customize hook joining every declared input with the
// concat filter. The joined streams are labeled "v" and, with audio, "a".
func Concat(audio bool) func(*Plan) error {
	return func(p *Plan) error {
		n := len(p.Inputs)
		if n < 2 {
			return fmt.Errorf("concat needs at least two inputs, got %d", n)
		}

		var from []filtergraph.Input
		for i := 0; i < n; i++ {
			from = append(from, filtergraph.Label(fmt.Sprintf("%d:v", i)))
			if audio {
				from = append(from, filtergraph.Label(fmt.Sprintf("%d:a", i)))
			}
		}

		a, outputs := 0, []string{"v"}
		if audio {
			a, outputs = 1, []string{"v", "a"}
		}
		p.Complex.Push(filtergraph.Step{
			Filter:  fmt.Sprintf("concat=n=%d:v=1:a=%d", n, a),
			From:    from,
			Outputs: outputs,
		})
		return nil
	}
}

// WriteConcatList writes a concat demuxer list for paths into dir (the
// system temp dir when empty) and returns its path. The caller removes it.
func WriteConcatList(paths []string, dir string) (string, error) {
	if dir == "" {
		dir = os.TempDir()
	}

	var b strings.Builder
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return "", fmt.Errorf("failed to resolve %s: %w", p, err)
		}
		b.WriteString("file '" + strings.ReplaceAll(abs, "'", `'\''`) + "'\n")
	}

	list := filepath.Join(dir, "ffsimple-concat-"+uuid.NewString()+".txt")
	if err := os.WriteFile(list, []byte(b.String()), 0o600); err != nil {
		return "", fmt.Errorf("failed to write concat list: %w", err)
	}
	return list, nil
}

// ConcatDemux rewrites opts to read listFile with the concat demuxer. The
// original inputs stay as Sources for probing and output derivation. Stream
// copy and subtitle streaming are the defaults.
func ConcatDemux(opts JobOptions, listFile string) JobOptions {
	o := opts.Clone()
	sources := o.Paths()
	if len(o.Sources) > 0 {
		sources = o.Sources
	}
	if o.Output == "" && len(sources) > 0 {
		o.Output = DeriveOutput(sources[0], o)
	}

	o.Input = listFile
	o.Inputs = nil
	o.Sources = sources
	o.InputOptions = append([]string{"-f concat", "-safe 0"}, o.InputOptions...)
	if o.Codec == "" && o.VideoCodec == "" {
		o.Codec = "copy"
	}
	if o.SubtitlesMode == "" {
		o.SubtitlesMode = SubtitlesStream
	}
	return o
}
