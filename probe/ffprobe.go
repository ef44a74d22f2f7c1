package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// Runner runs ffprobe against a path and returns its JSON output.
type Runner interface {
	Probe(ctx context.Context, path string) ([]byte, error)
}

// ExecRunner runs the ffprobe binary.
type ExecRunner struct {
	Binary string // defaults to "ffprobe"
}

func (r ExecRunner) Probe(ctx context.Context, path string) ([]byte, error) {
	bin := r.Binary
	if bin == "" {
		bin = "ffprobe"
	}

	cmd := exec.CommandContext(ctx, bin,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && stderr.Len() > 0 {
			return nil, fmt.Errorf("ffprobe failed: %w: %s", err, firstLine(stderr.String()))
		}
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}
	return output, nil
}

type ffprobeOutput struct {
	Streams []ffprobeStream `json:"streams"`
	Format  ffprobeFormat   `json:"format"`
}

type ffprobeStream struct {
	CodecType          string            `json:"codec_type"`
	CodecName          string            `json:"codec_name"`
	Profile            string            `json:"profile"`
	Level              int               `json:"level"`
	Width              int               `json:"width"`
	Height             int               `json:"height"`
	DisplayAspectRatio string            `json:"display_aspect_ratio"`
	RFrameRate         string            `json:"r_frame_rate"`
	AvgFrameRate       string            `json:"avg_frame_rate"`
	Duration           string            `json:"duration"`
	Channels           int               `json:"channels"`
	SampleRate         string            `json:"sample_rate"`
	BitRate            string            `json:"bit_rate"`
	Tags               map[string]string `json:"tags"`
}

type ffprobeFormat struct {
	Duration string            `json:"duration"`
	BitRate  string            `json:"bit_rate"`
	Size     string            `json:"size"`
	Tags     map[string]string `json:"tags"`
}

// parse decodes ffprobe JSON into m. Absent streams leave their fields zero.
func parse(data []byte, m *Metadata) error {
	var out ffprobeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	m.Title = lookupTag(out.Format.Tags, "title")
	m.Artist = lookupTag(out.Format.Tags, "artist")
	m.Date = lookupTag(out.Format.Tags, "date")
	m.Comment = lookupTag(out.Format.Tags, "comment")
	m.Duration = parseFloat(out.Format.Duration)
	m.Bitrate = kbps(out.Format.BitRate)

	for _, s := range out.Streams {
		switch s.CodecType {
		case "video":
			if m.HasVideo {
				continue
			}
			m.HasVideo = true
			m.Codec = s.CodecName
			m.CodecProfile = s.Profile
			m.CodecLevel = s.Level
			m.Width = s.Width
			m.Height = s.Height
			m.AspectRatio = s.DisplayAspectRatio
			m.Framerate = Framerate(s.RFrameRate, s.AvgFrameRate)
			m.VideoDuration = parseFloat(s.Duration)
		case "audio":
			if m.HasAudio {
				continue
			}
			m.HasAudio = true
			m.AudioCodec = s.CodecName
			m.AudioChannels = s.Channels
			m.AudioSampleRate = int(parseFloat(s.SampleRate))
			m.AudioBitrate = kbps(s.BitRate)
			m.AudioDuration = parseFloat(s.Duration)
		}
	}
	return nil
}

// Framerate picks the lower of the real and average frame rates. When only
// one of them is known it is used as is.
func Framerate(rFrameRate, avgFrameRate string) float64 {
	r := ParseRational(rFrameRate)
	a := ParseRational(avgFrameRate)
	switch {
	case r > 0 && a > 0:
		return math.Min(r, a)
	case r > 0:
		return r
	default:
		return a
	}
}

// ParseRational parses ffprobe rates like "30000/1001" or "25". Invalid or
// zero-denominator values yield 0.
func ParseRational(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	num, den, found := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !found {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}

func lookupTag(tags map[string]string, key string) string {
	for k, v := range tags {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func kbps(bitsPerSecond string) int {
	return int(math.Round(parseFloat(bitsPerSecond) / 1000))
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if line, _, ok := strings.Cut(s, "\n"); ok {
		return strings.TrimSpace(line)
	}
	return s
}
