package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/ffsimple/config"
	"github.com/lepinkainen/ffsimple/pipeline"
	"github.com/lepinkainen/ffsimple/types"
	"github.com/lepinkainen/ffsimple/video"
)

func touch(t *testing.T, paths ...string) {
	t.Helper()
	for _, p := range paths {
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}
}

func TestTransformFlagsApply(t *testing.T) {
	f := TransformFlags{
		VideoCodec:    "libx265",
		CRF:           -1,
		EncoderPreset: "slow",
		Scale:         "1280:-2",
		HFlip:         true,
		OutputOption:  []string{"-movflags +faststart"},
	}
	var job pipeline.JobOptions
	f.apply(&job)

	assert.Equal(t, "libx265", job.VideoCodec)
	assert.Nil(t, job.CRF)
	assert.Equal(t, "slow", job.Preset)
	assert.Equal(t, "1280:-2", job.Scale)
	assert.True(t, job.HFlip)
	assert.Equal(t, []string{"-movflags +faststart"}, job.OutputOptions)

	f.CRF = 0
	f.apply(&job)
	require.NotNil(t, job.CRF)
	assert.Equal(t, 0, *job.CRF)
}

func TestPolicyFlagsApply(t *testing.T) {
	var job pipeline.JobOptions
	PolicyFlags{Force: true, Replace: true, VerifyFrames: true}.apply(&job)
	assert.True(t, job.Overwrite)
	assert.True(t, job.Replace)
	assert.True(t, job.VerifyFrames)
	assert.False(t, job.Skip)
}

func TestDefaultSuffix(t *testing.T) {
	job := pipeline.JobOptions{}
	defaultSuffix(&job, "_cut")
	assert.Equal(t, "_cut", job.Suffix)

	job = pipeline.JobOptions{Output: "out.mp4"}
	defaultSuffix(&job, "_cut")
	assert.Empty(t, job.Suffix)

	job = pipeline.JobOptions{Prefix: "x_"}
	defaultSuffix(&job, "_cut")
	assert.Empty(t, job.Suffix)
}

func TestPerInput(t *testing.T) {
	dir := t.TempDir()
	a, b := filepath.Join(dir, "a.mp4"), filepath.Join(dir, "b.mp4")
	touch(t, a, b)

	build := func(path string) (pipeline.JobOptions, error) {
		return pipeline.FromString(path), nil
	}

	jobs, err := perInput([]string{filepath.Join(dir, "*.mp4")}, OutputFlags{}, build)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, a, jobs[0].Input)
	assert.Equal(t, b, jobs[1].Input)

	_, err = perInput([]string{a, b}, OutputFlags{Output: filepath.Join(dir, "out.mp4")}, build)
	assert.ErrorContains(t, err, "must be a directory")

	jobs, err = perInput([]string{a, b}, OutputFlags{Output: dir + "/"}, build)
	require.NoError(t, err)
	assert.Len(t, jobs, 2)

	_, err = perInput([]string{filepath.Join(dir, "*.avi")}, OutputFlags{}, build)
	var noMatch *video.NoMatchError
	assert.ErrorAs(t, err, &noMatch)
}

func TestSampleWindow(t *testing.T) {
	tests := []struct {
		name          string
		total, length time.Duration
		from, dur     time.Duration
	}{
		{"middle", 100 * time.Second, 10 * time.Second, 45 * time.Second, 10 * time.Second},
		{"shorter than window", 5 * time.Second, 10 * time.Second, 0, 5 * time.Second},
		{"unknown length", 0, 10 * time.Second, 0, 10 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, dur := sampleWindow(tt.total, tt.length)
			assert.Equal(t, tt.from, from)
			assert.Equal(t, tt.dur, dur)
		})
	}
}

func TestConvertJobs(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.mov")
	touch(t, in)

	cmd := ConvertCmd{
		Inputs:         []string{in},
		OutputFlags:    OutputFlags{Extension: "mkv"},
		TransformFlags: TransformFlags{Codec: "libx264", CRF: 23},
		TrimFlags:      TrimFlags{From: "10"},
		PolicyFlags:    PolicyFlags{Skip: true},
	}
	jobs, err := cmd.jobs()
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, in, jobs[0].Input)
	assert.Equal(t, "mkv", jobs[0].Extension)
	assert.Equal(t, "libx264", jobs[0].Codec)
	assert.Equal(t, 23, *jobs[0].CRF)
	assert.Equal(t, "10", jobs[0].From)
	assert.True(t, jobs[0].Skip)
}

func TestGifJobs(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "clip.mp4")
	touch(t, in)

	cmd := GifCmd{Inputs: []string{in}, FPS: 12, Width: 320}
	jobs, err := cmd.jobs()
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, []string{"fps=12", "scale=320:-1:flags=lanczos"}, jobs[0].VideoFilters)
	assert.Equal(t, []string{"-loop 0"}, jobs[0].OutputOptions)
	assert.True(t, jobs[0].NoAudio)
	assert.Equal(t, filepath.Join(dir, "clip.gif"), pipeline.DeriveOutput(in, jobs[0]))

	cmd.FPS = 0
	_, err = cmd.jobs()
	assert.Error(t, err)
}

func TestCaptionJob(t *testing.T) {
	cmd := CaptionCmd{Input: "/videos/talk.mp4", Mode: pipeline.SubtitlesBurn}
	job := cmd.job()
	assert.Equal(t, "/videos/talk.srt", job.Subtitles)
	assert.Equal(t, pipeline.SubtitlesBurn, job.SubtitlesMode)
	assert.Equal(t, "_captioned", job.Suffix)
	assert.Empty(t, job.VideoCodec)

	cmd = CaptionCmd{Input: "/videos/talk.mp4", Subtitles: "/subs/fi.srt", Mode: pipeline.SubtitlesStream}
	job = cmd.job()
	assert.Equal(t, "/subs/fi.srt", job.Subtitles)
	assert.Equal(t, "copy", job.VideoCodec)
	assert.Equal(t, "copy", job.AudioCodec)
}

func TestRotateMetaValidate(t *testing.T) {
	assert.NoError(t, (&RotateMetaCmd{Degrees: 90}).Validate())
	assert.NoError(t, (&RotateMetaCmd{Degrees: -270}).Validate())
	assert.Error(t, (&RotateMetaCmd{Degrees: 45}).Validate())
}

func TestLoadBatch(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "jobs.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
- input: a.mp4
  output: out/
  codec: libx265
- input: /abs/b.mp4
  use: small
  subtitles: b.srt
`), 0o644))

	crf := 30
	cfg := config.DefaultConfig()
	cfg.Presets = map[string]pipeline.JobOptions{
		"small": {Scale: "640:-2", CRF: &crf},
	}

	jobs, err := loadBatch(file, cfg)
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	assert.Equal(t, filepath.Join(dir, "a.mp4"), jobs[0].Input)
	assert.Equal(t, filepath.Join(dir, "out")+string(filepath.Separator), jobs[0].Output)
	assert.Equal(t, "libx265", jobs[0].Codec)

	assert.Equal(t, "/abs/b.mp4", jobs[1].Input)
	assert.Equal(t, filepath.Join(dir, "b.srt"), jobs[1].Subtitles)
	assert.Equal(t, "640:-2", jobs[1].Scale)
	require.NotNil(t, jobs[1].CRF)
	assert.Equal(t, 30, *jobs[1].CRF)
}

func TestLoadBatchExpandsInputs(t *testing.T) {
	dir := t.TempDir()
	a, b := filepath.Join(dir, "clips", "a.mp4"), filepath.Join(dir, "clips", "b.mp4")
	touch(t, a, b)
	file := filepath.Join(dir, "jobs.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
- input: clips/*.mp4
  output: out/
  scale: 640:-2
- input: clips
- inputs: [clips/b.mp4, clips/a.mp4]
  concat: true
`), 0o644))

	jobs, err := loadBatch(file, nil)
	require.NoError(t, err)
	require.Len(t, jobs, 5)

	for i, want := range []string{a, b, a, b} {
		assert.Equal(t, want, jobs[i].Input)
		assert.Empty(t, jobs[i].Inputs)
		assert.False(t, jobs[i].concat)
	}
	assert.Equal(t, "640:-2", jobs[0].Scale)
	assert.Equal(t, "640:-2", jobs[1].Scale)
	assert.Equal(t, filepath.Join(dir, "out")+string(filepath.Separator), jobs[1].Output)

	joined := jobs[4]
	assert.True(t, joined.concat)
	assert.Empty(t, joined.Input)
	assert.Equal(t, []string{b, a}, joined.Inputs)
	assert.Equal(t, "_joined", joined.Suffix)
}

func TestLoadBatchExpansionErrors(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.mp4"), filepath.Join(dir, "b.mp4"))

	tests := []struct {
		name string
		body string
		want string
	}{
		{"single output for a glob", "- input: '*.mp4'\n  output: joined.mp4\n", "must be a directory"},
		{"concat of one file", "- input: a.mp4\n  concat: true\n", "at least two inputs"},
		{"glob without matches", "- input: '*.avi'\n", "no files match"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file := filepath.Join(dir, "jobs.yaml")
			require.NoError(t, os.WriteFile(file, []byte(tt.body), 0o644))
			_, err := loadBatch(file, nil)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestLoadBatchErrors(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("[]\n"), 0o644))
	_, err := loadBatch(empty, nil)
	assert.ErrorContains(t, err, "lists no jobs")

	unknown := filepath.Join(dir, "unknown.json")
	require.NoError(t, os.WriteFile(unknown, []byte(`[{"input": "a.mp4", "use": "nope"}]`), 0o644))
	_, err = loadBatch(unknown, config.DefaultConfig())
	assert.ErrorContains(t, err, `unknown preset "nope"`)

	_, err = loadBatch(unknown, nil)
	assert.ErrorContains(t, err, "needs a config file")
}

func TestBatchMergeKeepsEntryPolicies(t *testing.T) {
	cmd := BatchCmd{PolicyFlags: PolicyFlags{Skip: true}}
	job := pipeline.JobOptions{Replace: true}
	cmd.merge(&job)
	assert.True(t, job.Skip)
	assert.True(t, job.Replace)
	assert.False(t, job.Overwrite)
}

func TestPrepareJobs(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Presets = map[string]pipeline.JobOptions{
		"web": {VideoCodec: "libx264", Scale: "1280:-2"},
	}
	appCtx := &types.AppContext{Config: cfg, Preset: "web", Silent: true}

	jobs, err := prepareJobs(appCtx, []pipeline.JobOptions{{Input: "a.mp4", Scale: "640:-2"}})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "libx264", jobs[0].VideoCodec)
	assert.Equal(t, "640:-2", jobs[0].Scale)
	assert.True(t, jobs[0].Silent)

	appCtx.Preset = "missing"
	_, err = prepareJobs(appCtx, []pipeline.JobOptions{{Input: "a.mp4"}})
	assert.Error(t, err)
}
