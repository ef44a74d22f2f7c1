package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/kong"

	"github.com/lepinkainen/ffsimple/pipeline"
)

const sampleConfig = `
ffmpeg: /opt/ffmpeg/bin/ffmpeg
verbose: true
timeout: 90m
max-rename: 7
presets:
  web:
    videoCodec: libx264
    crf: 23
    preset: fast
    scale: "1280:-2"
    outputOptions:
      - "-movflags +faststart"
  tiny:
    scale: "320:-2"
    noAudio: true
    metadata:
      comment: small
`

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfig(t, "ffsimple.yaml", sampleConfig)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.FFmpeg != "/opt/ffmpeg/bin/ffmpeg" {
		t.Errorf("Expected ffmpeg '/opt/ffmpeg/bin/ffmpeg', got '%s'", cfg.FFmpeg)
	}
	if cfg.Path != path {
		t.Errorf("Expected path %s, got %s", path, cfg.Path)
	}
	if names := cfg.PresetNames(); strings.Join(names, ",") != "tiny,web" {
		t.Errorf("Expected presets tiny,web, got %v", names)
	}

	web, err := cfg.Preset("web")
	if err != nil {
		t.Fatalf("Preset(web) error = %v", err)
	}
	if web.VideoCodec != "libx264" || web.Preset != "fast" || web.Scale != "1280:-2" {
		t.Errorf("Unexpected web preset: %+v", web)
	}
	if web.CRF == nil || *web.CRF != 23 {
		t.Errorf("Expected crf 23, got %v", web.CRF)
	}
	if len(web.OutputOptions) != 1 || web.OutputOptions[0] != "-movflags +faststart" {
		t.Errorf("Unexpected output options: %v", web.OutputOptions)
	}
}

func TestLoadJSONConfig(t *testing.T) {
	path := writeConfig(t, "ffsimple.json", `{"ffprobe": "/usr/local/bin/ffprobe", "presets": {"copy": {"copy": true}}}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.FFprobe != "/usr/local/bin/ffprobe" {
		t.Errorf("Expected ffprobe from JSON, got '%s'", cfg.FFprobe)
	}
	if p, err := cfg.Preset("copy"); err != nil || !p.Copy {
		t.Errorf("Expected copy preset, got %+v (%v)", p, err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing config file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "bad.yaml", "presets: [unclosed")
	if _, err := Load(path); err == nil {
		t.Error("Expected error for invalid YAML")
	}
}

func TestValidate(t *testing.T) {
	path := writeConfig(t, "invalid.yaml", `
presets:
  fast:
    speed: 5000
  subs:
    subtitlesMode: overlay
  quality:
    crf: 99
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("Expected validation error")
	}
	for _, want := range []string{`preset "fast"`, `preset "subs": invalid subtitlesMode "overlay"`, `preset "quality": crf 99`} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Expected error to contain %q, got: %v", want, err)
		}
	}
}

func TestPresetUnknown(t *testing.T) {
	cfg := DefaultConfig()
	if _, err := cfg.Preset("web"); err == nil || !strings.Contains(err.Error(), "none defined") {
		t.Errorf("Expected unknown preset error, got %v", err)
	}

	cfg.Presets["a"] = pipeline.JobOptions{}
	cfg.Presets["b"] = pipeline.JobOptions{}
	if _, err := cfg.Preset("web"); err == nil || !strings.Contains(err.Error(), "a, b") {
		t.Errorf("Expected available presets in error, got %v", err)
	}
}

func TestApply(t *testing.T) {
	cfg, err := Load(writeConfig(t, "ffsimple.yaml", sampleConfig))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	opts, err := cfg.Apply("tiny", pipeline.JobOptions{Input: "a.mp4", Scale: "640:-2", Metadata: map[string]string{"title": "x"}})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if opts.Scale != "640:-2" {
		t.Errorf("Expected explicit scale to win, got %s", opts.Scale)
	}
	if !opts.NoAudio {
		t.Error("Expected noAudio from preset")
	}
	if opts.Metadata["comment"] != "small" || opts.Metadata["title"] != "x" {
		t.Errorf("Expected merged metadata, got %v", opts.Metadata)
	}

	// the stored preset is not modified
	tiny, _ := cfg.Preset("tiny")
	if tiny.Scale != "320:-2" || tiny.Metadata["title"] != "" {
		t.Errorf("Preset was mutated: %+v", tiny)
	}

	same, err := cfg.Apply("", pipeline.JobOptions{Input: "a.mp4"})
	if err != nil || same.Input != "a.mp4" {
		t.Errorf("Apply with empty name should return options unchanged, got %+v (%v)", same, err)
	}
}

func TestResolverProvidesFlagDefaults(t *testing.T) {
	path := writeConfig(t, "ffsimple.yaml", sampleConfig)

	var cli struct {
		Verbose   bool          `help:"verbose"`
		FFmpeg    string        `name:"ffmpeg" default:"ffmpeg"`
		Timeout   time.Duration `help:"timeout"`
		MaxRename int           `default:"100"`
		Silent    bool
	}
	parser, err := kong.New(&cli, kong.Configuration(Resolver, path))
	if err != nil {
		t.Fatalf("kong.New() error = %v", err)
	}
	if _, err := parser.Parse([]string{"--silent"}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if !cli.Verbose {
		t.Error("Expected verbose from config")
	}
	if !cli.Silent {
		t.Error("Expected silent from command line")
	}
	if cli.FFmpeg != "/opt/ffmpeg/bin/ffmpeg" {
		t.Errorf("Expected ffmpeg from config, got %s", cli.FFmpeg)
	}
	if cli.Timeout != 90*time.Minute {
		t.Errorf("Expected timeout 90m, got %v", cli.Timeout)
	}
	if cli.MaxRename != 7 {
		t.Errorf("Expected max-rename 7, got %d", cli.MaxRename)
	}
}

func TestResolverCommandLineWins(t *testing.T) {
	path := writeConfig(t, "ffsimple.yaml", "ffmpeg: /from/config\n")

	var cli struct {
		FFmpeg string `name:"ffmpeg"`
	}
	parser, err := kong.New(&cli, kong.Configuration(Resolver, path))
	if err != nil {
		t.Fatalf("kong.New() error = %v", err)
	}
	if _, err := parser.Parse([]string{"--ffmpeg", "/from/flag"}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cli.FFmpeg != "/from/flag" {
		t.Errorf("Expected flag to win, got %s", cli.FFmpeg)
	}
}

func TestFlagKeys(t *testing.T) {
	got := flagKeys("max-rename")
	want := []string{"max-rename", "max_rename", "maxRename"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("flagKeys() = %v, expected %v", got, want)
	}
}
