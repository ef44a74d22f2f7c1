// Package config loads the user configuration file: flag defaults and named
// option presets.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/alecthomas/kong"
	"gopkg.in/yaml.v3"

	"github.com/lepinkainen/ffsimple/pipeline"
)

// Config is the parsed configuration file. Top-level keys that match a flag
// name are flag defaults; see Resolver.
type Config struct {
	FFmpeg   string                         `yaml:"ffmpeg,omitempty"`
	FFprobe  string                         `yaml:"ffprobe,omitempty"`
	TrashDir string                         `yaml:"trashDir,omitempty"`
	Presets  map[string]pipeline.JobOptions `yaml:"presets,omitempty"`

	// Path is the file the config was read from, empty for defaults.
	Path string `yaml:"-"`
}

// DefaultConfig returns an empty configuration.
func DefaultConfig() *Config {
	return &Config{Presets: map[string]pipeline.JobOptions{}}
}

// Locations lists the config files searched in order. YAML is a superset of
// JSON, so ".json" files are read by the same decoder.
func Locations() []string {
	locations := []string{
		"./ffsimple.yaml",
		"./ffsimple.yml",
		"./ffsimple.json",
	}
	if dir, err := os.UserConfigDir(); err == nil {
		locations = append(locations,
			filepath.Join(dir, "ffsimple", "config.yaml"),
			filepath.Join(dir, "ffsimple", "config.yml"),
			filepath.Join(dir, "ffsimple", "config.json"),
		)
	}
	if home, err := os.UserHomeDir(); err == nil {
		locations = append(locations,
			filepath.Join(home, ".ffsimple", "config.yaml"),
			filepath.Join(home, ".ffsimple", "config.json"),
		)
	}
	return locations
}

// FindConfigFile searches for config file in standard locations
// Returns empty string if not found (non-fatal)
func FindConfigFile() string {
	for _, path := range Locations() {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Load reads the config at path, or the first one found in Locations when
// path is empty. No config file at all yields DefaultConfig.
func Load(path string) (*Config, error) {
	if path == "" {
		path = FindConfigFile()
	}
	if path == "" {
		return DefaultConfig(), nil
	}

	cfg, err := LoadConfigFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadConfigFile loads configuration from a YAML or JSON file
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if cfg.Presets == nil {
		cfg.Presets = map[string]pipeline.JobOptions{}
	}
	cfg.Path = path
	return cfg, nil
}

// Validate checks the presets for values the compiler would reject.
func (c *Config) Validate() error {
	var problems []string

	for _, name := range c.PresetNames() {
		p := c.Presets[name]
		if m := p.SubtitlesMode; m != "" && m != pipeline.SubtitlesBurn && m != pipeline.SubtitlesStream {
			problems = append(problems, fmt.Sprintf("preset %q: invalid subtitlesMode %q", name, m))
		}
		if p.Speed != 0 {
			if _, _, err := pipeline.FindExponent(p.Speed); err != nil {
				problems = append(problems, fmt.Sprintf("preset %q: %v", name, err))
			}
		}
		if p.CRF != nil && (*p.CRF < 0 || *p.CRF > 63) {
			problems = append(problems, fmt.Sprintf("preset %q: crf %d out of range", name, *p.CRF))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

// PresetNames returns the preset names, sorted.
func (c *Config) PresetNames() []string {
	names := make([]string, 0, len(c.Presets))
	for name := range c.Presets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Preset returns a copy of the named preset.
func (c *Config) Preset(name string) (pipeline.JobOptions, error) {
	p, ok := c.Presets[name]
	if !ok {
		available := "none defined"
		if names := c.PresetNames(); len(names) > 0 {
			available = strings.Join(names, ", ")
		}
		return pipeline.JobOptions{}, fmt.Errorf("unknown preset %q (available: %s)", name, available)
	}
	return p.Clone(), nil
}

// Apply merges the named preset beneath opts. An empty name returns opts.
func (c *Config) Apply(name string, opts pipeline.JobOptions) (pipeline.JobOptions, error) {
	if name == "" {
		return opts, nil
	}
	preset, err := c.Preset(name)
	if err != nil {
		return pipeline.JobOptions{}, err
	}
	return pipeline.Merge(preset, opts), nil
}

// Resolver is a kong configuration loader. Top-level keys supply flag
// defaults, looked up by flag name, then snake_case, then camelCase.
func Resolver(r io.Reader) (kong.Resolver, error) {
	values := map[string]any{}
	if err := yaml.NewDecoder(r).Decode(&values); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	var f kong.ResolverFunc = func(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
		for _, key := range flagKeys(flag.Name) {
			raw, ok := values[key]
			if !ok {
				continue
			}
			return flagValue(raw)
		}
		return nil, nil
	}
	return f, nil
}

func flagKeys(name string) []string {
	keys := []string{name, strings.ReplaceAll(name, "-", "_")}
	parts := strings.Split(name, "-")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return append(keys, strings.Join(parts, ""))
}

func flagValue(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return nil, fmt.Errorf("expected a value, got a mapping")
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, ","), nil
	default:
		return fmt.Sprint(v), nil
	}
}
