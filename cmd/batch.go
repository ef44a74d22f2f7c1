package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/lepinkainen/ffsimple/config"
	"github.com/lepinkainen/ffsimple/pipeline"
	"github.com/lepinkainen/ffsimple/types"
	"github.com/lepinkainen/ffsimple/video"
)

// BatchCmd runs the jobs listed in a YAML or JSON file, one after another.
type BatchCmd struct {
	File string `arg:"" name:"file" help:"Job list (YAML or JSON)" type:"existingfile"`

	PolicyFlags `embed:""`
}

// batchEntry is one job of a batch file. Use names a config preset the
// entry is laid over. An entry whose inputs expand to several files runs once
// per file unless Concat joins them into one output.
type batchEntry struct {
	Use                 string `yaml:"use,omitempty"`
	Concat              bool   `yaml:"concat,omitempty"`
	pipeline.JobOptions `yaml:",inline"`
}

// batchJob is a job loaded from a batch file.
type batchJob struct {
	pipeline.JobOptions
	concat bool
}

func (cmd *BatchCmd) Run(appCtx *types.AppContext, ctx context.Context) error {
	loaded, err := loadBatch(cmd.File, appCtx.Config)
	if err != nil {
		return err
	}
	jobs := make([]pipeline.JobOptions, 0, len(loaded))
	for _, bj := range loaded {
		job := bj.JobOptions
		cmd.merge(&job)
		if bj.concat {
			if err := concatFilter(ctx, appCtx, &job); err != nil {
				return err
			}
		}
		jobs = append(jobs, job)
	}
	return runJobs(ctx, appCtx, jobs, cmd.Halt)
}

// merge switches on the policies given on the command line; entries keep
// the ones they set themselves.
func (cmd *BatchCmd) merge(job *pipeline.JobOptions) {
	job.Skip = job.Skip || cmd.Skip
	job.Overwrite = job.Overwrite || cmd.Force
	job.Halt = job.Halt || cmd.Halt
	job.Replace = job.Replace || cmd.Replace
	job.Permanent = job.Permanent || cmd.Permanent
	job.VerifyFrames = job.VerifyFrames || cmd.VerifyFrames
}

// loadBatch reads a job list. Relative paths in an entry are resolved
// against the directory of the file before globs and directories are
// expanded.
func loadBatch(path string, cfg *config.Config) ([]batchJob, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}

	var entries []batchEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse batch file %s: %w", path, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("batch file %s lists no jobs", path)
	}

	base := filepath.Dir(path)
	var jobs []batchJob
	for i, entry := range entries {
		job := entry.JobOptions
		if entry.Use != "" {
			if cfg == nil {
				return nil, fmt.Errorf("job %d: preset %q needs a config file", i+1, entry.Use)
			}
			if job, err = cfg.Apply(entry.Use, job); err != nil {
				return nil, fmt.Errorf("job %d: %w", i+1, err)
			}
		}
		resolvePaths(&job, base)

		expanded, err := expandEntry(job, entry.Concat)
		if err != nil {
			return nil, fmt.Errorf("job %d: %w", i+1, err)
		}
		jobs = append(jobs, expanded...)
	}
	return jobs, nil
}

// expandEntry turns one entry into jobs: a single joined job for concat
// entries, otherwise one job per input file.
func expandEntry(job pipeline.JobOptions, concat bool) ([]batchJob, error) {
	patterns := job.Paths()
	files, err := video.ExpandInputs(patterns)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, &pipeline.NoInputError{Patterns: patterns}
	}

	if concat {
		if len(files) < 2 {
			return nil, fmt.Errorf("concat needs at least two inputs, got %d", len(files))
		}
		job.Input, job.Inputs = "", files
		defaultSuffix(&job, "_joined")
		return []batchJob{{JobOptions: job, concat: true}}, nil
	}

	if len(files) > 1 && job.Output != "" && !isDirTarget(job.Output) {
		return nil, fmt.Errorf("output %s must be a directory when processing %d inputs", job.Output, len(files))
	}
	jobs := make([]batchJob, 0, len(files))
	for _, file := range files {
		one := job.Clone()
		one.Input, one.Inputs = file, nil
		jobs = append(jobs, batchJob{JobOptions: one})
	}
	return jobs, nil
}

func resolvePaths(job *pipeline.JobOptions, base string) {
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}
	job.Input = resolve(job.Input)
	for i, in := range job.Inputs {
		job.Inputs[i] = resolve(in)
	}
	job.Output = resolveKeepingSlash(job.Output, resolve)
	job.OutputDir = resolve(job.OutputDir)
	job.Subtitles = resolve(job.Subtitles)
}

// resolveKeepingSlash resolves p but keeps a trailing separator, which marks
// an output directory.
func resolveKeepingSlash(p string, resolve func(string) string) string {
	if p == "" {
		return p
	}
	out := resolve(p)
	last := p[len(p)-1]
	if last == '/' || last == filepath.Separator {
		out += string(filepath.Separator)
	}
	return out
}
