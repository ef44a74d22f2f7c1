package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/lepinkainen/ffsimple/pipeline"
	"github.com/lepinkainen/ffsimple/progress"
)

// BatchPolicy controls error handling across a batch.
type BatchPolicy struct {
	// Halt stops the batch at the first failed job.
	Halt bool
}

// Failure is a job that did not complete.
type Failure struct {
	Input string
	Err   error
}

// Summary counts the outcome of a batch.
type Summary struct {
	Succeeded int
	Failed    int
	Skipped   int
	Failures  []Failure
	Results   []*Result
}

func (s *Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d succeeded, %d failed, %d skipped", s.Succeeded, s.Failed, s.Skipped)
	for _, f := range s.Failures {
		fmt.Fprintf(&b, "\n  %s: %v", f.Input, f.Err)
	}
	return b.String()
}

func (s *Summary) fail(input string, err error) {
	s.Failed++
	s.Failures = append(s.Failures, Failure{Input: input, Err: err})
}

// Batch runs jobs in two phases. Every job is prepared first, so all output
// questions are settled before the first encode; then the prepared jobs run
// one at a time. With Halt the first error stops the batch and is returned;
// otherwise failures are collected in the summary.
func (o *Orchestrator) Batch(ctx context.Context, jobs []pipeline.JobOptions, policy BatchPolicy) (*Summary, error) {
	summary := &Summary{}

	prepared := make([]*Job, 0, len(jobs))
	for _, opts := range jobs {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		job, err := o.Prepare(ctx, opts)
		if err != nil {
			summary.fail(job.Label(), err)
			if policy.Halt {
				return summary, err
			}
			continue
		}
		prepared = append(prepared, job)
	}

	batch := progress.NewBatch(len(prepared))
	for _, job := range prepared {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		rep := o.reporter(job, batchReporter{Reporter: o.reporter(nil, nil), batch: batch})
		res, err := o.run(ctx, job, rep)
		batch.Done()
		o.Logger.Debug("batch job finished", "job", job.Label(), "completed", batch.Completed(), "total", batch.Total())

		switch {
		case err != nil:
			summary.fail(job.Label(), err)
			if policy.Halt {
				return summary, err
			}
		case res.Skipped:
			summary.Skipped++
			summary.Results = append(summary.Results, res)
		default:
			summary.Succeeded++
			summary.Results = append(summary.Results, res)
		}
	}
	return summary, nil
}
