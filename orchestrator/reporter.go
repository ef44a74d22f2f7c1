package orchestrator

import (
	"github.com/lepinkainen/ffsimple/progress"
)

// Reporter receives the lifecycle events of jobs. Calls for one job are
// never concurrent.
type Reporter interface {
	Start(job *Job, commandLine string)
	Progress(job *Job, est progress.Estimate)
	Stderr(job *Job, line string)
	Warn(job *Job, msg string)
	Done(job *Job, res *Result, err error)
}

// NopReporter discards every event.
type NopReporter struct{}

func (NopReporter) Start(*Job, string)               {}
func (NopReporter) Progress(*Job, progress.Estimate) {}
func (NopReporter) Stderr(*Job, string)              {}
func (NopReporter) Warn(*Job, string)                {}
func (NopReporter) Done(*Job, *Result, error)        {}

// batchReporter rewrites per-job progress into the blended batch progress.
type batchReporter struct {
	Reporter
	batch *progress.Batch
}

func (b batchReporter) Progress(job *Job, est progress.Estimate) {
	b.Reporter.Progress(job, b.batch.Update(est))
}
