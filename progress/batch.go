package progress

import "sync"

// Batch blends the progress of sequential jobs into one parent estimate:
// (completed + current ratio) / total.
type Batch struct {
	mu        sync.Mutex
	parent    *Tracker
	total     int
	completed int
}

// NewBatch creates a batch over total jobs. Options configure the parent tracker.
func NewBatch(total int, opts ...Option) *Batch {
	return &Batch{parent: NewTracker(opts...), total: total}
}

// Update reports the in-flight job's own ratio.
func (b *Batch) Update(current Estimate) Estimate {
	b.mu.Lock()
	defer b.mu.Unlock()
	est := b.parent.Ratio(b.blend(current.Ratio))
	est.BitrateKbps = current.BitrateKbps
	est.FPS = current.FPS
	est.SizeBytes = current.SizeBytes
	est.Timemark = current.Timemark
	return est
}

// Done marks the in-flight job finished, whatever its outcome.
func (b *Batch) Done() Estimate {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.completed < b.total {
		b.completed++
	}
	return b.parent.Ratio(b.blend(0))
}

// Completed returns how many jobs have been marked done.
func (b *Batch) Completed() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.completed
}

// Total returns the number of jobs in the batch.
func (b *Batch) Total() int {
	return b.total
}

func (b *Batch) blend(current float64) float64 {
	if b.total <= 0 {
		return 0
	}
	return (float64(b.completed) + clamp(current, 0, 1)) / float64(b.total)
}
