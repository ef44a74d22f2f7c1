package progress

import (
	"math"
	"sync"
	"time"
)

// Unknown is the remaining time reported before any progress has been made.
const Unknown = time.Duration(math.MaxInt64)

// Sample is one raw progress signal emitted by a running ffmpeg process.
type Sample struct {
	Percent     *float64 // nil when the process does not report a percentage
	Timemark    string   // HH:MM:SS.ms position in the output
	CurrentKbps float64
	CurrentFPS  float64
	TargetSize  int64 // bytes written so far
}

// Estimate is the normalized, cumulative view of a job's progress.
type Estimate struct {
	Ratio       float64
	Percent     float64
	Elapsed     time.Duration
	Remaining   time.Duration
	BitrateKbps float64
	FPS         float64
	SizeBytes   int64
	Timemark    string
}

// RemainingKnown reports whether Remaining holds a real estimate.
func (e Estimate) RemainingKnown() bool {
	return e.Remaining != Unknown
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithTotal sets the item count used by Count and Step.
func WithTotal(total int) Option {
	return func(t *Tracker) { t.total = total }
}

// WithDuration lets Sample derive a ratio from the timemark when no percent is given.
func WithDuration(d time.Duration) Option {
	return func(t *Tracker) { t.duration = d }
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// Tracker turns ratio, percent or count signals into elapsed/remaining estimates.
// Elapsed time is measured from the first call (or Start).
type Tracker struct {
	mu       sync.Mutex
	now      func() time.Time
	total    int
	count    int
	duration time.Duration
	started  time.Time
	last     Estimate
}

// NewTracker creates a tracker. Without options it only accepts Ratio and Percent.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{now: time.Now, last: Estimate{Remaining: Unknown}}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start anchors the elapsed clock explicitly. Calling it is optional.
func (t *Tracker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started.IsZero() {
		t.started = t.now()
	}
}

// Ratio records an explicit completion ratio in [0,1].
func (t *Tracker) Ratio(r float64) Estimate {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.observe(r, nil)
}

// Percent records a completion percentage in [0,100].
func (t *Tracker) Percent(p float64) Estimate {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.observe(clamp(p, 0, 100)/100, nil)
}

// Count records how many of the configured total items are done.
func (t *Tracker) Count(c int) Estimate {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.count = c
	return t.observe(t.countRatio(), nil)
}

// Step advances the item count by one.
func (t *Tracker) Step() Estimate {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.count++
	return t.observe(t.countRatio(), nil)
}

// Sample records a raw ffmpeg progress signal. The percent wins when present,
// otherwise the timemark is measured against the tracker's duration.
func (t *Tracker) Sample(s Sample) Estimate {
	t.mu.Lock()
	defer t.mu.Unlock()

	ratio := t.last.Ratio
	switch {
	case s.Percent != nil:
		ratio = clamp(*s.Percent, 0, 100) / 100
	case s.Timemark != "" && t.duration > 0:
		if pos, err := ParseTimemark(s.Timemark); err == nil {
			ratio = float64(pos) / float64(t.duration)
		}
	}
	return t.observe(ratio, &s)
}

func (t *Tracker) countRatio() float64 {
	if t.total <= 0 {
		return 0
	}
	return float64(t.count) / float64(t.total)
}

func (t *Tracker) observe(ratio float64, s *Sample) Estimate {
	now := t.now()
	if t.started.IsZero() {
		t.started = now
	}

	if math.IsNaN(ratio) {
		ratio = 0
	}
	ratio = clamp(ratio, 0, 1)
	elapsed := now.Sub(t.started)

	est := Estimate{
		Ratio:     ratio,
		Percent:   clamp(ratio*100, 0, 100),
		Elapsed:   elapsed,
		Remaining: Remaining(elapsed, ratio),
	}
	if s != nil {
		est.BitrateKbps = s.CurrentKbps
		est.FPS = s.CurrentFPS
		est.SizeBytes = s.TargetSize
		est.Timemark = s.Timemark
	} else {
		est.BitrateKbps = t.last.BitrateKbps
		est.FPS = t.last.FPS
		est.SizeBytes = t.last.SizeBytes
		est.Timemark = t.last.Timemark
	}

	t.last = est
	return est
}

// Remaining estimates the time left given elapsed time and completion ratio.
// It returns Unknown while ratio is zero.
func Remaining(elapsed time.Duration, ratio float64) time.Duration {
	if ratio <= 0 || math.IsNaN(ratio) {
		return Unknown
	}
	total := float64(elapsed) / ratio
	rem := total - float64(elapsed)
	if rem < 0 {
		return 0
	}
	if rem >= float64(math.MaxInt64) {
		return Unknown
	}
	return time.Duration(rem)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
