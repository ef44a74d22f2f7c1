package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func TestTrackerRemainingAfterHalfway(t *testing.T) {
	clock := newClock()
	tracker := NewTracker(WithClock(clock.Now))

	tracker.Start()
	clock.Advance(10 * time.Second)
	est := tracker.Ratio(0.5)

	assert.Equal(t, 10*time.Second, est.Elapsed)
	assert.InDelta(t, float64(10*time.Second), float64(est.Remaining), float64(time.Millisecond))
	assert.True(t, est.RemainingKnown())
	assert.InDelta(t, 50.0, est.Percent, 0.0001)
}

func TestTrackerZeroRatioIsUnknown(t *testing.T) {
	clock := newClock()
	tracker := NewTracker(WithClock(clock.Now))

	est := tracker.Ratio(0)
	assert.Equal(t, Unknown, est.Remaining)
	assert.False(t, est.RemainingKnown())

	clock.Advance(time.Minute)
	est = tracker.Ratio(0)
	assert.Equal(t, Unknown, est.Remaining)
}

func TestTrackerFirstCallAnchorsElapsed(t *testing.T) {
	clock := newClock()
	tracker := NewTracker(WithClock(clock.Now))

	est := tracker.Ratio(0.1)
	assert.Equal(t, time.Duration(0), est.Elapsed)
	assert.Equal(t, time.Duration(0), est.Remaining)

	clock.Advance(4 * time.Second)
	est = tracker.Ratio(0.2)
	assert.Equal(t, 4*time.Second, est.Elapsed)
	assert.InDelta(t, float64(16*time.Second), float64(est.Remaining), float64(time.Millisecond))
}

func TestTrackerClamping(t *testing.T) {
	tests := []struct {
		name        string
		record      func(*Tracker) Estimate
		wantRatio   float64
		wantPercent float64
	}{
		{"percent overshoot", func(tr *Tracker) Estimate { return tr.Percent(100.4) }, 1, 100},
		{"negative percent", func(tr *Tracker) Estimate { return tr.Percent(-3) }, 0, 0},
		{"ratio overshoot", func(tr *Tracker) Estimate { return tr.Ratio(1.2) }, 1, 100},
		{"negative ratio", func(tr *Tracker) Estimate { return tr.Ratio(-0.5) }, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			est := tt.record(NewTracker(WithClock(newClock().Now)))
			assert.InDelta(t, tt.wantRatio, est.Ratio, 1e-9)
			assert.InDelta(t, tt.wantPercent, est.Percent, 1e-9)
			assert.GreaterOrEqual(t, est.Remaining, time.Duration(0))
		})
	}
}

func TestTrackerCountAndStep(t *testing.T) {
	tracker := NewTracker(WithTotal(4), WithClock(newClock().Now))

	assert.InDelta(t, 0.25, tracker.Step().Ratio, 1e-9)
	assert.InDelta(t, 0.5, tracker.Step().Ratio, 1e-9)
	assert.InDelta(t, 0.75, tracker.Count(3).Ratio, 1e-9)
	assert.InDelta(t, 1.0, tracker.Step().Ratio, 1e-9)
}

func TestTrackerCountWithoutTotal(t *testing.T) {
	tracker := NewTracker(WithClock(newClock().Now))
	est := tracker.Step()
	assert.Equal(t, 0.0, est.Ratio)
	assert.Equal(t, Unknown, est.Remaining)
}

func TestTrackerSample(t *testing.T) {
	t.Run("timemark against duration", func(t *testing.T) {
		tracker := NewTracker(WithDuration(100*time.Second), WithClock(newClock().Now))
		est := tracker.Sample(Sample{Timemark: "00:00:25.00", CurrentKbps: 1800, CurrentFPS: 29.97, TargetSize: 4096})

		assert.InDelta(t, 0.25, est.Ratio, 1e-9)
		assert.Equal(t, 1800.0, est.BitrateKbps)
		assert.Equal(t, 29.97, est.FPS)
		assert.Equal(t, int64(4096), est.SizeBytes)
		assert.Equal(t, "00:00:25.00", est.Timemark)
	})

	t.Run("percent wins over timemark", func(t *testing.T) {
		tracker := NewTracker(WithDuration(100*time.Second), WithClock(newClock().Now))
		pct := 80.0
		est := tracker.Sample(Sample{Percent: &pct, Timemark: "00:00:25.00"})
		assert.InDelta(t, 0.8, est.Ratio, 1e-9)
	})

	t.Run("unparseable timemark keeps last ratio", func(t *testing.T) {
		tracker := NewTracker(WithDuration(100*time.Second), WithClock(newClock().Now))
		tracker.Sample(Sample{Timemark: "00:00:50.00"})
		est := tracker.Sample(Sample{Timemark: "N/A"})
		assert.InDelta(t, 0.5, est.Ratio, 1e-9)
	})

	t.Run("no duration", func(t *testing.T) {
		tracker := NewTracker(WithClock(newClock().Now))
		est := tracker.Sample(Sample{Timemark: "00:00:25.00"})
		assert.Equal(t, 0.0, est.Ratio)
	})
}

func TestBatchBlendsRatio(t *testing.T) {
	clock := newClock()
	batch := NewBatch(4, WithClock(clock.Now))

	est := batch.Update(Estimate{Ratio: 0.5})
	assert.InDelta(t, 0.125, est.Ratio, 1e-9)

	batch.Done()
	require.Equal(t, 1, batch.Completed())

	est = batch.Update(Estimate{Ratio: 0.5, BitrateKbps: 900})
	assert.InDelta(t, 0.375, est.Ratio, 1e-9)
	assert.Equal(t, 900.0, est.BitrateKbps)

	for i := 0; i < 5; i++ {
		batch.Done()
	}
	assert.Equal(t, batch.Total(), batch.Completed())
	assert.InDelta(t, 1.0, batch.Update(Estimate{}).Ratio, 1e-9)
}

func TestBatchETAReflectsTotalWork(t *testing.T) {
	clock := newClock()
	batch := NewBatch(2, WithClock(clock.Now))

	batch.Update(Estimate{})
	clock.Advance(10 * time.Second)
	batch.Done()
	est := batch.Update(Estimate{Ratio: 0})

	// one of two jobs took 10s, so another 10s remain
	assert.InDelta(t, float64(10*time.Second), float64(est.Remaining), float64(time.Millisecond))
}
