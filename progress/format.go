package progress

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var sizeUnits = []struct {
	name string
	size float64
}{
	{"GB", 1 << 30},
	{"MB", 1 << 20},
	{"KB", 1 << 10},
}

var durationUnits = []struct {
	name string
	size time.Duration
}{
	{"days", 24 * time.Hour},
	{"hours", time.Hour},
	{"minutes", time.Minute},
}

// PercentString formats p with one decimal below 10% and as a whole number above.
func PercentString(p float64) string {
	p = clamp(p, 0, 100)
	if p < 10 {
		return fmt.Sprintf("%.1f%%", p)
	}
	return fmt.Sprintf("%d%%", int(p))
}

// DurationString renders d in its largest whole unit, e.g. "3 minutes".
func DurationString(d time.Duration) string {
	if d == Unknown {
		return "∞"
	}
	for _, u := range durationUnits {
		if d > u.size {
			return fmt.Sprintf("%.0f %s", float64(d)/float64(u.size), u.name)
		}
	}
	return fmt.Sprintf("%.0f seconds", d.Seconds())
}

// SizeString renders a byte count in its largest unit, e.g. "12 MB".
func SizeString(bytes int64) string {
	b := float64(bytes)
	for _, u := range sizeUnits {
		if b > u.size {
			return fmt.Sprintf("%.0f %s", b/u.size, u.name)
		}
	}
	return fmt.Sprintf("%d b", bytes)
}

// ParseTimemark parses ffmpeg positions such as "01:02:03.45", "02:03" or "3.5".
func ParseTimemark(mark string) (time.Duration, error) {
	mark = strings.TrimSpace(mark)
	if mark == "" || mark == "N/A" {
		return 0, fmt.Errorf("empty timemark")
	}
	neg := strings.HasPrefix(mark, "-")
	mark = strings.TrimPrefix(mark, "-")

	parts := strings.Split(mark, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("invalid timemark %q", mark)
	}

	var seconds float64
	for i, part := range parts {
		v, err := strconv.ParseFloat(part, 64)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("invalid timemark %q", mark)
		}
		exp := len(parts) - 1 - i
		seconds += v * math.Pow(60, float64(exp))
	}
	if neg {
		seconds = -seconds
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// FormatTimemark renders d the way ffmpeg prints positions, HH:MM:SS.ss.
func FormatTimemark(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int(d / time.Hour)
	d -= time.Duration(h) * time.Hour
	m := int(d / time.Minute)
	d -= time.Duration(m) * time.Minute
	return fmt.Sprintf("%02d:%02d:%05.2f", h, m, d.Seconds())
}

// Line renders the one-line status shown while ffmpeg runs: percent, timemark, kbps.
func Line(est Estimate) string {
	var parts []string
	if est.Ratio > 0 {
		parts = append(parts, PercentString(est.Percent))
	}
	if est.Timemark != "" {
		parts = append(parts, est.Timemark)
	}
	if est.BitrateKbps > 0 {
		parts = append(parts, fmt.Sprintf("%d kbps", int(est.BitrateKbps)))
	}
	if est.Ratio > 0 && est.RemainingKnown() {
		parts = append(parts, "ETA "+DurationString(est.Remaining))
	}
	return strings.Join(parts, " ")
}
