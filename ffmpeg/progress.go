package ffmpeg

import (
	"strconv"
	"strings"
	"time"

	"github.com/lepinkainen/ffsimple/progress"
)

// Progress is one "-progress" block reported by ffmpeg.
type Progress struct {
	Frame     int64
	FPS       float64
	Kbps      float64
	TotalSize int64
	OutTime   time.Duration
	Timemark  string
	Speed     float64
	End       bool // the final block, sent as "progress=end"
}

// Sample converts p into the tracker's input.
func (p Progress) Sample() progress.Sample {
	return progress.Sample{
		Timemark:    p.Timemark,
		CurrentKbps: p.Kbps,
		CurrentFPS:  p.FPS,
		TargetSize:  p.TotalSize,
	}
}

// progressParser accumulates key=value lines until a "progress=" marker
// closes the block.
type progressParser struct {
	cur       Progress
	outTimeUs bool
}

// feed consumes one line. It returns the finished block when line closes one,
// and known=false for lines that are not part of the progress protocol.
func (pp *progressParser) feed(line string) (p Progress, done, known bool) {
	key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
	if !ok {
		return Progress{}, false, false
	}
	key, value = strings.TrimSpace(key), strings.TrimSpace(value)

	switch key {
	case "progress":
		p = pp.cur
		p.End = value == "end"
		if p.OutTime < 0 {
			p.OutTime = 0
		}
		p.Timemark = progress.FormatTimemark(p.OutTime)
		pp.cur = Progress{}
		pp.outTimeUs = false
		return p, true, true
	case "frame":
		if v, err := strconv.ParseInt(value, 10, 64); err == nil && v >= 0 {
			pp.cur.Frame = v
		}
	case "fps":
		if v, err := strconv.ParseFloat(value, 64); err == nil && v >= 0 {
			pp.cur.FPS = v
		}
	case "bitrate":
		if v, err := strconv.ParseFloat(strings.TrimSuffix(value, "kbits/s"), 64); err == nil && v >= 0 {
			pp.cur.Kbps = v
		}
	case "total_size":
		if v, err := strconv.ParseInt(value, 10, 64); err == nil && v >= 0 {
			pp.cur.TotalSize = v
		}
	case "out_time_us", "out_time_ms":
		// out_time_ms is microseconds as well
		if v, err := strconv.ParseInt(value, 10, 64); err == nil {
			pp.cur.OutTime = time.Duration(v) * time.Microsecond
			pp.outTimeUs = true
		}
	case "out_time":
		if pp.outTimeUs {
			break
		}
		if d, err := progress.ParseTimemark(value); err == nil {
			pp.cur.OutTime = d
		}
	case "speed":
		if v, err := strconv.ParseFloat(strings.TrimSuffix(value, "x"), 64); err == nil && v >= 0 {
			pp.cur.Speed = v
		}
	case "dup_frames", "drop_frames", "out_time_ns":
	default:
		if !strings.HasPrefix(key, "stream_") {
			return Progress{}, false, false
		}
	}
	return Progress{}, false, true
}
