package pipeline

import (
	"math"
	"strconv"
)

const (
	atempoMin    = 0.5
	atempoMax    = 2.0
	atempoStages = 10
	epsilon      = 1e-9
)

func minSpeed() float64 { return math.Pow(atempoMin, atempoStages) }
func maxSpeed() float64 { return math.Pow(atempoMax, atempoStages) }

// FindExponent splits speed into n equal atempo stages of factor m, with the
// smallest n in [1,10] that keeps m within atempo's [0.5, 2] range.
func FindExponent(speed float64) (n int, m float64, err error) {
	if speed <= 0 || math.IsNaN(speed) || math.IsInf(speed, 0) {
		return 0, 0, &UnsupportedSpeedError{Speed: speed}
	}
	exp := math.Log10(speed)
	for n = 1; n <= atempoStages; n++ {
		m = math.Pow(10, exp/float64(n))
		if m >= atempoMin-epsilon && m <= atempoMax+epsilon {
			return n, m, nil
		}
	}
	return 0, 0, &UnsupportedSpeedError{Speed: speed}
}

// NormalizeRotate returns the angle in radians. Magnitudes above π are taken
// to be degrees.
func NormalizeRotate(angle float64) float64 {
	if math.Abs(angle) > math.Pi {
		return angle * math.Pi / 180
	}
	return angle
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// speedFilters returns the video setpts filter and the atempo chain for speed.
func speedFilters(speed float64) (video string, audio []string, err error) {
	n, m, err := FindExponent(speed)
	if err != nil {
		return "", nil, err
	}
	video = "setpts=PTS/" + formatFloat(speed)
	stage := "atempo=" + strconv.FormatFloat(m, 'f', 6, 64)
	for i := 0; i < n; i++ {
		audio = append(audio, stage)
	}
	return video, audio, nil
}
