package utils

import (
	"fmt"
	"os/exec"
	"runtime"
)

// Binaries names the external tools ffsimple drives. Empty fields fall back
// to "ffmpeg" and "ffprobe" looked up in PATH.
type Binaries struct {
	FFmpeg  string
	FFprobe string
}

// WithDefaults fills empty binary names.
func (b Binaries) WithDefaults() Binaries {
	if b.FFmpeg == "" {
		b.FFmpeg = "ffmpeg"
	}
	if b.FFprobe == "" {
		b.FFprobe = "ffprobe"
	}
	return b
}

// ValidateFFmpegDependencies checks that the configured ffprobe and ffmpeg can be found
func ValidateFFmpegDependencies(b Binaries) error {
	b = b.WithDefaults()

	if _, err := exec.LookPath(b.FFprobe); err != nil {
		return fmt.Errorf("ffprobe not found (%s). %s", b.FFprobe, getInstallationInstructions())
	}

	if _, err := exec.LookPath(b.FFmpeg); err != nil {
		return fmt.Errorf("ffmpeg not found (%s). %s", b.FFmpeg, getInstallationInstructions())
	}

	return nil
}

// getInstallationInstructions returns platform-specific installation instructions
func getInstallationInstructions() string {
	switch runtime.GOOS {
	case "darwin":
		return "Install with: brew install ffmpeg"
	case "linux":
		return "Install with: apt-get install ffmpeg (Ubuntu/Debian) or dnf install ffmpeg (Fedora)"
	case "windows":
		return "Download from https://ffmpeg.org/download.html and add to PATH"
	default:
		return "Download from https://ffmpeg.org/download.html"
	}
}
