package video

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/corona10/goimagehash"
	"github.com/google/uuid"
)

// FrameHash extracts the frame at offset with ffmpeg and returns its
// perceptual hash. When the offset is past the end the first frame is used.
func FrameHash(ctx context.Context, ffmpegBinary, videoFile string, at time.Duration) (*goimagehash.ImageHash, error) {
	if ffmpegBinary == "" {
		ffmpegBinary = "ffmpeg"
	}
	if _, err := os.Stat(videoFile); err != nil {
		return nil, fmt.Errorf("file not accessible: %w", err)
	}

	// Create temporary file for extracted frame
	tempFrame := filepath.Join(os.TempDir(), "ffsimple-frame-"+uuid.NewString()+".jpg")
	defer func() { _ = os.Remove(tempFrame) }()

	if err := extractFrame(ctx, ffmpegBinary, videoFile, tempFrame, at); err != nil {
		if at <= 0 {
			return nil, err
		}
		// Try the first frame if the offset fails
		if err = extractFrame(ctx, ffmpegBinary, videoFile, tempFrame, 0); err != nil {
			return nil, err
		}
	}

	// Calculate perceptual hash of extracted frame
	file, err := os.Open(tempFrame)
	if err != nil {
		return nil, fmt.Errorf("failed to open extracted frame: %w", err)
	}
	defer func() { _ = file.Close() }()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	hash, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate perceptual hash: %w", err)
	}
	return hash, nil
}

// FrameDistance hashes the frame at atA in a and at atB in b and returns the
// Hamming distance between them. 0 means perceptually identical.
func FrameDistance(ctx context.Context, ffmpegBinary, a string, atA time.Duration, b string, atB time.Duration) (int, error) {
	ha, err := FrameHash(ctx, ffmpegBinary, a, atA)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", a, err)
	}
	hb, err := FrameHash(ctx, ffmpegBinary, b, atB)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", b, err)
	}
	return ha.Distance(hb)
}

func extractFrame(ctx context.Context, ffmpegBinary, videoFile, frame string, at time.Duration) error {
	seek := strconv.FormatFloat(at.Seconds(), 'f', 3, 64)
	cmd := exec.CommandContext(ctx, ffmpegBinary, "-v", "error", "-ss", seek, "-i", videoFile,
		"-frames:v", "1", "-f", "image2", "-y", frame)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to extract frame at %ss: %w: %s", seek, err, firstLine(string(output)))
	}
	if fi, err := os.Stat(frame); err != nil || fi.Size() == 0 {
		return fmt.Errorf("failed to extract frame at %ss: no image written", seek)
	}
	return nil
}

// firstLine extracts just the first line from a multi-line string
func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if s == "" {
		return "no additional information available"
	}
	return strings.TrimSpace(s)
}
