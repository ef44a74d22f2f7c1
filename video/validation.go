package video

import (
	"path/filepath"
	"slices"
	"strings"
)

var (
	videoExtensions = []string{".mp4", ".webm", ".mov", ".flv", ".mkv", ".avi", ".wmv", ".mpg", ".mpeg", ".m4v", ".ts", ".mts", ".3gp", ".ogv", ".gif"}
	audioExtensions = []string{".mp3", ".m4a", ".m4b", ".flac", ".ogg", ".opus", ".wav", ".aac", ".wma"}
)

// IsVideoFile checks if the given file extension is one of known video file extensions
func IsVideoFile(path string) bool {
	return hasExtension(path, videoExtensions)
}

// IsAudioFile checks if the given file extension is one of known audio file extensions
func IsAudioFile(path string) bool {
	return hasExtension(path, audioExtensions)
}

// IsMediaFile reports whether path looks like something ffmpeg should read.
func IsMediaFile(path string) bool {
	return IsVideoFile(path) || IsAudioFile(path)
}

func hasExtension(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path)) // handle cases where extension is upper case
	return ext != "" && slices.Contains(exts, ext)
}

func mediaExtensions() []string {
	return append(slices.Clone(videoExtensions), audioExtensions...)
}
