package video

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
)

// NoMatchError is returned when a glob pattern matches no files.
type NoMatchError struct {
	Pattern string
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("no files match %q", e.Pattern)
}

// ExpandInputs resolves input arguments into concrete paths, in order and
// without duplicates. Directories expand to the media files below them and
// glob patterns to their matches. Paths that exist are used literally even
// when they contain glob characters; other plain paths are passed through so
// the prober can report them.
func ExpandInputs(patterns []string) ([]string, error) {
	var out []string
	seen := make(map[string]struct{})
	add := func(paths ...string) {
		for _, p := range paths {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}

	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}

		info, err := os.Stat(pattern)
		switch {
		case err == nil && info.IsDir():
			files, err := FindMediaFiles(pattern)
			if err != nil {
				return nil, fmt.Errorf("failed to scan %s: %w", pattern, err)
			}
			add(files...)
		case err == nil:
			add(pattern)
		case hasGlobMeta(pattern):
			matches, err := filepath.Glob(pattern)
			if err != nil {
				return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
			}
			var files []string
			for _, m := range matches {
				if fi, err := os.Stat(m); err == nil && !fi.IsDir() {
					files = append(files, m)
				}
			}
			if len(files) == 0 {
				return nil, &NoMatchError{Pattern: pattern}
			}
			add(files...)
		default:
			add(pattern)
		}
	}
	return out, nil
}

func hasGlobMeta(pattern string) bool {
	return strings.ContainsAny(pattern, `*?[`)
}

// FindMediaFiles scans a directory recursively for media files, sorted by path.
func FindMediaFiles(directory string) ([]string, error) {
	var files []string
	var err error

	// Use fd if available for better performance, otherwise fall back to filepath.WalkDir
	if isFdAvailable() {
		files, err = findMediaFilesWithFd(directory)
		if err != nil {
			// If fd fails, fall back to the standard method
			files, err = findMediaFilesWithWalkDir(directory)
		}
	} else {
		files, err = findMediaFilesWithWalkDir(directory)
	}
	if err != nil {
		return nil, err
	}

	slices.Sort(files)
	return files, nil
}

// isFdAvailable checks if the 'fd' command is available in PATH
func isFdAvailable() bool {
	_, err := exec.LookPath("fd")
	return err == nil
}

// findMediaFilesWithWalkDir uses filepath.WalkDir to find media files (fallback method)
func findMediaFilesWithWalkDir(directory string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(directory, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !IsMediaFile(path) {
			return nil
		}
		files = append(files, path)
		return nil
	})

	return files, err
}

// findMediaFilesWithFd uses the 'fd' command to find media files
func findMediaFilesWithFd(directory string) ([]string, error) {
	var exts []string
	for _, ext := range mediaExtensions() {
		exts = append(exts, "\\"+ext)
	}
	pattern := "(" + strings.Join(exts, "|") + ")$"

	cmd := exec.Command("fd", "--type", "f", "--ignore-case", "--no-ignore", "--hidden", pattern, directory)
	output, err := cmd.Output()
	if err != nil {
		return nil, err
	}

	var files []string
	for _, line := range strings.Split(strings.TrimSpace(string(output)), "\n") {
		if line != "" && IsMediaFile(line) {
			files = append(files, filepath.Clean(line))
		}
	}
	return files, nil
}
