package pipeline

import (
	"os"
	"path/filepath"
	"strings"
)

// DefaultSuffix is added when the derived output would overwrite the input.
const DefaultSuffix = "_converted"

// DeriveOutput computes the output path for input:
// <dir>/<Prefix><name><Suffix><Extension or input extension>, with dir
// replaced by OutputDir when set.
func DeriveOutput(input string, opts JobOptions) string {
	dir, base := filepath.Split(input)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)

	newExt := ext
	if opts.Extension != "" {
		newExt = opts.Extension
		if !strings.HasPrefix(newExt, ".") {
			newExt = "." + newExt
		}
	}
	if opts.OutputDir != "" {
		dir = opts.OutputDir
	}

	out := filepath.Join(dir, opts.Prefix+name+opts.Suffix+newExt)
	if samePath(out, input) {
		out = filepath.Join(dir, opts.Prefix+name+opts.Suffix+DefaultSuffix+newExt)
	}
	return out
}

// ResolveOutput returns the explicit output, or derives one from the first
// input. An explicit output naming a directory receives the derived file name.
func ResolveOutput(opts JobOptions, firstInput string) (string, error) {
	if opts.Output != "" && !isDirTarget(opts.Output) {
		return opts.Output, nil
	}
	if firstInput == "" {
		return "", &MissingOutputError{}
	}
	if opts.Output != "" {
		opts.OutputDir = opts.Output
	}
	return DeriveOutput(firstInput, opts), nil
}

func isDirTarget(path string) bool {
	if strings.HasSuffix(path, "/") || strings.HasSuffix(path, string(filepath.Separator)) {
		return true
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
