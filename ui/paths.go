package ui

import (
	"path/filepath"
	"strings"
)

// ShortPaths drops the directory prefix shared by all paths, keeping one
// level of it for context, so failure lists stay readable.
func ShortPaths(paths []string) []string {
	if len(paths) <= 1 {
		return paths
	}

	components := make([][]string, len(paths))
	for i, path := range paths {
		components[i] = strings.Split(filepath.Clean(path), string(filepath.Separator))
	}

	shortest := len(components[0])
	for _, c := range components[1:] {
		shortest = min(shortest, len(c))
	}

	// never treat the file name itself as shared
	common := 0
	for i := 0; i < shortest-1; i++ {
		same := true
		for _, c := range components[1:] {
			if c[i] != components[0][i] {
				same = false
				break
			}
		}
		if !same {
			break
		}
		common = i + 1
	}

	result := make([]string, len(paths))
	for i, c := range components {
		start := max(common-1, 0)
		short := filepath.Join(c[start:]...)
		if start > 0 {
			short = "..." + string(filepath.Separator) + short
		}
		result[i] = short
	}
	return result
}
