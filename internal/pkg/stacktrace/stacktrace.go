// Package stacktrace shortens panic stacks to the frames of this module.
package stacktrace

import "strings"

// InternalPaths returns "internal/...go:line" for every frame under /internal/.
func InternalPaths(stack []byte) []string {
	var paths []string
	for line := range strings.Lines(string(stack)) {
		line = strings.TrimSpace(line)
		file, _, _ := strings.Cut(line, " ")

		idx := strings.Index(file, "/internal/")
		if idx == -1 || !strings.Contains(file, ".go:") {
			continue
		}
		paths = append(paths, file[idx+1:])
	}
	return paths
}
