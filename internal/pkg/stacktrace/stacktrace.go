// Package stacktrace trims runtime stack dumps down to this module's frames.
package stacktrace

import "strings"

// InternalPaths returns the "internal/<pkg>/<file>.go:<line>" locations found
// in a raw debug.Stack dump, in call order.
func InternalPaths(stack []byte) []string {
	var paths []string
	for line := range strings.Lines(string(stack)) {
		line = strings.TrimSpace(line)
		_, rest, found := strings.Cut(line, "/internal/")
		if !found {
			continue
		}

		loc, _, _ := strings.Cut(rest, " ")
		if !strings.Contains(loc, ".go:") {
			continue
		}
		paths = append(paths, "internal/"+loc)
	}
	return paths
}
