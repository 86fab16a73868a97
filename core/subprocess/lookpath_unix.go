//go:build !windows
// +build !windows

package subprocess

import (
	"io/fs"
	"strings"
)

func containsPathSeparator(file string) bool {
	return strings.Contains(file, "/")
}

// executableCandidates is the set of file names to probe for one command
// name. POSIX has no implicit extensions, so it is the name itself.
func executableCandidates(file, _ string) []string {
	return []string{file}
}

func executableMode(m fs.FileMode) bool {
	return m&0111 != 0
}
