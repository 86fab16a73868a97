//go:build windows
// +build windows

package subprocess

import (
	"io/fs"
	"path/filepath"
	"strings"
)

func containsPathSeparator(file string) bool {
	return strings.ContainsAny(file, `:\/`)
}

// executableCandidates lists the names to probe for one command name: the
// pathExt extensions first when the name has none, then the bare name. A
// name that already carries an extension is checked directly. pathExt
// comes from the invocation's environment plan, not the live environment.
func executableCandidates(file, pathExt string) []string {
	if filepath.Ext(file) != "" {
		return []string{file}
	}
	exts := filepath.SplitList(pathExt)
	if len(exts) == 0 {
		exts = []string{".COM", ".EXE", ".BAT", ".CMD"}
	}
	candidates := make([]string, 0, len(exts)+1)
	for _, ext := range exts {
		if ext == "" {
			continue
		}
		if ext[0] != '.' {
			ext = "." + ext
		}
		candidates = append(candidates, file+ext)
	}
	return append(candidates, file)
}

// Windows has no execute permission bit; any regular file qualifies.
func executableMode(m fs.FileMode) bool {
	return m.IsRegular() || m&fs.ModeSymlink != 0
}
