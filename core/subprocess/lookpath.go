package subprocess

import (
	"errors"
	"io/fs"
	"os/exec"
	"path/filepath"

	"github.com/spf13/afero"
)

// ErrNotFound is the error resulting if a path search failed to find an
// executable file.
var ErrNotFound = exec.ErrNotFound

func findExecutable(fsys afero.Fs, file string) error {
	d, err := fsys.Stat(file)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return ErrNotFound
	case err != nil:
		return err
	}
	if d.Mode().IsDir() {
		return fs.ErrPermission
	}
	if !executableMode(d.Mode()) {
		return fs.ErrPermission
	}
	return nil
}

// LookPath searches for an executable named file in the directories named
// by pathEnv, the value of the PATH environment variable. If file contains
// a path separator it is tried directly and the PATH is not consulted. The
// result may be an absolute path or a path relative to the current
// directory. pathExt carries the PATHEXT value used for Windows extension
// probing; it is ignored elsewhere.
//
// Stat checks go through fsys so lookup behavior is testable against an
// in-memory filesystem.
func LookPath(fsys afero.Fs, pathEnv, pathExt, file string) (string, error) {
	if containsPathSeparator(file) {
		var lastErr error
		for _, candidate := range executableCandidates(file, pathExt) {
			err := findExecutable(fsys, candidate)
			if err == nil {
				return candidate, nil
			}
			lastErr = err
		}
		return "", lastErr
	}
	for _, dir := range filepath.SplitList(pathEnv) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		for _, candidate := range executableCandidates(filepath.Join(dir, file), pathExt) {
			if err := findExecutable(fsys, candidate); err == nil {
				return candidate, nil
			}
		}
	}
	return "", ErrNotFound
}
