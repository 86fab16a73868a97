package subprocess

import (
	"errors"
	"io/fs"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
)

func memFsWithExecutable(t *testing.T, path string) afero.Fs {
	t.Helper()
	fsys := afero.NewMemMapFs()
	assert.Nil(t, afero.WriteFile(fsys, path, []byte("#!/bin/sh\n"), 0755))
	return fsys
}

func TestLookPathSearchesDirectories(t *testing.T) {
	fsys := memFsWithExecutable(t, "/usr/local/bin/tool")

	path, err := LookPath(fsys, strings.Join([]string{"/usr/bin", "/usr/local/bin"}, listSep()), "", "tool")
	assert.Nil(t, err)
	assert.Equal(t, "/usr/local/bin/tool", path)
}

func TestLookPathFirstMatchWins(t *testing.T) {
	fsys := memFsWithExecutable(t, "/a/tool")
	assert.Nil(t, afero.WriteFile(fsys, "/b/tool", []byte("x"), 0755))

	path, err := LookPath(fsys, strings.Join([]string{"/a", "/b"}, listSep()), "", "tool")
	assert.Nil(t, err)
	assert.Equal(t, "/a/tool", path)
}

func TestLookPathNotFound(t *testing.T) {
	fsys := afero.NewMemMapFs()

	_, err := LookPath(fsys, "/bin", "", "no-such-command")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLookPathSkipsNonExecutable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("no execute bit on windows")
	}
	fsys := afero.NewMemMapFs()
	assert.Nil(t, afero.WriteFile(fsys, "/bin/data", []byte("not a program"), 0644))

	_, err := LookPath(fsys, "/bin", "", "data")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLookPathDirectPathBypassesSearch(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("posix path separators")
	}
	fsys := memFsWithExecutable(t, "/opt/tool")

	// A name with a separator is tried directly; PATH is not consulted.
	path, err := LookPath(fsys, "/elsewhere", "", "/opt/tool")
	assert.Nil(t, err)
	assert.Equal(t, "/opt/tool", path)

	_, err = LookPath(fsys, "/opt", "", "./tool")
	assert.NotNil(t, err)
}

func TestLookPathUsesSuppliedPathExt(t *testing.T) {
	if runtime.GOOS != "windows" {
		t.Skip("PATHEXT probing is windows-only")
	}
	fsys := afero.NewMemMapFs()
	assert.Nil(t, afero.WriteFile(fsys, "/bin/tool.BAT", []byte("rem"), 0755))

	// The extension list is the caller's, not the live PATHEXT.
	path, err := LookPath(fsys, "/bin", ".COM;.BAT", "tool")
	assert.Nil(t, err)
	assert.Equal(t, filepath.Join("/bin", "tool.BAT"), path)
}

func TestFindExecutableRejectsDirectory(t *testing.T) {
	fsys := afero.NewMemMapFs()
	assert.Nil(t, fsys.MkdirAll("/bin/tool", 0755))

	err := findExecutable(fsys, "/bin/tool")
	assert.True(t, errors.Is(err, fs.ErrPermission))
}

func listSep() string {
	if runtime.GOOS == "windows" {
		return ";"
	}
	return ":"
}
