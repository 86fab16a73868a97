//go:build !windows
// +build !windows

package subprocess

import (
	"os"
	"syscall"
)

// POSIX needs no extra spawn attributes; the ordered Files slice carries
// the dup-onto-0/1/2 wiring.
func sysProcAttr([]string) *syscall.SysProcAttr {
	return nil
}

// exitCodeFromState normalizes a POSIX wait status: the declared exit
// status for a normal exit, 128+signal when the child was killed by a
// signal.
func exitCodeFromState(ps *os.ProcessState) int {
	ws, ok := ps.Sys().(syscall.WaitStatus)
	if !ok {
		return ps.ExitCode()
	}
	if ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return ws.ExitStatus()
}
