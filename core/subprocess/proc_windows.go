//go:build windows
// +build windows

package subprocess

import (
	"os"
	"syscall"
)

// sysProcAttr carries the explicitly quoted command line so the child sees
// exactly the argv the caller supplied, whitespace and quotes included.
func sysProcAttr(argv []string) *syscall.SysProcAttr {
	return &syscall.SysProcAttr{CmdLine: commandLine(argv)}
}

// exitCodeFromState maps the Windows exit code through directly; there is
// no signal-death encoding on this platform.
func exitCodeFromState(ps *os.ProcessState) int {
	if ws, ok := ps.Sys().(syscall.WaitStatus); ok {
		return int(ws.ExitCode)
	}
	return ps.ExitCode()
}
