//go:build !windows
// +build !windows

package subprocess

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// readChunk bounds how much is moved per readiness event so no stream can
// starve the others.
const readChunk = 1024

// multiplex drives every buffer-backed pipe with a single-threaded poll
// loop: the stdin write end registered for writability, the stdout/stderr
// read ends for readability. The loop runs until all registered ends are
// closed, so the child is never stalled against a full pipe buffer.
func (s *Subprocess) multiplex() error {
	fds := [3]unix.PollFd{
		{Fd: -1, Events: unix.POLLOUT},
		{Fd: -1, Events: unix.POLLIN},
		{Fd: -1, Events: unix.POLLIN},
	}

	// Fd puts the descriptor into blocking mode; flip each end back to
	// nonblocking so a write larger than the free pipe space short-writes
	// instead of parking the loop while the child waits on its outputs.
	for _, st := range s.streams() {
		f := st.parentEnd()
		if f == nil {
			continue
		}
		fd := int(f.Fd())
		if err := unix.SetNonblock(fd, true); err != nil {
			return fmt.Errorf("set %s nonblocking: %w", st.role, err)
		}
		fds[st.role].Fd = int32(fd)
	}

	var input []byte
	if fds[Stdin].Fd != -1 {
		input = s.stdin.r.input
	}

	closeSlot := func(role StreamRole) {
		s.streams()[role].closeParentEnd()
		fds[role].Fd = -1
	}

	for fds[Stdin].Fd != -1 || fds[Stdout].Fd != -1 || fds[Stderr].Fd != -1 {
		n, err := unix.Poll(fds[:], -1)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return fmt.Errorf("poll: %w", err)
		}
		if n == 0 {
			break
		}

		if fds[Stdin].Fd != -1 && fds[Stdin].Revents&unix.POLLOUT != 0 {
			if len(input) == 0 {
				closeSlot(Stdin)
			} else {
				n, err := unix.Write(int(fds[Stdin].Fd), input)
				if n > 0 {
					input = input[n:]
				}
				if err != nil && err != unix.EINTR && err != unix.EAGAIN {
					// Reader gone; the remaining input has nowhere to go.
					closeSlot(Stdin)
				}
			}
		}

		for _, out := range []*stream{&s.stdout, &s.stderr} {
			slot := out.role
			if fds[slot].Fd == -1 || fds[slot].Revents&unix.POLLIN == 0 {
				continue
			}
			var buf [readChunk]byte
			n, err := unix.Read(int(fds[slot].Fd), buf[:])
			switch {
			case n > 0:
				out.r.sink.Write(buf[:n])
			case err == nil:
				closeSlot(slot) // EOF
			case err == unix.EINTR || err == unix.EAGAIN:
				// retry on the next readiness report
			default:
				return fmt.Errorf("read %s: %w", out.role, err)
			}
		}

		// Error-flagged descriptors leave the poll set. A hangup on a read
		// end with POLLIN still raised is not final: buffered output remains
		// and the next iterations drain it down to the zero read.
		const bad = unix.POLLHUP | unix.POLLERR | unix.POLLNVAL
		if fds[Stdin].Fd != -1 && fds[Stdin].Revents&bad != 0 {
			closeSlot(Stdin)
		}
		for _, slot := range []StreamRole{Stdout, Stderr} {
			if fds[slot].Fd != -1 && fds[slot].Revents&bad != 0 &&
				fds[slot].Revents&unix.POLLIN == 0 {
				closeSlot(slot)
			}
		}
	}

	for _, slot := range []StreamRole{Stdin, Stdout, Stderr} {
		if fds[slot].Fd != -1 {
			closeSlot(slot)
		}
	}
	return nil
}
