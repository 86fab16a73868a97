package subprocess

import (
	"bytes"
	"fmt"
	"os"
)

// StreamRole identifies one of the three standard streams. Its value is the
// file descriptor number the stream occupies in the child.
type StreamRole int

const (
	Stdin  StreamRole = 0
	Stdout StreamRole = 1
	Stderr StreamRole = 2
)

func (r StreamRole) String() string {
	switch r {
	case Stdin:
		return "stdin"
	case Stdout:
		return "stdout"
	case Stderr:
		return "stderr"
	default:
		return fmt.Sprintf("fd%d", int(r))
	}
}

// input returns true for the stream the child reads from.
func (r StreamRole) input() bool { return r == Stdin }

type redirectKind int

const (
	redirectInherit redirectKind = iota
	redirectHandle
	redirectFile
	redirectBuffer
	redirectPipe
)

// Redirect describes the fate of one standard stream: inherit the parent's
// handle, use an already-open file, open a file by path, exchange bytes with
// an in-memory buffer through a pipe, or attach to a shared Pipe.
//
// Exactly one of these is active per stream. Every consumer of a Redirect
// switches exhaustively over the kind.
type Redirect struct {
	kind   redirectKind
	handle *os.File
	path   string
	append bool
	input  []byte
	sink   *bytes.Buffer
	pipe   *Pipe
}

// Inherit leaves the stream attached to the parent's own handle. This is the
// zero value of Redirect.
func Inherit() Redirect {
	return Redirect{kind: redirectInherit}
}

// Handle redirects the stream to an already-open file, used as-is. The
// caller keeps ownership and is responsible for closing it.
func Handle(f *os.File) Redirect {
	return Redirect{kind: redirectHandle, handle: f}
}

// File redirects the stream to a file opened by path: read for stdin,
// write-truncate for stdout/stderr. DevNull is a valid path for discarding
// output or supplying immediate EOF.
func File(path string) Redirect {
	return Redirect{kind: redirectFile, path: path}
}

// AppendFile is File in append mode; output is added after any existing
// content. Only meaningful for stdout and stderr.
func AppendFile(path string) Redirect {
	return Redirect{kind: redirectFile, path: path, append: true}
}

// Input feeds the given bytes to the child's stdin through a pipe. The
// write end is closed once every byte has been delivered so the child
// observes EOF.
func Input(data []byte) Redirect {
	return Redirect{kind: redirectBuffer, input: data}
}

// Capture collects the stream's output into buf through a pipe. The buffer
// holds everything the child wrote, in order, once Wait returns.
func Capture(buf *bytes.Buffer) Redirect {
	return Redirect{kind: redirectBuffer, sink: buf}
}

// UsePipe attaches the stream to a caller-owned Pipe, for chaining two
// invocations: pass the same Pipe as the stdout target of the producer and
// the stdin target of the consumer. The parent does not pump these streams.
func UsePipe(p *Pipe) Redirect {
	return Redirect{kind: redirectPipe, pipe: p}
}

// stream binds a Redirect to its role and carries the OS resources resolved
// for it during prepare.
type stream struct {
	role StreamRole
	r    Redirect

	file     *os.File // opened file target, closed after handoff
	pipe     *Pipe    // backing pipe for buffer targets, or the shared one
	prepared bool
}

// prepare resolves the redirection target into concrete OS resources: file
// targets are opened with the mode implied by the role and append flag,
// buffer targets allocate a pipe. Must be called exactly once, before spawn.
func (s *stream) prepare() error {
	if s.prepared {
		return fmt.Errorf("%s: already prepared", s.role)
	}
	s.prepared = true

	switch s.r.kind {
	case redirectInherit:
		return nil
	case redirectHandle:
		if s.r.handle == nil {
			return fmt.Errorf("%s: nil handle", s.role)
		}
		return nil
	case redirectFile:
		var f *os.File
		var err error
		if s.role.input() {
			f, err = os.Open(s.r.path)
		} else {
			flag := os.O_WRONLY | os.O_CREATE
			if s.r.append {
				flag |= os.O_APPEND
			} else {
				flag |= os.O_TRUNC
			}
			f, err = os.OpenFile(s.r.path, flag, 0644)
		}
		if err != nil {
			return fmt.Errorf("%s: open %s: %w", s.role, s.r.path, err)
		}
		s.file = f
		return nil
	case redirectBuffer:
		if s.role.input() && s.r.sink != nil {
			return fmt.Errorf("%s: Capture is for output streams; use Input", s.role)
		}
		if !s.role.input() && s.r.sink == nil {
			return fmt.Errorf("%s: Input is for stdin; use Capture", s.role)
		}
		p, err := NewPipe()
		if err != nil {
			return fmt.Errorf("%s: %w", s.role, err)
		}
		s.pipe = p
		return nil
	case redirectPipe:
		if s.r.pipe == nil {
			return fmt.Errorf("%s: nil pipe", s.role)
		}
		s.pipe = s.r.pipe
		return nil
	default:
		return fmt.Errorf("%s: unknown redirect kind %d", s.role, s.r.kind)
	}
}

// childFile returns the file the child receives on the stream's descriptor
// slot. For inherited streams this is the parent's own standard file.
func (s *stream) childFile() *os.File {
	switch s.r.kind {
	case redirectInherit:
		switch s.role {
		case Stdin:
			return os.Stdin
		case Stdout:
			return os.Stdout
		default:
			return os.Stderr
		}
	case redirectHandle:
		return s.r.handle
	case redirectFile:
		return s.file
	case redirectBuffer, redirectPipe:
		if s.role.input() {
			return s.pipe.Reader()
		}
		return s.pipe.Writer()
	default:
		return nil
	}
}

// closeChildEnd releases the resources that were handed off to the child.
// The parent keeps only the end on its own side of the data flow; holding on
// to the child's end of an output pipe would prevent EOF from ever arriving.
func (s *stream) closeChildEnd() {
	switch s.r.kind {
	case redirectInherit, redirectHandle:
		// Caller-owned, nothing handed off.
	case redirectFile:
		if s.file != nil {
			s.file.Close()
			s.file = nil
		}
	case redirectBuffer, redirectPipe:
		if s.pipe == nil {
			return
		}
		if s.role.input() {
			s.pipe.CloseRead()
		} else {
			s.pipe.CloseWrite()
		}
	}
}

// parentEnd returns the pipe end the multiplexer drives: the write end for
// stdin, the read end for stdout/stderr. Nil when the stream is not
// buffer-backed.
func (s *stream) parentEnd() *os.File {
	if s.r.kind != redirectBuffer || s.pipe == nil {
		return nil
	}
	if s.role.input() {
		return s.pipe.Writer()
	}
	return s.pipe.Reader()
}

// closeParentEnd closes the multiplexer's end of a buffer pipe. Idempotent.
func (s *stream) closeParentEnd() {
	if s.r.kind != redirectBuffer || s.pipe == nil {
		return
	}
	if s.role.input() {
		s.pipe.CloseWrite()
	} else {
		s.pipe.CloseRead()
	}
}

// cleanup closes every resource prepare allocated, both ends. Used when
// setup or spawn fails partway so no descriptor leaks.
func (s *stream) cleanup() {
	if s.file != nil {
		s.file.Close()
		s.file = nil
	}
	if s.r.kind == redirectBuffer && s.pipe != nil {
		s.pipe.Close()
	}
}
