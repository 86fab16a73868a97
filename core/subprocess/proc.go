// Package subprocess spawns child processes with redirected standard
// streams and multiplexes their I/O without deadlocking on full pipe
// buffers.
//
// A Subprocess is configured with one Redirect per standard stream plus an
// optional working directory and environment plan, started, and then waited
// on; Wait pumps all buffer-backed streams to completion before reaping the
// child and normalizing its termination status to a single exit code.
package subprocess

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"
)

// ExitSpawnFailure is the exit code reported when the child never ran:
// command not found, not executable, or the spawn itself failed. It lets
// callers of Run distinguish "child ran and failed" from "child never ran".
const ExitSpawnFailure = 127

type procState int

const (
	statePrepared procState = iota
	stateRunning
	stateExited
)

// Subprocess is one prepared-but-not-yet-running or running child process.
// It owns OS resources and must not be copied; it cannot be reused after
// Run or Wait.
type Subprocess struct {
	argv   []string
	dir    string
	env    *envPlan
	fsys   afero.Fs
	stdin  stream
	stdout stream
	stderr stream

	state procState
	proc  *os.Process
}

// Option configures a Subprocess during construction.
type Option func(*Subprocess)

// WithStdin sets the redirection target for the child's standard input.
func WithStdin(r Redirect) Option {
	return func(s *Subprocess) { s.stdin.r = r }
}

// WithStdout sets the redirection target for the child's standard output.
func WithStdout(r Redirect) Option {
	return func(s *Subprocess) { s.stdout.r = r }
}

// WithStderr sets the redirection target for the child's standard error.
func WithStderr(r Redirect) Option {
	return func(s *Subprocess) { s.stderr.r = r }
}

// WithDir sets the child's working directory. Empty means inherit the
// parent's.
func WithDir(dir string) Option {
	return func(s *Subprocess) { s.dir = dir }
}

// WithEnv replaces the child's environment wholesale; only the supplied
// keys are visible to the child.
func WithEnv(env map[string]string) Option {
	return func(s *Subprocess) { s.env.Set(env) }
}

// WithEnvMerge unions entries into the child's environment, the supplied
// keys winning on conflict.
func WithEnvMerge(env map[string]string) Option {
	return func(s *Subprocess) { s.env.Merge(env) }
}

// WithEnvAppend appends value to one variable, joined by the platform
// path-list separator. Useful for extending PATH-like variables.
func WithEnvAppend(key, value string) Option {
	return func(s *Subprocess) { s.env.AppendKey(key, value) }
}

// WithEnvPrepend prepends value to one variable, joined by the platform
// path-list separator.
func WithEnvPrepend(key, value string) Option {
	return func(s *Subprocess) { s.env.PrependKey(key, value) }
}

// WithLookupFs overrides the filesystem used for executable PATH searches.
func WithLookupFs(fsys afero.Fs) Option {
	return func(s *Subprocess) { s.fsys = fsys }
}

// New builds an invocation of argv, argv[0] being the program name or
// path. The process environment is snapshotted here; later changes to the
// parent's environment do not affect append operations on this invocation.
func New(argv []string, opts ...Option) (*Subprocess, error) {
	if len(argv) == 0 || argv[0] == "" {
		return nil, errors.New("subprocess: empty argv")
	}
	s := &Subprocess{
		argv:   argv,
		env:    newEnvPlan(),
		fsys:   afero.NewOsFs(),
		stdin:  stream{role: Stdin},
		stdout: stream{role: Stdout},
		stderr: stream{role: Stderr},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Subprocess) streams() []*stream {
	return []*stream{&s.stdin, &s.stdout, &s.stderr}
}

// Start prepares every redirection and spawns the child. Setup is
// all-or-nothing: if any stream's target cannot be opened, nothing is
// spawned and every resource already acquired is closed before the error
// is returned.
func (s *Subprocess) Start() error {
	if s.state != statePrepared {
		return errors.New("subprocess: already started")
	}

	for i, st := range s.streams() {
		if err := st.prepare(); err != nil {
			for _, prior := range s.streams()[:i+1] {
				prior.cleanup()
			}
			return err
		}
	}

	// Resolve the program against PATH when the name carries no path
	// separator. A failed lookup falls through to the spawn, which reports
	// the underlying OS error.
	path := s.argv[0]
	if !containsPathSeparator(path) {
		if resolved, err := LookPath(s.fsys, s.env.pathValue(), s.env.extValue(), path); err == nil {
			path = resolved
		}
	}

	attr := &os.ProcAttr{
		Dir: s.dir,
		Env: s.env.materialize(),
		Files: []*os.File{
			s.stdin.childFile(),
			s.stdout.childFile(),
			s.stderr.childFile(),
		},
		Sys: sysProcAttr(s.argv),
	}

	proc, err := os.StartProcess(path, s.argv, attr)
	if err != nil {
		for _, st := range s.streams() {
			st.cleanup()
		}
		return fmt.Errorf("spawn %s: %w", path, err)
	}
	s.proc = proc

	// The child holds its own copies now; the parent keeps only the ends it
	// pumps. Leaving a child-side end open here would stop EOF from ever
	// reaching the readers.
	for _, st := range s.streams() {
		st.closeChildEnd()
	}
	s.state = stateRunning
	return nil
}

// Pid returns the operating system PID of the running child, or 0 when the
// child was never spawned.
func (s *Subprocess) Pid() int {
	if s.proc == nil {
		return 0
	}
	return s.proc.Pid
}

// Wait pumps every buffer-backed stream to completion, blocks for the
// child's termination, and returns its normalized exit code: the declared
// status for a normal exit, 128+signal for a signal death (POSIX), and
// ExitSpawnFailure when no child was ever spawned.
//
// A read or write failure during multiplexing is returned as the error; the
// child is still reaped so no zombie is left, but captured data may be
// incomplete.
func (s *Subprocess) Wait() (int, error) {
	if s.proc == nil {
		return ExitSpawnFailure, errors.New("subprocess: not started")
	}
	if s.state == stateExited {
		return ExitSpawnFailure, errors.New("subprocess: already waited")
	}

	muxErr := s.multiplex()

	ps, err := s.proc.Wait()
	s.state = stateExited
	if err != nil {
		return ExitSpawnFailure, fmt.Errorf("wait: %w", err)
	}
	code := exitCodeFromState(ps)
	if muxErr != nil {
		return code, muxErr
	}
	return code, nil
}

// Run starts the child and waits for it. Spawn failures are reported as
// ExitSpawnFailure alongside the descriptive error.
func (s *Subprocess) Run() (int, error) {
	if err := s.Start(); err != nil {
		return ExitSpawnFailure, err
	}
	return s.Wait()
}

// Close releases any OS resources still held by the invocation. A
// buffer-backed pipe end that is still open when Close runs points at a
// missed Wait or a missed close in the I/O phase; Close closes it anyway
// and reports it as an error.
func (s *Subprocess) Close() error {
	var leaked []string
	for _, st := range s.streams() {
		if st.parentEnd() != nil {
			leaked = append(leaked, st.role.String())
		}
		st.cleanup()
	}
	if len(leaked) > 0 {
		return fmt.Errorf("subprocess: leaked pipe ends: %s", strings.Join(leaked, ", "))
	}
	return nil
}

// Run is the convenience entry point: it builds the invocation, runs it,
// and reports the exit code under the 0/1-255/127 convention. Callers that
// need the underlying error use New and (*Subprocess).Run.
func Run(argv []string, opts ...Option) int {
	s, err := New(argv, opts...)
	if err != nil {
		return ExitSpawnFailure
	}
	code, _ := s.Run()
	return code
}
