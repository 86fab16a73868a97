// Package config loads invocation specs: YAML documents that describe one
// child process — its argv, working directory, environment operations, and
// per-stream redirections — and turns them into runnable invocations.
package config

import (
	"bytes"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/shediao/subprocess-go/core/subprocess"
)

// Spec describes one invocation.
type Spec struct {
	// Argv is the command to run; Argv[0] is the program name or path.
	Argv []string `json:"argv" validate:"required,min=1"`

	// Dir is the child's working directory; empty inherits the parent's.
	Dir string `json:"dir"`

	Env *EnvSpec `json:"env"`

	Stdin  *StreamSpec `json:"stdin"`
	Stdout *StreamSpec `json:"stdout"`
	Stderr *StreamSpec `json:"stderr"`
}

// EnvSpec collects the environment operations in the order they apply:
// set, then merge, then the per-key append/prepends.
type EnvSpec struct {
	// Set replaces the child environment wholesale.
	Set map[string]string `json:"set"`

	// Merge unions entries into the environment, these keys winning.
	Merge map[string]string `json:"merge"`

	// Append and Prepend extend single variables with the platform
	// path-list separator, PATH-style.
	Append  []KeyValue `json:"append" validate:"dive"`
	Prepend []KeyValue `json:"prepend" validate:"dive"`
}

type KeyValue struct {
	Key   string `json:"key" validate:"required"`
	Value string `json:"value"`
}

// StreamSpec selects exactly one redirection target for a stream.
type StreamSpec struct {
	// File redirects to a path; read for stdin, write for stdout/stderr.
	File string `json:"file"`

	// Append opens File in append mode. Output streams only.
	Append bool `json:"append"`

	// Capture collects the stream into memory. Output streams only.
	Capture bool `json:"capture"`

	// Data is literal stdin content. Stdin only.
	Data string `json:"data"`
}

// Validate checks the spec for semantic errors beyond YAML shape.
func (s *Spec) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})
	if err := validate.Struct(s); err != nil {
		return err
	}

	if err := validateStream("stdin", s.Stdin, true); err != nil {
		return err
	}
	if err := validateStream("stdout", s.Stdout, false); err != nil {
		return err
	}
	return validateStream("stderr", s.Stderr, false)
}

func validateStream(name string, ss *StreamSpec, input bool) error {
	if ss == nil {
		return nil
	}
	targets := 0
	if ss.File != "" {
		targets++
	}
	if ss.Capture {
		targets++
	}
	if ss.Data != "" {
		targets++
	}
	if targets > 1 {
		return fmt.Errorf("%s: file, capture, and data are mutually exclusive", name)
	}
	if input && ss.Capture {
		return fmt.Errorf("%s: capture applies to output streams", name)
	}
	if input && ss.Append {
		return fmt.Errorf("%s: append applies to output streams", name)
	}
	if !input && ss.Data != "" {
		return fmt.Errorf("%s: data applies to stdin", name)
	}
	if ss.Append && ss.File == "" {
		return fmt.Errorf("%s: append requires file", name)
	}
	return nil
}

// Captures holds the in-memory output sinks wired up by Build.
type Captures struct {
	Stdout bytes.Buffer
	Stderr bytes.Buffer
}

// Build validates the spec and constructs the invocation. The returned
// Captures is populated once the invocation's Wait returns, for streams
// the spec marked capture.
func (s *Spec) Build() (*subprocess.Subprocess, *Captures, error) {
	if err := s.Validate(); err != nil {
		return nil, nil, err
	}

	caps := &Captures{}
	var opts []subprocess.Option

	if s.Dir != "" {
		opts = append(opts, subprocess.WithDir(s.Dir))
	}
	if s.Env != nil {
		if s.Env.Set != nil {
			opts = append(opts, subprocess.WithEnv(s.Env.Set))
		}
		if s.Env.Merge != nil {
			opts = append(opts, subprocess.WithEnvMerge(s.Env.Merge))
		}
		for _, kv := range s.Env.Append {
			opts = append(opts, subprocess.WithEnvAppend(kv.Key, kv.Value))
		}
		for _, kv := range s.Env.Prepend {
			opts = append(opts, subprocess.WithEnvPrepend(kv.Key, kv.Value))
		}
	}

	if ss := s.Stdin; ss != nil {
		switch {
		case ss.File != "":
			opts = append(opts, subprocess.WithStdin(subprocess.File(ss.File)))
		case ss.Data != "":
			opts = append(opts, subprocess.WithStdin(subprocess.Input([]byte(ss.Data))))
		}
	}
	opts = append(opts, outputOption(s.Stdout, subprocess.WithStdout, &caps.Stdout)...)
	opts = append(opts, outputOption(s.Stderr, subprocess.WithStderr, &caps.Stderr)...)

	proc, err := subprocess.New(s.Argv, opts...)
	if err != nil {
		return nil, nil, err
	}
	return proc, caps, nil
}

func outputOption(ss *StreamSpec, with func(subprocess.Redirect) subprocess.Option, sink *bytes.Buffer) []subprocess.Option {
	if ss == nil {
		return nil
	}
	switch {
	case ss.Capture:
		return []subprocess.Option{with(subprocess.Capture(sink))}
	case ss.File != "" && ss.Append:
		return []subprocess.Option{with(subprocess.AppendFile(ss.File))}
	case ss.File != "":
		return []subprocess.Option{with(subprocess.File(ss.File))}
	}
	return nil
}

// Describe renders a stable, human-readable summary of the spec, one
// detail per line. Used for verbose CLI output and golden tests.
func (s *Spec) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "argv: %q\n", s.Argv)
	if s.Dir != "" {
		fmt.Fprintf(&b, "dir: %s\n", s.Dir)
	}
	if s.Env != nil {
		for _, k := range sortedKeys(s.Env.Set) {
			fmt.Fprintf(&b, "env set: %s=%s\n", k, s.Env.Set[k])
		}
		for _, k := range sortedKeys(s.Env.Merge) {
			fmt.Fprintf(&b, "env merge: %s=%s\n", k, s.Env.Merge[k])
		}
		for _, kv := range s.Env.Append {
			fmt.Fprintf(&b, "env append: %s+=%s\n", kv.Key, kv.Value)
		}
		for _, kv := range s.Env.Prepend {
			fmt.Fprintf(&b, "env prepend: %s=+%s\n", kv.Key, kv.Value)
		}
	}
	describeStream(&b, "stdin", s.Stdin)
	describeStream(&b, "stdout", s.Stdout)
	describeStream(&b, "stderr", s.Stderr)
	return b.String()
}

func describeStream(b *strings.Builder, name string, ss *StreamSpec) {
	if ss == nil {
		fmt.Fprintf(b, "%s: inherit\n", name)
		return
	}
	switch {
	case ss.Capture:
		fmt.Fprintf(b, "%s: capture\n", name)
	case ss.Data != "":
		fmt.Fprintf(b, "%s: %d bytes of data\n", name, len(ss.Data))
	case ss.File != "" && ss.Append:
		fmt.Fprintf(b, "%s: append to %s\n", name, ss.File)
	case ss.File != "":
		fmt.Fprintf(b, "%s: file %s\n", name, ss.File)
	default:
		fmt.Fprintf(b, "%s: inherit\n", name)
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
