package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/shediao/subprocess-go/core/config"
	"github.com/shediao/subprocess-go/core/subprocess"
)

var (
	runDir        string
	runSpecPath   string
	runEnvSet     []string
	runEnvAdd     []string
	runEnvAppend  []string
	runEnvPrepend []string
	runStdinFile  string
	runStdoutFile string
	runStderrFile string
	runAppend     bool
	runCapture    bool
	runVerbose    bool
)

var errorColor = color.New(color.FgRed)

var runCmd = &cobra.Command{
	Use:   "run [flags] -- command [args...]",
	Short: "Run one command and exit with its exit code",
	Long: `Run spawns the given command with the requested redirections and
waits for it, exiting with the child's exit code. A command that could not
be spawned at all (not found, not executable) exits 127.

With --spec, the invocation is read from a YAML spec file instead of flags.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if runSpecPath == "" && len(args) == 0 {
			return errors.New("requires a command or --spec")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, err := buildSpec(args)
		if err != nil {
			return err
		}
		if runVerbose {
			fmt.Fprint(cmd.ErrOrStderr(), spec.Describe())
		}

		proc, caps, err := spec.Build()
		if err != nil {
			return err
		}

		code, err := proc.Run()
		if err != nil {
			errorColor.Fprintln(cmd.ErrOrStderr(), err)
		}
		if runCapture {
			os.Stdout.Write(caps.Stdout.Bytes())
			os.Stderr.Write(caps.Stderr.Bytes())
		}
		os.Exit(code)
		return nil
	},
}

func buildSpec(args []string) (*config.Spec, error) {
	if runSpecPath != "" {
		return config.Load(runSpecPath)
	}

	spec := &config.Spec{Argv: args, Dir: runDir}

	env := &config.EnvSpec{}
	var haveEnv bool
	if len(runEnvSet) > 0 {
		m, err := parseEnvPairs(runEnvSet)
		if err != nil {
			return nil, err
		}
		env.Set = m
		haveEnv = true
	}
	if len(runEnvAdd) > 0 {
		m, err := parseEnvPairs(runEnvAdd)
		if err != nil {
			return nil, err
		}
		env.Merge = m
		haveEnv = true
	}
	for _, kv := range runEnvAppend {
		k, v, err := splitPair(kv)
		if err != nil {
			return nil, err
		}
		env.Append = append(env.Append, config.KeyValue{Key: k, Value: v})
		haveEnv = true
	}
	for _, kv := range runEnvPrepend {
		k, v, err := splitPair(kv)
		if err != nil {
			return nil, err
		}
		env.Prepend = append(env.Prepend, config.KeyValue{Key: k, Value: v})
		haveEnv = true
	}
	if haveEnv {
		spec.Env = env
	}

	if runStdinFile != "" {
		spec.Stdin = &config.StreamSpec{File: runStdinFile}
	}
	if runCapture {
		spec.Stdout = &config.StreamSpec{Capture: true}
		spec.Stderr = &config.StreamSpec{Capture: true}
	} else {
		if runStdoutFile != "" {
			spec.Stdout = &config.StreamSpec{File: runStdoutFile, Append: runAppend}
		}
		if runStderrFile != "" {
			spec.Stderr = &config.StreamSpec{File: runStderrFile, Append: runAppend}
		}
	}
	return spec, nil
}

func parseEnvPairs(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, err := splitPair(pair)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

func splitPair(pair string) (string, string, error) {
	split := strings.SplitN(pair, "=", 2)
	if len(split) != 2 || split[0] == "" {
		return "", "", fmt.Errorf("expected KEY=VALUE, got %q", pair)
	}
	return split[0], split[1], nil
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runSpecPath, "spec", "", "read the invocation from a YAML spec file")
	runCmd.Flags().StringVarP(&runDir, "dir", "C", "", "working directory for the child")
	runCmd.Flags().StringArrayVar(&runEnvSet, "env", nil, "KEY=VALUE; replaces the whole child environment")
	runCmd.Flags().StringArrayVar(&runEnvAdd, "env-add", nil, "KEY=VALUE; merged into the inherited environment")
	runCmd.Flags().StringArrayVar(&runEnvAppend, "path-append", nil, "KEY=VALUE appended with the path-list separator")
	runCmd.Flags().StringArrayVar(&runEnvPrepend, "path-prepend", nil, "KEY=VALUE prepended with the path-list separator")
	runCmd.Flags().StringVar(&runStdinFile, "stdin", "", "file to feed to the child's stdin")
	runCmd.Flags().StringVar(&runStdoutFile, "stdout", "", fmt.Sprintf("file to receive the child's stdout (%s discards)", subprocess.DevNull))
	runCmd.Flags().StringVar(&runStderrFile, "stderr", "", fmt.Sprintf("file to receive the child's stderr (%s discards)", subprocess.DevNull))
	runCmd.Flags().BoolVar(&runAppend, "append", false, "open --stdout/--stderr files in append mode")
	runCmd.Flags().BoolVar(&runCapture, "capture", false, "capture both outputs in memory, print after exit")
	runCmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "describe the invocation before running it")
}
