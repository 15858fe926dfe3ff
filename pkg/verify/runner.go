package verify

import (
	"bytes"
	"os/exec"
)

// Command describes a single external process invocation.
type Command struct {
	// Path is the binary to execute
	Path string
	Args []string

	// Arg0 overrides argv[0] when non-empty. Login shells recognize a login
	// invocation by an argv[0] starting with a hyphen.
	Arg0 string

	// Env replaces the process environment when non-nil
	Env []string
}

// Result is the outcome of a finished command.
type Result struct {
	Stdout string
	Stderr string

	// ExitCode is -1 when the command could not be started at all
	ExitCode int

	// Err is non-nil when the command failed to start or exited non-zero
	Err error
}

// Success reports whether the command ran and exited zero.
func (r Result) Success() bool { return r.Err == nil }

// Started reports whether the command ran at all, regardless of its exit
// code.
func (r Result) Started() bool { return r.ExitCode >= 0 }

// Runner executes external commands. The environment checks go through this
// interface so tests can substitute a fake instead of requiring a login
// shell and a working Wine installation.
type Runner interface {
	Run(cmd Command) Result
}

type execRunner struct{}

// NewExecRunner returns a Runner backed by os/exec.
func NewExecRunner() Runner {
	return execRunner{}
}

func (execRunner) Run(c Command) Result {
	cmd := exec.Command(c.Path, c.Args...)
	if c.Arg0 != "" {
		cmd.Args[0] = c.Arg0
	}
	if c.Env != nil {
		cmd.Env = c.Env
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()

	exitCode := -1
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}

	return Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode,
		Err:      err,
	}
}
