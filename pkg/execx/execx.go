// Package execx wraps external tool invocation behind a small interface so
// the bootstrap flow can be exercised in tests without git, gh or python3
// on the machine.
package execx

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
)

// Result holds the outcome of a finished command.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// ExitStatusError carries a downstream command's exit status up to main so
// it can be propagated as the process exit code.
type ExitStatusError struct {
	Code int
}

func (e *ExitStatusError) Error() string {
	return fmt.Sprintf("command exited with status %d", e.Code)
}

// Runner executes external commands. A non-zero exit status is reported in
// Result, not as an error; errors are reserved for failures to run at all.
type Runner interface {
	// Run executes name with args in dir, capturing output.
	Run(ctx context.Context, dir string, name string, args ...string) (Result, error)
	// RunInteractive executes name with args in dir attached to the
	// current process terminal, returning the exit status.
	RunInteractive(ctx context.Context, dir string, name string, args ...string) (int, error)
	// LookPath reports whether name resolves on PATH.
	LookPath(name string) error
}

type osRunner struct{}

// NewRunner returns a Runner backed by os/exec.
func NewRunner() Runner {
	return osRunner{}
}

func (osRunner) Run(ctx context.Context, dir string, name string, args ...string) (Result, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")

	err := cmd.Run()
	res := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, err
	}
	return res, nil
}

func (osRunner) RunInteractive(ctx context.Context, dir string, name string, args ...string) (int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return exitErr.ExitCode(), nil
		}
		return -1, err
	}
	return 0, nil
}

func (osRunner) LookPath(name string) error {
	_, err := exec.LookPath(name)
	return err
}
