// Package shell runs short-lived external commands (git, tmux) with bounded time.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ErrExit is wrapped by Output when a command exits with a non-zero status.
var ErrExit = errors.New("command failed")

// Command describes one process to run.
type Command struct {
	Name string
	Args []string
	// Dir is the working directory; empty means the current one.
	Dir string
	// Timeout kills the process after this long. Zero means no limit beyond ctx.
	Timeout time.Duration
}

// String renders the command line, e.g. "tmux new-window -c /src/w1".
func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Result holds the output and exit code of a finished command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// OK reports whether the command exited with status 0.
func (r *Result) OK() bool {
	return r != nil && r.ExitCode == 0
}

// Runner runs commands. Tests substitute a fake.
type Runner interface {
	Run(ctx context.Context, c Command) (*Result, error)
}

// ExecRunner runs real processes.
type ExecRunner struct{}

// NewRunner returns a Runner backed by os/exec.
func NewRunner() Runner {
	return ExecRunner{}
}

// Run starts c and waits for it. A non-zero exit is reported in
// Result.ExitCode, not as an error; errors mean the command could not run
// or was killed (ExitCode -1).
func (ExecRunner) Run(ctx context.Context, c Command) (*Result, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := &Result{
		Stdout:   strings.TrimSpace(stdout.String()),
		Stderr:   strings.TrimSpace(stderr.String()),
		Duration: time.Since(start),
	}
	if err == nil {
		return result, nil
	}

	if ctx.Err() != nil {
		result.ExitCode = -1
		return result, fmt.Errorf("%s did not finish: %w", c.Name, ctx.Err())
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}

	result.ExitCode = -1
	return result, fmt.Errorf("failed to run %s: %w", c.Name, err)
}

// Output runs c and returns its trimmed stdout. A non-zero exit is an error
// wrapping ErrExit and carrying the command's stderr.
func Output(ctx context.Context, r Runner, c Command) (string, error) {
	result, err := r.Run(ctx, c)
	if err != nil {
		return "", err
	}
	if !result.OK() {
		msg := result.Stderr
		if msg == "" {
			msg = fmt.Sprintf("exit status %d", result.ExitCode)
		}
		return "", fmt.Errorf("%w: %s: %s", ErrExit, c, msg)
	}
	return result.Stdout, nil
}

// CommandExists checks if a command is available in PATH.
func CommandExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
