// Package adapter contains the external-tool and storage adapters for droidprobe.
//
// Every capability the runbook leans on (decompiler, instrumentation toolkit,
// debugger bridge, database shell) is an external binary; the adapters here
// only build argument lists, invoke the binaries, and hand back their output.
package adapter

import (
	"bytes"
	"context"
	"os/exec"
	"time"
)

// DefaultToolTimeout bounds a single external tool invocation when the
// caller's context does not set its own deadline.
const DefaultToolTimeout = 5 * time.Minute

// ToolRunner abstracts shelling out to external binaries so domain logic can
// be tested without the tools installed.
type ToolRunner interface {
	// Run executes name with args in dir and returns the combined
	// stdout/stderr output together with any execution error.
	Run(ctx context.Context, dir, name string, args ...string) (output string, err error)

	// RunShell executes a shell command line through `sh -c`, with extra
	// environment entries appended to the inherited environment.
	RunShell(ctx context.Context, dir, command string, env []string) (output string, err error)
}

// LocalToolRunner runs tools on the local host via os/exec.
type LocalToolRunner struct {
	timeout time.Duration
}

// NewLocalToolRunner constructs a LocalToolRunner with the default timeout.
func NewLocalToolRunner() *LocalToolRunner {
	return &LocalToolRunner{timeout: DefaultToolTimeout}
}

// NewLocalToolRunnerWithTimeout constructs a LocalToolRunner with a custom
// per-invocation timeout. A non-positive timeout falls back to the default.
func NewLocalToolRunnerWithTimeout(timeout time.Duration) *LocalToolRunner {
	if timeout <= 0 {
		timeout = DefaultToolTimeout
	}

	return &LocalToolRunner{timeout: timeout}
}

// withTimeout applies the configured timeout unless the caller's context
// already carries a deadline. Pipeline stages set their own deadline and it
// must not be capped by the per-tool default.
func (r *LocalToolRunner) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}

	return context.WithTimeout(ctx, r.timeout)
}

// Run executes the named binary and returns its combined output.
func (r *LocalToolRunner) Run(ctx context.Context, dir, name string, args ...string) (string, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	output := stdout.String() + stderr.String()

	return output, err
}

// RunShell executes a command line via `sh -c`.
func (r *LocalToolRunner) RunShell(ctx context.Context, dir, command string, env []string) (string, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = dir

	if len(env) > 0 {
		cmd.Env = append(cmd.Environ(), env...)
	}

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	output := stdout.String() + stderr.String()

	return output, err
}
