// SPDX-License-Identifier: MPL-2.0

// Package hooks runs user-defined shell snippets after provisioning
// completes. Snippets execute in an embedded POSIX shell interpreter, so
// hooks behave the same on Termux and plain Linux regardless of which
// /bin/sh the platform ships.
package hooks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

type (
	// Result captures one hook execution.
	Result struct {
		// ExitCode is the hook's exit status.
		ExitCode int
		// Output is captured stdout when the runner captures output.
		Output string
		// ErrOutput is captured stderr when the runner captures output.
		ErrOutput string
		// Error is set for failures other than a non-zero exit.
		Error error
	}

	// Option configures a Runner.
	Option func(*Runner)

	// Runner executes hook snippets.
	Runner struct {
		workDir string
		env     []string
		stdin   io.Reader
		stdout  io.Writer
		stderr  io.Writer
	}
)

// WithWorkDir sets the working directory for hooks (default: home).
func WithWorkDir(dir string) Option {
	return func(r *Runner) {
		r.workDir = dir
	}
}

// WithEnv appends KEY=VALUE pairs to the hook environment.
func WithEnv(pairs ...string) Option {
	return func(r *Runner) {
		r.env = append(r.env, pairs...)
	}
}

// WithStdIO redirects the hook's standard streams.
func WithStdIO(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(r *Runner) {
		r.stdin = stdin
		r.stdout = stdout
		r.stderr = stderr
	}
}

// NewRunner creates a Runner. Hooks inherit the process environment plus
// any overrides, and write to the process streams unless redirected.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		env:    os.Environ(),
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Validate parses every snippet without executing anything, so a typo in
// the last hook is caught before the first one runs.
func Validate(snippets []string) error {
	parser := syntax.NewParser()
	for i, snippet := range snippets {
		name := fmt.Sprintf("hook[%d]", i)
		if _, err := parser.Parse(strings.NewReader(snippet), name); err != nil {
			return fmt.Errorf("failed to parse hook %q: %w", name, err)
		}
	}
	return nil
}

// Run parses and executes one snippet. A non-zero exit status is reported
// through Result.ExitCode, not as an error.
func (r *Runner) Run(ctx context.Context, name, snippet string) (*Result, error) {
	prog, err := syntax.NewParser().Parse(strings.NewReader(snippet), name)
	if err != nil {
		return nil, fmt.Errorf("failed to parse hook %q: %w", name, err)
	}

	runner, err := interp.New(
		interp.Dir(r.workDir),
		interp.Env(expand.ListEnviron(r.env...)),
		interp.StdIO(r.stdin, r.stdout, r.stderr),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create interpreter: %w", err)
	}

	result := &Result{}
	if err := runner.Run(ctx, prog); err != nil {
		var exitStatus interp.ExitStatus
		if errors.As(err, &exitStatus) {
			result.ExitCode = int(exitStatus)
			return result, nil
		}
		result.ExitCode = 1
		result.Error = err
		return result, nil
	}
	return result, nil
}

// RunCapture executes a snippet with stdout and stderr captured instead
// of streamed.
func (r *Runner) RunCapture(ctx context.Context, name, snippet string) (*Result, error) {
	var stdout, stderr bytes.Buffer
	captured := *r
	captured.stdin = nil
	captured.stdout = &stdout
	captured.stderr = &stderr

	result, err := captured.Run(ctx, name, snippet)
	if result != nil {
		result.Output = stdout.String()
		result.ErrOutput = stderr.String()
	}
	return result, err
}

// RunAll executes snippets in order, stopping at the first failure. The
// returned results cover only the hooks that ran.
func (r *Runner) RunAll(ctx context.Context, snippets []string) ([]*Result, error) {
	var results []*Result
	for i, snippet := range snippets {
		name := fmt.Sprintf("hook[%d]", i)
		result, err := r.Run(ctx, name, snippet)
		if err != nil {
			return results, err
		}
		results = append(results, result)
		if result.ExitCode != 0 {
			return results, fmt.Errorf("hook %d exited with status %d", i, result.ExitCode)
		}
		if result.Error != nil {
			return results, fmt.Errorf("hook %d failed: %w", i, result.Error)
		}
	}
	return results, nil
}
