// SPDX-License-Identifier: MPL-2.0

package clitool

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

type (
	// ExecCommandFunc is the function signature for creating exec.Cmd.
	// This allows injection of mock implementations for testing.
	ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// ToolOption configures a Tool.
	ToolOption func(*Tool)

	// Tool provides common behavior for CLI-backed adapters. Adapter types
	// (package manager, distro bootstrapper, mesh client, tunnel client)
	// embed a *Tool and add their domain operations on top of CreateCommand
	// and RunCommandWithOutput.
	Tool struct {
		name        string // tool name for error messages (e.g. "pkg", "proot-distro")
		binaryPath  string // resolved via exec.LookPath at construction
		execCommand ExecCommandFunc
		env         map[string]string // per-command env overrides (e.g. DEBIAN_FRONTEND)
	}

	// NotAvailableError is returned when a required external tool cannot be
	// found or executed. It wraps ErrToolNotAvailable for errors.Is().
	NotAvailableError struct {
		Tool   string
		Reason string
	}
)

// ErrToolNotAvailable is the sentinel error wrapped by NotAvailableError.
var ErrToolNotAvailable = fmt.Errorf("external tool not available")

func (e *NotAvailableError) Error() string {
	return fmt.Sprintf("external tool '%s' is not available: %s", e.Tool, e.Reason)
}

func (e *NotAvailableError) Unwrap() error { return ErrToolNotAvailable }

// WithExecCommand sets a custom exec command function (used by tests).
func WithExecCommand(fn ExecCommandFunc) ToolOption {
	return func(t *Tool) {
		t.execCommand = fn
	}
}

// WithBinaryPath overrides the resolved binary path.
func WithBinaryPath(path string) ToolOption {
	return func(t *Tool) {
		t.binaryPath = path
	}
}

// WithEnv sets an environment variable applied to every command the tool
// creates, on top of the inherited process environment.
func WithEnv(key, value string) ToolOption {
	return func(t *Tool) {
		if t.env == nil {
			t.env = make(map[string]string)
		}
		t.env[key] = value
	}
}

// New creates a Tool for the named binary, resolving it on PATH.
// A tool whose binary is missing is still constructed; Available reports
// false and command creation fails with NotAvailableError.
func New(name string, opts ...ToolOption) *Tool {
	path, _ := exec.LookPath(name)
	t := &Tool{
		name:        name,
		binaryPath:  path,
		execCommand: exec.CommandContext,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Name returns the tool name used in error messages.
func (t *Tool) Name() string { return t.name }

// BinaryPath returns the resolved binary path, or "" when not found.
func (t *Tool) BinaryPath() string { return t.binaryPath }

// Available reports whether the tool's binary was found on PATH.
func (t *Tool) Available() bool { return t.binaryPath != "" }

// CreateCommand creates an exec.Cmd for the given arguments. The caller
// wires stdin/stdout/stderr. Tool-level env overrides are applied.
func (t *Tool) CreateCommand(ctx context.Context, args ...string) *exec.Cmd {
	cmd := t.execCommand(ctx, t.binaryPath, args...)
	t.applyEnv(cmd)
	return cmd
}

// RunCommand executes the tool and discards output, returning an error that
// includes captured stderr when the command fails.
func (t *Tool) RunCommand(ctx context.Context, args ...string) error {
	if !t.Available() {
		return &NotAvailableError{Tool: t.name, Reason: "binary not found on PATH"}
	}

	cmd := t.CreateCommand(ctx, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return commandError(t.name, args, &stderr, err)
	}
	return nil
}

// RunCommandWithOutput executes the tool with stdout captured to a buffer.
func (t *Tool) RunCommandWithOutput(ctx context.Context, args ...string) (string, error) {
	if !t.Available() {
		return "", &NotAvailableError{Tool: t.name, Reason: "binary not found on PATH"}
	}

	cmd := t.CreateCommand(ctx, args...)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", commandError(t.name, args, &stderr, err)
	}
	return out.String(), nil
}

// applyEnv appends tool-level env overrides to the command environment.
// exec.Cmd treats a nil Env as "inherit"; overrides force the explicit form.
func (t *Tool) applyEnv(cmd *exec.Cmd) {
	if len(t.env) == 0 {
		return
	}
	if cmd.Env == nil {
		cmd.Env = cmd.Environ()
	}
	for k, v := range t.env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
}

// commandError formats a failed invocation, folding in trailing stderr
// output when the command produced any.
func commandError(name string, args []string, stderr *bytes.Buffer, err error) error {
	msg := strings.TrimSpace(stderr.String())
	if msg != "" {
		return fmt.Errorf("command %s %v failed: %w: %s", name, args, err, msg)
	}
	return fmt.Errorf("command %s %v failed: %w", name, args, err)
}
