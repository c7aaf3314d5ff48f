// SPDX-License-Identifier: MPL-2.0

package clitool

import (
	"context"
	"errors"
	"strings"
	"testing"

	"termhost/internal/testutil"
)

func TestHelperProcess(t *testing.T) {
	testutil.RunHelperProcess()
}

func TestToolAvailable(t *testing.T) {
	t.Run("missing binary", func(t *testing.T) {
		tool := New("definitely-not-a-real-binary-xyz")
		if tool.Available() {
			t.Error("Available() = true for missing binary")
		}
	})

	t.Run("explicit path", func(t *testing.T) {
		tool := New("whatever", WithBinaryPath("/usr/bin/whatever"))
		if !tool.Available() {
			t.Error("Available() = false with explicit binary path")
		}
	})
}

func TestToolRunCommand(t *testing.T) {
	recorder := testutil.NewMockCommandRecorder()
	tool := New("pkg",
		WithBinaryPath("/usr/bin/pkg"),
		WithExecCommand(recorder.CommandFunc(t)),
	)

	if err := tool.RunCommand(context.Background(), "install", "-y", "tmux"); err != nil {
		t.Fatalf("RunCommand() error: %v", err)
	}

	recorder.AssertArgsContainAll(t, []string{"install", "-y", "tmux"})
}

func TestToolRunCommandNotAvailable(t *testing.T) {
	tool := New("definitely-not-a-real-binary-xyz")

	err := tool.RunCommand(context.Background(), "anything")
	if !errors.Is(err, ErrToolNotAvailable) {
		t.Errorf("expected ErrToolNotAvailable, got %v", err)
	}

	var notAvail *NotAvailableError
	if !errors.As(err, &notAvail) {
		t.Fatalf("expected NotAvailableError, got %T", err)
	}
	if notAvail.Tool != "definitely-not-a-real-binary-xyz" {
		t.Errorf("unexpected tool name: %q", notAvail.Tool)
	}
}

func TestToolRunCommandWithOutput(t *testing.T) {
	recorder := testutil.NewMockCommandRecorder()
	recorder.Stdout = "1.2.3\n"
	tool := New("tailscale",
		WithBinaryPath("/usr/bin/tailscale"),
		WithExecCommand(recorder.CommandFunc(t)),
	)

	out, err := tool.RunCommandWithOutput(context.Background(), "version")
	if err != nil {
		t.Fatalf("RunCommandWithOutput() error: %v", err)
	}
	if strings.TrimSpace(out) != "1.2.3" {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestToolRunCommandFailureIncludesStderr(t *testing.T) {
	recorder := testutil.NewMockCommandRecorder()
	recorder.ExitCode = 1
	recorder.Stderr = "unable to locate package"
	tool := New("apt-get",
		WithBinaryPath("/usr/bin/apt-get"),
		WithExecCommand(recorder.CommandFunc(t)),
	)

	err := tool.RunCommand(context.Background(), "install", "nonexistent")
	if err == nil {
		t.Fatal("expected error for failing command")
	}
	if !strings.Contains(err.Error(), "unable to locate package") {
		t.Errorf("error should include stderr output, got: %v", err)
	}
}

func TestToolEnvOverrides(t *testing.T) {
	recorder := testutil.NewMockCommandRecorder()
	tool := New("apt-get",
		WithBinaryPath("/usr/bin/apt-get"),
		WithExecCommand(recorder.CommandFunc(t)),
		WithEnv("DEBIAN_FRONTEND", "noninteractive"),
	)

	cmd := tool.CreateCommand(context.Background(), "update")

	found := false
	for _, kv := range cmd.Env {
		if kv == "DEBIAN_FRONTEND=noninteractive" {
			found = true
		}
	}
	if !found {
		t.Error("expected DEBIAN_FRONTEND=noninteractive in command env")
	}
}
