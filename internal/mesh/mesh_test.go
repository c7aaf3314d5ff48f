// SPDX-License-Identifier: MPL-2.0

package mesh

import (
	"context"
	"errors"
	"testing"
	"time"

	"termhost/internal/clitool"
	"termhost/internal/testutil"
)

func TestHelperProcess(t *testing.T) {
	testutil.RunHelperProcess()
}

func mockedClient(t *testing.T, recorder *testutil.MockCommandRecorder) *Client {
	t.Helper()
	return NewClient(WithToolOptions(
		clitool.WithBinaryPath("/usr/bin/tailscale"),
		clitool.WithExecCommand(recorder.CommandFunc(t)),
	))
}

const statusJSON = `{
  "BackendState": "Running",
  "Self": {
    "HostName": "pixel-server",
    "DNSName": "pixel-server.tailnet.ts.net.",
    "TailscaleIPs": ["100.101.102.103", "fd7a:115c:a1e0::1"],
    "Online": true
  }
}`

func TestStatusParsing(t *testing.T) {
	recorder := testutil.NewMockCommandRecorder()
	recorder.Stdout = statusJSON
	c := mockedClient(t, recorder)

	status, err := c.Status(context.Background())
	if err != nil {
		t.Fatalf("Status() error: %v", err)
	}
	recorder.AssertArgsContainAll(t, []string{"status", "--json"})

	if !status.Connected() {
		t.Error("Connected() = false for Running backend")
	}
	if status.Self.HostName != "pixel-server" {
		t.Errorf("HostName = %s", status.Self.HostName)
	}
	if got := status.IPv4(); got != "100.101.102.103" {
		t.Errorf("IPv4() = %q, want 100.101.102.103", got)
	}
}

func TestStatusNeedsLogin(t *testing.T) {
	recorder := testutil.NewMockCommandRecorder()
	recorder.Stdout = `{"BackendState": "NeedsLogin", "Self": {}}`
	c := mockedClient(t, recorder)

	status, err := c.Status(context.Background())
	if err != nil {
		t.Fatalf("Status() error: %v", err)
	}
	if status.Connected() {
		t.Error("Connected() = true for NeedsLogin backend")
	}
	if status.IPv4() != "" {
		t.Errorf("IPv4() = %q, want empty", status.IPv4())
	}
}

func TestStatusDaemonDown(t *testing.T) {
	recorder := testutil.NewMockCommandRecorder()
	recorder.ExitCode = 1
	recorder.Stderr = "failed to connect to local tailscaled"
	c := mockedClient(t, recorder)

	if _, err := c.Status(context.Background()); err == nil {
		t.Fatal("Status() should fail when tailscaled is down")
	}
}

func TestStatusBadJSON(t *testing.T) {
	recorder := testutil.NewMockCommandRecorder()
	recorder.Stdout = "not json"
	c := mockedClient(t, recorder)

	if _, err := c.Status(context.Background()); err == nil {
		t.Fatal("Status() should fail on unparseable output")
	}
}

func TestUpArgs(t *testing.T) {
	recorder := testutil.NewMockCommandRecorder()
	c := mockedClient(t, recorder)

	opts := UpOptions{AuthKey: "tskey-auth-xyz", Hostname: "pixel-server", SSH: true}
	if err := c.Up(context.Background(), opts); err != nil {
		t.Fatalf("Up() error: %v", err)
	}
	recorder.AssertArgsContainAll(t, []string{
		"up",
		"--auth-key=tskey-auth-xyz",
		"--hostname=pixel-server",
		"--ssh",
	})
}

func TestUpMinimalArgs(t *testing.T) {
	recorder := testutil.NewMockCommandRecorder()
	c := mockedClient(t, recorder)

	if err := c.Up(context.Background(), UpOptions{}); err != nil {
		t.Fatalf("Up() error: %v", err)
	}

	inv := recorder.LastInvocation()
	if inv == nil {
		t.Fatal("no invocation recorded")
	}
	if len(inv.Args) != 1 || inv.Args[0] != "up" {
		t.Errorf("args = %v, want [up]", inv.Args)
	}
}

func TestDown(t *testing.T) {
	recorder := testutil.NewMockCommandRecorder()
	c := mockedClient(t, recorder)

	if err := c.Down(context.Background()); err != nil {
		t.Fatalf("Down() error: %v", err)
	}
	recorder.AssertArgsContain(t, "down")
}

func TestStartDaemonLaunchesAndWaits(t *testing.T) {
	recorder := testutil.NewMockCommandRecorder()
	recorder.Stdout = statusJSON
	c := mockedClient(t, recorder)

	if err := c.StartDaemon(context.Background()); err != nil {
		t.Fatalf("StartDaemon() error: %v", err)
	}

	if len(recorder.Invocations) < 2 {
		t.Fatalf("got %d invocations, want daemon launch plus a status poll", len(recorder.Invocations))
	}
	if got := recorder.Invocations[0].Args; len(got) != 0 {
		t.Errorf("daemon launch args = %v, want none", got)
	}
	recorder.AssertArgsContainAll(t, []string{"status", "--json"})
}

func TestStartDaemonNotReady(t *testing.T) {
	recorder := testutil.NewMockCommandRecorder()
	recorder.ExitCode = 1
	recorder.Stderr = "failed to connect to local tailscaled"
	c := NewClient(
		WithToolOptions(
			clitool.WithBinaryPath("/usr/bin/tailscale"),
			clitool.WithExecCommand(recorder.CommandFunc(t)),
		),
		WithReadyPolling(2, time.Millisecond),
	)

	if err := c.StartDaemon(context.Background()); err == nil {
		t.Fatal("StartDaemon() should fail when the daemon never answers")
	}
}

func TestStartDaemonUnavailable(t *testing.T) {
	c := NewClient(WithToolOptions(clitool.WithBinaryPath("")))

	err := c.StartDaemon(context.Background())
	if !errors.Is(err, clitool.ErrToolNotAvailable) {
		t.Errorf("StartDaemon() = %v, want ErrToolNotAvailable", err)
	}
}

func TestUnavailableClient(t *testing.T) {
	c := NewClient(WithToolOptions(clitool.WithBinaryPath("")))

	if c.Available() {
		t.Error("Available() = true with no binary")
	}
	_, err := c.Status(context.Background())
	if !errors.Is(err, clitool.ErrToolNotAvailable) {
		t.Errorf("Status() = %v, want ErrToolNotAvailable", err)
	}
}
