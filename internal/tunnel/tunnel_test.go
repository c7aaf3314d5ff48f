// SPDX-License-Identifier: MPL-2.0

package tunnel

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"termhost/internal/clitool"
	"termhost/internal/testutil"
)

func TestHelperProcess(t *testing.T) {
	testutil.RunHelperProcess()
}

func mockOpts(t *testing.T, recorder *testutil.MockCommandRecorder) []clitool.ToolOption {
	t.Helper()
	return []clitool.ToolOption{
		clitool.WithBinaryPath("/usr/bin/fake"),
		clitool.WithExecCommand(recorder.CommandFunc(t)),
	}
}

func TestQuickTunnelURLPattern(t *testing.T) {
	line := "2026-08-29T10:00:00Z INF +  https://lamp-grid-alpha-yarn.trycloudflare.com  +"
	if got := quickTunnelURL.FindString(line); got != "https://lamp-grid-alpha-yarn.trycloudflare.com" {
		t.Errorf("FindString() = %q", got)
	}
	if quickTunnelURL.FindString("https://example.com") != "" {
		t.Error("pattern matched a non-tunnel URL")
	}
}

func TestNgrokURLPattern(t *testing.T) {
	line := `t=2026-08-29 lvl=info msg="started tunnel" url=tcp://0.tcp.eu.ngrok.io:14022`
	if got := ngrokTCPURL.FindString(line); got != "tcp://0.tcp.eu.ngrok.io:14022" {
		t.Errorf("FindString() = %q", got)
	}
}

func TestCloudflaredStartScrapesURL(t *testing.T) {
	recorder := testutil.NewMockCommandRecorder()
	recorder.Stderr = "INF Route propagating\nINF +  https://brief-stone-candle-mat.trycloudflare.com  +\n"
	cf := NewCloudflared(mockOpts(t, recorder)...)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := cf.Start(ctx, 8022); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	if got := cf.URL(); got != "https://brief-stone-candle-mat.trycloudflare.com" {
		t.Errorf("URL() = %q", got)
	}
	recorder.AssertArgsContainAll(t, []string{"tunnel", "--no-autoupdate", "--url", "tcp://localhost:8022"})

	// The mock process exits immediately; that death must surface on Err.
	select {
	case err := <-cf.Err():
		if err == nil {
			t.Error("Err() delivered nil")
		}
	case <-time.After(5 * time.Second):
		t.Error("no exit error delivered on Err()")
	}
}

func TestCloudflaredStartFailsWithoutURL(t *testing.T) {
	recorder := testutil.NewMockCommandRecorder()
	recorder.ExitCode = 1
	recorder.Stderr = "failed to request quick tunnel: 429 Too Many Requests\n"
	cf := NewCloudflared(mockOpts(t, recorder)...)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := cf.Start(ctx, 8022)
	if err == nil {
		t.Fatal("Start() should fail when no endpoint appears")
	}
	if !strings.Contains(err.Error(), "exited") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNgrokStartScrapesURL(t *testing.T) {
	recorder := testutil.NewMockCommandRecorder()
	recorder.Stdout = `t=now lvl=info msg="started tunnel" addr=//localhost:8022 url=tcp://4.tcp.ngrok.io:19022` + "\n"
	ng := NewNgrok(mockOpts(t, recorder)...)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := ng.Start(ctx, 8022); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	if got := ng.URL(); got != "tcp://4.tcp.ngrok.io:19022" {
		t.Errorf("URL() = %q", got)
	}
	recorder.AssertArgsContainAll(t, []string{"tcp", "8022", "--log", "stdout"})
}

func TestStartUnavailableBinary(t *testing.T) {
	cf := NewCloudflared(clitool.WithBinaryPath(""))
	err := cf.Start(context.Background(), 8022)
	if !errors.Is(err, clitool.ErrToolNotAvailable) {
		t.Errorf("Start() = %v, want ErrToolNotAvailable", err)
	}
}

func TestStopIdempotent(t *testing.T) {
	recorder := testutil.NewMockCommandRecorder()
	recorder.Stderr = "INF +  https://a-b-c-d.trycloudflare.com  +\n"
	cf := NewCloudflared(mockOpts(t, recorder)...)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := cf.Start(ctx, 8022); err != nil {
		t.Fatal(err)
	}

	if err := cf.Stop(); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}
	if err := cf.Stop(); err != nil {
		t.Errorf("second Stop() error: %v", err)
	}
}

func TestNewClientPrefersRequestedProvider(t *testing.T) {
	client, err := NewClient(ProviderNgrok, clitool.WithBinaryPath("/usr/bin/fake"))
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}
	if client.Name() != ProviderNgrok {
		t.Errorf("Name() = %s, want ngrok", client.Name())
	}
}

func TestNewClientNothingAvailable(t *testing.T) {
	_, err := NewClient(ProviderCloudflared, clitool.WithBinaryPath(""))
	if !errors.Is(err, clitool.ErrToolNotAvailable) {
		t.Errorf("NewClient() = %v, want ErrToolNotAvailable", err)
	}
}

func TestNewClientUnknownProvider(t *testing.T) {
	if _, err := NewClient("serveo"); err == nil {
		t.Error("NewClient(serveo) should fail")
	}
}

func TestWriteNamedTunnelConfig(t *testing.T) {
	cf := NewCloudflared(clitool.WithBinaryPath("/usr/bin/fake"))
	cf.configDir = t.TempDir()

	err := cf.WriteNamedTunnelConfig(NamedTunnelConfig{
		Tunnel:          "4a5b6c7d",
		CredentialsFile: "/home/user/.cloudflared/4a5b6c7d.json",
		Ingress: []IngressRule{
			{Hostname: "ssh.example.com", Service: "ssh://localhost:8022"},
		},
	})
	if err != nil {
		t.Fatalf("WriteNamedTunnelConfig() error: %v", err)
	}

	data, err := os.ReadFile(cf.ConfigPath())
	if err != nil {
		t.Fatalf("reading config.yml: %v", err)
	}

	var got NamedTunnelConfig
	if err := yaml.Unmarshal(data, &got); err != nil {
		t.Fatalf("config.yml is not valid YAML: %v", err)
	}
	if got.Tunnel != "4a5b6c7d" {
		t.Errorf("tunnel = %s", got.Tunnel)
	}
	if len(got.Ingress) != 2 {
		t.Fatalf("ingress rules = %d, want 2 (rule + catch-all)", len(got.Ingress))
	}
	if got.Ingress[1].Service != "http_status:404" {
		t.Errorf("catch-all rule = %q", got.Ingress[1].Service)
	}
}
