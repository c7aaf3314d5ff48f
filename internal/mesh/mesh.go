// SPDX-License-Identifier: MPL-2.0

// Package mesh joins the device to a Tailscale network (tailnet) so the
// terminal server is reachable from anywhere without port forwarding. The
// adapter shells out to the tailscale CLI and, when the backend is not
// answering, launches tailscaled itself: Termux has no init system to do
// it on our behalf.
package mesh

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"termhost/internal/clitool"
)

// BackendState values reported by `tailscale status --json`.
const (
	StateRunning    = "Running"
	StateStopped    = "Stopped"
	StateNeedsLogin = "NeedsLogin"
	StateNoState    = "NoState"
	StateStarting   = "Starting"
)

type (
	// Status is the subset of tailscale's status output termhost uses.
	Status struct {
		// BackendState is one of the State* constants.
		BackendState string `json:"BackendState"`
		// Self describes this device's presence in the tailnet.
		Self PeerStatus `json:"Self"`
	}

	// PeerStatus describes a single node.
	PeerStatus struct {
		HostName     string   `json:"HostName"`
		DNSName      string   `json:"DNSName"`
		TailscaleIPs []string `json:"TailscaleIPs"`
		Online       bool     `json:"Online"`
	}

	// UpOptions configures joining the tailnet.
	UpOptions struct {
		// AuthKey is a pre-authorized key; empty triggers the interactive
		// browser login flow (tailscale prints the URL).
		AuthKey string
		// Hostname overrides the advertised device name.
		Hostname string
		// SSH additionally enables Tailscale SSH on this node.
		SSH bool
	}

	// Option configures a Client.
	Option func(*Client)

	// Client adapts the tailscale CLI and its tailscaled daemon.
	Client struct {
		tool          *clitool.Tool
		daemon        *clitool.Tool
		readyAttempts int
		readyBackoff  time.Duration
	}
)

// Defaults for waiting on a freshly launched tailscaled.
const (
	defaultReadyAttempts = 5
	defaultReadyBackoff  = 200 * time.Millisecond
)

// Connected reports whether the node is up and part of a tailnet.
func (s *Status) Connected() bool {
	return s.BackendState == StateRunning
}

// IPv4 returns the node's Tailscale IPv4 address, or "".
func (s *Status) IPv4() string {
	for _, ip := range s.Self.TailscaleIPs {
		if strings.Count(ip, ".") == 3 {
			return ip
		}
	}
	return ""
}

// WithToolOptions forwards options to both underlying CLI tools (tests).
func WithToolOptions(opts ...clitool.ToolOption) Option {
	return func(c *Client) {
		c.tool = clitool.New("tailscale", opts...)
		c.daemon = clitool.New("tailscaled", opts...)
	}
}

// WithReadyPolling overrides how long StartDaemon waits for tailscaled to
// answer status queries (tests).
func WithReadyPolling(attempts int, backoff time.Duration) Option {
	return func(c *Client) {
		c.readyAttempts = attempts
		c.readyBackoff = backoff
	}
}

// NewClient creates the adapter.
func NewClient(opts ...Option) *Client {
	c := &Client{
		tool:          clitool.New("tailscale"),
		daemon:        clitool.New("tailscaled"),
		readyAttempts: defaultReadyAttempts,
		readyBackoff:  defaultReadyBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Available reports whether the tailscale binary is present.
func (c *Client) Available() bool {
	return c.tool.Available()
}

// Status queries the daemon. A failing status command usually means
// tailscaled is not running; the error carries its stderr.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	out, err := c.tool.RunCommandWithOutput(ctx, "status", "--json")
	if err != nil {
		return nil, err
	}

	var status Status
	if err := json.Unmarshal([]byte(out), &status); err != nil {
		return nil, fmt.Errorf("failed to parse tailscale status: %w", err)
	}
	return &status, nil
}

// StartDaemon launches tailscaled in the background and waits for it to
// answer status queries. The child is detached from ctx so it survives
// the termhost process; ctx only bounds the readiness wait.
func (c *Client) StartDaemon(ctx context.Context) error {
	if !c.daemon.Available() {
		return &clitool.NotAvailableError{
			Tool:   "tailscaled",
			Reason: "the mesh daemon is not installed (pkg install tailscale)",
		}
	}

	cmd := c.daemon.CreateCommand(context.WithoutCancel(ctx))
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start tailscaled: %w", err)
	}
	if err := cmd.Process.Release(); err != nil {
		return fmt.Errorf("failed to detach tailscaled: %w", err)
	}

	return clitool.RetryWithBackoff(ctx, c.readyAttempts, c.readyBackoff,
		func(int) (bool, error) {
			if _, err := c.Status(ctx); err != nil {
				return true, fmt.Errorf("tailscaled not ready: %w", err)
			}
			return false, nil
		})
}

// Up joins the tailnet. Re-running with the same options is a no-op on
// tailscale's side, so the operation is safe to repeat.
func (c *Client) Up(ctx context.Context, opts UpOptions) error {
	args := []string{"up"}
	if opts.AuthKey != "" {
		args = append(args, "--auth-key="+opts.AuthKey)
	}
	if opts.Hostname != "" {
		args = append(args, "--hostname="+opts.Hostname)
	}
	if opts.SSH {
		args = append(args, "--ssh")
	}
	return c.tool.RunCommand(ctx, args...)
}

// Down disconnects from the tailnet without logging out.
func (c *Client) Down(ctx context.Context) error {
	return c.tool.RunCommand(ctx, "down")
}
