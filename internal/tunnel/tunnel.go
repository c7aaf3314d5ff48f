// SPDX-License-Identifier: MPL-2.0

// Package tunnel exposes the local SSH port to the internet through a
// third-party tunnel client, for devices behind carrier-grade NAT where
// neither port forwarding nor a VPN mesh is an option. Two clients are
// supported: cloudflared (quick tunnels, no account needed) and ngrok
// (TCP tunnels, requires an authtoken).
package tunnel

import (
	"context"
	"fmt"

	"termhost/internal/clitool"
)

const (
	// ProviderCloudflared identifies the cloudflared client.
	ProviderCloudflared = "cloudflared"
	// ProviderNgrok identifies the ngrok client.
	ProviderNgrok = "ngrok"
)

// Client runs a tunnel process in the foreground of the provisioning
// session. A Client instance is single-use.
type Client interface {
	// Name returns the provider name.
	Name() string
	// Available reports whether the client binary is present.
	Available() bool
	// Start launches the tunnel for the local port and blocks until the
	// public endpoint is known or startup fails.
	Start(ctx context.Context, localPort int) error
	// URL returns the public endpoint once Start has succeeded.
	URL() string
	// Err delivers fatal runtime errors after a successful Start.
	Err() <-chan error
	// Stop terminates the tunnel process.
	Stop() error
}

// NewClient returns the preferred tunnel client, falling back to the
// other provider when the preferred binary is missing.
func NewClient(preferred string, opts ...clitool.ToolOption) (Client, error) {
	switch preferred {
	case ProviderCloudflared:
		cf := NewCloudflared(opts...)
		if cf.Available() {
			return cf, nil
		}
		// Fall back to ngrok
		ng := NewNgrok(opts...)
		if ng.Available() {
			return ng, nil
		}
		return nil, &clitool.NotAvailableError{
			Tool:   ProviderCloudflared,
			Reason: "cloudflared is not installed, and the ngrok fallback is also not available",
		}

	case ProviderNgrok:
		ng := NewNgrok(opts...)
		if ng.Available() {
			return ng, nil
		}
		// Fall back to cloudflared
		cf := NewCloudflared(opts...)
		if cf.Available() {
			return cf, nil
		}
		return nil, &clitool.NotAvailableError{
			Tool:   ProviderNgrok,
			Reason: "ngrok is not installed, and the cloudflared fallback is also not available",
		}

	default:
		return nil, fmt.Errorf("unknown tunnel provider: %s", preferred)
	}
}
