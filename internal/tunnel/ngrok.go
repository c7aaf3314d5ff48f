// SPDX-License-Identifier: MPL-2.0

package tunnel

import (
	"context"
	"fmt"
	"regexp"

	"termhost/internal/clitool"
)

// ngrokTCPURL matches the forwarding endpoint in ngrok's log output,
// e.g. tcp://0.tcp.eu.ngrok.io:14022.
var ngrokTCPURL = regexp.MustCompile(`tcp://[a-zA-Z0-9.-]+:[0-9]+`)

// Ngrok runs ngrok TCP tunnels. Unlike cloudflared quick tunnels, ngrok
// requires a configured authtoken (`ngrok config add-authtoken`).
type Ngrok struct {
	*process
}

// NewNgrok creates the ngrok client.
func NewNgrok(opts ...clitool.ToolOption) *Ngrok {
	return &Ngrok{
		process: newProcess(ProviderNgrok, ngrokTCPURL, opts...),
	}
}

// Name returns the provider name.
func (n *Ngrok) Name() string { return ProviderNgrok }

// Available reports whether the ngrok binary is present.
func (n *Ngrok) Available() bool { return n.available() }

// Start opens a TCP tunnel to the local port. Logging goes to stdout so
// the endpoint can be scraped without the web inspector.
func (n *Ngrok) Start(ctx context.Context, localPort int) error {
	return n.start(ctx,
		"tcp", fmt.Sprintf("%d", localPort),
		"--log", "stdout",
	)
}

// Stop terminates the tunnel.
func (n *Ngrok) Stop() error { return n.stop() }
