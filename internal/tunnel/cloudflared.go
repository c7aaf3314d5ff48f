// SPDX-License-Identifier: MPL-2.0

package tunnel

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"

	"termhost/internal/clitool"
	"termhost/internal/platform"
)

// quickTunnelURL matches the endpoint cloudflared assigns to ad-hoc
// tunnels, e.g. https://lamp-grid-alpha-yarn.trycloudflare.com.
var quickTunnelURL = regexp.MustCompile(`https://[a-z0-9-]+\.trycloudflare\.com`)

type (
	// IngressRule maps a public hostname to a local service in a named
	// tunnel configuration.
	IngressRule struct {
		Hostname string `yaml:"hostname,omitempty"`
		Service  string `yaml:"service"`
	}

	// NamedTunnelConfig is the cloudflared config.yml for a persistent
	// named tunnel (as opposed to the ad-hoc quick tunnel Start uses).
	NamedTunnelConfig struct {
		Tunnel          string        `yaml:"tunnel"`
		CredentialsFile string        `yaml:"credentials-file"`
		Ingress         []IngressRule `yaml:"ingress"`
	}

	// Cloudflared runs Cloudflare quick tunnels.
	Cloudflared struct {
		*process
		configDir string
	}
)

// NewCloudflared creates the cloudflared client.
func NewCloudflared(opts ...clitool.ToolOption) *Cloudflared {
	home, _ := platform.HomeDir()
	return &Cloudflared{
		process:   newProcess(ProviderCloudflared, quickTunnelURL, opts...),
		configDir: filepath.Join(home, ".cloudflared"),
	}
}

// Name returns the provider name.
func (c *Cloudflared) Name() string { return ProviderCloudflared }

// Available reports whether the cloudflared binary is present.
func (c *Cloudflared) Available() bool { return c.available() }

// Start opens a quick tunnel to the local port. Quick tunnels need no
// Cloudflare account; the assigned trycloudflare.com hostname changes on
// every start.
func (c *Cloudflared) Start(ctx context.Context, localPort int) error {
	return c.start(ctx,
		"tunnel",
		"--no-autoupdate",
		"--url", fmt.Sprintf("tcp://localhost:%d", localPort),
	)
}

// Stop terminates the tunnel.
func (c *Cloudflared) Stop() error { return c.stop() }

// ConfigPath returns the named-tunnel config location.
func (c *Cloudflared) ConfigPath() string {
	return filepath.Join(c.configDir, "config.yml")
}

// WriteNamedTunnelConfig renders config.yml for a persistent named
// tunnel. The trailing catch-all ingress rule cloudflared requires is
// appended automatically.
func (c *Cloudflared) WriteNamedTunnelConfig(cfg NamedTunnelConfig) error {
	cfg.Ingress = append(cfg.Ingress, IngressRule{Service: "http_status:404"})

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to render cloudflared config: %w", err)
	}

	if err := os.MkdirAll(c.configDir, 0o755); err != nil {
		return fmt.Errorf("failed to create cloudflared config directory: %w", err)
	}
	if err := os.WriteFile(c.ConfigPath(), data, 0o600); err != nil {
		return fmt.Errorf("failed to write cloudflared config: %w", err)
	}
	return nil
}
