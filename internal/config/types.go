// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
)

const (
	// TunnelProviderCloudflared exposes the device via a Cloudflare quick tunnel.
	TunnelProviderCloudflared TunnelProvider = "cloudflared"
	// TunnelProviderNgrok exposes the device via an ngrok TCP tunnel.
	TunnelProviderNgrok TunnelProvider = "ngrok"

	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"
)

var (
	// ErrInvalidTunnelProvider is returned when a TunnelProvider value is not recognized.
	ErrInvalidTunnelProvider = errors.New("invalid tunnel provider")
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidDistroName is the sentinel error wrapped by InvalidDistroNameError.
	ErrInvalidDistroName = errors.New("invalid distro name")
	// ErrInvalidSSHPort is the sentinel error wrapped by InvalidSSHPortError.
	ErrInvalidSSHPort = errors.New("invalid ssh port")
)

type (
	// TunnelProvider selects which tunnel client exposes the device.
	// Defined locally to avoid coupling config to internal/tunnel; callers
	// pass its String() form to tunnel.NewClient at the boundary.
	TunnelProvider string

	// InvalidTunnelProviderError is returned when a TunnelProvider value is
	// not recognized. It wraps ErrInvalidTunnelProvider for errors.Is().
	InvalidTunnelProviderError struct {
		Value TunnelProvider
	}

	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not
	// recognized. It wraps ErrInvalidColorScheme for errors.Is().
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// DistroName identifies a Linux distribution installable through the
	// container bootstrap tool. Defined locally; internal/distro owns the
	// authoritative alias set and casts at the boundary.
	DistroName string

	// InvalidDistroNameError is returned when a DistroName is empty or
	// whitespace-only. It wraps ErrInvalidDistroName for errors.Is().
	InvalidDistroNameError struct {
		Value DistroName
	}

	// SSHPort is the TCP port the SSH daemon listens on. Ports below 1024
	// are rejected: the target environment has no root, so a privileged
	// bind would always fail.
	SSHPort int

	// InvalidSSHPortError is returned when an SSHPort is out of range.
	// It wraps ErrInvalidSSHPort for errors.Is().
	InvalidSSHPortError struct {
		Value SSHPort
	}

	// PackagesConfig controls the package installation step.
	PackagesConfig struct {
		// Extra lists packages installed in addition to the base set.
		Extra []string `mapstructure:"extra"`
		// Upgrade runs a full package upgrade before installing.
		Upgrade bool `mapstructure:"upgrade"`
	}

	// SSHConfig controls the SSH daemon step.
	SSHConfig struct {
		// Port is the sshd listen port (default 8022, the Termux convention).
		Port SSHPort `mapstructure:"port"`
		// PasswordAuth enables password login in the rendered sshd_config.
		PasswordAuth bool `mapstructure:"password_auth"`
		// AuthorizedKey is a public key appended to authorized_keys (optional).
		AuthorizedKey string `mapstructure:"authorized_key"`
	}

	// TmuxConfig controls the terminal multiplexer step.
	TmuxConfig struct {
		// Mouse enables mouse support in the generated tmux.conf.
		Mouse bool `mapstructure:"mouse"`
		// Prefix is the tmux prefix key (e.g. "C-a"); empty keeps the default.
		Prefix string `mapstructure:"prefix"`
		// HistoryLimit is the scrollback buffer size in lines.
		HistoryLimit int `mapstructure:"history_limit"`
		// Autostart attaches a persistent session on shell login.
		Autostart bool `mapstructure:"autostart"`
	}

	// DistroConfig controls the user-space container step.
	DistroConfig struct {
		// Enabled turns the distro installation step on.
		Enabled bool `mapstructure:"enabled"`
		// Name is the distribution alias passed to the bootstrap tool.
		Name DistroName `mapstructure:"name"`
	}

	// MeshConfig controls the VPN mesh step.
	MeshConfig struct {
		// Enabled turns the mesh join step on.
		Enabled bool `mapstructure:"enabled"`
		// AuthKey is a pre-authorized key for non-interactive join (optional;
		// without it the client prints a login URL).
		AuthKey string `mapstructure:"auth_key"`
		// Hostname overrides the device name advertised to the mesh.
		Hostname string `mapstructure:"hostname"`
		// SSH advertises the mesh's built-in SSH access for this node.
		SSH bool `mapstructure:"ssh"`
	}

	// TunnelConfig controls the public tunnel step.
	TunnelConfig struct {
		// Enabled turns the tunnel availability step on.
		Enabled bool `mapstructure:"enabled"`
		// Provider selects the tunnel client.
		Provider TunnelProvider `mapstructure:"provider"`
		// LocalPort is the local service port the tunnel forwards to;
		// zero means the SSH port.
		LocalPort int `mapstructure:"local_port"`
	}

	// HooksConfig lists user shell hooks.
	HooksConfig struct {
		// PostUp scripts run in the embedded shell interpreter after a
		// successful `termhost up`.
		PostUp []string `mapstructure:"post_up"`
	}

	// UIConfig controls terminal output.
	UIConfig struct {
		// ColorScheme selects the output theme.
		ColorScheme ColorScheme `mapstructure:"color_scheme"`
		// Verbose enables debug-level logging.
		Verbose bool `mapstructure:"verbose"`
	}

	// Config is the root termhost configuration.
	Config struct {
		Packages PackagesConfig `mapstructure:"packages"`
		SSH      SSHConfig      `mapstructure:"ssh"`
		Tmux     TmuxConfig     `mapstructure:"tmux"`
		Distro   DistroConfig   `mapstructure:"distro"`
		Mesh     MeshConfig     `mapstructure:"mesh"`
		Tunnel   TunnelConfig   `mapstructure:"tunnel"`
		Hooks    HooksConfig    `mapstructure:"hooks"`
		UI       UIConfig       `mapstructure:"ui"`
	}
)

func (e *InvalidTunnelProviderError) Error() string {
	return fmt.Sprintf("invalid tunnel provider: %q (must be 'cloudflared' or 'ngrok')", string(e.Value))
}

func (e *InvalidTunnelProviderError) Unwrap() error { return ErrInvalidTunnelProvider }

// Validate checks that the provider is a recognized value.
func (p TunnelProvider) Validate() error {
	switch p {
	case TunnelProviderCloudflared, TunnelProviderNgrok:
		return nil
	default:
		return &InvalidTunnelProviderError{Value: p}
	}
}

func (p TunnelProvider) String() string { return string(p) }

func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme: %q (must be 'auto', 'dark', or 'light')", string(e.Value))
}

func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

// Validate checks that the color scheme is a recognized value.
func (s ColorScheme) Validate() error {
	switch s {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return nil
	default:
		return &InvalidColorSchemeError{Value: s}
	}
}

func (s ColorScheme) String() string { return string(s) }

func (e *InvalidDistroNameError) Error() string {
	return fmt.Sprintf("invalid distro name: %q", string(e.Value))
}

func (e *InvalidDistroNameError) Unwrap() error { return ErrInvalidDistroName }

// Validate checks that the name is non-empty. Whether the alias is actually
// supported by the bootstrap tool is checked by internal/distro.
func (n DistroName) Validate() error {
	if n == "" {
		return &InvalidDistroNameError{Value: n}
	}
	return nil
}

func (n DistroName) String() string { return string(n) }

func (e *InvalidSSHPortError) Error() string {
	return fmt.Sprintf("invalid ssh port: %d (must be 1024-65535)", int(e.Value))
}

func (e *InvalidSSHPortError) Unwrap() error { return ErrInvalidSSHPort }

// Validate checks that the port is in the unprivileged range.
func (p SSHPort) Validate() error {
	if p < 1024 || p > 65535 {
		return &InvalidSSHPortError{Value: p}
	}
	return nil
}

// Validate checks cross-field constraints that the CUE schema cannot express
// or that must hold even when no config file exists.
func (c *Config) Validate() error {
	if err := c.SSH.Port.Validate(); err != nil {
		return err
	}
	if err := c.UI.ColorScheme.Validate(); err != nil {
		return err
	}
	if c.Tunnel.Enabled {
		if err := c.Tunnel.Provider.Validate(); err != nil {
			return err
		}
	}
	if c.Distro.Enabled {
		if err := c.Distro.Name.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// DefaultConfig returns the built-in defaults used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		Packages: PackagesConfig{
			Extra:   []string{},
			Upgrade: true,
		},
		SSH: SSHConfig{
			Port:         8022,
			PasswordAuth: true,
		},
		Tmux: TmuxConfig{
			Mouse:        true,
			HistoryLimit: 10000,
			Autostart:    true,
		},
		Distro: DistroConfig{
			Enabled: true,
			Name:    "ubuntu",
		},
		Mesh: MeshConfig{
			SSH: true,
		},
		Tunnel: TunnelConfig{
			Provider: TunnelProviderCloudflared,
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
		},
	}
}
