// SPDX-License-Identifier: MPL-2.0

package sshd

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"termhost/internal/clitool"
	"termhost/internal/platform"
)

// managedMarker identifies a termhost-generated sshd_config. A config file
// without it is treated as foreign and backed up before being replaced.
const managedMarker = "# managed by termhost"

type (
	// Config holds the daemon settings rendered into sshd_config.
	Config struct {
		// Port is the listen port (unprivileged; 8022 by convention).
		Port int
		// PasswordAuth enables password login.
		PasswordAuth bool
		// AuthorizedKey is appended to authorized_keys when non-empty.
		AuthorizedKey string
	}

	// DialFunc probes a TCP address. Injectable for tests.
	DialFunc func(network, addr string, timeout time.Duration) (net.Conn, error)

	// DaemonOption configures a Daemon.
	DaemonOption func(*Daemon)

	// Daemon adapts the system OpenSSH daemon and its helper binaries.
	Daemon struct {
		sshd    *clitool.Tool
		keygen  *clitool.Tool
		dial    DialFunc
		etcDir  string
		homeDir string
	}
)

// WithToolOptions forwards options to the underlying CLI tools (used by
// tests to inject a mock exec function).
func WithToolOptions(opts ...clitool.ToolOption) DaemonOption {
	return func(d *Daemon) {
		d.sshd = clitool.New("sshd", opts...)
		d.keygen = clitool.New("ssh-keygen", opts...)
	}
}

// WithDial sets the TCP probe function.
func WithDial(dial DialFunc) DaemonOption {
	return func(d *Daemon) {
		d.dial = dial
	}
}

// WithEtcDir overrides the configuration directory root (tests).
func WithEtcDir(dir string) DaemonOption {
	return func(d *Daemon) {
		d.etcDir = dir
	}
}

// WithHomeDir overrides the home directory (tests).
func WithHomeDir(dir string) DaemonOption {
	return func(d *Daemon) {
		d.homeDir = dir
	}
}

// NewDaemon creates a Daemon using platform defaults.
func NewDaemon(opts ...DaemonOption) *Daemon {
	home, _ := platform.HomeDir()
	d := &Daemon{
		sshd:    clitool.New("sshd"),
		keygen:  clitool.New("ssh-keygen"),
		dial:    net.DialTimeout,
		etcDir:  platform.EtcDir(),
		homeDir: home,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Installed reports whether the sshd binary is present.
func (d *Daemon) Installed() bool {
	return d.sshd.Available()
}

// Running probes the daemon's listen port.
func (d *Daemon) Running(port int) bool {
	conn, err := d.dial("tcp", net.JoinHostPort("127.0.0.1", fmt.Sprintf("%d", port)), 2*time.Second)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// ConfigPath returns the sshd_config location under the managed etc dir.
func (d *Daemon) ConfigPath() string {
	return filepath.Join(d.etcDir, "ssh", "sshd_config")
}

// ConfigManaged reports whether the current sshd_config was written by
// termhost.
func (d *Daemon) ConfigManaged() bool {
	data, err := os.ReadFile(d.ConfigPath())
	if err != nil {
		return false
	}
	return strings.Contains(string(data), managedMarker)
}

// EnsureHostKeys generates any missing host keys (ssh-keygen -A).
// Already-present keys are left alone, so repeat runs are safe.
func (d *Daemon) EnsureHostKeys(ctx context.Context) error {
	if !d.keygen.Available() {
		return &clitool.NotAvailableError{Tool: "ssh-keygen", Reason: "binary not found on PATH"}
	}
	return d.keygen.RunCommand(ctx, "-A")
}

// WriteConfig renders the managed sshd_config. A foreign config is backed
// up to <path>.orig before the first overwrite; a previously managed file
// is replaced in place.
func (d *Daemon) WriteConfig(cfg Config) error {
	path := d.ConfigPath()

	if existing, err := os.ReadFile(path); err == nil {
		if !strings.Contains(string(existing), managedMarker) {
			backup := path + ".orig"
			if _, err := os.Stat(backup); os.IsNotExist(err) {
				if err := os.WriteFile(backup, existing, 0o600); err != nil {
					return fmt.Errorf("failed to back up foreign sshd_config: %w", err)
				}
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create ssh config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(renderConfig(cfg)), 0o600); err != nil {
		return fmt.Errorf("failed to write sshd_config: %w", err)
	}
	return nil
}

// InstallAuthorizedKey appends the public key to ~/.ssh/authorized_keys
// unless an identical line is already present.
func (d *Daemon) InstallAuthorizedKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}

	sshDir := filepath.Join(d.homeDir, ".ssh")
	if err := os.MkdirAll(sshDir, 0o700); err != nil {
		return fmt.Errorf("failed to create ~/.ssh: %w", err)
	}

	path := filepath.Join(sshDir, "authorized_keys")
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read authorized_keys: %w", err)
	}

	for line := range strings.SplitSeq(string(existing), "\n") {
		if strings.TrimSpace(line) == key {
			return nil
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open authorized_keys: %w", err)
	}
	defer f.Close()

	if len(existing) > 0 && !strings.HasSuffix(string(existing), "\n") {
		if _, err := f.WriteString("\n"); err != nil {
			return fmt.Errorf("failed to append authorized key: %w", err)
		}
	}
	if _, err := f.WriteString(key + "\n"); err != nil {
		return fmt.Errorf("failed to append authorized key: %w", err)
	}
	return nil
}

// Start launches the daemon. OpenSSH's sshd daemonizes itself, so a clean
// exit means the listener is up or about to be; Running() confirms.
func (d *Daemon) Start(ctx context.Context) error {
	if !d.Installed() {
		return &clitool.NotAvailableError{Tool: "sshd", Reason: "binary not found on PATH"}
	}
	return d.sshd.RunCommand(ctx)
}

// renderConfig produces the managed sshd_config contents.
func renderConfig(cfg Config) string {
	var b strings.Builder
	b.WriteString(managedMarker + "\n")
	b.WriteString("# regenerate with: termhost step sshd\n\n")
	fmt.Fprintf(&b, "Port %d\n", cfg.Port)
	b.WriteString("ListenAddress 0.0.0.0\n")
	if cfg.PasswordAuth {
		b.WriteString("PasswordAuthentication yes\n")
	} else {
		b.WriteString("PasswordAuthentication no\n")
	}
	b.WriteString("PubkeyAuthentication yes\n")
	b.WriteString("PermitEmptyPasswords no\n")
	b.WriteString("ClientAliveInterval 60\n")
	b.WriteString("ClientAliveCountMax 3\n")
	b.WriteString("PrintMotd yes\n")
	b.WriteString("Subsystem sftp internal-sftp\n")
	return b.String()
}
