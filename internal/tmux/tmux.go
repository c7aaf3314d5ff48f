// SPDX-License-Identifier: MPL-2.0

// Package tmux writes the managed tmux configuration and the shell-profile
// snippet that attaches a session on SSH login. Foreign files are backed up
// once before the first managed overwrite, mirroring how the OpenSSH
// daemon config is handled.
package tmux

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"termhost/internal/clitool"
	"termhost/internal/platform"
)

const (
	managedMarker = "# managed by termhost"

	// autostartBegin/End delimit the snippet in the shell profile so it
	// can be found and replaced without touching the user's own lines.
	autostartBegin = "# >>> termhost tmux autostart >>>"
	autostartEnd   = "# <<< termhost tmux autostart <<<"
)

type (
	// Config holds the settings rendered into tmux.conf.
	Config struct {
		// Mouse enables mouse support (scrolling, pane selection).
		Mouse bool
		// Prefix is the prefix key binding, e.g. "C-a". Empty keeps the
		// tmux default (C-b).
		Prefix string
		// HistoryLimit is the scrollback buffer size in lines.
		HistoryLimit int
		// Autostart attaches/creates a session from the login shell.
		Autostart bool
	}

	// Option configures a Manager.
	Option func(*Manager)

	// Manager owns the tmux config file and the autostart profile snippet.
	Manager struct {
		tool    *clitool.Tool
		homeDir string
	}
)

// WithToolOptions forwards options to the tmux CLI tool (tests).
func WithToolOptions(opts ...clitool.ToolOption) Option {
	return func(m *Manager) {
		m.tool = clitool.New("tmux", opts...)
	}
}

// WithHomeDir overrides the home directory (tests).
func WithHomeDir(dir string) Option {
	return func(m *Manager) {
		m.homeDir = dir
	}
}

// NewManager creates a Manager using platform defaults.
func NewManager(opts ...Option) *Manager {
	home, _ := platform.HomeDir()
	m := &Manager{
		tool:    clitool.New("tmux"),
		homeDir: home,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Installed reports whether the tmux binary is present.
func (m *Manager) Installed() bool {
	return m.tool.Available()
}

// ConfPath returns the tmux.conf location (~/.tmux.conf, the classic spot
// tmux checks on every platform including Termux).
func (m *Manager) ConfPath() string {
	return filepath.Join(m.homeDir, ".tmux.conf")
}

// ProfilePath returns the shell profile carrying the autostart snippet.
func (m *Manager) ProfilePath() string {
	return filepath.Join(m.homeDir, ".bashrc")
}

// Configured reports whether the current tmux.conf is termhost-managed.
func (m *Manager) Configured() bool {
	data, err := os.ReadFile(m.ConfPath())
	if err != nil {
		return false
	}
	return strings.Contains(string(data), managedMarker)
}

// AutostartInstalled reports whether the profile snippet is present.
func (m *Manager) AutostartInstalled() bool {
	data, err := os.ReadFile(m.ProfilePath())
	if err != nil {
		return false
	}
	return strings.Contains(string(data), autostartBegin)
}

// WriteConf renders the managed tmux.conf. A foreign file is backed up to
// <path>.orig before the first overwrite.
func (m *Manager) WriteConf(cfg Config) error {
	path := m.ConfPath()

	if existing, err := os.ReadFile(path); err == nil {
		if !strings.Contains(string(existing), managedMarker) {
			backup := path + ".orig"
			if _, err := os.Stat(backup); os.IsNotExist(err) {
				if err := os.WriteFile(backup, existing, 0o600); err != nil {
					return fmt.Errorf("failed to back up foreign tmux.conf: %w", err)
				}
			}
		}
	}

	if err := os.WriteFile(path, []byte(renderConf(cfg)), 0o644); err != nil {
		return fmt.Errorf("failed to write tmux.conf: %w", err)
	}
	return nil
}

// InstallAutostart writes (or rewrites) the autostart snippet in the shell
// profile. The snippet attaches the "main" session on interactive SSH
// logins only, so local shells and scp are untouched.
func (m *Manager) InstallAutostart() error {
	path := m.ProfilePath()
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read shell profile: %w", err)
	}

	content := removeSnippet(string(existing))
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += autostartSnippet()

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write shell profile: %w", err)
	}
	return nil
}

// RemoveAutostart strips the snippet from the shell profile, leaving the
// rest of the file alone. A missing profile is not an error.
func (m *Manager) RemoveAutostart() error {
	path := m.ProfilePath()
	existing, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read shell profile: %w", err)
	}

	content := removeSnippet(string(existing))
	if content == string(existing) {
		return nil
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write shell profile: %w", err)
	}
	return nil
}

// renderConf produces the managed tmux.conf contents.
func renderConf(cfg Config) string {
	var b strings.Builder
	b.WriteString(managedMarker + "\n\n")
	if cfg.Mouse {
		b.WriteString("set -g mouse on\n")
	}
	if cfg.Prefix != "" {
		fmt.Fprintf(&b, "unbind C-b\nset -g prefix %s\nbind %s send-prefix\n", cfg.Prefix, cfg.Prefix)
	}
	if cfg.HistoryLimit > 0 {
		fmt.Fprintf(&b, "set -g history-limit %d\n", cfg.HistoryLimit)
	}
	b.WriteString("set -g default-terminal \"screen-256color\"\n")
	b.WriteString("set -g base-index 1\n")
	b.WriteString("setw -g pane-base-index 1\n")
	b.WriteString("set -g renumber-windows on\n")
	// Long-lived server sessions should survive client disconnects.
	b.WriteString("set -g destroy-unattached off\n")
	b.WriteString("set -sg escape-time 10\n")
	return b.String()
}

// autostartSnippet is guarded so nested tmux shells and non-interactive
// sessions never recurse into tmux.
func autostartSnippet() string {
	return autostartBegin + "\n" +
		"if [ -n \"$SSH_CONNECTION\" ] && [ -z \"$TMUX\" ] && [ -t 0 ]; then\n" +
		"  tmux new-session -A -s services\n" +
		"fi\n" +
		autostartEnd + "\n"
}

// removeSnippet deletes the marked region, tolerating a missing end marker
// from a hand-edited profile by cutting to the end of file.
func removeSnippet(content string) string {
	begin := strings.Index(content, autostartBegin)
	if begin == -1 {
		return content
	}
	end := strings.Index(content, autostartEnd)
	if end == -1 {
		return strings.TrimRight(content[:begin], "\n") + "\n"
	}
	tail := content[end+len(autostartEnd):]
	tail = strings.TrimPrefix(tail, "\n")
	head := content[:begin]
	return head + tail
}
