// SPDX-License-Identifier: MPL-2.0

package pkgmgr

import (
	"context"

	"termhost/internal/clitool"
)

// BasePackages is the package set every provisioned device gets: the SSH
// daemon, the terminal multiplexer, and the container bootstrap tool.
var BasePackages = []string{"openssh", "tmux", "proot-distro"}

// Manager defines the interface for package manager operations.
type Manager interface {
	// Name returns the manager name (pkg or apt-get).
	Name() string
	// Available checks if the manager is usable on this system.
	Available() bool
	// Update refreshes the package index.
	Update(ctx context.Context) error
	// Upgrade upgrades all installed packages.
	Upgrade(ctx context.Context) error
	// Install installs the given packages. Already-installed packages are
	// a no-op for both backends, which keeps the step idempotent.
	Install(ctx context.Context, packages ...string) error
	// IsInstalled reports whether a single package is installed.
	IsInstalled(ctx context.Context, pkg string) (bool, error)
}

// Detect returns the first available package manager, preferring the
// Termux frontend.
func Detect(opts ...clitool.ToolOption) (Manager, error) {
	if m := NewPkgManager(opts...); m.Available() {
		return m, nil
	}
	if m := NewAptManager(opts...); m.Available() {
		return m, nil
	}
	return nil, &clitool.NotAvailableError{
		Tool:   "pkg/apt-get",
		Reason: "no supported package manager found on PATH",
	}
}
