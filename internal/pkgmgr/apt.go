// SPDX-License-Identifier: MPL-2.0

package pkgmgr

import (
	"context"

	"termhost/internal/clitool"
)

// AptManager implements Manager using apt-get directly, for plain
// Debian-family hosts without the Termux frontend.
type AptManager struct {
	tool *clitool.Tool
	dpkg *clitool.Tool
}

// NewAptManager creates an apt-get backed manager. DEBIAN_FRONTEND is
// forced to noninteractive so dpkg never blocks on a configuration prompt
// mid-provisioning.
func NewAptManager(opts ...clitool.ToolOption) *AptManager {
	allOpts := append([]clitool.ToolOption{
		clitool.WithEnv("DEBIAN_FRONTEND", "noninteractive"),
	}, opts...)
	return &AptManager{
		tool: clitool.New("apt-get", allOpts...),
		dpkg: clitool.New("dpkg-query", opts...),
	}
}

// Name returns the manager name.
func (m *AptManager) Name() string { return "apt-get" }

// Available checks if apt-get is on PATH.
func (m *AptManager) Available() bool { return m.tool.Available() }

// Update refreshes the package index.
func (m *AptManager) Update(ctx context.Context) error {
	return m.tool.RunCommand(ctx, "update")
}

// Upgrade upgrades all installed packages.
func (m *AptManager) Upgrade(ctx context.Context) error {
	return m.tool.RunCommand(ctx, "upgrade", "-y")
}

// Install installs the given packages.
func (m *AptManager) Install(ctx context.Context, packages ...string) error {
	if len(packages) == 0 {
		return nil
	}
	args := append([]string{"install", "-y"}, packages...)
	return m.tool.RunCommand(ctx, args...)
}

// IsInstalled reports whether dpkg lists the package as installed.
func (m *AptManager) IsInstalled(ctx context.Context, pkg string) (bool, error) {
	return dpkgInstalled(ctx, m.dpkg, pkg)
}
