// SPDX-License-Identifier: MPL-2.0

package pkgmgr

import (
	"context"
	"strings"

	"termhost/internal/clitool"
)

// PkgManager implements Manager using the Termux `pkg` frontend.
type PkgManager struct {
	tool *clitool.Tool
	dpkg *clitool.Tool
}

// NewPkgManager creates a pkg-backed manager.
func NewPkgManager(opts ...clitool.ToolOption) *PkgManager {
	return &PkgManager{
		tool: clitool.New("pkg", opts...),
		dpkg: clitool.New("dpkg-query", opts...),
	}
}

// Name returns the manager name.
func (m *PkgManager) Name() string { return "pkg" }

// Available checks if pkg is on PATH.
func (m *PkgManager) Available() bool { return m.tool.Available() }

// Update refreshes the package index. `pkg update` also rotates to a
// working mirror when the current one is unreachable.
func (m *PkgManager) Update(ctx context.Context) error {
	return m.tool.RunCommand(ctx, "update", "-y")
}

// Upgrade upgrades all installed packages.
func (m *PkgManager) Upgrade(ctx context.Context) error {
	return m.tool.RunCommand(ctx, "upgrade", "-y")
}

// Install installs the given packages.
func (m *PkgManager) Install(ctx context.Context, packages ...string) error {
	if len(packages) == 0 {
		return nil
	}
	args := append([]string{"install", "-y"}, packages...)
	return m.tool.RunCommand(ctx, args...)
}

// IsInstalled reports whether pkg's underlying dpkg database lists the
// package as installed.
func (m *PkgManager) IsInstalled(ctx context.Context, pkg string) (bool, error) {
	return dpkgInstalled(ctx, m.dpkg, pkg)
}

// dpkgInstalled asks dpkg-query for the package state. Shared by both
// backends since pkg and apt-get maintain the same database.
func dpkgInstalled(ctx context.Context, dpkg *clitool.Tool, pkg string) (bool, error) {
	if !dpkg.Available() {
		return false, &clitool.NotAvailableError{Tool: "dpkg-query", Reason: "binary not found on PATH"}
	}

	out, err := dpkg.RunCommandWithOutput(ctx, "-W", "-f=${db:Status-Status}", pkg)
	if err != nil {
		// dpkg-query exits non-zero for unknown packages.
		return false, nil
	}
	return strings.TrimSpace(out) == "installed", nil
}
