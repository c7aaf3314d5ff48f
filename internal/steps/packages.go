// SPDX-License-Identifier: MPL-2.0

package steps

import (
	"context"
	"fmt"

	"termhost/internal/config"
	"termhost/internal/pkgmgr"
	"termhost/internal/step"
)

// PackagesStep installs the base package set plus configured extras.
type PackagesStep struct {
	mgr pkgmgr.Manager
	cfg config.PackagesConfig
}

// NewPackagesStep creates the package installation step.
func NewPackagesStep(mgr pkgmgr.Manager, cfg config.PackagesConfig) *PackagesStep {
	return &PackagesStep{mgr: mgr, cfg: cfg}
}

// Name implements step.Step.
func (s *PackagesStep) Name() string { return "packages" }

// Summary implements step.Step.
func (s *PackagesStep) Summary() string {
	return fmt.Sprintf("Install server packages via %s", s.mgr.Name())
}

// Optional implements step.Step.
func (s *PackagesStep) Optional() bool { return false }

// wanted is the full package list for this configuration.
func (s *PackagesStep) wanted() []string {
	return append(append([]string{}, pkgmgr.BasePackages...), s.cfg.Extra...)
}

// Check reports satisfied when every wanted package is installed.
func (s *PackagesStep) Check(ctx context.Context) (step.Status, error) {
	for _, pkg := range s.wanted() {
		installed, err := s.mgr.IsInstalled(ctx, pkg)
		if err != nil {
			return step.StatusUnknown, err
		}
		if !installed {
			return step.StatusMissing, nil
		}
	}
	return step.StatusSatisfied, nil
}

// Apply refreshes the index, optionally upgrades, and installs whatever
// is missing. Installing an already-present package is a no-op for both
// backends, so a rerun after partial failure is safe.
func (s *PackagesStep) Apply(ctx context.Context) error {
	if err := s.mgr.Update(ctx); err != nil {
		return fmt.Errorf("package index update failed: %w", err)
	}
	if s.cfg.Upgrade {
		if err := s.mgr.Upgrade(ctx); err != nil {
			return fmt.Errorf("package upgrade failed: %w", err)
		}
	}
	if err := s.mgr.Install(ctx, s.wanted()...); err != nil {
		return fmt.Errorf("package installation failed: %w", err)
	}
	return nil
}
