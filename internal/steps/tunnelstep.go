// SPDX-License-Identifier: MPL-2.0

package steps

import (
	"context"
	"fmt"

	"termhost/internal/config"
	"termhost/internal/pkgmgr"
	"termhost/internal/step"
)

// TunnelStep ensures the configured tunnel client is installed. The
// tunnel itself runs in the foreground via `termhost tunnel up`, not during
// provisioning; this step only prepares the binary.
type TunnelStep struct {
	factory TunnelFactory
	mgr     pkgmgr.Manager
	cfg     config.TunnelConfig
}

// NewTunnelStep creates the tunnel client installation step.
func NewTunnelStep(factory TunnelFactory, mgr pkgmgr.Manager, cfg config.TunnelConfig) *TunnelStep {
	return &TunnelStep{factory: factory, mgr: mgr, cfg: cfg}
}

// Name implements step.Step.
func (s *TunnelStep) Name() string { return "tunnel" }

// Summary implements step.Step.
func (s *TunnelStep) Summary() string {
	return fmt.Sprintf("Install the %s tunnel client", s.cfg.Provider)
}

// Optional implements step.Step.
func (s *TunnelStep) Optional() bool { return true }

// Check reports satisfied when a usable tunnel client exists (either the
// configured provider or its fallback).
func (s *TunnelStep) Check(ctx context.Context) (step.Status, error) {
	if _, err := s.factory(s.cfg.Provider.String()); err != nil {
		return step.StatusMissing, nil
	}
	return step.StatusSatisfied, nil
}

// Apply installs the provider package and verifies a client can be
// constructed afterwards.
func (s *TunnelStep) Apply(ctx context.Context) error {
	if _, err := s.factory(s.cfg.Provider.String()); err == nil {
		return nil
	}

	if err := s.mgr.Install(ctx, s.cfg.Provider.String()); err != nil {
		return fmt.Errorf("failed to install %s: %w", s.cfg.Provider, err)
	}
	if _, err := s.factory(s.cfg.Provider.String()); err != nil {
		return fmt.Errorf("tunnel client still unusable after install: %w", err)
	}
	return nil
}
