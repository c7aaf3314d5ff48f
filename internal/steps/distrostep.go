// SPDX-License-Identifier: MPL-2.0

package steps

import (
	"context"
	"fmt"

	"termhost/internal/clitool"
	"termhost/internal/config"
	"termhost/internal/distro"
	"termhost/internal/step"
)

// DistroStep installs a user-space Linux container through the bootstrap
// tool. Optional: a full distribution rootfs is a multi-hundred-megabyte
// download, so the runner asks first.
type DistroStep struct {
	boot distro.Bootstrapper
	cfg  config.DistroConfig
}

// NewDistroStep creates the container installation step.
func NewDistroStep(boot distro.Bootstrapper, cfg config.DistroConfig) *DistroStep {
	return &DistroStep{boot: boot, cfg: cfg}
}

// Name implements step.Step.
func (s *DistroStep) Name() string { return "distro" }

// Summary implements step.Step.
func (s *DistroStep) Summary() string {
	return fmt.Sprintf("Install the %s user-space container", s.cfg.Name)
}

// Optional implements step.Step.
func (s *DistroStep) Optional() bool { return true }

// alias converts the configured name, validating against the supported set.
func (s *DistroStep) alias() (distro.Alias, error) {
	alias := distro.Alias(s.cfg.Name.String())
	if err := alias.Validate(); err != nil {
		return "", err
	}
	return alias, nil
}

// Check reports satisfied when the rootfs is already unpacked.
func (s *DistroStep) Check(ctx context.Context) (step.Status, error) {
	alias, err := s.alias()
	if err != nil {
		return step.StatusUnknown, err
	}
	if s.boot.Installed(alias) {
		return step.StatusSatisfied, nil
	}
	return step.StatusMissing, nil
}

// Apply unpacks the rootfs.
func (s *DistroStep) Apply(ctx context.Context) error {
	alias, err := s.alias()
	if err != nil {
		return err
	}
	if !s.boot.Available() {
		return &clitool.NotAvailableError{
			Tool:   "proot-distro",
			Reason: "the container bootstrap tool is not installed; the packages step provides it",
		}
	}
	if s.boot.Installed(alias) {
		return nil
	}
	return s.boot.Install(ctx, alias)
}
