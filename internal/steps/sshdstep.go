// SPDX-License-Identifier: MPL-2.0

package steps

import (
	"context"
	"fmt"
	"time"

	"termhost/internal/clitool"
	"termhost/internal/config"
	"termhost/internal/sshd"
	"termhost/internal/step"
)

// SSHDStep configures and starts the system OpenSSH daemon.
type SSHDStep struct {
	daemon SSHDaemon
	cfg    config.SSHConfig
}

// NewSSHDStep creates the SSH daemon step.
func NewSSHDStep(daemon SSHDaemon, cfg config.SSHConfig) *SSHDStep {
	return &SSHDStep{daemon: daemon, cfg: cfg}
}

// Name implements step.Step.
func (s *SSHDStep) Name() string { return "sshd" }

// Summary implements step.Step.
func (s *SSHDStep) Summary() string {
	return fmt.Sprintf("Configure and start the SSH daemon on port %d", int(s.cfg.Port))
}

// Optional implements step.Step.
func (s *SSHDStep) Optional() bool { return false }

// Check reports satisfied only when the daemon is installed, running on
// the configured port, and serving the managed config.
func (s *SSHDStep) Check(ctx context.Context) (step.Status, error) {
	if !s.daemon.Installed() {
		return step.StatusMissing, nil
	}
	if !s.daemon.ConfigManaged() {
		return step.StatusMissing, nil
	}
	if !s.daemon.Running(int(s.cfg.Port)) {
		return step.StatusMissing, nil
	}
	return step.StatusSatisfied, nil
}

// Apply generates host keys, writes the managed config, installs the
// authorized key and starts the daemon. Every sub-operation is a no-op
// when its effect is already in place.
func (s *SSHDStep) Apply(ctx context.Context) error {
	if !s.daemon.Installed() {
		return &clitool.NotAvailableError{
			Tool:   "sshd",
			Reason: "OpenSSH is not installed; the packages step provides it",
		}
	}

	if err := s.daemon.EnsureHostKeys(ctx); err != nil {
		return fmt.Errorf("host key generation failed: %w", err)
	}

	cfg := sshd.Config{
		Port:         int(s.cfg.Port),
		PasswordAuth: s.cfg.PasswordAuth,
	}
	if err := s.daemon.WriteConfig(cfg); err != nil {
		return err
	}
	if err := s.daemon.InstallAuthorizedKey(s.cfg.AuthorizedKey); err != nil {
		return err
	}

	if s.daemon.Running(int(s.cfg.Port)) {
		return nil
	}
	if err := s.daemon.Start(ctx); err != nil {
		return fmt.Errorf("failed to start sshd: %w", err)
	}

	// sshd forks into the background; give the listener a moment.
	return clitool.RetryWithBackoff(ctx, 5, 200*time.Millisecond, func(attempt int) (bool, error) {
		if s.daemon.Running(int(s.cfg.Port)) {
			return false, nil
		}
		return true, fmt.Errorf("sshd is not listening on port %d", int(s.cfg.Port))
	})
}
