// SPDX-License-Identifier: MPL-2.0

package steps

import (
	"context"

	"termhost/internal/clitool"
	"termhost/internal/config"
	"termhost/internal/step"
	"termhost/internal/tmux"
)

// TmuxStep writes the managed tmux configuration and, when enabled, the
// login autostart snippet.
type TmuxStep struct {
	mgr TmuxManager
	cfg config.TmuxConfig
}

// NewTmuxStep creates the tmux configuration step.
func NewTmuxStep(mgr TmuxManager, cfg config.TmuxConfig) *TmuxStep {
	return &TmuxStep{mgr: mgr, cfg: cfg}
}

// Name implements step.Step.
func (s *TmuxStep) Name() string { return "tmux" }

// Summary implements step.Step.
func (s *TmuxStep) Summary() string {
	return "Configure tmux and session autostart"
}

// Optional implements step.Step.
func (s *TmuxStep) Optional() bool { return false }

// Check reports satisfied when tmux is installed, the managed config is
// in place, and the autostart snippet matches the configuration.
func (s *TmuxStep) Check(ctx context.Context) (step.Status, error) {
	if !s.mgr.Installed() {
		return step.StatusMissing, nil
	}
	if !s.mgr.Configured() {
		return step.StatusMissing, nil
	}
	if s.mgr.AutostartInstalled() != s.cfg.Autostart {
		return step.StatusMissing, nil
	}
	return step.StatusSatisfied, nil
}

// Apply writes tmux.conf and reconciles the autostart snippet.
func (s *TmuxStep) Apply(ctx context.Context) error {
	if !s.mgr.Installed() {
		return &clitool.NotAvailableError{
			Tool:   "tmux",
			Reason: "tmux is not installed; the packages step provides it",
		}
	}

	if err := s.mgr.WriteConf(tmux.Config{
		Mouse:        s.cfg.Mouse,
		Prefix:       s.cfg.Prefix,
		HistoryLimit: s.cfg.HistoryLimit,
		Autostart:    s.cfg.Autostart,
	}); err != nil {
		return err
	}

	if s.cfg.Autostart {
		return s.mgr.InstallAutostart()
	}
	return s.mgr.RemoveAutostart()
}
