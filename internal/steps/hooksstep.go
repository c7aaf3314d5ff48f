// SPDX-License-Identifier: MPL-2.0

package steps

import (
	"context"
	"fmt"

	"termhost/internal/config"
	"termhost/internal/hooks"
	"termhost/internal/step"
)

// HooksStep runs the user's post-up shell hooks. Hooks run on every
// `up`, so Check always reports missing when any are configured.
type HooksStep struct {
	runner HookRunner
	cfg    config.HooksConfig
}

// NewHooksStep creates the post-up hooks step.
func NewHooksStep(runner HookRunner, cfg config.HooksConfig) *HooksStep {
	return &HooksStep{runner: runner, cfg: cfg}
}

// Name implements step.Step.
func (s *HooksStep) Name() string { return "hooks" }

// Summary implements step.Step.
func (s *HooksStep) Summary() string {
	return fmt.Sprintf("Run %d post-up hook(s)", len(s.cfg.PostUp))
}

// Optional implements step.Step.
func (s *HooksStep) Optional() bool { return false }

// Check reports satisfied when no hooks are configured, and surfaces
// snippet syntax errors up front so a run never starts with a hook that
// cannot parse.
func (s *HooksStep) Check(ctx context.Context) (step.Status, error) {
	if len(s.cfg.PostUp) == 0 {
		return step.StatusSatisfied, nil
	}
	if err := hooks.Validate(s.cfg.PostUp); err != nil {
		return step.StatusUnknown, err
	}
	return step.StatusMissing, nil
}

// Apply implements step.Step.
func (s *HooksStep) Apply(ctx context.Context) error {
	if err := hooks.Validate(s.cfg.PostUp); err != nil {
		return err
	}
	_, err := s.runner.RunAll(ctx, s.cfg.PostUp)
	return err
}
