// SPDX-License-Identifier: MPL-2.0

package step

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

type (
	// ConfirmFunc asks the user whether an optional step should run.
	// The runner calls it with the step's summary; returning false records
	// OutcomeDeclined and moves on.
	ConfirmFunc func(summary string) bool

	// RunnerOption configures a Runner.
	RunnerOption func(*Runner)

	// Runner executes an ordered list of provisioning steps.
	Runner struct {
		steps           []Step
		confirm         ConfirmFunc
		logger          *log.Logger
		continueOnError bool
		only            map[string]bool // non-nil restricts the run to these names
		skip            map[string]bool
	}
)

// WithConfirm sets the confirmation callback for optional steps.
// Without one, optional steps run unconditionally (the --yes behavior).
func WithConfirm(fn ConfirmFunc) RunnerOption {
	return func(r *Runner) {
		r.confirm = fn
	}
}

// WithLogger sets the runner's logger.
func WithLogger(logger *log.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithContinueOnError keeps running remaining steps after a failure.
func WithContinueOnError() RunnerOption {
	return func(r *Runner) {
		r.continueOnError = true
	}
}

// WithOnly restricts the run to the named steps. Unknown names are
// rejected by Run before any step executes.
func WithOnly(names []string) RunnerOption {
	return func(r *Runner) {
		if len(names) == 0 {
			return
		}
		r.only = make(map[string]bool, len(names))
		for _, n := range names {
			r.only[n] = true
		}
	}
}

// WithSkip excludes the named steps from the run.
func WithSkip(names []string) RunnerOption {
	return func(r *Runner) {
		if len(names) == 0 {
			return
		}
		r.skip = make(map[string]bool, len(names))
		for _, n := range names {
			r.skip[n] = true
		}
	}
}

// NewRunner creates a runner over the given ordered steps.
func NewRunner(steps []Step, opts ...RunnerOption) *Runner {
	r := &Runner{
		steps:  steps,
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the steps in order and returns a result per step.
//
// The error return is non-nil when the run was aborted: a step failed
// without continueOnError, the context was canceled, or a --only/--skip
// name did not match any step. Per-step failures are always available in
// the results regardless.
func (r *Runner) Run(ctx context.Context) ([]Result, error) {
	if err := r.validateSelection(); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(r.steps))

	for _, s := range r.steps {
		if err := ctx.Err(); err != nil {
			return results, fmt.Errorf("provisioning aborted: %w", err)
		}

		if r.excluded(s.Name()) {
			r.logger.Debug("step excluded from run", "step", s.Name())
			results = append(results, Result{Name: s.Name(), Outcome: OutcomeSkipped})
			continue
		}

		res := r.runStep(ctx, s)
		results = append(results, res)

		if res.Failed() && !r.continueOnError {
			return results, fmt.Errorf("step %s failed: %w", s.Name(), res.Err)
		}
	}

	return results, nil
}

// runStep checks and, when needed, applies a single step.
func (r *Runner) runStep(ctx context.Context, s Step) Result {
	start := time.Now()

	status, err := s.Check(ctx)
	if err != nil {
		// A failing probe is not fatal: treat the step as missing and let
		// Apply surface the real problem.
		r.logger.Debug("step check failed", "step", s.Name(), "err", err)
		status = StatusMissing
	}

	if status == StatusSatisfied {
		r.logger.Info("already satisfied", "step", s.Name())
		return Result{Name: s.Name(), Outcome: OutcomeAlreadySatisfied, Duration: time.Since(start)}
	}

	if s.Optional() && r.confirm != nil && !r.confirm(s.Summary()) {
		r.logger.Info("declined", "step", s.Name())
		return Result{Name: s.Name(), Outcome: OutcomeDeclined, Duration: time.Since(start)}
	}

	r.logger.Info("applying", "step", s.Name(), "summary", s.Summary())
	if err := s.Apply(ctx); err != nil {
		r.logger.Error("step failed", "step", s.Name(), "err", err)
		return Result{Name: s.Name(), Outcome: OutcomeFailed, Err: err, Duration: time.Since(start)}
	}

	r.logger.Info("applied", "step", s.Name(), "duration", time.Since(start).Round(time.Millisecond))
	return Result{Name: s.Name(), Outcome: OutcomeApplied, Duration: time.Since(start)}
}

// excluded reports whether the named step is outside the run selection.
func (r *Runner) excluded(name string) bool {
	if r.skip[name] {
		return true
	}
	if r.only != nil && !r.only[name] {
		return true
	}
	return false
}

// validateSelection rejects --only/--skip names that match no step,
// catching typos before anything runs.
func (r *Runner) validateSelection() error {
	known := make(map[string]bool, len(r.steps))
	for _, s := range r.steps {
		known[s.Name()] = true
	}
	for name := range r.only {
		if !known[name] {
			return fmt.Errorf("unknown step in --only: %s", name)
		}
	}
	for name := range r.skip {
		if !known[name] {
			return fmt.Errorf("unknown step in --skip: %s", name)
		}
	}
	return nil
}
