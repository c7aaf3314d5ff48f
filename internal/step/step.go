// SPDX-License-Identifier: MPL-2.0

package step

import (
	"context"
	"time"
)

const (
	// StatusUnknown means the probe could not determine satisfaction.
	StatusUnknown Status = iota
	// StatusSatisfied means the step's effect is already in place.
	StatusSatisfied
	// StatusMissing means the step still needs to run.
	StatusMissing
)

const (
	// OutcomeApplied means Apply ran and succeeded.
	OutcomeApplied Outcome = iota
	// OutcomeAlreadySatisfied means Check reported satisfied and Apply was skipped.
	OutcomeAlreadySatisfied
	// OutcomeDeclined means the user declined an optional step.
	OutcomeDeclined
	// OutcomeSkipped means the step was excluded from the run (--skip / --only).
	OutcomeSkipped
	// OutcomeFailed means Apply returned an error.
	OutcomeFailed
)

type (
	// Status is the result of probing a step for satisfaction.
	Status int

	// Outcome is what happened to a step during a run.
	Outcome int

	// Step is one idempotent unit of provisioning.
	//
	// Check must never mutate the system; Apply must tolerate being run
	// again after a partial failure. Neither may prompt the user directly —
	// interaction goes through the Runner's ConfirmFunc.
	Step interface {
		// Name is the stable identifier used by --only/--skip and the receipt.
		Name() string
		// Summary is a one-line human description shown before the step runs.
		Summary() string
		// Optional reports whether the runner should ask before applying.
		Optional() bool
		// Check probes the live system for whether the step is already satisfied.
		Check(ctx context.Context) (Status, error)
		// Apply performs the provisioning action.
		Apply(ctx context.Context) error
	}

	// Result records what happened to one step during a run.
	Result struct {
		// Name is the step's identifier.
		Name string
		// Outcome is what happened.
		Outcome Outcome
		// Err is set when Outcome is OutcomeFailed.
		Err error
		// Duration is how long Check+Apply took.
		Duration time.Duration
	}
)

// String returns a human-readable status.
func (s Status) String() string {
	switch s {
	case StatusSatisfied:
		return "satisfied"
	case StatusMissing:
		return "missing"
	default:
		return "unknown"
	}
}

// String returns a human-readable outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeAlreadySatisfied:
		return "already satisfied"
	case OutcomeDeclined:
		return "declined"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Failed reports whether the result represents a failure.
func (r Result) Failed() bool {
	return r.Outcome == OutcomeFailed
}
