// SPDX-License-Identifier: MPL-2.0

package step

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"
)

// fakeStep is a scriptable Step implementation for runner tests.
type fakeStep struct {
	name     string
	optional bool
	status   Status
	checkErr error
	applyErr error

	checkCalls int
	applyCalls int
}

func (f *fakeStep) Name() string    { return f.name }
func (f *fakeStep) Summary() string { return "fake step " + f.name }
func (f *fakeStep) Optional() bool  { return f.optional }

func (f *fakeStep) Check(context.Context) (Status, error) {
	f.checkCalls++
	return f.status, f.checkErr
}

func (f *fakeStep) Apply(context.Context) error {
	f.applyCalls++
	return f.applyErr
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func TestRunnerAppliesMissingSteps(t *testing.T) {
	a := &fakeStep{name: "a", status: StatusMissing}
	b := &fakeStep{name: "b", status: StatusMissing}

	runner := NewRunner([]Step{a, b}, WithLogger(quietLogger()))
	results, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	for _, res := range results {
		if res.Outcome != OutcomeApplied {
			t.Errorf("step %s outcome = %s, want applied", res.Name, res.Outcome)
		}
	}
	if a.applyCalls != 1 || b.applyCalls != 1 {
		t.Errorf("apply calls = %d/%d, want 1/1", a.applyCalls, b.applyCalls)
	}
}

func TestRunnerSkipsSatisfiedSteps(t *testing.T) {
	s := &fakeStep{name: "a", status: StatusSatisfied}

	runner := NewRunner([]Step{s}, WithLogger(quietLogger()))
	results, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if results[0].Outcome != OutcomeAlreadySatisfied {
		t.Errorf("outcome = %s, want already satisfied", results[0].Outcome)
	}
	if s.applyCalls != 0 {
		t.Errorf("Apply called %d times on satisfied step", s.applyCalls)
	}
}

func TestRunnerStopsOnFailure(t *testing.T) {
	failing := &fakeStep{name: "a", status: StatusMissing, applyErr: errors.New("boom")}
	after := &fakeStep{name: "b", status: StatusMissing}

	runner := NewRunner([]Step{failing, after}, WithLogger(quietLogger()))
	results, err := runner.Run(context.Background())
	if err == nil {
		t.Fatal("expected run error after step failure")
	}

	if len(results) != 1 {
		t.Fatalf("got %d results, want 1 (run aborted)", len(results))
	}
	if !results[0].Failed() {
		t.Error("first result should be a failure")
	}
	if after.applyCalls != 0 {
		t.Error("steps after a failure should not run")
	}
}

func TestRunnerContinueOnError(t *testing.T) {
	failing := &fakeStep{name: "a", status: StatusMissing, applyErr: errors.New("boom")}
	after := &fakeStep{name: "b", status: StatusMissing}

	runner := NewRunner([]Step{failing, after},
		WithLogger(quietLogger()),
		WithContinueOnError(),
	)
	results, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Outcome != OutcomeFailed || results[1].Outcome != OutcomeApplied {
		t.Errorf("outcomes = %s/%s", results[0].Outcome, results[1].Outcome)
	}
}

func TestRunnerOptionalStepDeclined(t *testing.T) {
	opt := &fakeStep{name: "distro", optional: true, status: StatusMissing}

	runner := NewRunner([]Step{opt},
		WithLogger(quietLogger()),
		WithConfirm(func(string) bool { return false }),
	)
	results, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if results[0].Outcome != OutcomeDeclined {
		t.Errorf("outcome = %s, want declined", results[0].Outcome)
	}
	if opt.applyCalls != 0 {
		t.Error("declined step should not apply")
	}
}

func TestRunnerOptionalStepWithoutConfirmRuns(t *testing.T) {
	opt := &fakeStep{name: "distro", optional: true, status: StatusMissing}

	runner := NewRunner([]Step{opt}, WithLogger(quietLogger()))
	results, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if results[0].Outcome != OutcomeApplied {
		t.Errorf("outcome = %s, want applied (no confirm = --yes)", results[0].Outcome)
	}
}

func TestRunnerCheckErrorFallsThroughToApply(t *testing.T) {
	s := &fakeStep{name: "a", checkErr: errors.New("probe failed"), status: StatusUnknown}

	runner := NewRunner([]Step{s}, WithLogger(quietLogger()))
	results, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if results[0].Outcome != OutcomeApplied {
		t.Errorf("outcome = %s, want applied despite check error", results[0].Outcome)
	}
	if s.applyCalls != 1 {
		t.Errorf("apply calls = %d, want 1", s.applyCalls)
	}
}

func TestRunnerOnlyAndSkip(t *testing.T) {
	a := &fakeStep{name: "a", status: StatusMissing}
	b := &fakeStep{name: "b", status: StatusMissing}
	c := &fakeStep{name: "c", status: StatusMissing}

	runner := NewRunner([]Step{a, b, c},
		WithLogger(quietLogger()),
		WithOnly([]string{"a", "c"}),
		WithSkip([]string{"c"}),
	)
	results, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	want := map[string]Outcome{
		"a": OutcomeApplied,
		"b": OutcomeSkipped,
		"c": OutcomeSkipped,
	}
	for _, res := range results {
		if res.Outcome != want[res.Name] {
			t.Errorf("step %s outcome = %s, want %s", res.Name, res.Outcome, want[res.Name])
		}
	}
}

func TestRunnerRejectsUnknownSelection(t *testing.T) {
	a := &fakeStep{name: "a", status: StatusMissing}

	runner := NewRunner([]Step{a},
		WithLogger(quietLogger()),
		WithOnly([]string{"nonexistent"}),
	)
	if _, err := runner.Run(context.Background()); err == nil {
		t.Fatal("expected error for unknown --only name")
	}
	if a.applyCalls != 0 {
		t.Error("no step should run when selection validation fails")
	}
}

func TestRunnerContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := &fakeStep{name: "a", status: StatusMissing}
	runner := NewRunner([]Step{a}, WithLogger(quietLogger()))

	_, err := runner.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if a.applyCalls != 0 {
		t.Error("canceled run should not apply steps")
	}
}
