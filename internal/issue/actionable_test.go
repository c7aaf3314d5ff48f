// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"strings"
	"testing"
)

func TestActionableErrorMessage(t *testing.T) {
	cause := errors.New("exit status 100")
	err := NewErrorContext().
		WithOperation("install packages").
		WithResource("openssh").
		Wrap(cause).
		BuildError()

	want := "failed to install packages: openssh: exit status 100"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
}

func TestActionableErrorFormatSuggestions(t *testing.T) {
	ae := NewErrorContext().
		WithOperation("enable ssh daemon").
		WithSuggestion("Check that port 8022 is free").
		WithSuggestion("Run 'termhost doctor'").
		Build()

	out := ae.Format(false)
	if !strings.Contains(out, "• Check that port 8022 is free") {
		t.Errorf("Format() missing first suggestion:\n%s", out)
	}
	if !strings.Contains(out, "• Run 'termhost doctor'") {
		t.Errorf("Format() missing second suggestion:\n%s", out)
	}
	if strings.Contains(out, "Error chain") {
		t.Error("non-verbose Format() should not include error chain")
	}
}

func TestActionableErrorFormatVerboseChain(t *testing.T) {
	inner := errors.New("connection refused")
	mid := WrapWithOperation(inner, "probe ssh port")
	ae := NewErrorContext().
		WithOperation("enable ssh daemon").
		Wrap(mid).
		Build()

	out := ae.Format(true)
	if !strings.Contains(out, "Error chain:") {
		t.Errorf("verbose Format() should include error chain:\n%s", out)
	}
	if !strings.Contains(out, "connection refused") {
		t.Errorf("verbose Format() should include innermost error:\n%s", out)
	}
}

func TestWrapWithOperationNil(t *testing.T) {
	if got := WrapWithOperation(nil, "anything"); got != nil {
		t.Errorf("WrapWithOperation(nil) = %v, want nil", got)
	}
}

func TestBuildRequiresOperation(t *testing.T) {
	if err := NewErrorContext().WithResource("x").BuildError(); err != nil {
		t.Errorf("BuildError() without operation = %v, want nil", err)
	}
}
