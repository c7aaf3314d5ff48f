// SPDX-License-Identifier: MPL-2.0

package hooks

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunCaptureOutput(t *testing.T) {
	r := NewRunner(WithWorkDir(t.TempDir()))

	result, err := r.RunCapture(context.Background(), "greet", `echo "hello from hook"`)
	if err != nil {
		t.Fatalf("RunCapture() error: %v", err)
	}
	if result.ExitCode != 0 {
		t.Errorf("ExitCode = %d", result.ExitCode)
	}
	if !strings.Contains(result.Output, "hello from hook") {
		t.Errorf("Output = %q", result.Output)
	}
}

func TestRunNonZeroExit(t *testing.T) {
	r := NewRunner(WithWorkDir(t.TempDir()))

	result, err := r.RunCapture(context.Background(), "fail", "exit 3")
	if err != nil {
		t.Fatalf("RunCapture() error: %v", err)
	}
	if result.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", result.ExitCode)
	}
	if result.Error != nil {
		t.Errorf("non-zero exit must not set Error, got %v", result.Error)
	}
}

func TestRunParseError(t *testing.T) {
	r := NewRunner()

	if _, err := r.Run(context.Background(), "broken", "if then fi ((("); err == nil {
		t.Fatal("Run() should fail on unparseable script")
	}
}

func TestValidate(t *testing.T) {
	snippets := []string{
		`echo "hello"`,
		"for name in one two; do\n  touch \"$name\"\ndone\n",
	}
	if err := Validate(snippets); err != nil {
		t.Fatalf("Validate() error on well-formed snippets: %v", err)
	}

	broken := append(snippets, "if [ -t 0 ]; then echo tty")
	err := Validate(broken)
	if err == nil {
		t.Fatal("Validate() should fail on an unterminated if")
	}
	if !strings.Contains(err.Error(), "hook[2]") {
		t.Errorf("error %q does not name the offending hook", err)
	}
}

func TestRunEnvOverride(t *testing.T) {
	r := NewRunner(
		WithWorkDir(t.TempDir()),
		WithEnv("TERMHOST_STEP=post-up"),
	)

	result, err := r.RunCapture(context.Background(), "env", `echo "step=$TERMHOST_STEP"`)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(result.Output, "step=post-up") {
		t.Errorf("Output = %q", result.Output)
	}
}

func TestRunWorkDir(t *testing.T) {
	dir := t.TempDir()
	r := NewRunner(WithWorkDir(dir))

	result, err := r.RunCapture(context.Background(), "pwd", "pwd")
	if err != nil {
		t.Fatal(err)
	}
	got := strings.TrimSpace(result.Output)
	// Resolve symlinks: macOS tempdirs live under /private.
	want, _ := filepath.EvalSymlinks(dir)
	gotResolved, _ := filepath.EvalSymlinks(got)
	if gotResolved != want {
		t.Errorf("pwd = %q, want %q", got, want)
	}
}

func TestRunShellFeatures(t *testing.T) {
	dir := t.TempDir()
	r := NewRunner(WithWorkDir(dir))

	script := `
for name in one two; do
  touch "$name.txt"
done
ls *.txt | wc -l
`
	result, err := r.RunCapture(context.Background(), "features", script)
	if err != nil {
		t.Fatal(err)
	}
	if result.ExitCode != 0 {
		t.Fatalf("ExitCode = %d, stderr: %s", result.ExitCode, result.ErrOutput)
	}
	if strings.TrimSpace(result.Output) != "2" {
		t.Errorf("Output = %q, want 2", result.Output)
	}
	for _, name := range []string{"one.txt", "two.txt"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("hook did not create %s: %v", name, err)
		}
	}
}

func TestRunAllStopsOnFailure(t *testing.T) {
	r := NewRunner(WithWorkDir(t.TempDir()), WithStdIO(nil, nil, nil))

	results, err := r.RunAll(context.Background(), []string{
		"true",
		"exit 7",
		"true",
	})
	if err == nil {
		t.Fatal("RunAll() should fail at the second hook")
	}
	if len(results) != 2 {
		t.Errorf("ran %d hooks, want 2", len(results))
	}
	if results[1].ExitCode != 7 {
		t.Errorf("second hook exit = %d, want 7", results[1].ExitCode)
	}
}

func TestRunContextCancellation(t *testing.T) {
	r := NewRunner(WithWorkDir(t.TempDir()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := r.RunCapture(ctx, "sleepy", "sleep 30")
	if err != nil {
		t.Fatalf("RunCapture() error: %v", err)
	}
	if result.ExitCode == 0 && result.Error == nil {
		t.Error("cancelled hook reported success")
	}
}
