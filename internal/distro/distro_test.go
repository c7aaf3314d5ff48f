// SPDX-License-Identifier: MPL-2.0

package distro

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"termhost/internal/clitool"
	"termhost/internal/testutil"
)

func TestHelperProcess(t *testing.T) {
	testutil.RunHelperProcess()
}

func mockedProot(t *testing.T, recorder *testutil.MockCommandRecorder, rootfs string) *ProotDistro {
	t.Helper()
	return NewProotDistro(
		WithRootfsDir(rootfs),
		WithToolOptions(
			clitool.WithBinaryPath("/usr/bin/proot-distro"),
			clitool.WithExecCommand(recorder.CommandFunc(t)),
		),
	)
}

func TestAliasValidate(t *testing.T) {
	for _, alias := range SupportedAliases() {
		if err := alias.Validate(); err != nil {
			t.Errorf("Validate(%s) = %v", alias, err)
		}
	}

	err := Alias("gentoo").Validate()
	if !errors.Is(err, ErrInvalidAlias) {
		t.Errorf("Validate(gentoo) = %v, want ErrInvalidAlias", err)
	}

	var aliasErr *InvalidAliasError
	if !errors.As(err, &aliasErr) {
		t.Fatalf("error is not *InvalidAliasError: %v", err)
	}
	if aliasErr.Value != "gentoo" {
		t.Errorf("Value = %s, want gentoo", aliasErr.Value)
	}
}

func TestSupportedAliasesSorted(t *testing.T) {
	aliases := SupportedAliases()
	if len(aliases) != 5 {
		t.Fatalf("got %d aliases, want 5", len(aliases))
	}
	for i := 1; i < len(aliases); i++ {
		if aliases[i-1] >= aliases[i] {
			t.Errorf("aliases not sorted: %v", aliases)
		}
	}
}

func TestInstallArgs(t *testing.T) {
	recorder := testutil.NewMockCommandRecorder()
	p := mockedProot(t, recorder, t.TempDir())

	if err := p.Install(context.Background(), "ubuntu"); err != nil {
		t.Fatalf("Install() error: %v", err)
	}
	recorder.AssertArgsContainAll(t, []string{"install", "ubuntu"})
}

func TestInstallRejectsUnknownAlias(t *testing.T) {
	recorder := testutil.NewMockCommandRecorder()
	p := mockedProot(t, recorder, t.TempDir())

	err := p.Install(context.Background(), "slackware")
	if !errors.Is(err, ErrInvalidAlias) {
		t.Fatalf("Install(slackware) = %v, want ErrInvalidAlias", err)
	}
	if len(recorder.Invocations) != 0 {
		t.Error("invalid alias must not reach proot-distro")
	}
}

func TestRemoveArgs(t *testing.T) {
	recorder := testutil.NewMockCommandRecorder()
	p := mockedProot(t, recorder, t.TempDir())

	if err := p.Remove(context.Background(), "alpine"); err != nil {
		t.Fatalf("Remove() error: %v", err)
	}
	recorder.AssertArgsContainAll(t, []string{"remove", "alpine"})
}

func TestExecArgs(t *testing.T) {
	recorder := testutil.NewMockCommandRecorder()
	recorder.Stdout = "Ubuntu 24.04 LTS"
	p := mockedProot(t, recorder, t.TempDir())

	out, err := p.Exec(context.Background(), "ubuntu", "cat", "/etc/issue")
	if err != nil {
		t.Fatalf("Exec() error: %v", err)
	}
	if out != "Ubuntu 24.04 LTS" {
		t.Errorf("Exec() output = %q", out)
	}
	recorder.AssertArgsContainAll(t, []string{"login", "ubuntu", "--", "cat", "/etc/issue"})
}

func TestInstalledChecksRootfs(t *testing.T) {
	rootfs := t.TempDir()
	p := mockedProot(t, testutil.NewMockCommandRecorder(), rootfs)

	if p.Installed("ubuntu") {
		t.Error("Installed() = true for missing rootfs")
	}

	if err := os.MkdirAll(filepath.Join(rootfs, "ubuntu"), 0o755); err != nil {
		t.Fatal(err)
	}
	if !p.Installed("ubuntu") {
		t.Error("Installed() = false for existing rootfs")
	}

	// A stray file must not count as an installed distribution.
	if err := os.WriteFile(filepath.Join(rootfs, "debian"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if p.Installed("debian") {
		t.Error("Installed() = true for a plain file")
	}
}

func TestListInstalled(t *testing.T) {
	rootfs := t.TempDir()
	p := mockedProot(t, testutil.NewMockCommandRecorder(), rootfs)

	for _, alias := range []string{"ubuntu", "alpine"} {
		if err := os.MkdirAll(filepath.Join(rootfs, alias), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	got, err := p.ListInstalled()
	if err != nil {
		t.Fatalf("ListInstalled() error: %v", err)
	}
	want := []Alias{"alpine", "ubuntu"}
	if len(got) != len(want) {
		t.Fatalf("ListInstalled() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ListInstalled()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestListInstalledMissingDir(t *testing.T) {
	p := mockedProot(t, testutil.NewMockCommandRecorder(), filepath.Join(t.TempDir(), "nope"))

	got, err := p.ListInstalled()
	if err != nil {
		t.Fatalf("ListInstalled() error: %v", err)
	}
	if got != nil {
		t.Errorf("ListInstalled() = %v, want nil", got)
	}
}
