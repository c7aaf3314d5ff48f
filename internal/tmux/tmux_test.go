// SPDX-License-Identifier: MPL-2.0

package tmux

import (
	"os"
	"strings"
	"testing"
)

func TestWriteConfRendersSettings(t *testing.T) {
	m := NewManager(WithHomeDir(t.TempDir()))

	cfg := Config{Mouse: true, Prefix: "C-a", HistoryLimit: 50000}
	if err := m.WriteConf(cfg); err != nil {
		t.Fatalf("WriteConf() error: %v", err)
	}

	data, err := os.ReadFile(m.ConfPath())
	if err != nil {
		t.Fatalf("reading tmux.conf: %v", err)
	}
	content := string(data)

	for _, want := range []string{
		managedMarker,
		"set -g mouse on",
		"set -g prefix C-a",
		"set -g history-limit 50000",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("tmux.conf missing %q:\n%s", want, content)
		}
	}
	if !m.Configured() {
		t.Error("Configured() = false after WriteConf")
	}
}

func TestWriteConfDefaultsOmitOptionalLines(t *testing.T) {
	m := NewManager(WithHomeDir(t.TempDir()))

	if err := m.WriteConf(Config{}); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(m.ConfPath())
	content := string(data)

	if strings.Contains(content, "mouse on") {
		t.Error("mouse line rendered when disabled")
	}
	if strings.Contains(content, "set -g prefix") {
		t.Error("prefix line rendered for empty prefix")
	}
}

func TestWriteConfBacksUpForeignFile(t *testing.T) {
	home := t.TempDir()
	m := NewManager(WithHomeDir(home))

	foreign := "set -g status off\n"
	if err := os.WriteFile(m.ConfPath(), []byte(foreign), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := m.WriteConf(Config{Mouse: true}); err != nil {
		t.Fatal(err)
	}

	backup, err := os.ReadFile(m.ConfPath() + ".orig")
	if err != nil {
		t.Fatalf("expected foreign conf backup: %v", err)
	}
	if string(backup) != foreign {
		t.Errorf("backup = %q, want original content", backup)
	}

	// Managed rewrites must not clobber the backup.
	if err := m.WriteConf(Config{}); err != nil {
		t.Fatal(err)
	}
	backup2, _ := os.ReadFile(m.ConfPath() + ".orig")
	if string(backup2) != foreign {
		t.Error("backup overwritten by managed rewrite")
	}
}

func TestInstallAutostartIdempotent(t *testing.T) {
	home := t.TempDir()
	m := NewManager(WithHomeDir(home))

	userLines := "export EDITOR=vim\n"
	if err := os.WriteFile(m.ProfilePath(), []byte(userLines), 0o644); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		if err := m.InstallAutostart(); err != nil {
			t.Fatalf("InstallAutostart() error: %v", err)
		}
	}

	data, _ := os.ReadFile(m.ProfilePath())
	content := string(data)

	if !strings.Contains(content, userLines) {
		t.Error("user profile lines were lost")
	}
	if got := strings.Count(content, autostartBegin); got != 1 {
		t.Errorf("snippet appears %d times, want 1", got)
	}
	if !strings.Contains(content, "tmux new-session -A -s services") {
		t.Error("snippet missing attach to the services session")
	}
	if !m.AutostartInstalled() {
		t.Error("AutostartInstalled() = false after install")
	}
}

func TestInstallAutostartCreatesProfile(t *testing.T) {
	m := NewManager(WithHomeDir(t.TempDir()))

	if err := m.InstallAutostart(); err != nil {
		t.Fatalf("InstallAutostart() error: %v", err)
	}
	if !m.AutostartInstalled() {
		t.Error("AutostartInstalled() = false on a fresh profile")
	}
}

func TestRemoveAutostart(t *testing.T) {
	home := t.TempDir()
	m := NewManager(WithHomeDir(home))

	userLines := "alias ll='ls -la'\n"
	if err := os.WriteFile(m.ProfilePath(), []byte(userLines), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := m.InstallAutostart(); err != nil {
		t.Fatal(err)
	}

	if err := m.RemoveAutostart(); err != nil {
		t.Fatalf("RemoveAutostart() error: %v", err)
	}

	data, _ := os.ReadFile(m.ProfilePath())
	content := string(data)
	if strings.Contains(content, autostartBegin) || strings.Contains(content, "tmux new-session") {
		t.Errorf("snippet not removed:\n%s", content)
	}
	if !strings.Contains(content, userLines) {
		t.Error("user profile lines were lost on removal")
	}
}

func TestRemoveAutostartMissingProfile(t *testing.T) {
	m := NewManager(WithHomeDir(t.TempDir()))
	if err := m.RemoveAutostart(); err != nil {
		t.Errorf("RemoveAutostart() on missing profile: %v", err)
	}
}

func TestRemoveSnippetTruncatedRegion(t *testing.T) {
	// Hand-edited profile lost the end marker; everything from the begin
	// marker down is dropped.
	content := "export A=1\n" + autostartBegin + "\ntmux new-session\n"
	got := removeSnippet(content)
	if strings.Contains(got, autostartBegin) {
		t.Errorf("begin marker survived: %q", got)
	}
	if !strings.Contains(got, "export A=1") {
		t.Errorf("user content lost: %q", got)
	}
}
