// SPDX-License-Identifier: MPL-2.0

// Package distro manages user-space Linux containers through proot-distro,
// the container bootstrap tool shipped with Termux. Containers run without
// root or namespaces, so "installed" simply means the rootfs has been
// unpacked under the proot-distro state directory.
package distro

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"termhost/internal/clitool"
	"termhost/internal/platform"
)

// ErrInvalidAlias is the sentinel error wrapped by InvalidAliasError.
var ErrInvalidAlias = errors.New("invalid distribution alias")

// supportedAliases lists the distributions termhost knows how to
// provision. proot-distro supports more; these are the ones with known
// good package managers for the post-install hook.
var supportedAliases = map[Alias]bool{
	"ubuntu":    true,
	"debian":    true,
	"alpine":    true,
	"archlinux": true,
	"fedora":    true,
}

type (
	// Alias is a proot-distro distribution alias, e.g. "ubuntu".
	Alias string

	// InvalidAliasError is returned for an alias termhost does not
	// support. It wraps ErrInvalidAlias for errors.Is().
	InvalidAliasError struct {
		Value Alias
	}

	// Bootstrapper installs and enters user-space Linux containers.
	Bootstrapper interface {
		// Available reports whether the bootstrap tool is usable.
		Available() bool
		// Installed reports whether the distribution's rootfs exists.
		Installed(alias Alias) bool
		// Install unpacks the distribution rootfs.
		Install(ctx context.Context, alias Alias) error
		// Remove deletes the distribution rootfs.
		Remove(ctx context.Context, alias Alias) error
		// ListInstalled returns the aliases with an unpacked rootfs.
		ListInstalled() ([]Alias, error)
		// Exec runs a command inside the container and returns its output.
		Exec(ctx context.Context, alias Alias, argv ...string) (string, error)
		// Login opens an interactive shell inside the container.
		Login(ctx context.Context, alias Alias) error
	}

	// Option configures a ProotDistro.
	Option func(*ProotDistro)

	// ProotDistro is the proot-distro backed Bootstrapper.
	ProotDistro struct {
		tool      *clitool.Tool
		rootfsDir string
	}
)

// String returns the alias as a string.
func (a Alias) String() string { return string(a) }

// Validate returns nil for a supported distribution alias.
//
//goplint:nonzero
func (a Alias) Validate() error {
	if !supportedAliases[a] {
		return &InvalidAliasError{Value: a}
	}
	return nil
}

// SupportedAliases returns the supported aliases in sorted order.
func SupportedAliases() []Alias {
	aliases := make([]Alias, 0, len(supportedAliases))
	for a := range supportedAliases {
		aliases = append(aliases, a)
	}
	sort.Slice(aliases, func(i, j int) bool { return aliases[i] < aliases[j] })
	return aliases
}

// Error implements the error interface for InvalidAliasError.
func (e *InvalidAliasError) Error() string {
	names := make([]string, 0, len(supportedAliases))
	for _, a := range SupportedAliases() {
		names = append(names, a.String())
	}
	return fmt.Sprintf("invalid distribution alias %q (supported: %s)", e.Value, strings.Join(names, ", "))
}

// Unwrap returns ErrInvalidAlias for errors.Is() compatibility.
func (e *InvalidAliasError) Unwrap() error { return ErrInvalidAlias }

// WithToolOptions forwards options to the proot-distro CLI tool (tests).
func WithToolOptions(opts ...clitool.ToolOption) Option {
	return func(p *ProotDistro) {
		p.tool = clitool.New("proot-distro", opts...)
	}
}

// WithRootfsDir overrides the installed-rootfs directory (tests).
func WithRootfsDir(dir string) Option {
	return func(p *ProotDistro) {
		p.rootfsDir = dir
	}
}

// NewProotDistro creates the adapter with platform defaults. The rootfs
// directory matches proot-distro's own layout under $PREFIX.
func NewProotDistro(opts ...Option) *ProotDistro {
	p := &ProotDistro{
		tool:      clitool.New("proot-distro"),
		rootfsDir: filepath.Join(platform.Prefix(), "var", "lib", "proot-distro", "installed-rootfs"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Available reports whether the proot-distro binary is present.
func (p *ProotDistro) Available() bool {
	return p.tool.Available()
}

// Installed reports whether the alias has an unpacked rootfs.
func (p *ProotDistro) Installed(alias Alias) bool {
	info, err := os.Stat(filepath.Join(p.rootfsDir, alias.String()))
	return err == nil && info.IsDir()
}

// Install unpacks the distribution rootfs. proot-distro is itself
// idempotent here, failing fast when the rootfs already exists, so the
// caller checks Installed first.
func (p *ProotDistro) Install(ctx context.Context, alias Alias) error {
	if err := alias.Validate(); err != nil {
		return err
	}
	return p.tool.RunCommand(ctx, "install", alias.String())
}

// Remove deletes the distribution rootfs.
func (p *ProotDistro) Remove(ctx context.Context, alias Alias) error {
	if err := alias.Validate(); err != nil {
		return err
	}
	return p.tool.RunCommand(ctx, "remove", alias.String())
}

// ListInstalled returns aliases with an unpacked rootfs, sorted. The
// rootfs directory not existing yet just means nothing is installed.
func (p *ProotDistro) ListInstalled() ([]Alias, error) {
	entries, err := os.ReadDir(p.rootfsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read rootfs directory: %w", err)
	}

	var aliases []Alias
	for _, entry := range entries {
		if entry.IsDir() {
			aliases = append(aliases, Alias(entry.Name()))
		}
	}
	sort.Slice(aliases, func(i, j int) bool { return aliases[i] < aliases[j] })
	return aliases, nil
}

// Exec runs a command inside the container via `proot-distro login -- ...`
// and returns combined stdout.
func (p *ProotDistro) Exec(ctx context.Context, alias Alias, argv ...string) (string, error) {
	if err := alias.Validate(); err != nil {
		return "", err
	}
	args := append([]string{"login", alias.String(), "--"}, argv...)
	return p.tool.RunCommandWithOutput(ctx, args...)
}

// Login opens an interactive shell inside the container, attached to the
// caller's terminal.
func (p *ProotDistro) Login(ctx context.Context, alias Alias) error {
	if err := alias.Validate(); err != nil {
		return err
	}
	if !p.tool.Available() {
		return &clitool.NotAvailableError{Tool: "proot-distro", Reason: "binary not found on PATH"}
	}

	cmd := p.tool.CreateCommand(ctx, "login", alias.String())
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
